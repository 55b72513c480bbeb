// Package auth signs staff in and out with JWT cookies.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Skotchmaster/balkan_kitchen/internal/logging"
	"github.com/Skotchmaster/balkan_kitchen/internal/models"
	"github.com/Skotchmaster/balkan_kitchen/internal/repo"
)

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or revoked token")
)

type Service struct {
	Repo          *repo.GormRepo
	AccessSecret  []byte
	RefreshSecret []byte

	now func() time.Time
}

func NewService(r *repo.GormRepo, accessSecret, refreshSecret []byte) *Service {
	return &Service{
		Repo:          r,
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		now:           time.Now,
	}
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	User         models.User
}

func (r LoginResult) IsAdmin() bool { return r.User.IsAdmin() }

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *Service) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

// issue signs a token pair for user and records the refresh token hash.
func (s *Service) issue(ctx context.Context, user models.User) (*LoginResult, error) {
	now := s.clock()
	accessExp := now.Add(AccessTTL)
	access, err := CreateAccessToken(s.AccessSecret, user.ID.String(), user.Role, accessExp)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshExp := now.Add(RefreshTTL)
	refresh, jti, err := CreateRefreshToken(s.RefreshSecret, user.ID.String(), refreshExp)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := s.Repo.AddRefreshToken(ctx, &models.RefreshToken{
		Token:     Sha256Hex(refresh),
		UserID:    user.ID,
		JTI:       jti,
		ExpiresAt: refreshExp.Unix(),
	}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		User:         user,
	}, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.Repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown user")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	res, err := s.issue(ctx, *user)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	l.Info("login_successful", "role", user.Role)
	return res, nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued. A token that was already used is rejected.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := ParseRefreshToken(refreshToken, s.RefreshSecret)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "bad token", "error", err)
		return nil, ErrInvalidToken
	}

	stored, err := s.Repo.GetRefreshToken(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "unknown jti")
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if stored.Token != Sha256Hex(refreshToken) || stored.ExpiresAt < s.clock().Unix() {
		l.Warn("refresh_failed", "status", 401, "reason", "hash mismatch or expired")
		return nil, ErrInvalidToken
	}

	ok, err := s.Repo.RevokeRefreshToken(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		l.Warn("refresh_failed", "status", 401, "reason", "token reused", "user_id", stored.UserID)
		return nil, ErrInvalidToken
	}

	user, err := s.Repo.GetUserByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return s.issue(ctx, *user)
}

// Logout revokes the refresh token. Unparseable tokens are ignored since
// there is nothing left to revoke.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := ParseRefreshToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil
	}
	if _, err := s.Repo.RevokeRefreshToken(ctx, claims.ID); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// CurrentUser resolves the user behind a valid access token.
func (s *Service) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := ParseAccessToken(accessToken, s.AccessSecret)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return s.UserByID(ctx, claims.Subject)
}

// UserByID loads the user named by a token subject.
func (s *Service) UserByID(ctx context.Context, subject string) (*models.User, error) {
	id, err := uuid.Parse(subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist.
// An existing account keeps its password.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, ErrMissingCredentials
	}
	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}
	return s.Repo.EnsureUser(ctx, &models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	})
}

// PurgeExpired drops refresh tokens past their expiry.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.Repo.DeleteExpiredRefreshTokens(ctx, s.clock())
}
