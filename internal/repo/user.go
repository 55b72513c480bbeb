package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/balkan_kitchen/internal/models"
)

func (r *GormRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) CreateUser(ctx context.Context, user *models.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

// EnsureUser creates user unless the username is taken. It reports whether
// a row was written.
func (r *GormRepo) EnsureUser(ctx context.Context, user *models.User) (bool, error) {
	_, err := r.GetUserByUsername(ctx, user.Username)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, err
	}
	if err := r.CreateUser(ctx, user); err != nil {
		return false, err
	}
	return true, nil
}

func (r *GormRepo) AddRefreshToken(ctx context.Context, tok *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(tok).Error
}

func (r *GormRepo) GetRefreshToken(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var tok models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&tok).Error; err != nil {
		return nil, err
	}
	return &tok, nil
}

// RevokeRefreshToken marks jti revoked. It reports false when the token was
// unknown or already revoked.
func (r *GormRepo) RevokeRefreshToken(ctx context.Context, jti string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("jti = ? AND revoked = ?", jti, false).
		Update("revoked", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at < ?", now.Unix()).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
