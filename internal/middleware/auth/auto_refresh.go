package middleware

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/balkan_kitchen/internal/auth"
	"github.com/Skotchmaster/balkan_kitchen/internal/logging"
	"github.com/Skotchmaster/balkan_kitchen/internal/models"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

type AutoRefreshMiddleware struct {
	Auth *auth.Service
}

func NewAutoRefreshMiddleware(svc *auth.Service) *AutoRefreshMiddleware {
	return &AutoRefreshMiddleware{Auth: svc}
}

type ValidatorFunc func(claims *auth.AccessClaims) error

func (m *AutoRefreshMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *AutoRefreshMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, func(claims *auth.AccessClaims) error {
		if claims.Role != models.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

// requireAuthWithValidator accepts a valid access cookie, or an expired one
// paired with a refresh cookie, in which case both cookies are rotated.
func (m *AutoRefreshMiddleware) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("middleware", "auth")

		accessCookie, err := c.Cookie(auth.AccessCookie)
		if err != nil || accessCookie.Value == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := auth.ParseAccessToken(accessCookie.Value, m.Auth.AccessSecret)
		if err == nil {
			if validator != nil {
				if vErr := validator(claims); vErr != nil {
					l.Warn("access_denied", "status", 403, "user_id", claims.Subject)
					return vErr
				}
			}
			setUserContext(c, claims)
			return next(c)
		}

		if !errors.Is(err, jwt.ErrTokenExpired) {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		refreshCookie, rErr := c.Cookie(auth.RefreshCookie)
		if rErr != nil || refreshCookie.Value == "" {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
		}

		res, refErr := m.Auth.Refresh(ctx, refreshCookie.Value)
		if refErr != nil {
			clearAuthCookies(c)
			l.Warn("auto_refresh_failed", "status", 401, "error", refErr)
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh failed")
		}

		c.SetCookie(auth.CreateCookie(auth.AccessCookie, res.AccessToken, "/", res.AccessExp))
		c.SetCookie(auth.CreateCookie(auth.RefreshCookie, res.RefreshToken, "/", res.RefreshExp))

		newClaims, pErr := auth.ParseAccessToken(res.AccessToken, m.Auth.AccessSecret)
		if pErr != nil {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "new access token invalid")
		}
		if validator != nil {
			if vErr := validator(newClaims); vErr != nil {
				return vErr
			}
		}

		setUserContext(c, newClaims)
		return next(c)
	}
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(auth.DeleteCookie(auth.AccessCookie, "/"))
	c.SetCookie(auth.DeleteCookie(auth.RefreshCookie, "/"))
}

func setUserContext(c echo.Context, claims *auth.AccessClaims) {
	c.Set(CtxUserID, claims.Subject)
	c.Set(CtxRole, claims.Role)
}
