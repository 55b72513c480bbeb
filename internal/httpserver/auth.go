package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/balkan_kitchen/internal/auth"
	"github.com/Skotchmaster/balkan_kitchen/internal/logging"
	authmw "github.com/Skotchmaster/balkan_kitchen/internal/middleware/auth"
	"github.com/Skotchmaster/balkan_kitchen/internal/transport"
)

type AuthHTTP struct {
	Svc *auth.Service
	Localizer
}

type SessionResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	IsAdmin  bool   `json:"is_admin"`
}

func (h *AuthHTTP) setCookies(c echo.Context, res *auth.LoginResult) {
	c.SetCookie(auth.CreateCookie(auth.AccessCookie, res.AccessToken, "/", res.AccessExp))
	c.SetCookie(auth.CreateCookie(auth.RefreshCookie, res.RefreshToken, "/", res.RefreshExp))
}

func clearCookies(c echo.Context) {
	c.SetCookie(auth.DeleteCookie(auth.RefreshCookie, "/"))
	c.SetCookie(auth.DeleteCookie(auth.AccessCookie, "/"))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return h.Reject(c, "login_error", http.StatusBadRequest, "invalid_body")
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return h.Fail(c, "login_failed", err)
	}
	h.setCookies(c, res)

	return c.JSON(http.StatusOK, SessionResponse{
		Username: res.User.Username,
		Role:     res.User.Role,
		IsAdmin:  res.IsAdmin(),
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	ck, err := c.Cookie(auth.RefreshCookie)
	if err != nil || ck.Value == "" {
		return h.Reject(c, "refresh_failed", http.StatusUnauthorized, "unauthorized")
	}
	res, err := h.Svc.Refresh(ctx, ck.Value)
	if err != nil {
		clearCookies(c)
		return h.Fail(c, "refresh_failed", err)
	}
	h.setCookies(c, res)

	return c.JSON(http.StatusOK, SessionResponse{
		Username: res.User.Username,
		Role:     res.User.Role,
		IsAdmin:  res.IsAdmin(),
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	if ck, err := c.Cookie(auth.RefreshCookie); err == nil {
		if err := h.Svc.Logout(ctx, ck.Value); err != nil {
			clearCookies(c)
			return h.Fail(c, "logout_failed", err)
		}
	}
	clearCookies(c)

	l.Info("successful_logout")
	return c.NoContent(http.StatusNoContent)
}

// Me reports who is signed in. It sits behind RequireAuth.
func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()

	id, _ := c.Get(authmw.CtxUserID).(string)
	u, err := h.Svc.UserByID(ctx, id)
	if err != nil {
		return h.Fail(c, "me_failed", err)
	}
	return c.JSON(http.StatusOK, SessionResponse{Username: u.Username, Role: u.Role, IsAdmin: u.IsAdmin()})
}
