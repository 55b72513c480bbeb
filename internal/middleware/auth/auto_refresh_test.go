package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/balkan_kitchen/internal/auth"
	"github.com/Skotchmaster/balkan_kitchen/internal/db/dbtest"
	"github.com/Skotchmaster/balkan_kitchen/internal/models"
	"github.com/Skotchmaster/balkan_kitchen/internal/repo"
)

func newTestMiddleware(t *testing.T) (*AutoRefreshMiddleware, *auth.Service) {
	t.Helper()
	svc := auth.NewService(repo.New(dbtest.Open(t)), []byte("access"), []byte("refresh"))
	return NewAutoRefreshMiddleware(svc), svc
}

func run(t *testing.T, h echo.HandlerFunc, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, c, h(c)
}

func ok(c echo.Context) error { return c.NoContent(http.StatusOK) }

func statusOf(t *testing.T, err error) int {
	t.Helper()
	he, isHTTP := err.(*echo.HTTPError)
	require.True(t, isHTTP, "%v", err)
	return he.Code
}

func TestRequireAuth_MissingCookie(t *testing.T) {
	m, _ := newTestMiddleware(t)
	_, _, err := run(t, m.RequireAuth(ok))
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestRequireAuth_ValidToken(t *testing.T) {
	m, svc := newTestMiddleware(t)
	tok, err := auth.CreateAccessToken(svc.AccessSecret, "u1", models.RoleUser, time.Now().Add(time.Minute))
	require.NoError(t, err)

	rec, c, err := run(t, m.RequireAuth(ok), &http.Cookie{Name: auth.AccessCookie, Value: tok})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", c.Get(CtxUserID))
	assert.Equal(t, models.RoleUser, c.Get(CtxRole))
}

func TestRequireAdmin_ForbidsUsers(t *testing.T) {
	m, svc := newTestMiddleware(t)
	tok, err := auth.CreateAccessToken(svc.AccessSecret, "u1", models.RoleUser, time.Now().Add(time.Minute))
	require.NoError(t, err)

	_, _, err = run(t, m.RequireAdmin(ok), &http.Cookie{Name: auth.AccessCookie, Value: tok})
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))
}

func TestRequireAuth_TamperedToken(t *testing.T) {
	m, _ := newTestMiddleware(t)
	tok, err := auth.CreateAccessToken([]byte("other"), "u1", models.RoleAdmin, time.Now().Add(time.Minute))
	require.NoError(t, err)

	rec, _, err := run(t, m.RequireAdmin(ok), &http.Cookie{Name: auth.AccessCookie, Value: tok})
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	assert.Contains(t, rec.Header().Values("Set-Cookie")[0], auth.AccessCookie+"=;")
}

func TestRequireAdmin_RefreshesExpiredAccess(t *testing.T) {
	m, svc := newTestMiddleware(t)
	ctx := context.Background()
	_, err := svc.EnsureAdmin(ctx, "admin", "pw")
	require.NoError(t, err)
	login, err := svc.Login(ctx, "admin", "pw")
	require.NoError(t, err)

	expired, err := auth.CreateAccessToken(svc.AccessSecret, login.User.ID.String(), models.RoleAdmin, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	rec, c, err := run(t, m.RequireAdmin(ok),
		&http.Cookie{Name: auth.AccessCookie, Value: expired},
		&http.Cookie{Name: auth.RefreshCookie, Value: login.RefreshToken},
	)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, login.User.ID.String(), c.Get(CtxUserID))
	assert.Len(t, rec.Header().Values("Set-Cookie"), 2)

	// the old refresh token was rotated away
	_, _, err = run(t, m.RequireAdmin(ok),
		&http.Cookie{Name: auth.AccessCookie, Value: expired},
		&http.Cookie{Name: auth.RefreshCookie, Value: login.RefreshToken},
	)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestRequireAuth_ExpiredWithoutRefresh(t *testing.T) {
	m, svc := newTestMiddleware(t)
	expired, err := auth.CreateAccessToken(svc.AccessSecret, "u1", models.RoleAdmin, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, _, err = run(t, m.RequireAuth(ok), &http.Cookie{Name: auth.AccessCookie, Value: expired})
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}
