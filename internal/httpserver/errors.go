package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/text/language"

	"github.com/Skotchmaster/balkan_kitchen/internal/apperr"
	"github.com/Skotchmaster/balkan_kitchen/internal/auth"
	"github.com/Skotchmaster/balkan_kitchen/internal/cart"
	"github.com/Skotchmaster/balkan_kitchen/internal/i18n"
	"github.com/Skotchmaster/balkan_kitchen/internal/logging"
	"github.com/Skotchmaster/balkan_kitchen/internal/search"
	"github.com/Skotchmaster/balkan_kitchen/internal/storage"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Localizer picks the response language and renders messages.
type Localizer struct {
	T *i18n.Translator
}

// Lang prefers an explicit ?lang= over Accept-Language.
func (lc Localizer) Lang(c echo.Context) language.Tag {
	if q := c.QueryParam("lang"); q != "" {
		return lc.T.Match(q)
	}
	return lc.T.Match(c.Request().Header.Get("Accept-Language"))
}

func (lc Localizer) Msg(c echo.Context, key string, args ...string) string {
	return lc.T.T(lc.Lang(c), key, args...)
}

// Fail logs err and converts it into one localized echo.HTTPError.
func (lc Localizer) Fail(c echo.Context, event string, err error) error {
	status, code := classify(err)
	l := logging.FromContext(c.Request().Context())
	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "code", code, "error", err)
	} else {
		l.Warn(event, "status", status, "code", code, "error", err)
	}
	return echo.NewHTTPError(status, ErrorBody{Code: code, Message: lc.Msg(c, "error."+code)}).SetInternal(err)
}

// Reject is Fail for request problems detected in the handler itself.
func (lc Localizer) Reject(c echo.Context, event string, status int, code string) error {
	logging.FromContext(c.Request().Context()).Warn(event, "status", status, "code", code)
	return echo.NewHTTPError(status, ErrorBody{Code: code, Message: lc.Msg(c, "error."+code)})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusBadRequest, "invalid_quantity"
	case errors.Is(err, cart.ErrInvalidOption):
		return http.StatusBadRequest, "invalid_option"
	case errors.Is(err, cart.ErrLineNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, search.ErrDisabled):
		return http.StatusServiceUnavailable, "search_disabled"
	case errors.Is(err, storage.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "image_too_large"
	case errors.Is(err, storage.ErrUnsupportedType), errors.Is(err, storage.ErrEmpty):
		return http.StatusUnsupportedMediaType, "image_type"
	case errors.Is(err, auth.ErrMissingCredentials):
		return http.StatusBadRequest, "missing_credentials"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "unauthorized"
	}
	ce := apperr.Classify(err)
	return apperr.HTTPStatus(ce.Kind), ce.Code
}
