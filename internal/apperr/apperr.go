// Package apperr classifies failures of store, network and input handling
// into the small set of kinds the HTTP layer knows how to present.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Kind string

const (
	KindValidation    Kind = "validation"
	KindNetwork       Kind = "network"
	KindTimeout       Kind = "timeout"
	KindAuthorization Kind = "authorization"
	KindConflict      Kind = "conflict"
	KindReference     Kind = "reference"
	KindNotFound      Kind = "not_found"
	KindUnknown       Kind = "unknown"
)

var (
	ErrValidation    = errors.New("validation")
	ErrNetwork       = errors.New("network")
	ErrTimeout       = errors.New("timeout")
	ErrAuthorization = errors.New("authorization")
	ErrConflict      = errors.New("conflict")
	ErrReference     = errors.New("reference")
	ErrNotFound      = errors.New("not found")
)

var sentinelKinds = []struct {
	err  error
	kind Kind
}{
	{ErrValidation, KindValidation},
	{ErrNetwork, KindNetwork},
	{ErrTimeout, KindTimeout},
	{ErrAuthorization, KindAuthorization},
	{ErrConflict, KindConflict},
	{ErrReference, KindReference},
	{ErrNotFound, KindNotFound},
}

// Error is a classified failure. Code is a stable machine-readable reason
// such as "missing_name"; it doubles as the i18n key suffix.
type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Code)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, apperr.ErrValidation) match a classified error.
func (e *Error) Is(target error) bool {
	for _, s := range sentinelKinds {
		if target == s.err {
			return e.Kind == s.kind
		}
	}
	return false
}

func Validation(code string) *Error {
	return &Error{Kind: KindValidation, Code: code}
}

func New(kind Kind, code string, err error) *Error {
	return &Error{Kind: kind, Code: code, Err: err}
}

// Classify maps an arbitrary error to a *Error. Already classified errors
// are returned unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}

	for _, s := range sentinelKinds {
		if errors.Is(err, s.err) {
			return New(s.kind, string(s.kind), err)
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return New(KindTimeout, "timeout", err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return New(KindNotFound, "not_found", err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return New(KindConflict, "duplicate", err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return New(KindReference, "reference", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return New(KindConflict, "duplicate", err)
		case "23503":
			return New(KindReference, "reference", err)
		case "57014":
			return New(KindTimeout, "timeout", err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return New(KindTimeout, "timeout", err)
		}
		return New(KindNetwork, "network", err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return New(KindNetwork, "network", err)
	}

	return New(KindUnknown, "unknown", err)
}

func KindOf(err error) Kind {
	if ce := Classify(err); ce != nil {
		return ce.Kind
	}
	return ""
}

// HTTPStatus is the response code used for each kind.
func HTTPStatus(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindReference:
		return http.StatusConflict
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
