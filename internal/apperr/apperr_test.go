package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeNetErr struct{ timeout bool }

func (e fakeNetErr) Error() string   { return "net" }
func (e fakeNetErr) Timeout() bool   { return e.timeout }
func (e fakeNetErr) Temporary() bool { return false }

var _ net.Error = fakeNetErr{}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"validation code", Validation("missing_name"), KindValidation},
		{"wrapped sentinel", fmt.Errorf("price must be >= 0: %w", ErrValidation), KindValidation},
		{"deadline", fmt.Errorf("create order: %w", context.DeadlineExceeded), KindTimeout},
		{"not found", gorm.ErrRecordNotFound, KindNotFound},
		{"duplicate", gorm.ErrDuplicatedKey, KindConflict},
		{"fk", gorm.ErrForeignKeyViolated, KindReference},
		{"pg unique", &pgconn.PgError{Code: "23505"}, KindConflict},
		{"pg fk", &pgconn.PgError{Code: "23503"}, KindReference},
		{"net timeout", fakeNetErr{timeout: true}, KindTimeout},
		{"net refused", fakeNetErr{}, KindNetwork},
		{"other", errors.New("boom"), KindUnknown},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.kind, Classify(tt.err).Kind)
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	assert.Nil(t, Classify(nil))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestError_IsSentinel(t *testing.T) {
	err := fmt.Errorf("submit: %w", Validation("empty_cart"))

	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrConflict)

	var ae *Error
	assert.True(t, errors.As(err, &ae))
	assert.Equal(t, "empty_cart", ae.Code)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(KindValidation))
	assert.Equal(t, http.StatusGatewayTimeout, HTTPStatus(KindTimeout))
	assert.Equal(t, http.StatusConflict, HTTPStatus(KindReference))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(KindUnknown))
}
