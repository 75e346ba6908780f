package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	notFound := New(NotFound, "USER_NOT_FOUND", "user not found")

	assert.Equal(t, NotFound, KindOf(notFound))
	assert.Equal(t, NotFound, KindOf(fmt.Errorf("lookup: %w", notFound)))
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
	assert.Equal(t, Internal, KindOf(nil))
}

func TestWrapKeepsIdentity(t *testing.T) {
	base := New(Conflict, "EMAIL_TAKEN", "email already registered")
	cause := errors.New("duplicate key")

	wrapped := Wrap(base, cause)

	assert.ErrorIs(t, wrapped, base)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "email already registered", wrapped.Error())
	assert.Equal(t, "EMAIL_TAKEN", CodeOf(wrapped))
}

func TestNewInternalHidesCause(t *testing.T) {
	err := NewInternal(errors.New("connection refused"))

	assert.Equal(t, Internal, KindOf(err))
	assert.Equal(t, "internal server error", MessageOf(err))
	assert.Equal(t, "internal server error", MessageOf(errors.New("raw")))
}

func TestDefaultCode(t *testing.T) {
	assert.Equal(t, "VALIDATION_ERROR", NewValidation("bad input").Code)
	assert.Equal(t, "INTERNAL_ERROR", CodeOf(errors.New("x")))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		Validation:       http.StatusBadRequest,
		InvalidOrExpired: http.StatusBadRequest,
		Conflict:         http.StatusBadRequest,
		Unauthorized:     http.StatusUnauthorized,
		NotFound:         http.StatusNotFound,
		Internal:         http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), kind.String())
	}
}
