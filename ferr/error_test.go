package ferr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusTable(t *testing.T) {
	cases := map[string]int{
		"400":             http.StatusBadRequest,
		"401":             http.StatusUnauthorized,
		"403":             http.StatusForbidden,
		"404":             http.StatusNotFound,
		"406":             http.StatusNotAcceptable,
		"408":             http.StatusRequestTimeout,
		"409":             http.StatusConflict,
		"500":             http.StatusInternalServerError,
		"501":             http.StatusNotImplemented,
		"502":             http.StatusBadGateway,
		"503":             http.StatusServiceUnavailable,
		"504":             http.StatusGatewayTimeout,
		"500-mymod-x-y":   http.StatusInternalServerError,
		"409-ext-obj-op":  http.StatusConflict,
		"-1":              http.StatusInternalServerError,
		"nonsense-prefix": http.StatusInternalServerError,
	}
	for code, want := range cases {
		e := &Error{Code: code, Message: "boom"}
		assert.Equal(t, want, e.HTTPStatus(), code)
	}
}

func TestWrapPreservesFrameworkError(t *testing.T) {
	original := Conflict("duplicate")
	wrapped := Wrap(original)
	assert.Same(t, original, wrapped)
}

func TestWrapForeignError(t *testing.T) {
	foreign := errors.New("boom")
	wrapped := Wrap(foreign)
	assert.Equal(t, "-1", wrapped.Code)
	assert.Equal(t, "boom", wrapped.Message)
	assert.ErrorIs(t, wrapped, foreign)
}

func TestWithExtCodeShape(t *testing.T) {
	e := WithExt("400", "mymod", "obj", "op", "bad stuff")
	assert.Equal(t, "400-mymod-obj-op", e.Code)
}

func TestErrorIsComparesCode(t *testing.T) {
	a := Conflict("one")
	b := Conflict("two")
	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, NotFound("three")))
}
