// Package ferr implements the framework's tagged error taxonomy: a code,
// a message, and an optional localization key, with a uniform conversion
// surface from library-native errors.
package ferr

import (
	"fmt"
	"net/http"
	"strings"
)

// Error is the framework's tagged error. Code is a string of the form
// "<prefix>[-ext[-obj[-op]]]"; the first three characters of prefix select
// the HTTP status via HTTPStatus.
type Error struct {
	Code      string
	Message   string
	LocaleKey string
	cause     error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// prefixStatus is the table from spec §4.7.4 / §7.
var prefixStatus = map[string]int{
	"200": http.StatusOK,
	"202": http.StatusAccepted,
	"400": http.StatusBadRequest,
	"401": http.StatusUnauthorized,
	"403": http.StatusForbidden,
	"404": http.StatusNotFound,
	"406": http.StatusNotAcceptable,
	"408": http.StatusRequestTimeout,
	"409": http.StatusConflict,
	"500": http.StatusInternalServerError,
	"501": http.StatusNotImplemented,
	"502": http.StatusBadGateway,
	"503": http.StatusServiceUnavailable,
	"504": http.StatusGatewayTimeout,
}

// HTTPStatus maps Code's three-character prefix to an HTTP status, defaulting
// to 500 for any prefix not in the table (including "-1").
func (e *Error) HTTPStatus() int {
	prefix := e.Code
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	if status, ok := prefixStatus[prefix]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func newf(prefix, format string, args ...any) *Error {
	return &Error{Code: prefix, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...any) *Error        { return newf("400", format, args...) }
func Unauthorized(format string, args ...any) *Error      { return newf("401", format, args...) }
func Forbidden(format string, args ...any) *Error         { return newf("403", format, args...) }
func NotFound(format string, args ...any) *Error          { return newf("404", format, args...) }
func NotAcceptable(format string, args ...any) *Error     { return newf("406", format, args...) }
func RequestTimeout(format string, args ...any) *Error    { return newf("408", format, args...) }
func Conflict(format string, args ...any) *Error          { return newf("409", format, args...) }
func Internal(format string, args ...any) *Error          { return newf("500", format, args...) }
func NotImplemented(format string, args ...any) *Error    { return newf("501", format, args...) }
func BadGateway(format string, args ...any) *Error        { return newf("502", format, args...) }
func ServiceUnavailable(format string, args ...any) *Error { return newf("503", format, args...) }
func GatewayTimeout(format string, args ...any) *Error    { return newf("504", format, args...) }

// Wrap folds a foreign (library-native) error into the taxonomy under the
// "-1" prefix reserved for errors whose origin is outside the framework.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	if fe, ok := err.(*Error); ok {
		return fe
	}
	return &Error{Code: "-1", Message: err.Error(), cause: err}
}

// WithExt builds a module/object/operation-scoped code of the form
// "<prefix>-<ext>-<obj>-<op>" as used by the module-scoped view (spec §4.9).
func WithExt(prefix, ext, obj, op, format string, args ...any) *Error {
	code := strings.Join(trimEmpty([]string{prefix, ext, obj, op}), "-")
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func trimEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Is implements errors.Is-compatible code equality for sentinel-style checks.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == other.Code
}
