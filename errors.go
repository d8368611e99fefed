package usher

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches any StatusError carrying a 404 through
// errors.Is, the dispatch miss outcome included.
var ErrNotFound = errors.New("not found")

// StatusError carries an HTTP outcome for a failed dispatch. Interceptors
// and actions may return one to control the rendered status code.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

func BadRequest(msg string) error {
	return &StatusError{Code: http.StatusBadRequest, Message: msg}
}

func Unauthorized(msg string) error {
	return &StatusError{Code: http.StatusUnauthorized, Message: msg}
}

func Forbidden(msg string) error {
	return &StatusError{Code: http.StatusForbidden, Message: msg}
}

func NotFound(msg string) error {
	return &StatusError{Code: http.StatusNotFound, Message: msg}
}

func Internal(msg string) error {
	return &StatusError{Code: http.StatusInternalServerError, Message: msg}
}

// statusOf maps any error to the HTTP status it should render with.
func statusOf(err error) int {
	if se, ok := asStatusError(err); ok {
		return se.Code
	}
	return http.StatusInternalServerError
}

func asStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	ok := errors.As(err, &se)
	return se, ok
}

// ConfigError reports an invalid registration or startup configuration.
// Startup refuses to complete while one is pending; it never surfaces at
// request time.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configErr(format string, args ...any) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

func configWrap(err error, format string, args ...any) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...), Err: err}
}

// IsConfigError reports whether err originated from registration or
// startup validation.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
