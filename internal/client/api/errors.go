package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnavailable marks transport failures: the request never produced
	// a server response.
	ErrUnavailable = errors.New("server unavailable")

	// ErrUnauthorized matches (via errors.Is) rejections caused by
	// invalid or expired credentials.
	ErrUnauthorized = errors.New("unauthorized")
)

// genericDetail is the fallback message when the server rejects a request
// without a parseable detail field.
const genericDetail = "request failed"

// APIError is a server-rejected request: a non-2xx status and the
// machine-readable detail the server attached, if any.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("%s (status %d)", genericDetail, e.StatusCode)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}
