package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable covers transport failures and 5xx responses: the
	// backend could not be reached or could not answer.
	ErrUnavailable = errors.New("knowledge base unavailable")

	// ErrUnauthorized covers 401/403: the token is missing, expired or
	// rejected, or the credentials were wrong.
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusError carries the backend's human-readable detail for non-2xx
// responses that are neither auth nor availability failures (e.g. a 400
// "Email already registered" on signup). The detail is meant for inline
// display at the point of the attempted action.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("backend returned %d", e.Code)
}

// Detail extracts a displayable message from an API error. Sentinel-wrapped
// errors keep their backend detail; anything else degrades to the fallback.
func Detail(err error, fallback string) string {
	var se *StatusError
	if errors.As(err, &se) && se.Detail != "" {
		return se.Detail
	}
	return fallback
}
