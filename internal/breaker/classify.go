package breaker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// StatusCoder is implemented by errors carrying an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// HTTPError wraps a non-2xx response from an upstream service.
type HTTPError struct {
	Status int
	Err    error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("http %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("http %d: %s", e.Status, http.StatusText(e.Status))
}

func (e *HTTPError) Unwrap() error   { return e.Err }
func (e *HTTPError) StatusCode() int { return e.Status }

// counts reports whether err should be recorded as an infrastructure failure.
// Cancellation and client errors (4xx other than 408/429) never count.
func (b *Breaker) counts(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		code := sc.StatusCode()
		if code >= 400 && code < 500 {
			return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests
		}
		return true
	}
	if b.opts.IsExpected != nil && b.opts.IsExpected(err) {
		return false
	}
	return true
}
