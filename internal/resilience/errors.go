package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/rotisserie/eris"
)

// ErrNoContent marks a provider call that succeeded at the transport level
// but produced nothing usable (empty page, zero search results). Chains move
// on to the next provider; breakers do not count it as a fault.
var ErrNoContent = eris.New("resilience: provider returned no content")

// ProviderError records a non-2xx response from an upstream provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// NewProviderError builds a ProviderError, clipping the body to keep logs readable.
func NewProviderError(provider string, statusCode int, body []byte) *ProviderError {
	const maxBody = 300
	b := string(body)
	if len(b) > maxBody {
		b = b[:maxBody]
	}
	return &ProviderError{Provider: provider, StatusCode: statusCode, Body: b}
}

// HTTPStatus returns the upstream status code.
func (e *ProviderError) HTTPStatus() int { return e.StatusCode }

// StatusOf returns the upstream status code carried by err, or 0. Any error
// in the chain with an HTTPStatus method qualifies, which covers the API
// errors of the provider clients.
func StatusOf(err error) int {
	var se interface{ HTTPStatus() int }
	if errors.As(err, &se) {
		return se.HTTPStatus()
	}
	return 0
}

// IsTransient reports whether err looks like a temporary upstream or network
// condition: 408/429/5xx responses, timeouts, or dropped connections.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsTransientHTTPStatus(StatusOf(err)) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED)
}

// IsTransientHTTPStatus reports whether statusCode indicates an upstream
// condition that may clear on its own.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// CountsAsFault decides whether err should count against a provider's
// breaker. Empty results and caller cancellation are not the provider's fault.
func CountsAsFault(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoContent) || errors.Is(err, context.Canceled) {
		return false
	}
	return true
}
