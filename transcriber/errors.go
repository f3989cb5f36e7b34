package transcriber

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrNoSpeech means the service answered but recognized no words.
var ErrNoSpeech = errors.New("no speech recognized")

// ServiceError is any failure to get an answer from the speech service:
// network trouble, timeouts, rejected credentials, throttling, malformed
// responses. Detail is suitable for showing to the user.
type ServiceError struct {
	Detail string
	Err    error
}

func (e *ServiceError) Error() string { return e.Detail }

func (e *ServiceError) Unwrap() error { return e.Err }

// statusError maps a non-200 response to a ServiceError.
func statusError(provider string, code int, body []byte) *ServiceError {
	var reason string
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		reason = "authentication failed"
	case code == http.StatusTooManyRequests:
		reason = "rate limited"
	case code == http.StatusRequestEntityTooLarge:
		reason = "recording too large"
	case code >= 500:
		reason = "service unavailable"
	default:
		reason = "request rejected"
	}
	return &ServiceError{
		Detail: fmt.Sprintf("%s: %s (%d)", provider, reason, code),
		Err:    fmt.Errorf("%s API error %d: %s", provider, code, strings.TrimSpace(string(body))),
	}
}

// classify converts a transport error into a ServiceError.
func classify(provider string, err error) error {
	var se *ServiceError
	if errors.As(err, &se) || errors.Is(err, ErrNoSpeech) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ServiceError{Detail: "network timeout", Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &ServiceError{Detail: "request canceled", Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ServiceError{Detail: "network timeout", Err: err}
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &ServiceError{Detail: fmt.Sprintf("%s: cannot resolve %s", provider, dnsErr.Name), Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &ServiceError{Detail: fmt.Sprintf("%s: network unreachable", provider), Err: err}
	}
	return &ServiceError{Detail: fmt.Sprintf("%s: %v", provider, err), Err: err}
}
