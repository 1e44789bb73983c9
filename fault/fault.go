// Package fault defines the failure kinds shared by the transform
// collaborators (rewrite and transcription) and classified by the
// coordinator when surfacing errors to the user.
package fault

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNetwork covers transport-level failures: refused connections,
	// resets, DNS errors, and transform deadline overruns on remote calls.
	ErrNetwork = errors.New("network failure")

	// ErrAuth means the collaborator rejected our credentials.
	ErrAuth = errors.New("authentication rejected")

	// ErrRateLimited means the collaborator asked us to back off.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelUnavailable means no usable model is loaded or reachable.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrModel covers inference-side failures once a model was reached.
	ErrModel = errors.New("model error")
)

// FromStatus classifies a non-2xx HTTP response from a model backend.
// detail is included verbatim so logs keep the server's own words.
func FromStatus(code int, detail string) error {
	var base error
	switch {
	case code == 401 || code == 403:
		base = ErrAuth
	case code == 429:
		base = ErrRateLimited
	case code == 404 || code == 503:
		base = ErrModelUnavailable
	default:
		base = ErrModel
	}
	return fmt.Errorf("%w: HTTP %d: %s", base, code, detail)
}

// FromTransport classifies a failed HTTP round trip. Context
// cancellation passes through untouched so callers can tell a
// superseded request from a dead network.
func FromTransport(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

// Kind returns a short stable label for an error, for logs and
// notifications. Cancellation maps to "cancelled" and is not
// user-visible as a failure.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrNetwork):
		return "network_error"
	case errors.Is(err, ErrAuth):
		return "auth_error"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrModelUnavailable):
		return "model_unavailable"
	case errors.Is(err, ErrModel):
		return "model_error"
	default:
		return "error"
	}
}

// Cancelled reports whether err is a deliberate cancellation rather
// than a real failure.
func Cancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
