package driven

import (
	"errors"
	"fmt"
	"time"
)

// Error taxonomy shared by the remote client, the local store and the
// coordinator. Adapters wrap these so callers can branch with errors.Is.
var (
	// ErrAuth indicates rejected credentials. Never retried.
	ErrAuth = errors.New("authentication failed")

	// ErrRateLimited indicates the remote service throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrTransient indicates a network failure or a 5xx response.
	ErrTransient = errors.New("transient network error")

	// ErrNotFound indicates the requested remote resource or cached row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRejected indicates the remote service refused the request as invalid. Never retried.
	ErrRejected = errors.New("request rejected")

	// ErrLocalStore indicates an I/O or constraint failure in the local cache.
	ErrLocalStore = errors.New("local store error")

	// ErrNoAccount is returned when no authenticated account is known yet.
	ErrNoAccount = errors.New("no account configured: run sync first")

	// ErrNoClient is returned when a remote operation is requested without an API token.
	ErrNoClient = errors.New("no api token configured: set TIMEGURU_API_TOKEN or run config set-token")
)

// RemoteError describes a failed remote call. It unwraps to one of the
// taxonomy sentinels.
type RemoteError struct {
	Kind       error
	Op         string
	StatusCode int
	RetryAfter time.Duration
	Message    string
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Message)
	}
	if e.Message == "" {
		return fmt.Sprintf("%s: %v (status %d)", e.Op, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v (status %d): %s", e.Op, e.Kind, e.StatusCode, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return e.Kind
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransient)
}
