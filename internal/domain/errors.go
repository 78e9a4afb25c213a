package domain

import "errors"

// Domain errors
var (
	ErrNoCredential   = errors.New("no api key configured")
	ErrAuthentication = errors.New("api key rejected by upstream")
	ErrNotFound       = errors.New("player not found")
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrTransient      = errors.New("transient upstream failure")
	ErrUpstream       = errors.New("upstream rejected request")
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalError  = errors.New("internal server error")
)

// IsRetryable reports whether another attempt at the same call can succeed.
// Only throttling and transport-level failures qualify; everything else is
// deterministic and retrying it wastes quota.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransient)
}

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
