package usecase

import "errors"

// Error kinds the orchestrator branches on. ErrInvalidPayload and
// ErrBusinessRule are terminal: retrying them cannot change the outcome,
// so they short-circuit to the dead-letter store. Anything else is treated
// as transient and retried.
var (
	ErrInvalidPayload        = errors.New("invalid payload")
	ErrBusinessRule          = errors.New("business rule violation")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrNotFound              = errors.New("resource not found")
)

// IsFatal reports whether err must not be retried.
func IsFatal(err error) bool {
	return errors.Is(err, ErrInvalidPayload) || errors.Is(err, ErrBusinessRule)
}
