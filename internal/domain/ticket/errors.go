package ticket

import "github.com/pkg/errors"

// Error taxonomy shared by the store, the service layer and the HTTP/realtime surfaces.
// Callers match with errors.Is; detail is added by wrapping.
var (
	ErrAuthentication      = errors.New("authentication required")
	ErrAuthorization       = errors.New("not authorized")
	ErrInvalidTransition   = errors.New("invalid state transition")
	ErrValidation          = errors.New("validation failed")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrNotFound            = errors.New("not found")
	ErrTimeout             = errors.New("operation timed out, retry")
)

// Code returns a stable machine-readable code for err.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthentication):
		return "authentication_error"
	case errors.Is(err, ErrAuthorization):
		return "authorization_error"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_state_transition"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "internal_error"
	}
}
