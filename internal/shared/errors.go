package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness violation.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrValidation indicates invalid caller input.
	ErrValidation = errors.New("validation failed")
)

// UserSafeMessage returns an error message suitable for API consumers.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "the requested record does not exist"
	case errors.Is(err, ErrDuplicate):
		return "a record with the same identifier already exists"
	case errors.Is(err, ErrValidation):
		return err.Error()
	default:
		return "an unexpected error occurred"
	}
}
