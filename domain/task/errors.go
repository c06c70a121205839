package task

import "errors"

var (
	// ErrTaskNotFound is returned when no task has the requested id.
	ErrTaskNotFound = errors.New("task not found")
	// ErrForbidden is returned when the caller may not perform the action.
	ErrForbidden = errors.New("insufficient permissions")
	// ErrValidation is the kind of every rejected payload.
	ErrValidation = errors.New("validation failed")
	// ErrEmptyPatch is returned when an update carries no fields.
	ErrEmptyPatch = errors.New("no fields to update")
	// ErrInvalidPagination is returned for out-of-range page or limit values.
	ErrInvalidPagination = errors.New("invalid pagination")
	// ErrInvalidTransition is returned when a status change is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrTaskTerminal is returned when a completed or cancelled task is changed.
	ErrTaskTerminal = errors.New("task is no longer editable")
	// ErrTaskConflict is returned when a task changed between being read and
	// being written.
	ErrTaskConflict = errors.New("task was modified concurrently")
	// ErrStorage wraps persistence failures.
	ErrStorage = errors.New("storage failure")
)

// ValidationError describes why a payload was rejected. It matches
// ErrValidation with errors.Is.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + e.Reason
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError with the given reason.
func Invalid(reason string) error {
	return &ValidationError{Reason: reason}
}
