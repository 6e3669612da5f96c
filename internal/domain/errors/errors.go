package errors

import "errors"

// Sentinel errors for handlers to map to HTTP status.
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrEmptyPatch       = errors.New("patch must contain at least one field")
	ErrInvalidInput     = errors.New("invalid input")
	ErrProjectNotFound  = errors.New("project not found")
	ErrProjectExists    = errors.New("project name already taken")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrGroupNotFound    = errors.New("identity group not found")
	ErrUserNotFound     = errors.New("identity user not found")
	// ErrConflict marks a collaborator "already exists" answer.
	ErrConflict = errors.New("already exists")
)

// OperationError is a fatal failure of one step of a lifecycle operation.
// Steps that completed before it are not rolled back.
type OperationError struct {
	Op   string
	Step string
	Err  error
}

func (e *OperationError) Error() string {
	return e.Op + ": " + e.Step + ": " + e.Err.Error()
}

func (e *OperationError) Unwrap() error { return e.Err }

// Fail wraps err as a failure of step within op.
func Fail(op, step string, err error) error {
	return &OperationError{Op: op, Step: step, Err: err}
}

// StepOf returns the failed step of err, or "" if err is not an OperationError.
func StepOf(err error) string {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Step
	}
	return ""
}
