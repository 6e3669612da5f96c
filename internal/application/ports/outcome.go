package ports

import (
	"errors"

	domerrors "github.com/amirhosseinghanipour/provisioner/internal/domain/errors"
)

// Outcome classifies the result of a collaborator call.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	// OutcomeConflict is an expected "already exists" answer; the caller logs and continues.
	OutcomeConflict
	// OutcomeFatal stops the current operation.
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeConflict:
		return "conflict"
	default:
		return "fatal"
	}
}

// Classify maps a collaborator error to its Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, domerrors.ErrConflict):
		return OutcomeConflict
	default:
		return OutcomeFatal
	}
}
