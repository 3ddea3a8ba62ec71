package wizard

import (
	"errors"
	"fmt"
)

var (
	ErrWizardCompleted    = errors.New("wizard is already completed")
	ErrWizardNotCompleted = errors.New("wizard is not completed yet")
	ErrNotAtFinalStep     = errors.New("submit is only allowed from the final step")
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
	ErrWizardNotFound     = errors.New("wizard not found")
)

// ErrorKind classifies a StepError.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindSubmission
	KindAuthentication
	KindNetwork
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindSubmission:
		return "submission"
	case KindAuthentication:
		return "authentication"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// StepError is shown inline on the step that produced it.
type StepError struct {
	Step     int       `json:"step"`
	StepName string    `json:"step_name"`
	Kind     ErrorKind `json:"kind"`
	Message  string    `json:"message"`
	Err      error     `json:"-"`
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step %q: %s", e.Kind, e.StepName, e.Message)
}

func (e *StepError) Unwrap() error { return e.Err }
