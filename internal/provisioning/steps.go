package provisioning

import (
	stderrors "errors"
	"fmt"

	"designer-onboarding/internal/common/errors"
)

// Step names a stage of the approval pipeline.
type Step string

const (
	StepBrand     Step = "brand"
	StepIdentity  Step = "identity"
	StepResetLink Step = "reset_link"
	StepProfile   Step = "profile"
	StepVerify    Step = "verify"
	StepIndex     Step = "directory_index"
	StepNotify    Step = "notify"
)

// StepError is the failure result of one pipeline step. Fatal errors stop the
// remaining steps; nothing already written is undone either way.
type StepError struct {
	Step  Step
	Fatal bool
	Err   *errors.StandardError
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step failed: %s", e.Step, e.Err.Error())
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Informational step failures degrade the response but leave access intact.
func (e *StepError) Informational() bool {
	return e.Step == StepResetLink || e.Step == StepIndex || e.Step == StepNotify
}

func fatalStep(step Step, code errors.ErrorCode, message string, cause error) *StepError {
	return &StepError{Step: step, Fatal: true, Err: errors.NewStepError(code, message, cause)}
}

func softStep(step Step, code errors.ErrorCode, message string, cause error) *StepError {
	return &StepError{Step: step, Fatal: false, Err: errors.NewStepError(code, message, cause)}
}

// asStepError extracts the StepError from err, if any.
func asStepError(err error) (*StepError, bool) {
	var se *StepError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}
