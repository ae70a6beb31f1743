package form

import "errors"

// Phase is the coarse submission lifecycle.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseInFlight Phase = "in_flight"
	PhaseSettled  Phase = "settled"
)

// SubmissionState records the latest submission. A settled state with a nil
// Err is a success; any other settled state is a failure carrying the reason
// reported by the submit action.
type SubmissionState struct {
	Phase   Phase
	Attempt string
	Err     error
	Failure *Failure
}

// InFlight reports whether a submission is running.
func (s SubmissionState) InFlight() bool {
	return s.Phase == PhaseInFlight
}

// Succeeded reports a settled, successful submission.
func (s SubmissionState) Succeeded() bool {
	return s.Phase == PhaseSettled && s.Err == nil
}

// Failed reports a settled submission whose action returned an error.
func (s SubmissionState) Failed() bool {
	return s.Phase == PhaseSettled && s.Err != nil
}

// FieldFailures returns server-side messages attached to name by the last
// failed submission.
func (s SubmissionState) FieldFailures(name string) []string {
	if s.Failure == nil {
		return nil
	}
	return s.Failure.Fields[name]
}

func (s SubmissionState) String() string {
	switch {
	case s.Succeeded():
		return "settled(success)"
	case s.Failed():
		return "settled(failure: " + s.Err.Error() + ")"
	case s.Phase == "":
		return string(PhaseIdle)
	default:
		return string(s.Phase)
	}
}

// SubmitResult describes what a Submit call did.
type SubmitResult string

const (
	// SubmitDropped means another submission was in flight; the action was
	// not invoked.
	SubmitDropped SubmitResult = "dropped"
	// SubmitInvalid means validation failed; every field is now touched and
	// the action was not invoked.
	SubmitInvalid SubmitResult = "invalid"
	// SubmitSucceeded means the action returned nil.
	SubmitSucceeded SubmitResult = "succeeded"
	// SubmitFailed means the action returned an error, which Submit also
	// returns.
	SubmitFailed SubmitResult = "failed"
)

var (
	// ErrNoFields is returned by New when no initial values are supplied.
	ErrNoFields = errors.New("form: at least one field is required")
	// ErrNoSubmitAction is returned by New when OnSubmit is nil.
	ErrNoSubmitAction = errors.New("form: submit action is required")
	// ErrSubmitPanicked wraps the value recovered from a panicking submit
	// action.
	ErrSubmitPanicked = errors.New("form: submit action panicked")
)
