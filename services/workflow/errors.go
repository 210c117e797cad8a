package workflow

import "fmt"

// TrackerError marks a persistence failure in the step tracker. It is the
// one class of error Run propagates; the task runner retries those.
type TrackerError struct {
	Step    string
	Message string
	Err     error
	Fatal   bool // true when retrying cannot help (initialization failure)
}

func (e *TrackerError) Error() string {
	return fmt.Sprintf("trackerError at %s: %s: %v", e.Step, e.Message, e.Err)
}

func (e *TrackerError) Unwrap() error { return e.Err }

func newTrackerError(step, msg string, err error) error {
	return &TrackerError{Step: step, Message: msg, Err: err}
}

func newFatalTrackerError(step, msg string, err error) error {
	return &TrackerError{Step: step, Message: msg, Err: err, Fatal: true}
}
