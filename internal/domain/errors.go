package domain

import (
	"errors"
	"fmt"
)

var ErrMissingStops = errors.New("missing stops")

// ValidationError reports malformed input. No job is created and nothing is
// sent over the network.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil && e.Reason == "" {
		return e.Err.Error()
	}
	return e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

// SubmissionError reports a network or service failure while submitting.
// No job is created; recovery is a manual resubmission.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit optimization: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// PollingTransientError is a single failed status check. It is retried on the
// next tick and never surfaced as a job outcome on its own.
type PollingTransientError struct {
	JobID string
	Err   error
}

func (e *PollingTransientError) Error() string {
	return fmt.Sprintf("status check for job %s: %v", e.JobID, e.Err)
}

func (e *PollingTransientError) Unwrap() error { return e.Err }

// JobFailedError is a terminal failure of a job.
type JobFailedError struct {
	JobID  string
	Reason string
	Err    error
}

func (e *JobFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("job %s failed: %s: %v", e.JobID, e.Reason, e.Err)
	}
	return fmt.Sprintf("job %s failed: %s", e.JobID, e.Reason)
}

func (e *JobFailedError) Unwrap() error { return e.Err }
