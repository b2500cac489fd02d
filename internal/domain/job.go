package domain

import (
	"fmt"
	"math"
	"time"
)

// JobStatus is the client-side lifecycle state of an optimization job.
type JobStatus string

const (
	JobStatusNoJob     JobStatus = "NO_JOB"
	JobStatusPending   JobStatus = "PENDING"
	JobStatusSucceeded JobStatus = "SUCCEEDED"
	JobStatusFailed    JobStatus = "FAILED"
)

// Terminal reports whether polling stops once this status is reached.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// Output of the remote optimizer for one job.
// OptimizedOrder holds positions (as strings) into the snapshot that
// produced the job.
type OptimizationResult struct {
	RouteID                    string
	OptimizedOrder             []string
	TotalDistanceKm            float64
	EstimatedTravelTimeMinutes float64
	ExecutionTimeSeconds       float64
	Status                     string
}

// Job represents one optimization request/response lifecycle.
// The Snapshot is owned by the job and never changes after submission.
type Job struct {
	ID          string
	Status      JobStatus
	Snapshot    Snapshot
	SubmittedAt time.Time
	FinishedAt  *time.Time
	Result      *OptimizationResult
	Err         error
}

// Format a travel time in minutes as "Xh Ym", or "Ym" when under an hour.
func FormatTravelTime(minutes float64) string {
	if minutes < 0 || math.IsNaN(minutes) {
		minutes = 0
	}

	total := int(math.Round(minutes))
	h, m := total/60, total%60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
