package dto

import "time"

type SubmitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type JobMetricsResponse struct {
	RouteID                    string  `json:"route_id,omitempty"`
	TotalDistanceKm            float64 `json:"total_distance_km"`
	EstimatedTravelTimeMinutes float64 `json:"estimated_travel_time_minutes"`
	TravelTime                 string  `json:"travel_time"`
	ExecutionTimeSeconds       float64 `json:"execution_time_seconds"`
}

type JobResponse struct {
	JobID       string              `json:"job_id,omitempty"`
	Status      string              `json:"status"`
	TaskStatus  string              `json:"task_status,omitempty"`
	Checks      int                 `json:"checks"`
	SubmittedAt *time.Time          `json:"submitted_at,omitempty"`
	FinishedAt  *time.Time          `json:"finished_at,omitempty"`
	Error       string              `json:"error,omitempty"`
	Metrics     *JobMetricsResponse `json:"metrics,omitempty"`
	Sequence    []string            `json:"sequence"`
}
