package ports

import (
	"context"
	"route-map-client/internal/domain"
)

// Raw task states reported by the optimization service.
const (
	TaskStatePending = "PENDING"
	TaskStateSuccess = "SUCCESS"
	TaskStateFailure = "FAILURE"
)

// Body of an optimization request: depot (optional) plus stops, in order.
type OptimizeRequest struct {
	Depot *domain.Stop
	Stops []domain.Stop
}

// Handle returned by the service for an accepted request.
type TaskHandle struct {
	TaskID string
	Status string
}

// Status of a task as reported by the service. Result is only set once the
// service reports success.
type TaskStatus struct {
	TaskID string
	State  string
	Result *domain.OptimizationResult
}

// Port: the external route-optimization service.
type OptimizationService interface {
	// Submit an optimization request and return the task handle.
	Submit(ctx context.Context, req OptimizeRequest) (TaskHandle, error)
	// Return the current status of a previously submitted task.
	TaskStatus(ctx context.Context, taskID string) (TaskStatus, error)
}

// ErrorClassifier is optionally implemented by an OptimizationService that can
// tell when a failed status check means the task will never resolve.
type ErrorClassifier interface {
	Permanent(err error) bool
}
