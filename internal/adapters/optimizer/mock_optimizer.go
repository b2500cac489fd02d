package optimizer

import (
	"context"
	"fmt"
	"route-map-client/internal/domain"
	"route-map-client/internal/ports"
	"sync"

	"github.com/google/uuid"
)

// MockStep is one scripted answer to a status check.
// When Gate is non-nil the answer is held until the gate is closed (or the
// caller's context ends).
type MockStep struct {
	Status ports.TaskStatus
	Err    error
	Gate   <-chan struct{}
}

func PendingStep() MockStep {
	return MockStep{Status: ports.TaskStatus{State: ports.TaskStatePending}}
}

func SuccessStep(order ...string) MockStep {
	return MockStep{Status: ports.TaskStatus{
		State: ports.TaskStateSuccess,
		Result: &domain.OptimizationResult{
			OptimizedOrder:             order,
			TotalDistanceKm:            float64(len(order)) * 1.5,
			EstimatedTravelTimeMinutes: float64(len(order)) * 4,
			Status:                     "optimized",
		},
	}}
}

func FailureStep() MockStep {
	return MockStep{Status: ports.TaskStatus{State: ports.TaskStateFailure}}
}

func ErrorStep(err error) MockStep {
	return MockStep{Err: err}
}

// MockOptimizer is an in-memory OptimizationService driven by per-task scripts.
// Task IDs come from Queue'd ids in order, falling back to random UUIDs.
// Once a task's script is exhausted the last step is repeated.
type MockOptimizer struct {
	mu        sync.Mutex
	ids       []string
	scripts   map[string][]MockStep
	served    map[string]int
	checks    map[string]int
	submitted []ports.OptimizeRequest
	submitErr error
}

func NewMockOptimizer() *MockOptimizer {
	return &MockOptimizer{
		scripts: make(map[string][]MockStep),
		served:  make(map[string]int),
		checks:  make(map[string]int),
	}
}

// Queue sets the task ids handed out by the next Submit calls.
func (m *MockOptimizer) Queue(ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, ids...)
}

// Script appends steps for taskID.
func (m *MockOptimizer) Script(taskID string, steps ...MockStep) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[taskID] = append(m.scripts[taskID], steps...)
}

// FailSubmit makes every following Submit return err (nil restores success).
func (m *MockOptimizer) FailSubmit(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitErr = err
}

func (m *MockOptimizer) Submit(ctx context.Context, req ports.OptimizeRequest) (ports.TaskHandle, error) {
	if err := ctx.Err(); err != nil {
		return ports.TaskHandle{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.submitErr != nil {
		return ports.TaskHandle{}, m.submitErr
	}

	var id string
	if len(m.ids) > 0 {
		id, m.ids = m.ids[0], m.ids[1:]
	} else {
		id = uuid.NewString()
	}

	m.submitted = append(m.submitted, req)
	return ports.TaskHandle{TaskID: id, Status: ports.TaskStatePending}, nil
}

func (m *MockOptimizer) TaskStatus(ctx context.Context, taskID string) (ports.TaskStatus, error) {
	m.mu.Lock()
	m.checks[taskID]++
	steps := m.scripts[taskID]
	if len(steps) == 0 {
		m.mu.Unlock()
		return ports.TaskStatus{}, fmt.Errorf("mock optimizer: no script for task %q", taskID)
	}
	i := m.served[taskID]
	if i >= len(steps) {
		i = len(steps) - 1
	} else {
		m.served[taskID]++
	}
	step := steps[i]
	m.mu.Unlock()

	if step.Gate != nil {
		select {
		case <-step.Gate:
		case <-ctx.Done():
			return ports.TaskStatus{}, ctx.Err()
		}
	}

	if step.Err != nil {
		return ports.TaskStatus{}, step.Err
	}

	st := step.Status
	if st.TaskID == "" {
		st.TaskID = taskID
	}
	return st, nil
}

// Checks returns how many status checks taskID received.
func (m *MockOptimizer) Checks(taskID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checks[taskID]
}

// Submitted returns a copy of every accepted request, in order.
func (m *MockOptimizer) Submitted() []ports.OptimizeRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.OptimizeRequest(nil), m.submitted...)
}

var _ ports.OptimizationService = (*MockOptimizer)(nil)
