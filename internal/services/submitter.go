package services

import (
	"context"
	"errors"
	"route-map-client/internal/domain"
	"route-map-client/internal/platform/metrics"
	"route-map-client/internal/ports"
	"time"

	"go.uber.org/zap"
)

// Submitter validates input, freezes it into a snapshot and hands it to the
// optimization service. It never retries.
type Submitter struct {
	service ports.OptimizationService
	log     *zap.Logger
	now     func() time.Time
}

func NewSubmitter(service ports.OptimizationService, log *zap.Logger) *Submitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Submitter{
		service: service,
		log:     log.Named("submitter"),
		now:     time.Now,
	}
}

// Submit parses raw input and submits it. See SubmitStopSet.
func (s *Submitter) Submit(ctx context.Context, raw []byte) (*domain.Job, error) {
	job, _, err := s.submitRaw(ctx, raw)
	return job, err
}

// submitRaw is Submit that also hands back the parsed stop set.
func (s *Submitter) submitRaw(ctx context.Context, raw []byte) (*domain.Job, domain.StopSet, error) {
	set, err := ParseStopInput(raw)
	if err != nil {
		metrics.ObserveSubmitError("validation")
		return nil, domain.StopSet{}, err
	}
	job, err := s.SubmitStopSet(ctx, set)
	if err != nil {
		return nil, domain.StopSet{}, err
	}
	return job, set, nil
}

// SubmitStopSet snapshots set and sends it to the service, returning a
// Pending job that owns the snapshot. Failures come back as
// *domain.SubmissionError and no job is created.
func (s *Submitter) SubmitStopSet(ctx context.Context, set domain.StopSet) (*domain.Job, error) {
	snap := set.Snapshot()

	req := ports.OptimizeRequest{Stops: append([]domain.Stop(nil), set.Stops...)}
	if set.Depot != nil {
		d := *set.Depot
		req.Depot = &d
	}

	handle, err := s.service.Submit(ctx, req)
	if err != nil {
		metrics.ObserveSubmitError("submission")
		s.log.Warn("submission failed", zap.Int("stops", snap.Len()), zap.Error(err))

		var se *domain.SubmissionError
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, &domain.SubmissionError{Err: err}
	}

	metrics.ObserveSubmitted()
	s.log.Info("job submitted",
		zap.String("job_id", handle.TaskID),
		zap.String("task_status", handle.Status),
		zap.Int("stops", snap.Len()),
	)

	return &domain.Job{
		ID:          handle.TaskID,
		Status:      domain.JobStatusPending,
		Snapshot:    snap,
		SubmittedAt: s.now(),
	}, nil
}
