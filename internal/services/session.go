package services

import (
	"bytes"
	"context"
	"route-map-client/internal/domain"
	"route-map-client/internal/platform/metrics"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobView is a point-in-time copy of the session's job state.
type JobView struct {
	JobID       string
	Status      domain.JobStatus
	State       string
	SubmittedAt time.Time
	FinishedAt  *time.Time
	Err         error
	Summary     *OptimizationSummary
	Sequence    []string
	Checks      int
}

// OptimizationSummary is the display form of a finished job's metrics.
type OptimizationSummary struct {
	RouteID              string
	TotalDistanceKm      float64
	TravelTimeMinutes    float64
	TravelTime           string
	ExecutionTimeSeconds float64
}

// Session is the client state machine: the live stop set being edited, the
// single active job with its frozen snapshot, and the reconciled route of
// that job once it succeeds.
//
// Submitting a new job supersedes the previous one: its polling is cancelled
// before the new cycle starts, and any update still carrying the old job id
// is discarded.
type Session struct {
	submitter *Submitter
	poller    *Poller
	events    *Broadcaster
	log       *zap.Logger
	now       func() time.Time

	mu     sync.Mutex
	raw    []byte
	live   domain.StopSet
	job    *domain.Job
	route  domain.ReconciledRoute
	state  string
	checks int
}

func NewSession(submitter *Submitter, poller *Poller, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		submitter: submitter,
		poller:    poller,
		events:    NewBroadcaster(0, log),
		log:       log.Named("session"),
		now:       time.Now,
	}
}

// UpdateInput replaces the editor content. When raw does not parse, the
// content is still kept but the live stop set (and so the map) is left as it
// was, and the *domain.ValidationError is returned.
func (s *Session) UpdateInput(raw []byte) error {
	set, err := ParseStopInput(raw)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.raw = append([]byte(nil), raw...)
	if err != nil {
		s.log.Debug("input ignored for map", zap.Error(err))
		return err
	}
	s.live = set
	return nil
}

// Input returns the current editor content.
func (s *Session) Input() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.raw...)
}

func (s *Session) LiveStops() domain.StopSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyStopSet(s.live)
}

// Submit validates raw (or the current editor content when raw is blank),
// submits it, and makes the new job the active one. A failed submission
// leaves the current job untouched.
func (s *Session) Submit(ctx context.Context, raw []byte) (JobView, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = s.Input()
	}

	job, set, err := s.submitter.submitRaw(ctx, raw)
	if err != nil {
		return JobView{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.raw = append([]byte(nil), raw...)
	s.live = set

	if s.job != nil && !s.job.Status.Terminal() {
		s.log.Info("job superseded", zap.String("job_id", s.job.ID), zap.String("by", job.ID))
	}

	s.job = job
	s.route = nil
	s.state = ""
	s.checks = 0
	s.poller.Start(job.ID, s.apply)

	v := s.viewLocked()
	s.events.Publish(v)
	return v, nil
}

// Abandon stops polling and drops the active job.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.poller.Stop()
	if s.job == nil {
		return
	}

	s.log.Info("job abandoned", zap.String("job_id", s.job.ID))
	s.job = nil
	s.route = nil
	s.state = ""
	s.checks = 0
	s.events.Publish(s.viewLocked())
}

// apply folds a polling update into the session. Updates for any job other
// than the active one are dropped.
func (s *Session) apply(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job == nil || s.job.ID != u.JobID {
		s.log.Debug("discarding update for inactive job", zap.String("job_id", u.JobID))
		return
	}
	if s.job.Status.Terminal() {
		return
	}

	s.state = u.State
	s.checks = u.Checks

	switch u.Status {
	case domain.JobStatusSucceeded:
		finished := s.now()
		s.job.Status = domain.JobStatusSucceeded
		s.job.Result = u.Result
		s.job.FinishedAt = &finished
		s.route = Reconcile(u.Result, s.job.Snapshot)
		metrics.ObserveFinished(string(domain.JobStatusSucceeded), finished.Sub(s.job.SubmittedAt))
		s.log.Info("job succeeded",
			zap.String("job_id", s.job.ID),
			zap.Int("checks", u.Checks),
			zap.Int("route_stops", len(s.route)),
		)

	case domain.JobStatusFailed:
		finished := s.now()
		s.job.Status = domain.JobStatusFailed
		s.job.Err = u.Err
		s.job.FinishedAt = &finished
		metrics.ObserveFinished(string(domain.JobStatusFailed), finished.Sub(s.job.SubmittedAt))
		s.log.Warn("job failed", zap.String("job_id", s.job.ID), zap.Error(u.Err))
	}

	s.events.Publish(s.viewLocked())
}

// View returns the current job state; Status is NO_JOB when idle.
func (s *Session) View() JobView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Route returns render-ready geometry for the live stop set and the active
// job's reconciled route.
func (s *Session) Route() domain.RenderedRoute {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Render(s.live, s.route)
}

// Subscribe streams a JobView on every job transition.
func (s *Session) Subscribe() (<-chan JobView, func()) {
	return s.events.Subscribe()
}

// Close stops polling and closes all subscriptions.
func (s *Session) Close() {
	s.poller.Close()
	s.events.Close()
}

func (s *Session) viewLocked() JobView {
	if s.job == nil {
		return JobView{Status: domain.JobStatusNoJob}
	}

	v := JobView{
		JobID:       s.job.ID,
		Status:      s.job.Status,
		State:       s.state,
		SubmittedAt: s.job.SubmittedAt,
		FinishedAt:  s.job.FinishedAt,
		Err:         s.job.Err,
		Checks:      s.checks,
	}

	if r := s.job.Result; r != nil {
		v.Summary = &OptimizationSummary{
			RouteID:              r.RouteID,
			TotalDistanceKm:      r.TotalDistanceKm,
			TravelTimeMinutes:    r.EstimatedTravelTimeMinutes,
			TravelTime:           domain.FormatTravelTime(r.EstimatedTravelTimeMinutes),
			ExecutionTimeSeconds: r.ExecutionTimeSeconds,
		}

		// Fall back to the raw order when nothing could be reconciled.
		if len(s.route) > 0 {
			v.Sequence = s.route.Addresses()
		} else {
			v.Sequence = append([]string(nil), r.OptimizedOrder...)
		}
	}

	return v
}

func copyStopSet(set domain.StopSet) domain.StopSet {
	out := domain.StopSet{Stops: append([]domain.Stop(nil), set.Stops...)}
	if set.Depot != nil {
		d := *set.Depot
		out.Depot = &d
	}
	return out
}
