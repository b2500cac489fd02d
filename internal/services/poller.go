package services

import (
	"context"
	"fmt"
	"route-map-client/internal/domain"
	"route-map-client/internal/platform/metrics"
	"route-map-client/internal/ports"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultPollInterval = time.Second

type PollerConfig struct {
	// Fixed wait between the end of one status check and the start of the next.
	Interval time.Duration
	// Failed status checks in a row before the job is given up on. 0 = never.
	MaxConsecutiveErrors int
	// Longest a job may stay pending. 0 = forever.
	MaxWait time.Duration
	// Parent of every polling cycle; cancelling it stops all polling.
	BaseContext context.Context
	Logger      *zap.Logger
}

// Update is one observation delivered by a polling cycle. Every update is
// tagged with the job it belongs to.
type Update struct {
	JobID  string
	Status domain.JobStatus
	// Raw task state reported by the service.
	State  string
	Result *domain.OptimizationResult
	Err    error
	Checks int
}

// Poller runs at most one polling cycle at a time.
//
// A cycle checks the task status immediately, then waits Interval after each
// check. Starting a new cycle cancels the previous one first, and a cancelled
// cycle never delivers anything.
type Poller struct {
	service    ports.OptimizationService
	classifier ports.ErrorClassifier
	cfg        PollerConfig
	log        *zap.Logger

	mu    sync.Mutex
	cycle *pollCycle
	wg    sync.WaitGroup
}

type pollCycle struct {
	jobID  string
	cancel context.CancelFunc
}

func NewPoller(service ports.OptimizationService, cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.BaseContext == nil {
		cfg.BaseContext = context.Background()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	classifier, _ := service.(ports.ErrorClassifier)
	return &Poller{
		service:    service,
		classifier: classifier,
		cfg:        cfg,
		log:        cfg.Logger.Named("poller"),
	}
}

// Start cancels any running cycle and begins polling jobID. deliver is called
// from the polling goroutine for each status transition.
func (p *Poller) Start(jobID string, deliver func(Update)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cycle != nil {
		p.log.Debug("cancelling superseded cycle", zap.String("job_id", p.cycle.jobID))
		p.cycle.cancel()
		p.cycle = nil
	}

	ctx, cancel := context.WithCancel(p.cfg.BaseContext)
	c := &pollCycle{jobID: jobID, cancel: cancel}
	p.cycle = c

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()
		p.run(ctx, c, deliver)
	}()
}

// Stop cancels the running cycle, if any.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cycle != nil {
		p.cycle.cancel()
		p.cycle = nil
	}
}

// Active returns the job id being polled, or "" when idle.
func (p *Poller) Active() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cycle == nil {
		return ""
	}
	return p.cycle.jobID
}

// Close stops polling and waits for the polling goroutines to exit.
func (p *Poller) Close() {
	p.Stop()
	p.wg.Wait()
}

func (p *Poller) run(ctx context.Context, c *pollCycle, deliver func(Update)) {
	log := p.log.With(zap.String("job_id", c.jobID))

	timer := time.NewTimer(0)
	defer timer.Stop()

	var deadline <-chan time.Time
	if p.cfg.MaxWait > 0 {
		t := time.NewTimer(p.cfg.MaxWait)
		defer t.Stop()
		deadline = t.C
	}

	var (
		checks    int
		errStreak int
		lastState string
	)

	for {
		select {
		case <-ctx.Done():
			log.Debug("polling cancelled", zap.Int("checks", checks))
			return
		case <-deadline:
			p.emit(c, deliver, Update{
				JobID:  c.jobID,
				Status: domain.JobStatusFailed,
				State:  lastState,
				Err: &domain.JobFailedError{
					JobID:  c.jobID,
					Reason: fmt.Sprintf("no result after %s", p.cfg.MaxWait),
				},
				Checks: checks,
			})
			return
		case <-timer.C:
		}

		checks++
		st, err := p.service.TaskStatus(ctx, c.jobID)
		if ctx.Err() != nil {
			return
		}

		if err != nil {
			errStreak++
			metrics.ObserveStatusCheck("error")
			if p.permanent(err) {
				log.Warn("status check rejected", zap.Int("checks", checks), zap.Error(err))
				p.emit(c, deliver, Update{
					JobID:  c.jobID,
					Status: domain.JobStatusFailed,
					State:  lastState,
					Err: &domain.JobFailedError{
						JobID:  c.jobID,
						Reason: "status check rejected",
						Err:    err,
					},
					Checks: checks,
				})
				return
			}

			terr := &domain.PollingTransientError{JobID: c.jobID, Err: err}
			log.Warn("status check failed", zap.Int("checks", checks), zap.Int("streak", errStreak), zap.Error(terr))

			if p.cfg.MaxConsecutiveErrors > 0 && errStreak >= p.cfg.MaxConsecutiveErrors {
				p.emit(c, deliver, Update{
					JobID:  c.jobID,
					Status: domain.JobStatusFailed,
					State:  lastState,
					Err: &domain.JobFailedError{
						JobID:  c.jobID,
						Reason: fmt.Sprintf("%d consecutive status checks failed", errStreak),
						Err:    terr,
					},
					Checks: checks,
				})
				return
			}

			timer.Reset(p.cfg.Interval)
			continue
		}

		errStreak = 0
		metrics.ObserveStatusCheck(st.State)

		switch st.State {
		case ports.TaskStateSuccess:
			u := Update{JobID: c.jobID, State: st.State, Result: st.Result, Checks: checks}
			if st.Result == nil {
				u.Status = domain.JobStatusFailed
				u.Err = &domain.JobFailedError{JobID: c.jobID, Reason: "missing result"}
			} else {
				u.Status = domain.JobStatusSucceeded
			}
			log.Info("polling finished", zap.String("task_status", st.State), zap.Int("checks", checks))
			p.emit(c, deliver, u)
			return

		case ports.TaskStateFailure:
			log.Info("polling finished", zap.String("task_status", st.State), zap.Int("checks", checks))
			p.emit(c, deliver, Update{
				JobID:  c.jobID,
				Status: domain.JobStatusFailed,
				State:  st.State,
				Err:    &domain.JobFailedError{JobID: c.jobID, Reason: "optimizer reported failure"},
				Checks: checks,
			})
			return

		default:
			if st.State != lastState {
				lastState = st.State
				p.emit(c, deliver, Update{
					JobID:  c.jobID,
					Status: domain.JobStatusPending,
					State:  st.State,
					Checks: checks,
				})
			}
		}

		timer.Reset(p.cfg.Interval)
	}
}

func (p *Poller) permanent(err error) bool {
	return p.classifier != nil && p.classifier.Permanent(err)
}

// emit hands u to deliver if c is still the current cycle. Terminal updates
// also retire the cycle. The receiver must still check u.JobID: a Start can
// slip in between the check and the call.
func (p *Poller) emit(c *pollCycle, deliver func(Update), u Update) {
	p.mu.Lock()
	current := p.cycle == c
	if current && u.Status.Terminal() {
		p.cycle = nil
	}
	p.mu.Unlock()

	if !current {
		return
	}
	deliver(u)
}
