package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"propmate-go/internal/config"
	"propmate-go/internal/metrics"
	"propmate-go/internal/pipeline"
)

// Scheduler runs the reconciliation pipeline on a fixed polling interval
type Scheduler struct {
	cron     *cron.Cron
	entryID  cron.EntryID
	config   *config.SchedulerConfig
	pipeline *pipeline.Pipeline
	metrics  *metrics.Metrics
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	running  bool
	mu       sync.RWMutex
}

// NewScheduler creates a new scheduler
func NewScheduler(cfg *config.SchedulerConfig, p *pipeline.Pipeline, m *metrics.Metrics) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		config:   cfg,
		pipeline: p,
		metrics:  m,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start schedules the polling job. Safe to call again after Stop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	// Stop cancels the context, so a restart needs a fresh one.
	s.ctx, s.cancel = context.WithCancel(context.Background())

	schedule := fmt.Sprintf("0 */%d * * * *", s.config.IntervalMinutes)

	entryID, err := s.cron.AddFunc(schedule, s.runCycle)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = entryID
	s.cron.Start()
	s.running = true

	logrus.Infof("Scheduler started with interval: %d minutes", s.config.IntervalMinutes)
	return nil
}

// Stop stops the scheduler and waits for any in-flight cycle
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.cancel()
	s.cron.Remove(s.entryID)

	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
		logrus.Info("Scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Scheduler stop timeout, forcing shutdown")
	}

	s.running = false
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// runCycle is the periodic job body
func (s *Scheduler) runCycle() {
	s.wg.Add(1)
	defer s.wg.Done()

	s.mu.RLock()
	ctx := s.ctx
	running := s.running
	s.mu.RUnlock()

	if !running {
		logrus.Info("Scheduler not running, skipping cycle")
		return
	}

	if _, err := s.runPipeline(ctx); err != nil {
		logrus.Errorf("Processing cycle failed: %v", err)
	}
}

// runPipeline executes one pipeline cycle and folds its outcomes into the
// Prometheus counters
func (s *Scheduler) runPipeline(ctx context.Context) ([]pipeline.Outcome, error) {
	logrus.Info("Starting payment processing cycle")
	startTime := time.Now()

	s.metrics.PollCount.Inc()

	outcomes, err := s.pipeline.ProcessCycle(ctx)
	if err != nil {
		return outcomes, err
	}

	s.metrics.EmailsFetched.Add(float64(len(outcomes)))
	for _, o := range outcomes {
		switch o.State {
		case pipeline.StateCompleted:
			if o.Reason != pipeline.ReasonDuplicate {
				s.metrics.PaymentsRecorded.Inc()
			}
		case pipeline.StateManualReview:
			s.metrics.ManualReviews.Inc()
		case pipeline.StateSkipped:
			s.metrics.SkippedMessages.Inc()
		}
	}

	duration := time.Since(startTime)
	s.metrics.ProcessingTime.Observe(duration.Seconds())
	logrus.Infof("Payment processing cycle completed in %v (%d message(s))", duration, len(outcomes))

	return outcomes, nil
}

// RunOnce runs one processing cycle immediately (manual trigger) and
// returns the per-message outcomes
func (s *Scheduler) RunOnce(ctx context.Context) ([]pipeline.Outcome, error) {
	s.wg.Add(1)
	defer s.wg.Done()

	logrus.Info("Running payment processing once")
	return s.runPipeline(ctx)
}

// GetNextRun returns the time of the next scheduled run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		return time.Time{}
	}

	entry := s.cron.Entry(s.entryID)
	return entry.Next
}

// GetLastRun returns the time of the last run
func (s *Scheduler) GetLastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		return time.Time{}
	}

	entry := s.cron.Entry(s.entryID)
	return entry.Prev
}

// Wait waits for in-flight cycles to finish
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
