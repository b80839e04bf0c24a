package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// PruneFunc deletes expired rows and reports how many were removed.
type PruneFunc func(ctx context.Context) (int64, error)

// PruneScheduler runs a PruneFunc on a fixed interval.
type PruneScheduler struct {
	prune      PruneFunc
	config     *SchedulerConfig
	ticker     *time.Ticker
	stopChan   chan struct{}
	done       chan struct{}
	mu         sync.RWMutex
	running    bool
	lastRun    time.Time
	lastError  error
	runCount   int
	failures   int
	rowsPruned int64
}

// SchedulerConfig holds configuration for the prune scheduler.
type SchedulerConfig struct {
	// Interval is how often to prune.
	Interval time.Duration

	// Timeout bounds a single prune.
	Timeout time.Duration

	// StartImmediately prunes once when the scheduler starts.
	StartImmediately bool

	// OnComplete is called after each prune attempt (success or failure).
	OnComplete func(pruned int64, err error)
}

// DefaultSchedulerConfig returns a scheduler config with daily pruning.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		Interval: 24 * time.Hour,
		Timeout:  time.Minute,
	}
}

// NewPruneScheduler creates a new prune scheduler.
func NewPruneScheduler(prune PruneFunc, config *SchedulerConfig) *PruneScheduler {
	if config == nil {
		config = DefaultSchedulerConfig()
	}
	if config.Timeout <= 0 {
		config.Timeout = time.Minute
	}

	return &PruneScheduler{
		prune:  prune,
		config: config,
	}
}

// Start starts the scheduler.
// Returns an error if the scheduler is already running.
func (s *PruneScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}
	if s.config.Interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive: %s", s.config.Interval)
	}

	s.ticker = time.NewTicker(s.config.Interval)
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	s.running = true

	go s.run(s.ticker, s.stopChan, s.done)

	return nil
}

// Stop stops the scheduler and waits for a prune in progress to finish.
func (s *PruneScheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is not running")
	}
	close(s.stopChan)
	s.ticker.Stop()
	s.running = false
	done := s.done
	s.mu.Unlock()

	<-done
	return nil
}

func (s *PruneScheduler) run(ticker *time.Ticker, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	if s.config.StartImmediately {
		s.runPrune()
	}
	for {
		select {
		case <-ticker.C:
			s.runPrune()
		case <-stop:
			return
		}
	}
}

// runPrune executes a prune and updates statistics.
func (s *PruneScheduler) runPrune() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	n, err := s.prune(ctx)
	cancel()

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastError = err
	s.runCount++
	if err != nil {
		s.failures++
	} else {
		s.rowsPruned += n
	}
	s.mu.Unlock()

	if s.config.OnComplete != nil {
		s.config.OnComplete(n, err)
	}
}

// Status returns the current scheduler status.
func (s *PruneScheduler) Status() *SchedulerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var next time.Time
	if s.running && !s.lastRun.IsZero() {
		next = s.lastRun.Add(s.config.Interval)
	}

	return &SchedulerStatus{
		Running:    s.running,
		Interval:   s.config.Interval,
		LastRun:    s.lastRun,
		NextRun:    next,
		RunCount:   s.runCount,
		Failures:   s.failures,
		RowsPruned: s.rowsPruned,
		LastError:  s.lastError,
	}
}

// IsRunning returns whether the scheduler is currently running.
func (s *PruneScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// SchedulerStatus contains information about the scheduler state.
type SchedulerStatus struct {
	Running    bool
	Interval   time.Duration
	LastRun    time.Time
	NextRun    time.Time
	RunCount   int
	Failures   int
	RowsPruned int64
	LastError  error
}

// String returns a human-readable representation of the scheduler status.
func (s *SchedulerStatus) String() string {
	if !s.Running {
		return "Prune scheduler: Stopped"
	}

	status := "Prune scheduler: Running\n"
	status += fmt.Sprintf("  Interval: %s\n", s.Interval)
	status += fmt.Sprintf("  Runs: %d (failures: %d)\n", s.RunCount, s.Failures)
	status += fmt.Sprintf("  Rows pruned: %d\n", s.RowsPruned)

	if !s.LastRun.IsZero() {
		status += fmt.Sprintf("  Last Run: %s\n", s.LastRun.Format(time.RFC3339))
	}
	if !s.NextRun.IsZero() {
		status += fmt.Sprintf("  Next Run: %s\n", s.NextRun.Format(time.RFC3339))
	}
	if s.LastError != nil {
		status += fmt.Sprintf("  Last Error: %v\n", s.LastError)
	}

	return status
}
