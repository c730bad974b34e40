package tracker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/kodustech/activity-tracker/internal/config"
	"github.com/kodustech/activity-tracker/internal/merger"
	"github.com/kodustech/activity-tracker/internal/models"
	"github.com/kodustech/activity-tracker/pkg/probe"

	"github.com/pkg/errors"
)

// Store is the part of the repository the sampler writes to.
type Store interface {
	merger.Sink
	CreateErrorLog(ctx context.Context, errorLog *models.ErrorLog) error
}

// Service is the sampler: it polls the probe once per tick and feeds the
// merger. The goroutine running Start is the merger's only user.
type Service struct {
	config *config.Config
	repo   Store
	probe  probe.Probe
	merger *merger.Merger
	now    func() time.Time

	mu       sync.Mutex
	running  bool
	current  *merger.Sample
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewService(cfg *config.Config, repo Store, p probe.Probe) *Service {
	return &Service{
		config:   cfg,
		repo:     repo,
		probe:    p,
		merger:   merger.New(repo, cfg.Tracker.MaxGap, cfg.MustLocation()),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// Start samples until ctx is canceled or Stop is called, then flushes the
// open interval. It returns nil after a clean shutdown and wraps
// merger.ErrBacklogFull when the store stayed unavailable for too long.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("tracker is already running")
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	log.Printf("Starting tracker with %v poll interval", s.config.Tracker.PollInterval)

	ticker := time.NewTicker(s.config.Tracker.PollInterval)
	defer ticker.Stop()

	if err := s.SampleOnce(ctx); err != nil {
		return s.shutdown(ctx, err)
	}

	for {
		select {
		case <-ctx.Done():
			log.Println("Tracker stopped by context")
			return s.shutdown(ctx, nil)

		case <-s.stopChan:
			log.Println("Tracker stopped")
			return s.shutdown(ctx, nil)

		case <-ticker.C:
			if err := s.SampleOnce(ctx); err != nil {
				return s.shutdown(ctx, err)
			}
		}
	}
}

// Stop asks a running Start to flush and return.
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Current returns the most recent sample, or nil before the first tick.
func (s *Service) Current() *merger.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	c := *s.current
	return &c
}

// SampleOnce queries the probe and feeds one sample to the merger.
// Probe and store failures are logged and recorded; only a full backlog is
// returned.
func (s *Service) SampleOnce(ctx context.Context) error {
	sample := s.sample(ctx)

	s.mu.Lock()
	s.current = &sample
	s.mu.Unlock()

	err := s.merger.Observe(ctx, sample)
	if errors.Is(err, merger.ErrBacklogFull) {
		return err
	}
	if err != nil {
		s.storeError(ctx, "store", err)
	}
	return nil
}

func (s *Service) sample(ctx context.Context) merger.Sample {
	sample := merger.Sample{
		Time:        s.now(),
		Application: merger.UnknownApplication,
	}

	windowInfo, err := s.probe.GetFocusedWindow()
	switch {
	case err != nil:
		s.storeError(ctx, "probe", errors.Wrap(err, "failed to get focused window"))
	case windowInfo == nil || windowInfo.AppName == "":
		s.storeError(ctx, "probe", errors.Wrap(probe.ErrUnavailable, "no valid window information available"))
	default:
		sample.Application = windowInfo.AppName
		sample.Title = windowInfo.WindowTitle
	}

	idleInfo, err := s.probe.GetIdleInfo()
	if err != nil {
		// Without idle data the user counts as present.
		log.Printf("Failed to get idle info: %v", err)
	} else if idleInfo != nil {
		sample.IsIdle = idleInfo.IsIdle(s.config.Tracker.IdleThreshold)
	}

	return sample
}

func (s *Service) shutdown(ctx context.Context, cause error) error {
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.Tracker.FlushTimeout)
	defer cancel()

	if err := s.merger.Flush(flushCtx); err != nil {
		log.Printf("Failed to flush open activity: %v", err)
		if cause == nil {
			cause = errors.Wrap(err, "failed to flush open activity")
		}
	}
	return cause
}

func (s *Service) storeError(ctx context.Context, source string, err error) {
	errorLog := &models.ErrorLog{
		Timestamp: s.now(),
		Source:    source,
		ErrorMsg:  err.Error(),
	}

	if dbErr := s.repo.CreateErrorLog(ctx, errorLog); dbErr != nil {
		log.Printf("Failed to store error in database: %v (original error: %v)", dbErr, err)
	} else {
		log.Printf("Error logged to database: %v", err)
	}
}
