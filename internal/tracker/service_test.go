package tracker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kodustech/activity-tracker/internal/config"
	"github.com/kodustech/activity-tracker/internal/merger"
	"github.com/kodustech/activity-tracker/internal/models"
	"github.com/kodustech/activity-tracker/pkg/probe"

	"github.com/pkg/errors"
)

type MockProbe struct {
	mu         sync.Mutex
	window     *probe.WindowInfo
	windowErr  error
	idle       *probe.IdleInfo
	idleErr    error
	windowCall int
}

func (m *MockProbe) GetFocusedWindow() (*probe.WindowInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windowCall++
	return m.window, m.windowErr
}

func (m *MockProbe) GetIdleInfo() (*probe.IdleInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idle, m.idleErr
}

func (m *MockProbe) IsAvailable() bool        { return true }
func (m *MockProbe) GetDisplayServer() string { return "mock" }
func (m *MockProbe) Close() error             { return nil }

func (m *MockProbe) set(app, title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.window = &probe.WindowInfo{AppName: app, WindowTitle: title}
	m.windowErr = nil
}

type MockStore struct {
	mu         sync.Mutex
	activities []models.Activity
	errorLogs  []models.ErrorLog
	failing    bool
}

func (m *MockStore) CreateActivity(ctx context.Context, activity *models.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("database is locked")
	}
	m.activities = append(m.activities, *activity)
	return nil
}

func (m *MockStore) CreateErrorLog(ctx context.Context, errorLog *models.ErrorLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorLogs = append(m.errorLogs, *errorLog)
	return nil
}

func (m *MockStore) snapshot() ([]models.Activity, []models.ErrorLog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Activity(nil), m.activities...), append([]models.ErrorLog(nil), m.errorLogs...)
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(p probe.Probe, store *MockStore) (*Service, *fakeClock) {
	cfg := config.Default()
	cfg.Report.TimeZone = "UTC"
	clock := &fakeClock{t: time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)}
	s := NewService(cfg, store, p)
	s.now = clock.now
	return s, clock
}

func TestSampleOnceMergesAndFlushes(t *testing.T) {
	p := &MockProbe{idle: &probe.IdleInfo{}}
	store := &MockStore{}
	s, clock := newTestService(p, store)
	ctx := context.Background()

	p.set("code", "main.go")
	if err := s.SampleOnce(ctx); err != nil {
		t.Fatalf("SampleOnce() error = %v", err)
	}
	clock.advance(15 * time.Second)
	p.set("code", "service.go")
	if err := s.SampleOnce(ctx); err != nil {
		t.Fatalf("SampleOnce() error = %v", err)
	}
	clock.advance(15 * time.Second)
	p.set("firefox", "docs")
	if err := s.SampleOnce(ctx); err != nil {
		t.Fatalf("SampleOnce() error = %v", err)
	}

	if err := s.shutdown(ctx, nil); err != nil {
		t.Fatalf("shutdown() error = %v", err)
	}

	activities, _ := store.snapshot()
	if len(activities) != 2 {
		t.Fatalf("got %d activities, want 2", len(activities))
	}
	if activities[0].Application != "code" || activities[0].Title != "service.go" || activities[0].Duration() != 15 {
		t.Errorf("first activity = %+v, want code/service.go lasting 15s", activities[0])
	}
	if activities[1].Application != "firefox" || activities[1].Duration() != 0 || !activities[1].IsBrowser {
		t.Errorf("second activity = %+v, want zero-length firefox browser activity", activities[1])
	}
	if p.windowCall != 3 {
		t.Errorf("probe queried %d times, want one per tick (3)", p.windowCall)
	}
}

func TestProbeFailureRecordsUnknownSample(t *testing.T) {
	tests := []struct {
		name      string
		window    *probe.WindowInfo
		windowErr error
	}{
		{"error", nil, errors.Wrap(probe.ErrUnavailable, "no display")},
		{"nil window", nil, nil},
		{"empty application", &probe.WindowInfo{WindowTitle: "untitled"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &MockProbe{window: tt.window, windowErr: tt.windowErr, idle: &probe.IdleInfo{}}
			store := &MockStore{}
			s, _ := newTestService(p, store)

			if err := s.SampleOnce(context.Background()); err != nil {
				t.Fatalf("SampleOnce() error = %v", err)
			}

			cur := s.Current()
			if cur == nil || cur.Application != merger.UnknownApplication {
				t.Fatalf("Current() = %+v, want unknown application", cur)
			}
			_, logs := store.snapshot()
			if len(logs) != 1 || logs[0].Source != "probe" {
				t.Errorf("error logs = %+v, want one probe entry", logs)
			}
		})
	}
}

func TestIdleClassification(t *testing.T) {
	tests := []struct {
		name     string
		idle     *probe.IdleInfo
		idleErr  error
		wantIdle bool
	}{
		{"active", &probe.IdleInfo{IdleTime: time.Minute}, nil, false},
		{"past threshold", &probe.IdleInfo{IdleTime: 6 * time.Minute}, nil, true},
		{"at threshold", &probe.IdleInfo{IdleTime: 5 * time.Minute}, nil, false},
		{"locked", &probe.IdleInfo{IsLocked: true}, nil, true},
		{"idle query fails", nil, errors.New("no extension"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &MockProbe{idle: tt.idle, idleErr: tt.idleErr}
			p.set("code", "main.go")
			s, _ := newTestService(p, &MockStore{})

			if err := s.SampleOnce(context.Background()); err != nil {
				t.Fatalf("SampleOnce() error = %v", err)
			}
			if got := s.Current().IsIdle; got != tt.wantIdle {
				t.Errorf("IsIdle = %v, want %v", got, tt.wantIdle)
			}
			if got := s.Current().Application; got != "code" {
				t.Errorf("Application = %q, want code (idle keeps the foreground app)", got)
			}
		})
	}
}

func TestStoreFailureIsRecordedNotFatal(t *testing.T) {
	p := &MockProbe{idle: &probe.IdleInfo{}}
	store := &MockStore{failing: true}
	s, clock := newTestService(p, store)
	ctx := context.Background()

	p.set("code", "a")
	if err := s.SampleOnce(ctx); err != nil {
		t.Fatalf("SampleOnce() error = %v", err)
	}
	clock.advance(15 * time.Second)
	p.set("slack", "b")
	if err := s.SampleOnce(ctx); err != nil {
		t.Fatalf("SampleOnce() error = %v, store failures below the backlog bound are recovered", err)
	}

	_, logs := store.snapshot()
	if len(logs) != 1 || logs[0].Source != "store" {
		t.Errorf("error logs = %+v, want one store entry", logs)
	}
}

func TestBacklogFullStopsSampler(t *testing.T) {
	p := &MockProbe{idle: &probe.IdleInfo{}}
	store := &MockStore{failing: true}
	s, clock := newTestService(p, store)
	s.merger.SetBacklog(1)
	ctx := context.Background()

	var err error
	for _, app := range []string{"a", "b", "c"} {
		p.set(app, "")
		err = s.SampleOnce(ctx)
		clock.advance(15 * time.Second)
	}
	if !errors.Is(err, merger.ErrBacklogFull) {
		t.Fatalf("SampleOnce() error = %v, want ErrBacklogFull", err)
	}
}

func TestStartFlushesOnCancel(t *testing.T) {
	p := &MockProbe{idle: &probe.IdleInfo{}}
	p.set("code", "main.go")
	store := &MockStore{}
	s, _ := newTestService(p, store)
	s.config.Tracker.PollInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}

	activities, _ := store.snapshot()
	if len(activities) != 1 || activities[0].Application != "code" {
		t.Errorf("activities = %+v, want the open interval flushed", activities)
	}
	if s.IsRunning() {
		t.Error("IsRunning() should be false after Start returns")
	}
}

func TestStopFlushes(t *testing.T) {
	p := &MockProbe{idle: &probe.IdleInfo{}}
	p.set("slack", "general")
	store := &MockStore{}
	s, _ := newTestService(p, store)

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	s.Stop()
	s.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after Stop")
	}

	activities, _ := store.snapshot()
	if len(activities) != 1 {
		t.Errorf("got %d activities, want 1", len(activities))
	}
}
