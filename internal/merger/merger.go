// Package merger folds point-in-time samples into closed activity intervals.
package merger

import (
	"context"
	"log"
	"time"

	"github.com/kodustech/activity-tracker/internal/models"

	"github.com/pkg/errors"
)

// UnknownApplication is recorded when the probe cannot name the foreground
// application.
const UnknownApplication = "unknown"

// DefaultBacklog bounds the closed activities kept in memory while the
// store is failing.
const DefaultBacklog = 256

// ErrBacklogFull means the store has been failing long enough that the
// pending backlog overflowed. The caller must stop sampling.
var ErrBacklogFull = errors.New("activity backlog full")

// Sample is one observation of the foreground. It is never stored.
type Sample struct {
	Time        time.Time
	Application string
	Title       string
	IsIdle      bool
}

// Sink persists closed activities.
type Sink interface {
	CreateActivity(ctx context.Context, activity *models.Activity) error
}

// State is the open interval, if any.
type State struct {
	Open        bool
	Application string
	Title       string
	IsIdle      bool
	StartTime   time.Time
	LastSeen    time.Time
}

// Merger owns a State and the backlog of activities that failed to persist.
// It is not safe for concurrent use; the sampler goroutine is its only caller.
type Merger struct {
	sink       Sink
	maxGap     time.Duration
	loc        *time.Location
	maxPending int

	state   State
	pending []*models.Activity
}

// New returns a Merger writing to sink. Samples further apart than maxGap
// never share an interval. loc decides the calendar day of each activity.
func New(sink Sink, maxGap time.Duration, loc *time.Location) *Merger {
	if loc == nil {
		loc = time.Local
	}
	return &Merger{
		sink:       sink,
		maxGap:     maxGap,
		loc:        loc,
		maxPending: DefaultBacklog,
	}
}

// SetBacklog changes the pending bound.
func (m *Merger) SetBacklog(n int) {
	if n > 0 {
		m.maxPending = n
	}
}

// State returns a copy of the open interval.
func (m *Merger) State() State {
	return m.state
}

// Pending returns how many closed activities are waiting to be persisted.
func (m *Merger) Pending() int {
	return len(m.pending)
}

// Observe folds s into the open interval, closing and persisting the
// previous one when the application or idle state changed or the gap since
// the last sample exceeds maxGap.
//
// A returned error other than ErrBacklogFull means the closed activity is
// buffered and will be retried on the next call.
func (m *Merger) Observe(ctx context.Context, s Sample) error {
	s.Time = s.Time.UTC().Truncate(time.Second)
	if s.Application == "" {
		s.Application = UnknownApplication
	}

	if m.state.Open && s.Time.Before(m.state.LastSeen) {
		log.Printf("Dropping sample at %s: before last seen %s", s.Time.Format(time.RFC3339), m.state.LastSeen.Format(time.RFC3339))
		return nil
	}

	err := m.retry(ctx)

	switch {
	case !m.state.Open:
		m.open(s)
	case s.Time.Sub(m.state.LastSeen) > m.maxGap:
		err = firstErr(err, m.close(ctx))
		m.open(s)
	case s.Application == m.state.Application && s.IsIdle == m.state.IsIdle:
		m.state.LastSeen = s.Time
		m.state.Title = s.Title
	default:
		err = firstErr(err, m.close(ctx))
		m.open(s)
	}

	return m.checkBacklog(err)
}

// Flush closes the open interval at its last sample and persists everything
// still pending. A single-sample interval becomes a zero-length activity.
func (m *Merger) Flush(ctx context.Context) error {
	err := m.retry(ctx)
	if m.state.Open {
		err = firstErr(err, m.close(ctx))
	}
	return m.checkBacklog(err)
}

func (m *Merger) open(s Sample) {
	m.state = State{
		Open:        true,
		Application: s.Application,
		Title:       s.Title,
		IsIdle:      s.IsIdle,
		StartTime:   s.Time,
		LastSeen:    s.Time,
	}
}

func (m *Merger) close(ctx context.Context) error {
	st := m.state
	m.state = State{}

	activity := &models.Activity{
		Application: st.Application,
		Title:       st.Title,
		StartTime:   st.StartTime,
		EndTime:     st.LastSeen,
		IsBrowser:   IsBrowser(st.Application),
		IsIdle:      st.IsIdle,
		Day:         models.DayKey(st.StartTime, m.loc),
	}

	if len(m.pending) > 0 {
		// Keep insertion order behind the older failures.
		m.pending = append(m.pending, activity)
		return nil
	}

	if err := m.sink.CreateActivity(ctx, activity); err != nil {
		m.pending = append(m.pending, activity)
		return errors.Wrapf(err, "failed to persist %s activity", activity.Application)
	}
	return nil
}

func (m *Merger) retry(ctx context.Context) error {
	for len(m.pending) > 0 {
		if err := m.sink.CreateActivity(ctx, m.pending[0]); err != nil {
			return errors.Wrapf(err, "failed to persist %d pending activities", len(m.pending))
		}
		m.pending[0] = nil
		m.pending = m.pending[1:]
	}
	m.pending = nil
	return nil
}

func (m *Merger) checkBacklog(err error) error {
	if len(m.pending) > m.maxPending {
		if err == nil {
			return ErrBacklogFull
		}
		return errors.Wrap(ErrBacklogFull, err.Error())
	}
	return err
}

func firstErr(a, b error) error {
	if a != nil {
		return a
	}
	return b
}
