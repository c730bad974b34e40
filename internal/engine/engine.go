// Package engine is the query and command boundary shared by the HTTP API
// and the CLI. It composes the store, the category service and the
// aggregator; it holds no state of its own beyond the configured zone.
package engine

import (
	"context"
	"io"
	"time"

	"github.com/kodustech/activity-tracker/internal/category"
	"github.com/kodustech/activity-tracker/internal/database"
	"github.com/kodustech/activity-tracker/internal/export"
	"github.com/kodustech/activity-tracker/internal/models"
	"github.com/kodustech/activity-tracker/internal/reporter"

	"github.com/pkg/errors"
)

// ErrInvalidRange marks a query range whose end is not after its start.
var ErrInvalidRange = errors.New("invalid range")

// Store is the read side of the repository.
type Store interface {
	ActivitiesInRange(ctx context.Context, from, to time.Time) ([]models.Activity, error)
	Snapshot(ctx context.Context, from, to time.Time) ([]models.Activity, map[string]models.Category, error)
	DeleteActivitiesInRange(ctx context.Context, from, to time.Time) (int64, error)
	DeleteActivitiesBefore(ctx context.Context, before time.Time) (int64, error)
	Applications(ctx context.Context) ([]string, error)
}

// Engine answers activity and statistics queries.
type Engine struct {
	store      Store
	categories *category.Service
	loc        *time.Location
	now        func() time.Time
}

// New returns an Engine reporting in loc.
func New(store Store, categories *category.Service, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{store: store, categories: categories, loc: loc, now: time.Now}
}

// Location is the zone day, week and month boundaries are computed in.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Now is the engine clock, in the report zone.
func (e *Engine) Now() time.Time {
	return e.now().In(e.loc)
}

// GetActivities returns activities starting in [r.Start, r.End).
func (e *Engine) GetActivities(ctx context.Context, r models.TimeRange) ([]models.Activity, error) {
	if !r.End.After(r.Start) {
		return nil, errors.Wrapf(ErrInvalidRange, "end %s is not after start %s",
			r.End.Format(time.RFC3339), r.Start.Format(time.RFC3339))
	}
	return e.store.ActivitiesInRange(ctx, r.Start, r.End)
}

// GetDailyStats aggregates the local day containing date.
func (e *Engine) GetDailyStats(ctx context.Context, date time.Time) (*models.PeriodStats, error) {
	return e.stats(ctx, reporter.DayRange(date, e.loc))
}

// GetWeeklyStats aggregates the ISO week containing date.
func (e *Engine) GetWeeklyStats(ctx context.Context, date time.Time) (*models.PeriodStats, error) {
	return e.stats(ctx, reporter.WeekRange(date, e.loc))
}

// GetMonthlyStats aggregates the calendar month containing date.
func (e *Engine) GetMonthlyStats(ctx context.Context, date time.Time) (*models.PeriodStats, error) {
	return e.stats(ctx, reporter.MonthRange(date, e.loc))
}

// GetStats aggregates a named period ("day", "week" or "month").
func (e *Engine) GetStats(ctx context.Context, periodType string, date time.Time) (*models.PeriodStats, error) {
	period, err := reporter.PeriodFor(periodType, date, e.loc)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidRange, err.Error())
	}
	return e.stats(ctx, period)
}

// GetRangeStats aggregates an arbitrary range.
func (e *Engine) GetRangeStats(ctx context.Context, r models.TimeRange) (*models.PeriodStats, error) {
	if !r.End.After(r.Start) {
		return nil, errors.Wrap(ErrInvalidRange, "end is not after start")
	}
	return e.stats(ctx, models.ReportPeriod{Start: r.Start.In(e.loc), End: r.End.In(e.loc), Type: models.PeriodRange})
}

func (e *Engine) stats(ctx context.Context, period models.ReportPeriod) (*models.PeriodStats, error) {
	goal, err := e.categories.DailyGoal(ctx)
	if err != nil {
		return nil, err
	}
	activities, index, err := e.store.Snapshot(ctx, period.Start, period.End)
	if err != nil {
		return nil, err
	}
	return reporter.Aggregate(period, activities, index, goal), nil
}

// TodaySummary is the compact view shown by status displays.
type TodaySummary struct {
	Date             string                    `json:"date"`
	TotalTime        int64                     `json:"total_time"`
	ProductiveTime   int64                     `json:"productive_time"`
	IdleTime         int64                     `json:"idle_time"`
	GoalPercentage   int64                     `json:"goal_percentage"`
	DailyGoalMinutes int64                     `json:"daily_goal_minutes"`
	GoalProgress     int64                     `json:"goal_progress"`
	TopApplications  []models.ApplicationStats `json:"top_applications"`
}

// GetTodaySummary returns today's totals and the top five applications,
// without per-activity detail.
func (e *Engine) GetTodaySummary(ctx context.Context) (*TodaySummary, error) {
	now := e.Now()
	stats, err := e.GetDailyStats(ctx, now)
	if err != nil {
		return nil, err
	}

	top := make([]models.ApplicationStats, 0, 5)
	for _, app := range stats.Top(5) {
		app.Activities = nil
		top = append(top, app)
	}

	return &TodaySummary{
		Date:             models.DayKey(now, e.loc),
		TotalTime:        stats.TotalTime,
		ProductiveTime:   stats.ProductiveTime,
		IdleTime:         stats.IdleTime,
		GoalPercentage:   stats.GoalPercentage,
		DailyGoalMinutes: stats.DailyGoalMinutes,
		GoalProgress:     stats.GoalProgress,
		TopApplications:  top,
	}, nil
}

func (e *Engine) GetCategories(ctx context.Context) ([]models.Category, error) {
	return e.categories.Categories(ctx)
}

func (e *Engine) AddCategory(ctx context.Context, name, color string, productive bool) (*models.Category, error) {
	return e.categories.Add(ctx, name, color, productive)
}

func (e *Engine) UpdateCategory(ctx context.Context, id string, upd models.CategoryUpdate) (*models.Category, error) {
	return e.categories.Update(ctx, id, upd)
}

func (e *Engine) DeleteCategory(ctx context.Context, id string) error {
	return e.categories.Delete(ctx, id)
}

func (e *Engine) SetAppCategory(ctx context.Context, application, categoryID string) error {
	return e.categories.Assign(ctx, application, categoryID)
}

func (e *Engine) ClearAppCategory(ctx context.Context, application string) error {
	return e.categories.Unassign(ctx, application)
}

func (e *Engine) GetAppCategories(ctx context.Context) ([]models.AppCategory, error) {
	return e.categories.Mappings(ctx)
}

// GetApplications lists every application ever recorded, sorted by name.
func (e *Engine) GetApplications(ctx context.Context) ([]string, error) {
	return e.store.Applications(ctx)
}

func (e *Engine) GetUncategorizedApps(ctx context.Context) ([]string, error) {
	return e.categories.Uncategorized(ctx)
}

func (e *Engine) GetDailyGoal(ctx context.Context) (int64, error) {
	return e.categories.DailyGoal(ctx)
}

func (e *Engine) SetDailyGoal(ctx context.Context, minutes int64) error {
	return e.categories.SetDailyGoal(ctx, minutes)
}

// PurgeBefore deletes activities that started before the local midnight of
// date and returns how many were removed.
func (e *Engine) PurgeBefore(ctx context.Context, date time.Time) (int64, error) {
	cutoff := reporter.DayRange(date, e.loc).Start
	return e.store.DeleteActivitiesBefore(ctx, cutoff)
}

// PurgeRange deletes activities that started inside r.
func (e *Engine) PurgeRange(ctx context.Context, r models.TimeRange) (int64, error) {
	if !r.End.After(r.Start) {
		return 0, errors.Wrap(ErrInvalidRange, "end is not after start")
	}
	return e.store.DeleteActivitiesInRange(ctx, r.Start, r.End)
}

// Export writes the activities of r to w and returns how many were written.
func (e *Engine) Export(ctx context.Context, w io.Writer, format export.Format, r models.TimeRange) (int, error) {
	if !r.End.After(r.Start) {
		return 0, errors.Wrap(ErrInvalidRange, "end is not after start")
	}
	activities, index, err := e.store.Snapshot(ctx, r.Start, r.End)
	if err != nil {
		return 0, err
	}
	if err := export.Write(w, format, r, activities, index, e.loc, e.Now()); err != nil {
		return 0, err
	}
	return len(activities), nil
}

var _ Store = (*database.Repository)(nil)
