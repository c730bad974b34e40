package database

import (
	"context"
	"time"

	"github.com/kodustech/activity-tracker/internal/models"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	"gorm.io/gorm"
)

// Repository handles all database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// NewID returns a ULID whose time component is t.
func NewID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}

// write returns the handle for mutations; see DB.writer.
func (r *Repository) write(ctx context.Context) *gorm.DB {
	return r.db.Writer().WithContext(ctx)
}

// normalizeTime is the canonical stored form: UTC, whole seconds.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// CreateActivity inserts a closed activity. The insert runs in its own
// transaction so readers see either no row or the complete row.
func (r *Repository) CreateActivity(ctx context.Context, activity *models.Activity) error {
	if activity.EndTime.Before(activity.StartTime) {
		return errors.Errorf("activity %s ends before it starts", activity.Application)
	}

	activity.StartTime = normalizeTime(activity.StartTime)
	activity.EndTime = normalizeTime(activity.EndTime)
	if activity.ID == "" {
		activity.ID = NewID(activity.StartTime)
	}

	err := r.write(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(activity).Error
	})
	return ioError(err, "failed to insert activity")
}

// ActivitiesInRange returns activities with from <= start_time < to,
// ordered by start_time ascending.
func (r *Repository) ActivitiesInRange(ctx context.Context, from, to time.Time) ([]models.Activity, error) {
	return activitiesInRange(r.db.WithContext(ctx), from, to)
}

func activitiesInRange(db *gorm.DB, from, to time.Time) ([]models.Activity, error) {
	activities := []models.Activity{}
	result := db.
		Where("start_time >= ? AND start_time < ?", from.UTC(), to.UTC()).
		Order("start_time ASC").
		Order("id ASC").
		Find(&activities)
	if result.Error != nil {
		return nil, ioError(result.Error, "failed to query activities")
	}
	return activities, nil
}

// Snapshot reads the activities of [from, to) and the application category
// index inside one read transaction.
func (r *Repository) Snapshot(ctx context.Context, from, to time.Time) ([]models.Activity, map[string]models.Category, error) {
	var (
		activities []models.Activity
		index      map[string]models.Category
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if activities, err = activitiesInRange(tx, from, to); err != nil {
			return err
		}
		index, err = categoryIndex(tx)
		return err
	})
	if err != nil {
		return nil, nil, ioError(err, "failed to read snapshot")
	}
	return activities, index, nil
}

// LatestActivity returns the most recently started activity, or nil.
func (r *Repository) LatestActivity(ctx context.Context) (*models.Activity, error) {
	var activity models.Activity
	result := r.db.WithContext(ctx).Order("start_time DESC").Order("id DESC").First(&activity)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, ioError(result.Error, "failed to get latest activity")
	}
	return &activity, nil
}

// Applications lists every application name seen in stored activities.
func (r *Repository) Applications(ctx context.Context) ([]string, error) {
	apps := []string{}
	result := r.db.WithContext(ctx).
		Model(&models.Activity{}).
		Distinct().
		Order("application ASC").
		Pluck("application", &apps)
	if result.Error != nil {
		return nil, ioError(result.Error, "failed to list applications")
	}
	return apps, nil
}

// DeleteActivitiesInRange removes activities with from <= start_time < to.
func (r *Repository) DeleteActivitiesInRange(ctx context.Context, from, to time.Time) (int64, error) {
	result := r.write(ctx).
		Where("start_time >= ? AND start_time < ?", from.UTC(), to.UTC()).
		Delete(&models.Activity{})
	if result.Error != nil {
		return 0, ioError(result.Error, "failed to delete activities")
	}
	return result.RowsAffected, nil
}

// DeleteActivitiesBefore removes activities that started before the given time.
func (r *Repository) DeleteActivitiesBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.write(ctx).Where("start_time < ?", before.UTC()).Delete(&models.Activity{})
	if result.Error != nil {
		return 0, ioError(result.Error, "failed to delete old activities")
	}
	return result.RowsAffected, nil
}

// CreateErrorLog inserts a new error log into the database
func (r *Repository) CreateErrorLog(ctx context.Context, errorLog *models.ErrorLog) error {
	result := r.write(ctx).Create(errorLog)
	if result.Error != nil {
		return ioError(result.Error, "failed to insert error log")
	}
	return nil
}

// RecentErrors returns the newest error logs first.
func (r *Repository) RecentErrors(ctx context.Context, limit int) ([]models.ErrorLog, error) {
	logs := []models.ErrorLog{}
	result := r.db.WithContext(ctx).Order("timestamp DESC").Order("id DESC").Limit(limit).Find(&logs)
	if result.Error != nil {
		return nil, ioError(result.Error, "failed to query error logs")
	}
	return logs, nil
}

// Clear removes all activities from the database
func (r *Repository) Clear(ctx context.Context) error {
	result := r.write(ctx).Exec("DELETE FROM activities")
	if result.Error != nil {
		return ioError(result.Error, "failed to clear activities")
	}
	return nil
}
