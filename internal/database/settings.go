package database

import (
	"context"

	"github.com/kodustech/activity-tracker/internal/models"

	"github.com/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetSetting returns the value stored under key; ok is false when unset.
func (r *Repository) GetSetting(ctx context.Context, key string) (value string, ok bool, err error) {
	var setting models.Setting
	result := r.db.WithContext(ctx).Where("key = ?", key).First(&setting)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, ioError(result.Error, "failed to get setting")
	}
	return setting.Value, true, nil
}

// SetSetting upserts key.
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	setting := models.Setting{Key: key, Value: value}
	result := r.write(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&setting)
	if result.Error != nil {
		return ioError(result.Error, "failed to set setting")
	}
	return nil
}
