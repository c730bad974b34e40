package models

import (
	"time"
)

// DayFormat is the layout of Activity.Day.
const DayFormat = "2006-01-02"

// Activity is a closed interval of continuous use of one application in one
// idle state. Rows are written once and never updated.
type Activity struct {
	ID          string    `gorm:"primaryKey;size:26" json:"id"`
	Application string    `gorm:"not null;index" json:"application"`
	Title       string    `gorm:"not null" json:"title"`
	StartTime   time.Time `gorm:"not null;index" json:"start_time"`
	EndTime     time.Time `gorm:"not null" json:"end_time"`
	IsBrowser   bool      `gorm:"not null;default:false" json:"is_browser"`
	IsIdle      bool      `gorm:"not null;default:false" json:"is_idle"`
	Day         string    `gorm:"not null;size:10;index" json:"day"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"-"`
}

// Duration returns the activity length in whole seconds.
// Malformed rows with end before start count as zero.
func (a *Activity) Duration() int64 {
	d := int64(a.EndTime.Sub(a.StartTime) / time.Second)
	if d < 0 {
		return 0
	}
	return d
}

// DayKey returns the calendar date of t in loc, the value stored in Activity.Day.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayFormat)
}
