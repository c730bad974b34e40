package reporter

import (
	"time"

	"github.com/kodustech/activity-tracker/internal/models"

	"github.com/pkg/errors"
)

// Ranges are built with time.Date and AddDate in loc, so a day containing a
// DST transition is 23 or 25 hours long.

// DayRange returns [local midnight of date, next local midnight).
func DayRange(date time.Time, loc *time.Location) models.ReportPeriod {
	d := date.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return models.ReportPeriod{Start: start, End: start.AddDate(0, 0, 1), Type: models.PeriodDay}
}

// WeekRange returns the ISO week (Monday to Monday) containing date.
func WeekRange(date time.Time, loc *time.Location) models.ReportPeriod {
	d := date.In(loc)
	weekday := int(d.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday = 7
	}
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -(weekday - 1))
	return models.ReportPeriod{Start: start, End: start.AddDate(0, 0, 7), Type: models.PeriodWeek}
}

// MonthRange returns the calendar month containing date.
func MonthRange(date time.Time, loc *time.Location) models.ReportPeriod {
	d := date.In(loc)
	start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, loc)
	return models.ReportPeriod{Start: start, End: start.AddDate(0, 1, 0), Type: models.PeriodMonth}
}

// PeriodFor maps a period name to its range around date.
func PeriodFor(periodType string, date time.Time, loc *time.Location) (models.ReportPeriod, error) {
	switch periodType {
	case "day", "today", "daily":
		return DayRange(date, loc), nil
	case "week", "weekly":
		return WeekRange(date, loc), nil
	case "month", "monthly":
		return MonthRange(date, loc), nil
	}
	return models.ReportPeriod{}, errors.Errorf("invalid period type: %s (valid: day, week, month)", periodType)
}

// ParseDate reads a YYYY-MM-DD date as local midnight in loc, or a full
// RFC 3339 timestamp. An empty string means now.
func ParseDate(value string, loc *time.Location, now time.Time) (time.Time, error) {
	if value == "" {
		return now.In(loc), nil
	}
	if t, err := time.ParseInLocation(models.DayFormat, value, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, errors.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", value)
	}
	return t, nil
}
