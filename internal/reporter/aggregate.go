package reporter

import (
	"sort"

	"github.com/kodustech/activity-tracker/internal/models"
	"github.com/kodustech/activity-tracker/pkg/utils"
)

// Aggregate computes PeriodStats from the activities that start inside
// period and the application to category index. It is pure: the same input
// always yields the same output.
//
// Idle time is attributed to the application that was in front while the
// user was away. TotalDuration counts both states; only active time of
// productive categories counts as productive.
func Aggregate(period models.ReportPeriod, activities []models.Activity, index map[string]models.Category, goalMinutes int64) *models.PeriodStats {
	stats := &models.PeriodStats{
		Period:           period,
		DailyGoalMinutes: goalMinutes,
		TopApplications:  []models.ApplicationStats{},
		Activities:       []models.Activity{},
	}

	byApp := make(map[string]*models.ApplicationStats)
	var order []string
	for _, a := range activities {
		app, ok := byApp[a.Application]
		if !ok {
			app = &models.ApplicationStats{
				Application: a.Application,
				Activities:  []models.Activity{},
			}
			if c, found := index[a.Application]; found {
				c := c
				app.Category = &c
			}
			byApp[a.Application] = app
			order = append(order, a.Application)
		}

		d := a.Duration()
		app.TotalDuration += d
		if a.IsIdle {
			app.IdleDuration += d
		}
		app.Activities = append(app.Activities, a)
		stats.Activities = append(stats.Activities, a)
	}

	for _, name := range order {
		app := byApp[name]
		app.ActiveDuration = app.TotalDuration - app.IdleDuration

		stats.TotalTime += app.TotalDuration
		stats.IdleTime += app.IdleDuration
		if app.Category != nil && app.Category.IsProductive {
			stats.ProductiveTime += app.ActiveDuration
		}
		stats.TopApplications = append(stats.TopApplications, *app)
	}

	sort.SliceStable(stats.TopApplications, func(i, j int) bool {
		a, b := stats.TopApplications[i], stats.TopApplications[j]
		if a.TotalDuration != b.TotalDuration {
			return a.TotalDuration > b.TotalDuration
		}
		return a.Application < b.Application
	})

	stats.GoalPercentage = utils.Percent(stats.ProductiveTime, stats.TotalTime)
	stats.GoalProgress = utils.Percent(stats.ProductiveTime, goalMinutes*60*period.Days())

	return stats
}
