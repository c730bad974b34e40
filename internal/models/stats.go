package models

import "time"

// Period types accepted by the report layer.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodRange = "range"
)

// ReportPeriod is a half-open [Start, End) range.
type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Type  string    `json:"type"` // "day", "week", "month" or "range"
}

// Days returns the number of calendar days the period covers, at least 1.
func (p ReportPeriod) Days() int64 {
	days := int64(0)
	for d := p.Start; d.Before(p.End); d = d.AddDate(0, 0, 1) {
		days++
	}
	if days == 0 {
		return 1
	}
	return days
}

// ApplicationStats summarizes one application inside a period.
// TotalDuration includes idle time; ActiveDuration = TotalDuration - IdleDuration.
type ApplicationStats struct {
	Application    string     `json:"application"`
	TotalDuration  int64      `json:"total_duration"`
	ActiveDuration int64      `json:"active_duration"`
	IdleDuration   int64      `json:"idle_duration"`
	Category       *Category  `json:"category"`
	Activities     []Activity `json:"activities"`
}

// PeriodStats is the aggregate view over a ReportPeriod. All durations are seconds.
type PeriodStats struct {
	Period           ReportPeriod       `json:"period"`
	TotalTime        int64              `json:"total_time"`
	ProductiveTime   int64              `json:"productive_time"`
	IdleTime         int64              `json:"idle_time"`
	GoalPercentage   int64              `json:"goal_percentage"`
	DailyGoalMinutes int64              `json:"daily_goal_minutes"`
	GoalProgress     int64              `json:"goal_progress"`
	TopApplications  []ApplicationStats `json:"top_applications"`
	Activities       []Activity         `json:"activities"`
}

// Top returns at most n applications, in ranking order.
func (s *PeriodStats) Top(n int) []ApplicationStats {
	if n <= 0 || n >= len(s.TopApplications) {
		return s.TopApplications
	}
	return s.TopApplications[:n]
}

// TimeRange is an explicit [Start, End) query range.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
