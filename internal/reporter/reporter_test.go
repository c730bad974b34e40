package reporter

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/kodustech/activity-tracker/internal/models"
)

var day = time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

func activity(app string, startH, startM, endH, endM int, idle bool) models.Activity {
	start := day.Add(time.Duration(startH)*time.Hour + time.Duration(startM)*time.Minute)
	end := day.Add(time.Duration(endH)*time.Hour + time.Duration(endM)*time.Minute)
	return models.Activity{
		ID:          app + start.Format("1504"),
		Application: app,
		StartTime:   start,
		EndTime:     end,
		IsIdle:      idle,
		Day:         models.DayKey(start, time.UTC),
	}
}

func TestAggregateProductiveScenario(t *testing.T) {
	activities := []models.Activity{
		activity("App A", 9, 0, 9, 30, false),
		activity("App B", 9, 30, 10, 0, false),
	}
	index := map[string]models.Category{
		"App A": {ID: "work", Name: "Work", IsProductive: true},
	}

	stats := Aggregate(DayRange(day, time.UTC), activities, index, 0)

	if stats.TotalTime != 3600 {
		t.Errorf("TotalTime = %d, want 3600", stats.TotalTime)
	}
	if stats.ProductiveTime != 1800 {
		t.Errorf("ProductiveTime = %d, want 1800", stats.ProductiveTime)
	}
	if stats.GoalPercentage != 50 {
		t.Errorf("GoalPercentage = %d, want 50", stats.GoalPercentage)
	}
	if len(stats.TopApplications) != 2 {
		t.Fatalf("got %d applications, want 2", len(stats.TopApplications))
	}
	if stats.TopApplications[0].Application != "App A" || stats.TopApplications[1].Application != "App B" {
		t.Errorf("order = %s, %s, want App A before App B on a tie",
			stats.TopApplications[0].Application, stats.TopApplications[1].Application)
	}
	if stats.TopApplications[0].Category == nil || stats.TopApplications[0].Category.Name != "Work" {
		t.Errorf("App A category = %+v, want Work", stats.TopApplications[0].Category)
	}
	if stats.TopApplications[1].Category != nil {
		t.Errorf("App B category = %+v, want nil", stats.TopApplications[1].Category)
	}
}

func TestAggregateSortsByTotalDescending(t *testing.T) {
	activities := []models.Activity{
		activity("slack", 8, 0, 8, 10, false),
		activity("code", 8, 10, 9, 10, false),
		activity("firefox", 9, 10, 9, 40, false),
		activity("code", 9, 40, 10, 0, false),
	}

	stats := Aggregate(DayRange(day, time.UTC), activities, nil, 0)

	want := []string{"code", "firefox", "slack"}
	for i, name := range want {
		if stats.TopApplications[i].Application != name {
			t.Errorf("TopApplications[%d] = %s, want %s", i, stats.TopApplications[i].Application, name)
		}
	}
	if got := len(stats.TopApplications[0].Activities); got != 2 {
		t.Errorf("code has %d activities, want 2", got)
	}
	if got := stats.Top(2); len(got) != 2 {
		t.Errorf("Top(2) returned %d applications", len(got))
	}
}

func TestAggregateIdleIsPerApplicationAndNeverProductive(t *testing.T) {
	activities := []models.Activity{
		activity("code", 9, 0, 10, 0, false),
		activity("code", 10, 0, 10, 30, true),
		activity("firefox", 10, 30, 10, 45, true),
	}
	index := map[string]models.Category{
		"code": {Name: "Development", IsProductive: true},
	}

	stats := Aggregate(DayRange(day, time.UTC), activities, index, 0)

	code := stats.TopApplications[0]
	if code.TotalDuration != 5400 || code.IdleDuration != 1800 || code.ActiveDuration != 3600 {
		t.Errorf("code = total %d idle %d active %d, want 5400/1800/3600",
			code.TotalDuration, code.IdleDuration, code.ActiveDuration)
	}
	if stats.IdleTime != 2700 {
		t.Errorf("IdleTime = %d, want 2700", stats.IdleTime)
	}
	if stats.ProductiveTime != 3600 {
		t.Errorf("ProductiveTime = %d, want 3600 (idle excluded)", stats.ProductiveTime)
	}
}

func TestAggregateSumProperty(t *testing.T) {
	activities := []models.Activity{
		activity("a", 0, 0, 0, 7, false),
		activity("b", 0, 7, 1, 13, true),
		activity("a", 1, 13, 2, 2, true),
		activity("c", 2, 2, 2, 2, false),
		activity("b", 3, 0, 5, 59, false),
	}

	stats := Aggregate(DayRange(day, time.UTC), activities, nil, 0)

	var total, idle int64
	for _, app := range stats.TopApplications {
		total += app.TotalDuration
		idle += app.IdleDuration
		if app.ActiveDuration+app.IdleDuration != app.TotalDuration {
			t.Errorf("%s: active %d + idle %d != total %d", app.Application, app.ActiveDuration, app.IdleDuration, app.TotalDuration)
		}
	}
	if total != stats.TotalTime {
		t.Errorf("sum of totals = %d, TotalTime = %d", total, stats.TotalTime)
	}
	if idle != stats.IdleTime {
		t.Errorf("sum of idle = %d, IdleTime = %d", idle, stats.IdleTime)
	}
	if len(stats.Activities) != len(activities) {
		t.Errorf("got %d activities, want %d", len(stats.Activities), len(activities))
	}
}

func TestAggregateEmpty(t *testing.T) {
	stats := Aggregate(DayRange(day, time.UTC), nil, nil, 480)

	if stats.TotalTime != 0 || stats.GoalPercentage != 0 || stats.GoalProgress != 0 {
		t.Errorf("empty stats = %+v, want zeros", stats)
	}

	data, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"top_applications":[]`) || !strings.Contains(string(data), `"activities":[]`) {
		t.Errorf("empty lists should marshal as [], got %s", data)
	}
}

func TestAggregateGoalPercentageBounds(t *testing.T) {
	index := map[string]models.Category{"a": {IsProductive: true}}
	tests := []struct {
		name       string
		activities []models.Activity
		want       int64
	}{
		{"all productive", []models.Activity{activity("a", 9, 0, 10, 0, false)}, 100},
		{"none productive", []models.Activity{activity("b", 9, 0, 10, 0, false)}, 0},
		{"one third", []models.Activity{activity("a", 9, 0, 9, 20, false), activity("b", 9, 20, 10, 0, false)}, 33},
		{"zero length", []models.Activity{activity("a", 9, 0, 9, 0, false)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := Aggregate(DayRange(day, time.UTC), tt.activities, index, 0)
			if stats.GoalPercentage != tt.want {
				t.Errorf("GoalPercentage = %d, want %d", stats.GoalPercentage, tt.want)
			}
			if stats.GoalPercentage < 0 || stats.GoalPercentage > 100 {
				t.Errorf("GoalPercentage %d out of [0, 100]", stats.GoalPercentage)
			}
		})
	}
}

func TestAggregateGoalProgress(t *testing.T) {
	index := map[string]models.Category{"code": {IsProductive: true}}
	activities := []models.Activity{activity("code", 9, 0, 11, 0, false)}

	daily := Aggregate(DayRange(day, time.UTC), activities, index, 240)
	if daily.GoalProgress != 50 {
		t.Errorf("daily GoalProgress = %d, want 50", daily.GoalProgress)
	}

	// A week carries seven daily goals.
	weekly := Aggregate(WeekRange(day, time.UTC), activities, index, 60)
	if weekly.GoalProgress != 29 {
		t.Errorf("weekly GoalProgress = %d, want 29", weekly.GoalProgress)
	}
}

func TestAggregateIsDeterministic(t *testing.T) {
	activities := []models.Activity{
		activity("b", 9, 0, 9, 30, false),
		activity("a", 9, 30, 10, 0, false),
	}
	first, _ := FormatReportJSON(Aggregate(DayRange(day, time.UTC), activities, nil, 480))
	second, _ := FormatReportJSON(Aggregate(DayRange(day, time.UTC), activities, nil, 480))
	if first != second {
		t.Error("repeated aggregation produced different output")
	}
}

func TestRanges(t *testing.T) {
	// Wednesday afternoon.
	date := time.Date(2024, 3, 13, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name      string
		period    models.ReportPeriod
		wantStart time.Time
		wantEnd   time.Time
		wantDays  int64
	}{
		{"day", DayRange(date, time.UTC), time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), 1},
		{"week starts monday", WeekRange(date, time.UTC), time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC), 7},
		{"week on sunday", WeekRange(time.Date(2024, 3, 17, 23, 0, 0, 0, time.UTC), time.UTC), time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC), 7},
		{"month", MonthRange(date, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), 31},
		{"leap february", MonthRange(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 29},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.period.Start.Equal(tt.wantStart) || !tt.period.End.Equal(tt.wantEnd) {
				t.Errorf("range = [%v, %v), want [%v, %v)", tt.period.Start, tt.period.End, tt.wantStart, tt.wantEnd)
			}
			if got := tt.period.Days(); got != tt.wantDays {
				t.Errorf("Days() = %d, want %d", got, tt.wantDays)
			}
		})
	}
}

func TestDayRangeAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("time zone data not available: %v", err)
	}

	tests := []struct {
		name string
		date time.Time
		want time.Duration
	}{
		{"spring forward", time.Date(2024, 3, 10, 12, 0, 0, 0, loc), 23 * time.Hour},
		{"fall back", time.Date(2024, 11, 3, 12, 0, 0, 0, loc), 25 * time.Hour},
		{"ordinary", time.Date(2024, 3, 11, 12, 0, 0, 0, loc), 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DayRange(tt.date, loc)
			if got := p.End.Sub(p.Start); got != tt.want {
				t.Errorf("day length = %v, want %v", got, tt.want)
			}
			if p.Days() != 1 {
				t.Errorf("Days() = %d, want 1", p.Days())
			}
		})
	}
}

func TestDayRangeUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	// 20:00 UTC on the 11th is already the 12th at UTC+9.
	p := DayRange(time.Date(2024, 3, 11, 20, 0, 0, 0, time.UTC), loc)
	want := time.Date(2024, 3, 12, 0, 0, 0, 0, loc)
	if !p.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", p.Start, want)
	}
}

func TestPeriodFor(t *testing.T) {
	for _, name := range []string{"day", "today", "week", "weekly", "month"} {
		if _, err := PeriodFor(name, day, time.UTC); err != nil {
			t.Errorf("PeriodFor(%q) error = %v", name, err)
		}
	}
	if _, err := PeriodFor("year", day, time.UTC); err == nil {
		t.Error("PeriodFor(year) should fail")
	}
}

func TestParseDate(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*3600)
	now := time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)

	got, err := ParseDate("2024-03-01", loc, now)
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if want := time.Date(2024, 3, 1, 0, 0, 0, 0, loc); !got.Equal(want) {
		t.Errorf("ParseDate(date) = %v, want local midnight %v", got, want)
	}

	got, err = ParseDate("2024-03-01T10:00:00+02:00", loc, now)
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if want := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("ParseDate(rfc3339) = %v, want %v", got, want)
	}

	if got, _ := ParseDate("", loc, now); !got.Equal(now) {
		t.Errorf("ParseDate(\"\") = %v, want now", got)
	}

	if _, err := ParseDate("03/01/2024", loc, now); err == nil {
		t.Error("ParseDate() should reject other layouts")
	}
}

func TestFormatReportText(t *testing.T) {
	activities := []models.Activity{
		activity("code", 9, 0, 10, 0, false),
		activity("firefox", 10, 0, 10, 30, false),
	}
	index := map[string]models.Category{"code": {Name: "Development", IsProductive: true}}
	stats := Aggregate(DayRange(day, time.UTC), activities, index, 480)

	text := FormatReportText(stats)
	for _, want := range []string{"Activity Report - day", "code", "Development", "firefox", "1h 30m", "67%"} {
		if !strings.Contains(text, want) {
			t.Errorf("report text missing %q:\n%s", want, text)
		}
	}

	empty := FormatReportText(Aggregate(DayRange(day, time.UTC), nil, nil, 0))
	if !strings.Contains(empty, "No activity recorded") {
		t.Errorf("empty report missing placeholder:\n%s", empty)
	}
}

func TestFormatReportJSON(t *testing.T) {
	stats := Aggregate(DayRange(day, time.UTC), []models.Activity{activity("code", 9, 0, 9, 15, false)}, nil, 0)

	out, err := FormatReportJSON(stats)
	if err != nil {
		t.Fatalf("FormatReportJSON() error = %v", err)
	}

	var decoded models.PeriodStats
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.TotalTime != 900 || decoded.TopApplications[0].Application != "code" {
		t.Errorf("decoded = %+v", decoded)
	}
}
