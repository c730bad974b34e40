package reporter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kodustech/activity-tracker/internal/models"
	"github.com/kodustech/activity-tracker/pkg/utils"

	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
)

var (
	colorPrimary = lipgloss.Color("#6C63FF")
	colorMuted   = lipgloss.Color("#666666")
	colorSuccess = lipgloss.Color("#2ECC71")
	colorWarning = lipgloss.Color("#F39C12")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	headerStyle = lipgloss.NewStyle().
			Bold(true)

	goalMetStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	goalPendingStyle = lipgloss.NewStyle().
				Foreground(colorWarning)
)

const (
	appWidth      = 28
	categoryWidth = 16
)

// FormatReportText formats stats as a human-readable table.
func FormatReportText(stats *models.PeriodStats) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Activity Report - %s", stats.Period.Type)))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("Period: %s to %s",
		stats.Period.Start.Format("2006-01-02 15:04"),
		stats.Period.End.Format("2006-01-02 15:04"))))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Total Time:      %s\n", utils.FormatDuration(stats.TotalTime))
	fmt.Fprintf(&b, "Productive Time: %s (%d%%)\n", utils.FormatDuration(stats.ProductiveTime), stats.GoalPercentage)
	fmt.Fprintf(&b, "Idle Time:       %s\n", utils.FormatDuration(stats.IdleTime))

	if stats.DailyGoalMinutes > 0 {
		style := goalPendingStyle
		if stats.GoalProgress >= 100 {
			style = goalMetStyle
		}
		b.WriteString(style.Render(fmt.Sprintf("Goal Progress:   %d%% of %s/day",
			stats.GoalProgress, utils.FormatDuration(stats.DailyGoalMinutes*60))))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(stats.TopApplications) == 0 {
		b.WriteString("No activity recorded for this period.\n")
		return b.String()
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %-*s %10s %10s %10s %7s",
		appWidth, "Application", categoryWidth, "Category", "Total", "Active", "Idle", "Share")))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(strings.Repeat("-", appWidth+categoryWidth+42)))
	b.WriteString("\n")

	for _, app := range stats.TopApplications {
		category := "-"
		if app.Category != nil {
			category = app.Category.Name
		}
		fmt.Fprintf(&b, "%-*s %-*s %10s %10s %10s %6d%%\n",
			appWidth, utils.Truncate(app.Application, appWidth),
			categoryWidth, utils.Truncate(category, categoryWidth),
			utils.FormatDuration(app.TotalDuration),
			utils.FormatDuration(app.ActiveDuration),
			utils.FormatDuration(app.IdleDuration),
			utils.Percent(app.TotalDuration, stats.TotalTime))
	}

	return b.String()
}

// FormatReportJSON formats stats as indented JSON.
func FormatReportJSON(stats *models.PeriodStats) (string, error) {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal JSON")
	}
	return string(data), nil
}
