package cli

import (
	"fmt"
	"time"

	"github.com/kodustech/activity-tracker/internal/models"
	"github.com/kodustech/activity-tracker/internal/reporter"
	"github.com/kodustech/activity-tracker/pkg/utils"

	"github.com/spf13/cobra"
)

func init() {
	report := &cobra.Command{
		Use:   "report [day|week|month]",
		Short: "Show time per application for a day, week or month",
		Long: `Show the aggregated report of a period containing --date.

Durations include idle time; the Active column excludes it. Productive time
counts active time of applications in productive categories.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{models.PeriodDay, models.PeriodWeek, models.PeriodMonth},
		Run:       runReport,
	}
	report.Flags().String("date", "", "Any date inside the period, YYYY-MM-DD (default: today)")
	report.Flags().Bool("json", false, "Print the report as JSON")

	activities := &cobra.Command{
		Use:   "activities",
		Short: "List raw activity intervals",
		Run:   runActivities,
	}
	activities.Flags().String("date", "", "Day to list, YYYY-MM-DD (default: today)")
	activities.Flags().String("from", "", "Range start, YYYY-MM-DD or RFC 3339 (overrides --date)")
	activities.Flags().String("to", "", "Range end, exclusive (default: now)")
	activities.Flags().Bool("json", false, "Print activities as JSON")

	RootCmd.AddCommand(report, activities)
}

func runReport(cmd *cobra.Command, args []string) {
	a := mustOpen(cmd)
	defer a.Close()

	periodType := models.PeriodDay
	if len(args) > 0 {
		periodType = args[0]
	}
	date := parseDateFlag(cmd, a, "date")

	stats, err := a.engine.GetStats(cmd.Context(), periodType, date)
	if err != nil {
		exitErr("generate report", err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		out, err := reporter.FormatReportJSON(stats)
		if err != nil {
			exitErr("format report", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return
	}
	fmt.Fprint(cmd.OutOrStdout(), reporter.FormatReportText(stats))
}

func runActivities(cmd *cobra.Command, args []string) {
	a := mustOpen(cmd)
	defer a.Close()

	r := activityRange(cmd, a)
	activities, err := a.engine.GetActivities(cmd.Context(), r)
	if err != nil {
		exitErr("list activities", err)
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		printJSON(out, activities)
		return
	}

	if len(activities) == 0 {
		fmt.Fprintln(out, "No activities recorded in this range")
		return
	}

	loc := a.engine.Location()
	for _, act := range activities {
		state := ""
		if act.IsIdle {
			state = " (idle)"
		}
		fmt.Fprintf(out, "%s - %s  %-8s  %-20s %s%s\n",
			act.StartTime.In(loc).Format("2006-01-02 15:04:05"),
			act.EndTime.In(loc).Format("15:04:05"),
			utils.FormatDuration(act.Duration()),
			utils.Truncate(act.Application, 20),
			utils.Truncate(act.Title, 60),
			state,
		)
	}
}

// activityRange resolves --from/--to, or the local day of --date.
func activityRange(cmd *cobra.Command, a *app) models.TimeRange {
	from, _ := cmd.Flags().GetString("from")
	if from == "" {
		day := reporter.DayRange(parseDateFlag(cmd, a, "date"), a.engine.Location())
		return models.TimeRange{Start: day.Start, End: day.End}
	}
	return models.TimeRange{
		Start: parseDateFlag(cmd, a, "from"),
		End:   parseEndFlag(cmd, a, "to"),
	}
}

// parseEndFlag is parseDateFlag for exclusive range ends: a bare date means
// the following midnight so that --to 2024-03-11 includes that day.
func parseEndFlag(cmd *cobra.Command, a *app, name string) time.Time {
	value, _ := cmd.Flags().GetString(name)
	t := parseDateFlag(cmd, a, name)
	if len(value) == len("2006-01-02") {
		return reporter.DayRange(t, a.engine.Location()).End
	}
	return t
}
