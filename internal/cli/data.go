package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kodustech/activity-tracker/internal/export"
	"github.com/kodustech/activity-tracker/internal/models"
	"github.com/kodustech/activity-tracker/internal/reporter"

	"github.com/spf13/cobra"
)

func init() {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export activities as CSV or JSON",
		Args:  cobra.NoArgs,
		Run:   runExport,
	}
	exportCmd.Flags().StringP("format", "f", "csv", "Output format: csv or json")
	exportCmd.Flags().String("from", "", "Range start, YYYY-MM-DD or RFC 3339 (default: start of today)")
	exportCmd.Flags().String("to", "", "Range end, exclusive (default: now)")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")

	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete activities before a date or inside a range",
		Args:  cobra.NoArgs,
		Run:   runPurge,
	}
	purge.Flags().String("before", "", "Delete activities before local midnight of this date, YYYY-MM-DD")
	purge.Flags().String("from", "", "Range start, YYYY-MM-DD or RFC 3339")
	purge.Flags().String("to", "", "Range end, exclusive")
	purge.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	purge.MarkFlagsOneRequired("before", "from")
	purge.MarkFlagsMutuallyExclusive("before", "from")
	purge.MarkFlagsRequiredTogether("from", "to")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded activities",
		Args:  cobra.NoArgs,
		Run:   runClear,
	}
	clearCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	RootCmd.AddCommand(exportCmd, purge, clearCmd)
}

func runExport(cmd *cobra.Command, args []string) {
	a := mustOpen(cmd)
	defer a.Close()

	formatName, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(formatName)
	if err != nil {
		exitErr("--format", err)
	}

	r := models.TimeRange{
		Start: reporter.DayRange(a.engine.Now(), a.engine.Location()).Start,
		End:   a.engine.Now(),
	}
	if from, _ := cmd.Flags().GetString("from"); from != "" {
		r.Start = parseDateFlag(cmd, a, "from")
	}
	if to, _ := cmd.Flags().GetString("to"); to != "" {
		r.End = parseEndFlag(cmd, a, "to")
	}

	var w io.Writer = cmd.OutOrStdout()
	output, _ := cmd.Flags().GetString("output")
	var f *os.File
	if output != "" {
		f, err = os.Create(output)
		if err != nil {
			exitErr("create output file", err)
		}
		w = f
	}

	n, err := a.engine.Export(cmd.Context(), w, format, r)
	if err != nil {
		exitErr("export", err)
	}

	if f != nil {
		if err := f.Close(); err != nil {
			exitErr("close output file", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d activities to %s\n", n, output)
	}
}

func runPurge(cmd *cobra.Command, args []string) {
	a := mustOpen(cmd)
	defer a.Close()

	const layout = "2006-01-02 15:04 MST"
	var (
		n   int64
		err error
	)
	if from, _ := cmd.Flags().GetString("from"); from != "" {
		r := models.TimeRange{
			Start: parseDateFlag(cmd, a, "from"),
			End:   parseEndFlag(cmd, a, "to"),
		}
		prompt := fmt.Sprintf("Delete all activities from %s to %s?", r.Start.Format(layout), r.End.Format(layout))
		if !confirm(cmd, prompt) {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
			return
		}
		n, err = a.engine.PurgeRange(cmd.Context(), r)
	} else {
		before := parseDateFlag(cmd, a, "before")
		cutoff := reporter.DayRange(before, a.engine.Location()).Start
		if !confirm(cmd, fmt.Sprintf("Delete all activities before %s?", cutoff.Format(layout))) {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
			return
		}
		n, err = a.engine.PurgeBefore(cmd.Context(), before)
	}
	if err != nil {
		exitErr("purge", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d activities\n", n)
}

func runClear(cmd *cobra.Command, args []string) {
	a := mustOpen(cmd)
	defer a.Close()

	if !confirm(cmd, "Delete all recorded activities?") {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
		return
	}

	if err := a.repo.Clear(cmd.Context()); err != nil {
		exitErr("clear", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "All activities cleared")
}

// confirm returns true for --yes, otherwise asks on stdin and accepts y/yes.
func confirm(cmd *cobra.Command, prompt string) bool {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return true
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)
	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
