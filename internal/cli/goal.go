package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	goal := &cobra.Command{
		Use:   "goal",
		Short: "Show or change the daily productive goal",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Print the daily goal in minutes",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			a := mustOpen(cmd)
			defer a.Close()

			minutes, err := a.engine.GetDailyGoal(cmd.Context())
			if err != nil {
				exitErr("get goal", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", minutes)
		},
	}

	set := &cobra.Command{
		Use:   "set <minutes>",
		Short: "Set the daily goal in minutes",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			minutes, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				exitErr("minutes", err)
			}

			a := mustOpen(cmd)
			defer a.Close()

			if err := a.engine.SetDailyGoal(cmd.Context(), minutes); err != nil {
				exitErr("set goal", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Daily goal set to %d minutes\n", minutes)
		},
	}

	goal.AddCommand(get, set)
	RootCmd.AddCommand(goal)
}
