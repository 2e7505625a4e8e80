package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/harvestctl/harvest"
)

var (
	addHours   float64
	addProject int64
	addTask    int64
	addDate    string
)

var addCmd = &cobra.Command{
	Use:   "add <notes>",
	Short: "Log a new time entry",
	Long: `Log a new time entry. --date accepts most common date formats
(2026-03-05, 03/05/2026, "March 5, 2026") as well as today and yesterday.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().Float64Var(&addHours, "hours", 0, "Hours spent (decimal)")
	addCmd.Flags().Int64Var(&addProject, "project", 0, "Project id")
	addCmd.Flags().Int64Var(&addTask, "task", 0, "Task id")
	addCmd.Flags().StringVar(&addDate, "date", "today", "Day the time was spent")
	_ = addCmd.MarkFlagRequired("hours")
	_ = addCmd.MarkFlagRequired("project")
	_ = addCmd.MarkFlagRequired("task")
}

func runAdd(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	body, err := s.client.DailyAdd(cmd.Context(), args[0], addHours, addProject, addTask, addDate)
	if err != nil {
		return classify(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(body))
	return nil
}

// classify maps library errors to exit codes: bad input and missing
// configuration are usage errors, everything else is a runtime failure.
func classify(err error) error {
	if errors.Is(err, harvest.ErrConfig) || errors.Is(err, harvest.ErrInvalidDate) {
		return usageErr(err)
	}
	return runtimeErr(err)
}
