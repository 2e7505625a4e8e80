package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var updateHours float64

var updateCmd = &cobra.Command{
	Use:   "update <entry-id>",
	Short: "Change the hours of an existing entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdate,
}

func init() {
	updateCmd.Flags().Float64Var(&updateHours, "hours", 0, "New number of hours (decimal)")
	_ = updateCmd.MarkFlagRequired("hours")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return usageErr(fmt.Errorf("invalid entry id %q", args[0]))
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	body, err := s.client.DailyUpdateHours(cmd.Context(), id, updateHours)
	if err != nil {
		return classify(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(body))
	return nil
}
