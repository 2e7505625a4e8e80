package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/harvestctl/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "harvest",
	Short: "harvest – a command-line client for the Harvest time tracking API",
	Long: `harvest logs and reads time entries in a Harvest account.
Credentials and cache settings live in ~/.harvest/config.json.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.InitLogger()
	},
}

// exitError carries the process exit code for a failed command.
// Usage and configuration problems exit with 1, API and I/O failures with 2.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageErr(err error) error   { return &exitError{code: 1, err: err} }
func runtimeErr(err error) error { return &exitError{code: 2, err: err} }

// Execute is the entry point called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		code := 1
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		}
		stop()
		os.Exit(code)
	}
}

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(entriesCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(cacheCmd)
}
