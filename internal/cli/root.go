package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/phobia/internal/logging"
	"github.com/wesleyorama2/phobia/internal/output"
	"github.com/wesleyorama2/phobia/internal/timeline"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = NewRootCmd()

// NewRootCmd builds the command tree with fresh flag state.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "phobia",
		Short:   "Replay synthetic HTTP traffic on a simulated timeline",
		Version: version,
		Long: `Phobia replays declarative traffic records against HTTP services.

Each record names a request and an active window [start, end) in abstract
time units. Records are released on a simulated clock and fire their
request once every step until the window closes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			// If no subcommand is provided, print help
			cmd.Help()
		},
	}

	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", logging.FormatConsole, "Log format (console, json)")
	root.PersistentFlags().Bool("no-color", false, "Disable colored output")

	root.AddCommand(newRunCmd())
	root.AddCommand(newPlanCmd())

	return root
}

// Execute runs the root command and reports a failure on stderr.
// This is called by main.main().
func Execute() error {
	if err := RootCmd.Execute(); err != nil {
		noColor, _ := RootCmd.PersistentFlags().GetBool("no-color")
		fmt.Fprint(os.Stderr, output.NewFormatter(noColor).FormatError(err))
		return err
	}
	return nil
}

// addTimelineFlags registers the flags that shape the simulated timeline.
func addTimelineFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64P("step", "s", 0, "Interval between two requests of a record, in raw time units")
	cmd.Flags().Uint64("scale", 1, "Divisor applied to every start, end and step")
	cmd.Flags().Duration("unit", timeline.DefaultUnit, "Real duration of one scaled time unit")
	cmd.MarkFlagRequired("step")
}

type timelineFlags struct {
	step  uint64
	scale uint64
	unit  time.Duration
}

func readTimelineFlags(cmd *cobra.Command) (timelineFlags, error) {
	step, _ := cmd.Flags().GetUint64("step")
	scale, _ := cmd.Flags().GetUint64("scale")
	unit, _ := cmd.Flags().GetDuration("unit")

	if unit <= 0 {
		return timelineFlags{}, fmt.Errorf("--unit must be positive, got %s", unit)
	}

	return timelineFlags{step: step, scale: scale, unit: unit}, nil
}

func newLogger(cmd *cobra.Command) (zerolog.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	noColor, _ := cmd.Flags().GetBool("no-color")

	return logging.New(logging.Options{
		Level:   level,
		Format:  format,
		NoColor: noColor,
		Out:     cmd.ErrOrStderr(),
	})
}
