package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/phobia/internal/http"
	"github.com/wesleyorama2/phobia/internal/output"
	"github.com/wesleyorama2/phobia/replay"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <records-file>",
		Short: "Replay the records of a JSON or YAML file",
		Long: `Load traffic records, release them on the simulated clock and wait until
every request has been sent.

Example:
  phobia run records.json --step 1000 --scale 1000 --unit 1s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimeline(cmd, args[0])
		},
	}

	addTimelineFlags(cmd)
	cmd.Flags().DurationP("timeout", "t", http.DefaultTimeout, "Request timeout")
	cmd.Flags().IntP("concurrency", "c", 0, "Maximum connections per host (0 = unlimited)")
	cmd.Flags().StringArrayP("header", "H", []string{}, "HTTP headers to include (can be used multiple times)")

	return cmd
}

func runTimeline(cmd *cobra.Command, path string) error {
	flags, err := readTimelineFlags(cmd)
	if err != nil {
		return err
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	rawHeaders, _ := cmd.Flags().GetStringArray("header")
	noColor, _ := cmd.Flags().GetBool("no-color")

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	headers, err := parseHeaders(rawHeaders)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := replay.NewRunner(replay.Config{
		File:            path,
		Step:            flags.step,
		Scale:           flags.scale,
		Unit:            flags.unit,
		Timeout:         timeout,
		MaxConnsPerHost: concurrency,
		Headers:         headers,
		UserAgent:       "phobia/" + version,
		Logger:          &logger,
	})

	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), output.NewFormatter(noColor).FormatSummary(result.Dispatches, result.Duration))
	return nil
}

// parseHeaders splits "Key: Value" flags into a header map. A repeated key
// keeps its last value.
func parseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, header := range raw {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("invalid header %q (expected \"Key: Value\")", header)
		}
		headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return headers, nil
}
