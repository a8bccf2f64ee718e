package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/phobia/internal/config"
	"github.com/wesleyorama2/phobia/internal/output"
	"github.com/wesleyorama2/phobia/internal/timeline"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <records-file>",
		Short: "Print the release schedule without sending requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printPlan(cmd, args[0])
		},
	}

	addTimelineFlags(cmd)
	cmd.Flags().StringP("output", "o", string(output.FormatText), "Output format (text, json, yaml)")

	return cmd
}

func printPlan(cmd *cobra.Command, path string) error {
	flags, err := readTimelineFlags(cmd)
	if err != nil {
		return err
	}
	rawFormat, _ := cmd.Flags().GetString("output")
	noColor, _ := cmd.Flags().GetBool("no-color")

	format, err := output.ParseFormat(rawFormat)
	if err != nil {
		return err
	}

	records, err := config.LoadRecords(path)
	if err != nil {
		return fmt.Errorf("error loading records: %w", err)
	}

	scheduler, err := timeline.Build(records, flags.step, flags.scale, timeline.WithUnit(flags.unit))
	if err != nil {
		return err
	}

	doc := output.NewPlanDocument(scheduler.Plan(), flags.unit)
	rendered, err := output.GetFormatter(format, noColor).FormatPlan(doc)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), rendered)
	return nil
}
