package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ytget/audioset-dl/internal/manifest"
)

// DefaultTopLabels is how many labels inspect lists by default.
const DefaultTopLabels = 20

func newInspectCommand(_ *commandContext) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "inspect <manifest>",
		Short: "Summarise a manifest: clip count, total duration and label frequencies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := manifest.Read(args[0])
			if err != nil {
				return err
			}
			stats := manifest.Summarize(entries)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Entries: %d\n", stats.Entries)
			fmt.Fprintf(out, "Total duration: %s\n", (time.Duration(stats.TotalDuration * float64(time.Second))).Round(time.Second))

			labels := stats.Labels
			if top > 0 && len(labels) > top {
				labels = labels[:top]
			}
			if len(labels) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(labels))
			for _, lc := range labels {
				rows = append(rows, []string{lc.Label, strconv.Itoa(lc.Count)})
			}
			fmt.Fprintln(out, renderTable([]string{"Label", "Clips"}, rows, 1))
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", DefaultTopLabels, "Number of labels to list (0 for all)")
	return cmd
}
