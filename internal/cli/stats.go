package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newStatsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Index the corpus and print per-field statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), root.cfg, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "documents: %d\n", a.index.DocCount())
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FIELD\tTERMS\tTOKENS")
			for _, fs := range a.index.Stats() {
				fmt.Fprintf(tw, "%s\t%d\t%d\n", fs.Field, fs.Terms, fs.Tokens)
			}
			return tw.Flush()
		},
	}
}
