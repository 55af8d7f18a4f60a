package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/executor"
)

type queryOptions struct {
	query   string
	limit   int
	json    bool
	profile bool
	exec    executor.Options
}

func newQueryCmd(root *rootOptions) *cobra.Command {
	opts := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Rank the corpus for one query and print the top-N",
		Long: `Index the corpus, run one query and print the ranked documents.

Examples:
  bestmatch query --corpus docs.jsonl -q "inverted index"
  bestmatch query --corpus docs.jsonl -q "ranking" -n 5 --strategy taat --profile
  bestmatch query --corpus docs.jsonl -q "ranking" --di rsj --dd logtf --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), root.cfg, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			defer a.close()

			opts.exec.Limit = opts.limit
			res, err := a.executor.Execute(cmd.Context(), opts.query, opts.exec)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			if opts.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			return printResult(cmd.OutOrStdout(), res, opts.profile)
		},
	}
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "search query (required)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "number of results (default from config)")
	cmd.Flags().StringVar(&opts.exec.Strategy, "strategy", "", "taat or daat (default from config)")
	cmd.Flags().StringVar(&opts.exec.Independent, "di", "", "document-independent weight: uniform, idf, rsj")
	cmd.Flags().StringVar(&opts.exec.Dependent, "dd", "", "document-dependent weight: rawtf, bintf, logtf, bm25tf")
	cmd.Flags().StringVar(&opts.exec.Field, "field", "", "field to search (default from config)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&opts.profile, "profile", false, "print traversal statistics")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}

func printResult(w io.Writer, res *executor.SearchResult, profile bool) error {
	fmt.Fprintf(w, "query %q -> %v (%s, %s x %s, field %s)\n",
		res.Query, res.Terms, res.Strategy, res.Independent, res.Dependent, res.Field)
	if len(res.Results) == 0 {
		fmt.Fprintln(w, "no matching documents")
	} else {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tDOC\tKEY\tSCORE")
		for i, r := range res.Results {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%.6f\n", i+1, r.DocID, r.Key, r.Score)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if profile {
		fmt.Fprintf(w, "terms=%d postings=%d candidates=%d peak_aux=%d took=%.3fms\n",
			res.Stats.Terms, res.Stats.PostingsVisited, res.Stats.Candidates, res.Stats.PeakAuxiliary, res.TookMs)
		phases := make([]string, 0, len(res.Phases))
		for name, ms := range res.Phases {
			phases = append(phases, fmt.Sprintf("%s=%.3fms", name, ms))
		}
		sort.Strings(phases)
		fmt.Fprintln(w, strings.Join(phases, " "))
	}
	return nil
}
