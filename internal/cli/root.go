// Package cli implements the bestmatch command line: an HTTP search service
// and one-shot ranked queries over a JSON-lines corpus.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/logger"
)

type rootOptions struct {
	cfgFile string
	corpus  string
	cfg     *config.Config
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "bestmatch",
		Short: "Best-match top-N retrieval over an in-memory inverted index",
		Long: `bestmatch ranks documents of a JSON-lines corpus by the sum of per-term
weights, using either term-at-a-time or document-at-a-time traversal.

Example usage:
  bestmatch query --corpus docs.jsonl -q "distributed search"
  bestmatch query --corpus docs.jsonl -q "search" --strategy taat --di idf --dd bintf
  bestmatch serve --config bestmatch.yaml`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if opts.corpus != "" {
				cfg.Corpus.Path = opts.corpus
			}
			logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
			opts.cfg = cfg
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (defaults apply when empty)")
	cmd.PersistentFlags().StringVar(&opts.corpus, "corpus", "", "JSON-lines corpus to index (overrides corpus.path)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newQueryCmd(opts))
	cmd.AddCommand(newStatsCmd(opts))
	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
