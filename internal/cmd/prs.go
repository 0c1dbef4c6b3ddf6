package cmd

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/solace-dgrama/tools/internal/output"
	"github.com/solace-dgrama/tools/internal/prstats"
)

var (
	prSortKey    string
	prAscending  bool
	prShowClosed bool
	prFormat     string
)

var prsCmd = &cobra.Command{
	Use:   "prs [results.json]",
	Short: "Sort and format PR statistics",
	Long: `Load pull-request statistics from a results.json file (as produced
by the team's retrieval tooling), sort by a chosen metric, and print a
text, CSV, or markdown table.

Sort keys: review_time, first_response, first_comment, first_review,
first_approval, number, created, size, reviews.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPRs,
}

func init() {
	rootCmd.AddCommand(prsCmd)

	prsCmd.Flags().StringVar(&prSortKey, "sort", "review_time", "sort key")
	prsCmd.Flags().BoolVar(&prAscending, "ascending", false, "sort ascending instead of descending")
	prsCmd.Flags().BoolVar(&prShowClosed, "show-closed", false, "include closed (unmerged) PRs")
	prsCmd.Flags().StringVar(&prFormat, "format", "text", "table format: text, csv, markdown")
}

func runPRs(cmd *cobra.Command, args []string) error {
	path := "results.json"
	if len(args) > 0 {
		path = args[0]
	}

	prs, err := prstats.Load(path)
	if err != nil {
		return err
	}
	prs = prstats.FilterMerged(prs, prShowClosed)
	if len(prs) == 0 {
		return prstats.ErrNoPRs
	}
	log.Info().Int("count", len(prs)).Str("sort", prSortKey).Msg("loaded pull requests")

	prstats.Sort(prs, prstats.SortKey(prSortKey), prAscending)

	if outputFmt == "json" {
		return output.NewJSONRenderer(os.Stdout).Render(prs)
	}
	return prstats.WriteTable(os.Stdout, prs, prstats.TableFormat(prFormat))
}
