package cmd

import (
	"os"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/solace-dgrama/tools/internal/output"
	"github.com/solace-dgrama/tools/internal/subs"
)

var subsCmd = &cobra.Command{
	Use:   "subs <file>",
	Short: "Parse VPN subscription dumps to JSON",
	Long: `Parse a VPN subscription dump, in either the broker CLI's
fixed-width text format or SEMP XML, and emit the subscriptions as JSON.
The format is detected from the file contents.`,
	Args: cobra.ExactArgs(1),
	RunE: runSubs,
}

func init() {
	rootCmd.AddCommand(subsCmd)
}

func runSubs(cmd *cobra.Command, args []string) error {
	result, format, err := subs.ParseFile(args[0])
	if err != nil {
		return err
	}
	log.Info().Str("format", string(format)).Int("count", len(result.Subscriptions)).
		Msg("parsed subscriptions")

	counts := result.CountByVPN()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		log.Info().Str("vpn", name).Int("subscriptions", counts[name]).Msg("per-VPN")
	}

	return output.NewJSONRenderer(os.Stdout).Render(result)
}
