package cmd

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/solace-dgrama/tools/internal/trim"
)

var trimDryRun bool

var trimCmd = &cobra.Command{
	Use:   "trim <file-or-glob> <string>",
	Short: "Trim files to the first..last occurrence of a string",
	Long: `Rewrite each matched file in place so it keeps only the lines from
the first to the last occurrence of the search string. Accepts glob
patterns (including ** via doublestar) to trim several files at once.

Examples:
  dgrama trim /tmp/debug/log.txt "Action list"
  dgrama trim "/tmp/debug/**/*.log" "Start of action" --dry-run`,
	Args: cobra.ExactArgs(2),
	RunE: runTrim,
}

func init() {
	rootCmd.AddCommand(trimCmd)

	trimCmd.Flags().BoolVar(&trimDryRun, "dry-run", false, "report what would be trimmed without writing")
}

func runTrim(cmd *cobra.Command, args []string) error {
	pattern, search := args[0], args[1]

	paths, err := trim.Expand(pattern)
	if err != nil {
		return fmt.Errorf("expand pattern %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files matched %q", pattern)
	}

	var failed bool
	for _, path := range paths {
		res, err := trim.File(path, search, trimDryRun)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("trim failed")
			failed = true
			continue
		}
		verb := "Trimmed"
		if trimDryRun {
			verb = "Would trim"
		}
		fmt.Printf("%s %s: kept lines %d to %d (%d of %d lines)\n",
			verb, res.Path, res.FirstLine, res.LastLine, res.Kept, res.Total)
	}

	if failed {
		return errors.New("one or more files could not be trimmed")
	}
	return nil
}
