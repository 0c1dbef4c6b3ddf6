package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/solace-dgrama/tools/internal/actionlog"
	"github.com/solace-dgrama/tools/internal/model"
	"github.com/solace-dgrama/tools/internal/output"
	"github.com/solace-dgrama/tools/internal/scanner"
	"github.com/solace-dgrama/tools/internal/traffic"
)

var (
	// ErrNoActionLists reports a log with no declared action lists.
	ErrNoActionLists = errors.New("no action lists found in log file")
	// ErrNoExecutedActions reports a log with no executed-action records.
	ErrNoExecutedActions = errors.New("no executed actions found in log file")
)

var (
	showExecuted bool
	filterList   int
	withTraffic  bool
)

var actionsCmd = &cobra.Command{
	Use:   "actions [log_file]",
	Short: "Extract action lists from an AFW test log",
	Long: `Extract declared action lists, or with --executed the timeline of
actions the framework actually ran. With --traffic each check action is
annotated with the traffic-validation snapshot nearest to it in time.

Examples:
  dgrama actions /tmp/processed/log.txt
  dgrama actions /tmp/processed/log.txt --executed
  dgrama actions /tmp/processed/log.txt --executed --list 2
  dgrama actions /tmp/processed/log.txt --executed --traffic`,
	Args: cobra.MaximumNArgs(1),
	RunE: runActions,
}

func init() {
	rootCmd.AddCommand(actionsCmd)

	actionsCmd.Flags().BoolVar(&showExecuted, "executed", false, "show executed actions instead of declared lists")
	actionsCmd.Flags().IntVar(&filterList, "list", 0, "show only list N (with --executed)")
	actionsCmd.Flags().BoolVar(&withTraffic, "traffic", false, "join traffic snapshots to check actions (with --executed)")
}

func runActions(cmd *cobra.Command, args []string) error {
	if withTraffic && !showExecuted {
		return errors.New("--traffic is only valid with --executed")
	}

	logFile := viper.GetString("log_file")
	if len(args) > 0 {
		logFile = args[0]
	}

	log.Info().Str("file", logFile).Msg("parsing actions")

	lg, err := scanner.Load(logFile)
	if err != nil {
		return err
	}
	log.Debug().Str("file", lg.Path()).Int("lines", lg.Len()).Msg("log loaded")

	if showExecuted {
		return runExecuted(cmd.Context(), lg)
	}
	return runDeclared(lg)
}

func runDeclared(lg *scanner.Log) error {
	lists := actionlog.ExtractDeclared(lg)
	if len(lists) == 0 {
		return ErrNoActionLists
	}
	log.Info().Int("count", len(lists)).Msg("found action lists")

	if outputFmt == "json" {
		return output.NewJSONRenderer(os.Stdout).Render(lists)
	}
	r := output.NewDeclaredRenderer(os.Stdout)
	for _, list := range lists {
		if err := r.Render(list); err != nil {
			return err
		}
	}
	return nil
}

func runExecuted(ctx context.Context, lg *scanner.Log) error {
	ext := traffic.NewExtractor(trafficConfig())

	// The extraction passes are independent read-only scans over the
	// shared line buffer; each owns its output, so they can run in
	// parallel when traffic joining needs the second pass.
	var (
		executed []model.ExecutedAction
		snaps    map[string]*model.TrafficSnapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		executed = actionlog.Dedup(actionlog.ExtractExecuted(lg))
		return nil
	})
	if withTraffic {
		g.Go(func() error {
			var err error
			snaps, err = ext.Extract(gctx, lg)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if filterList > 0 {
		executed = actionlog.FilterList(executed, filterList)
	}
	if len(executed) == 0 {
		return ErrNoExecutedActions
	}
	log.Info().Int("count", len(executed)).Msg("found executed actions")
	if withTraffic {
		log.Info().Int("snapshots", len(snaps)).Msg("found traffic snapshots")
	}

	if outputFmt == "json" {
		return output.NewJSONRenderer(os.Stdout).Render(executedJSON(ext, executed, snaps))
	}

	r := output.NewTimelineRenderer(os.Stdout)
	if withTraffic {
		r.Lookup = func(ts string) *model.TrafficSnapshot {
			return ext.Join(ts, snaps)
		}
	}
	return r.Render(executed)
}

// executedJSON pairs each action with its joined snapshot for JSON mode.
func executedJSON(ext *traffic.Extractor, executed []model.ExecutedAction, snaps map[string]*model.TrafficSnapshot) any {
	if snaps == nil {
		return executed
	}
	type row struct {
		model.ExecutedAction
		Traffic *model.TrafficSnapshot `json:"traffic,omitempty"`
	}
	rows := make([]row, 0, len(executed))
	for _, act := range executed {
		r := row{ExecutedAction: act}
		if act.IsCheck() {
			r.Traffic = ext.Join(act.Timestamp, snaps)
		}
		rows = append(rows, r)
	}
	return rows
}

func trafficConfig() traffic.Config {
	return traffic.Config{
		BrokerLookahead: viper.GetInt("broker_lookahead"),
		SpoolLookahead:  viper.GetInt("spool_lookahead"),
		MergeTolerance:  viper.GetInt("merge_tolerance"),
		JoinWindow:      viper.GetInt("join_window"),
	}
}
