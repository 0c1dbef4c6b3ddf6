package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	outputFmt string
	verbose   bool
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "dgrama",
	Short: "dgrama — Solace AFW diagnostic log toolkit",
	Long: `dgrama digs structured records out of AFW diagnostic logs:
declared action lists, the executed-action timeline, and the traffic
validation snapshots scattered around each checkpoint. It also carries
the surrounding workflow utilities (VPN subscription parsing, PR stat
tables, log trimming).

Results go to stdout; progress and diagnostics go to stderr.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.dgrama.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug diagnostics on stderr")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".dgrama")
		viper.SetConfigType("yaml")
	}

	viper.SetDefault("log_file", "/tmp/debug/log.txt")
	viper.SetDefault("join_window", 30)
	viper.SetDefault("merge_tolerance", 5)
	viper.SetDefault("broker_lookahead", 3000)
	viper.SetDefault("spool_lookahead", 500)

	viper.SetEnvPrefix("DGRAMA")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

func initLogging() {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
