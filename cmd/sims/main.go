// Package main provides the sims command line tool for syncing odds and
// scores, browsing the event catalog and running forecasts.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/sports-sims/internal/app"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:           "sims",
	Short:         "Sports odds ingestion and forecasting",
	Long:          `Syncs odds and scores from The Odds API into the event catalog and runs outcome forecasts against stored events.`,
	Version:       fmt.Sprintf("%s (%s)", Version, GitCommit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(
		competitionsCmd(),
		syncOddsCmd(),
		syncScoresCmd(),
		gamesCmd(),
		leaguesCmd(),
		oddsCmd(),
		forecastCmd(),
		forecastsCmd(),
		watchlistCmd(),
		cleanupCmd(),
		seedCmd(),
		migrateCmd(),
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withApp bootstraps dependencies for one command and releases them after
func withApp(cmd *cobra.Command, provider bool, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	a, err := app.Bootstrap(ctx, app.Options{ConfigPath: configFile, WithProvider: provider})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}
