package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/sports-sims/internal/app"
	"github.com/yourusername/sports-sims/internal/league"
	"github.com/yourusername/sports-sims/internal/service"
)

func competitionsCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "competitions",
		Short: "List provider competitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
				comps, err := a.Catalog.Competitions(ctx, all)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput {
					return printJSON(out, comps)
				}
				w := newTable(out)
				fmt.Fprintln(w, "KEY\tGROUP\tTITLE\tACTIVE")
				for _, c := range comps {
					fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", c.Key, c.Group, c.Title, c.Active)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include competitions outside the allowlist")
	return cmd
}

func syncOddsCmd() *cobra.Command {
	var keys string
	cmd := &cobra.Command{
		Use:   "sync-odds",
		Short: "Fetch odds for configured competitions and upsert events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
				tokens := a.Config.Ingestion.OddsKeys
				if keys != "" {
					tokens = league.ParseCSV(keys)
				}
				report, err := a.Ingestion.SyncOdds(ctx, tokens)
				printReport(cmd, report)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&keys, "keys", "", "Comma separated competition keys or prefixes ending in _")
	return cmd
}

func syncScoresCmd() *cobra.Command {
	var (
		keys, include, exclude string
		days                   int
	)
	cmd := &cobra.Command{
		Use:   "sync-scores",
		Short: "Apply provider scores to stored events",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 || days > 3 {
				return fmt.Errorf("--days must be between 1 and 3")
			}
			return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
				opts := service.ScoreSyncOptions{
					Keys:         a.Config.Ingestion.ScoreKeys,
					Include:      a.Config.Ingestion.ScoreInclude,
					Exclude:      a.Config.Ingestion.ScoreExclude,
					LookbackDays: days,
				}
				if keys != "" {
					opts.Keys = league.ParseCSV(keys)
				}
				if include != "" {
					opts.Include = league.ParseCSV(include)
				}
				if exclude != "" {
					opts.Exclude = league.ParseCSV(exclude)
				}
				report, err := a.Ingestion.SyncScores(ctx, opts)
				printReport(cmd, report)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&keys, "keys", "", "Comma separated competition keys; empty discovers them from stored events")
	cmd.Flags().StringVar(&include, "include", "", "Only fetch these competition keys")
	cmd.Flags().StringVar(&exclude, "exclude", "", "Never fetch these competition keys")
	cmd.Flags().IntVar(&days, "days", 0, "Lookback window in days (1-3)")
	return cmd
}

func printReport(cmd *cobra.Command, report *service.SyncReport) {
	if report == nil {
		return
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		_ = printJSON(out, report.Counts())
		return
	}
	fmt.Fprintln(out, report.String())
}
