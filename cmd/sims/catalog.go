package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yourusername/sports-sims/internal/app"
	"github.com/yourusername/sports-sims/internal/models"
	"github.com/yourusername/sports-sims/internal/service"
)

func gamesCmd() *cobra.Command {
	var (
		q     service.GamesQuery
		sport string
	)
	cmd := &cobra.Command{
		Use:   "games",
		Short: "List stored events",
		RunE: func(cmd *cobra.Command, args []string) error {
			q.Sport = models.Sport(sport)
			if sport != "" && !q.Sport.Valid() {
				return fmt.Errorf("unsupported sport %q", sport)
			}
			return withApp(cmd, false, func(ctx context.Context, a *app.App) error {
				events, err := a.Catalog.Games(ctx, q)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput {
					return printJSON(out, events)
				}
				w := newTable(out)
				fmt.Fprintln(w, "ID\tSTART\tLEAGUE\tMATCHUP\tMONEYLINE\tSTATUS\tSCORE")
				for _, ev := range events {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s @ %s\t%s\t%s\t%s\n",
						ev.ID, ev.StartTime.Local().Format("Jan 02 15:04"), ev.LeagueTitle,
						ev.AwayTeam, ev.HomeTeam, moneyline(ev.MarketOdds), ev.Status, score(ev.Score))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&sport, "sport", "", "NBA, NFL, Soccer or Tennis")
	cmd.Flags().StringVar(&q.League, "league", "", "Competition key")
	cmd.Flags().StringVar(&q.When, "when", "", "today or upcoming")
	cmd.Flags().IntVar(&q.Days, "days", 0, "Upcoming window in days")
	return cmd
}

func moneyline(ml *models.Moneyline) string {
	if ml == nil {
		return "-"
	}
	return fmt.Sprintf("%+d / %+d", ml.Home, ml.Away)
}

func score(s models.Score) string {
	if s.Home == nil || s.Away == nil {
		return "-"
	}
	return fmt.Sprintf("%d-%d", *s.Home, *s.Away)
}

func leaguesCmd() *cobra.Command {
	var sport string
	cmd := &cobra.Command{
		Use:   "leagues",
		Short: "List leagues of stored events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(ctx context.Context, a *app.App) error {
				leagues, err := a.Catalog.Leagues(ctx, models.Sport(sport))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput {
					return printJSON(out, leagues)
				}
				w := newTable(out)
				fmt.Fprintln(w, "KEY\tTITLE")
				for _, l := range leagues {
					fmt.Fprintf(w, "%s\t%s\n", l.Key, l.Title)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&sport, "sport", "", "Restrict to one sport")
	return cmd
}

func oddsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "odds <event-id>",
		Short: "Show the bookmaker table of an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return models.ErrInvalidID
			}
			return withApp(cmd, false, func(ctx context.Context, a *app.App) error {
				view, err := a.Catalog.EventOdds(ctx, id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput {
					return printJSON(out, view)
				}
				w := newTable(out)
				fmt.Fprintln(w, "BOOKMAKER\tHOME\tAWAY\tDRAW\tIMPLIED HOME\tIMPLIED AWAY")
				for _, r := range view.Rows {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.Bookmaker,
						price(r.Home), price(r.Away), price(r.Draw), implied(r.ImpliedHome), implied(r.ImpliedAway))
				}
				return w.Flush()
			})
		},
	}
}

func price(p *int) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%+d", *p)
}

func implied(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(4)
}

func cleanupCmd() *cobra.Command {
	var leagues, nonProvider bool
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete events from disallowed leagues or without a provider reference",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !leagues && !nonProvider {
				return fmt.Errorf("choose --leagues and/or --non-provider")
			}
			return withApp(cmd, false, func(ctx context.Context, a *app.App) error {
				out := cmd.OutOrStdout()
				if leagues {
					n, err := a.Catalog.CleanupLeagues(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Removed %d events from disallowed leagues\n", n)
				}
				if nonProvider {
					n, err := a.Catalog.CleanupNonProvider(ctx, models.ProviderOddsAPI)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Removed %d events without a provider reference\n", n)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&leagues, "leagues", false, "Remove soccer and tennis events outside the allowlist")
	cmd.Flags().BoolVar(&nonProvider, "non-provider", false, "Remove manually seeded events")
	return cmd
}

// seedFile is the YAML layout accepted by seed --file
type seedFile struct {
	Events []service.SeedFixture `yaml:"events"`
}

func loadFixtures(path string) ([]service.SeedFixture, error) {
	if path == "" {
		return service.DefaultSeedFixtures(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if len(f.Events) == 0 {
		return nil, fmt.Errorf("fixtures file %s has no events", path)
	}
	return f.Events, nil
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo events without a provider reference",
		RunE: func(cmd *cobra.Command, args []string) error {
			fixtures, err := loadFixtures(file)
			if err != nil {
				return err
			}
			return withApp(cmd, false, func(ctx context.Context, a *app.App) error {
				events, err := a.Catalog.Seed(ctx, fixtures)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput {
					return printJSON(out, events)
				}
				for _, ev := range events {
					fmt.Fprintf(out, "%s  %s @ %s  %s\n", ev.ID, ev.AwayTeam, ev.HomeTeam, ev.StartTime.Format(time.RFC3339))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML fixtures file; defaults to one demo event per sport")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the event and forecast tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Bootstrap already ensures the schema
			return withApp(cmd, false, func(ctx context.Context, a *app.App) error {
				fmt.Fprintf(cmd.OutOrStdout(), "Schema ready (%s)\n", a.Config.Store.Driver)
				return nil
			})
		},
	}
}
