package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yourusername/sports-sims/internal/app"
	"github.com/yourusername/sports-sims/internal/models"
)

func watchlistCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Follow events and pin saved forecasts",
	}
	cmd.PersistentFlags().StringVar(&user, "user", defaultUser, "Owner of the watchlist")

	var forecastID string
	add := &cobra.Command{
		Use:   "add [event-id]",
		Short: "Follow an event, or pin a saved forecast with --forecast",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (forecastID != "") {
				return fmt.Errorf("pass either an event id or --forecast")
			}
			return withApp(cmd, false, func(ctx context.Context, a *app.App) error {
				var (
					item    *models.WatchlistItem
					created bool
					err     error
				)
				if forecastID != "" {
					id, perr := uuid.Parse(forecastID)
					if perr != nil {
						return models.ErrInvalidID
					}
					item, created, err = a.Watchlist.AddForecast(ctx, user, id)
				} else {
					id, perr := uuid.Parse(args[0])
					if perr != nil {
						return models.ErrInvalidID
					}
					item, created, err = a.Watchlist.AddEvent(ctx, user, id)
				}
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), item)
				}
				if created {
					fmt.Fprintf(cmd.OutOrStdout(), "Added %s to watchlist\n", item.ID)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Already on watchlist as %s\n", item.ID)
				}
				return nil
			})
		},
	}
	add.Flags().StringVar(&forecastID, "forecast", "", "Saved forecast to pin")

	var removeForecast bool
	remove := &cobra.Command{
		Use:   "remove <event-id|forecast-id>",
		Short: "Unfollow an event, or unpin a forecast with --forecast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return models.ErrInvalidID
			}
			return withApp(cmd, false, func(ctx context.Context, a *app.App) error {
				if removeForecast {
					err = a.Watchlist.RemoveForecast(ctx, user, id)
				} else {
					err = a.Watchlist.RemoveEvent(ctx, user, id)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from watchlist\n", id)
				return nil
			})
		},
	}
	remove.Flags().BoolVar(&removeForecast, "forecast", false, "Treat the id as a pinned forecast")

	list := &cobra.Command{
		Use:   "list",
		Short: "List followed events and pinned forecasts, soonest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(ctx context.Context, a *app.App) error {
				entries, err := a.Watchlist.List(ctx, user)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput {
					return printJSON(out, map[string]interface{}{"items": entries})
				}
				w := newTable(out)
				fmt.Fprintln(w, "EVENT\tMATCHUP\tSTART\tSCORE\tFORECAST\tHOME WIN")
				for _, e := range entries {
					ev := e.Event
					forecast, home := "-", "-"
					if e.Forecast != nil {
						forecast = e.Forecast.ID.String()
						home = pct(e.Forecast.Result.HomeWinPct)
					}
					fmt.Fprintf(w, "%s\t%s @ %s\t%s\t%s\t%s\t%s\n", ev.ID, ev.AwayTeam, ev.HomeTeam,
						ev.StartTime.Local().Format("Jan 02 15:04"), score(ev.Score), forecast, home)
				}
				return w.Flush()
			})
		},
	}

	cmd.AddCommand(add, remove, list)
	return cmd
}
