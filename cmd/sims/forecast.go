package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yourusername/sports-sims/internal/app"
	"github.com/yourusername/sports-sims/internal/forecast"
	"github.com/yourusername/sports-sims/internal/models"
	"github.com/yourusername/sports-sims/internal/service"
)

const defaultUser = "local"

// paramFlags holds the forecast parameter flags shared by run and update
type paramFlags struct {
	trials                 int
	formWeight, home, away float64
}

func (p *paramFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.trials, "trials", 0, "Number of simulated games")
	cmd.Flags().Float64Var(&p.formWeight, "form-weight", 0, "Weight of recent form against market odds")
	cmd.Flags().Float64Var(&p.home, "home-weight", 0, "Home side form weight")
	cmd.Flags().Float64Var(&p.away, "away-weight", 0, "Away side form weight")
}

// params returns the set flags; unset flags fall back to engine defaults
func (p *paramFlags) params(cmd *cobra.Command) forecast.Params {
	var params forecast.Params
	flags := cmd.Flags()
	if flags.Changed("trials") {
		params.Trials = &p.trials
	}
	if flags.Changed("form-weight") {
		params.FormWeight = &p.formWeight
	}
	if flags.Changed("home-weight") {
		params.HomeFormWeight = &p.home
	}
	if flags.Changed("away-weight") {
		params.AwayFormWeight = &p.away
	}
	return params
}

// pct formats a win fraction as a percentage
func pct(f float64) string {
	return fmt.Sprintf("%.2f%%", f*100)
}

func printRun(cmd *cobra.Command, run *service.ForecastRun, verb string) error {
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, run)
	}
	f := run.Forecast
	fmt.Fprintf(out, "%s @ %s\n", f.AwayTeam, f.HomeTeam)
	fmt.Fprintf(out, "  base p    %.4f\n  recent p  %.4f\n  trials    %d\n", f.Result.BaseP, f.Result.RecentP, f.Result.Trials)
	fmt.Fprintf(out, "  home win  %s\n  away win  %s\n", pct(f.Result.HomeWinPct), pct(f.Result.AwayWinPct))
	fmt.Fprintf(out, "%s forecast %s\n", verb, f.ID)
	return nil
}

func forecastCmd() *cobra.Command {
	var (
		user    string
		flags   paramFlags
		refresh bool
	)
	cmd := &cobra.Command{
		Use:   "forecast <event-id>",
		Short: "Run and save a forecast for an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return models.ErrInvalidID
			}

			params := flags.params(cmd)
			return withApp(cmd, refresh, func(ctx context.Context, a *app.App) error {
				run, err := a.Forecasts.Run(ctx, user, id, params, refresh)
				if err != nil {
					return err
				}
				return printRun(cmd, run, "Saved")
			})
		},
	}
	cmd.Flags().StringVar(&user, "user", defaultUser, "Owner of the saved forecast")
	flags.register(cmd)
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Refresh bookmaker odds from the provider first")
	return cmd
}

func forecastsCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "forecasts",
		Short: "Manage saved forecasts",
	}
	cmd.PersistentFlags().StringVar(&user, "user", defaultUser, "Owner of the saved forecasts")

	var page, perPage int
	list := &cobra.Command{
		Use:   "list",
		Short: "List saved forecasts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(ctx context.Context, a *app.App) error {
				res, err := a.Forecasts.List(ctx, user, page, perPage)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput {
					return printJSON(out, res)
				}
				w := newTable(out)
				fmt.Fprintln(w, "ID\tMATCHUP\tHOME WIN\tAWAY WIN\tTRIALS\tCREATED")
				for _, f := range res.Forecasts {
					fmt.Fprintf(w, "%s\t%s @ %s\t%s\t%s\t%d\t%s\n", f.ID, f.AwayTeam, f.HomeTeam,
						pct(f.Result.HomeWinPct), pct(f.Result.AwayWinPct), f.Result.Trials, f.CreatedAt.Local().Format("Jan 02 15:04"))
				}
				if err := w.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(out, "%d total\n", res.Total)
				return nil
			})
		},
	}
	list.Flags().IntVar(&page, "page", 1, "Page number")
	list.Flags().IntVar(&perPage, "per-page", 20, "Forecasts per page")

	del := &cobra.Command{
		Use:   "delete <forecast-id>",
		Short: "Delete a saved forecast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return models.ErrInvalidID
			}
			return withApp(cmd, false, func(ctx context.Context, a *app.App) error {
				if err := a.Forecasts.Delete(ctx, user, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted forecast %s\n", id)
				return nil
			})
		},
	}

	var (
		updateFlags   paramFlags
		updateRefresh bool
	)
	update := &cobra.Command{
		Use:   "update <forecast-id>",
		Short: "Re-run a saved forecast with new parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return models.ErrInvalidID
			}
			params := updateFlags.params(cmd)
			return withApp(cmd, updateRefresh, func(ctx context.Context, a *app.App) error {
				run, err := a.Forecasts.Update(ctx, user, id, params, updateRefresh)
				if err != nil {
					return err
				}
				return printRun(cmd, run, "Updated")
			})
		},
	}
	updateFlags.register(update)
	update.Flags().BoolVar(&updateRefresh, "refresh", false, "Refresh bookmaker odds from the provider first")

	cmd.AddCommand(list, update, del)
	return cmd
}
