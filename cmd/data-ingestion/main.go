// Package main provides the entry point for the scheduled odds and score ingestion service.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sports-sims/internal/app"
	"github.com/yourusername/sports-sims/internal/health"
	"github.com/yourusername/sports-sims/internal/metrics"
	"github.com/yourusername/sports-sims/internal/scheduler"
	"github.com/yourusername/sports-sims/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to configuration file")
	syncOnStart := flag.Bool("sync-on-start", false, "Run one odds and one score sync before scheduling")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.Bootstrap(ctx, app.Options{ConfigPath: *configPath, WithProvider: true})
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	cfg := a.Config
	appLog := a.Logger
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"store":       cfg.Store.Driver,
		"version":     Version,
	}).Info("Data ingestion service starting")

	scoreOpts := service.ScoreSyncOptions{
		Keys:         cfg.Ingestion.ScoreKeys,
		Include:      cfg.Ingestion.ScoreInclude,
		Exclude:      cfg.Ingestion.ScoreExclude,
		LookbackDays: cfg.Ingestion.ScoreLookbackDays,
	}

	var healthServer *health.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		healthServer = health.NewServer(health.Config{
			ServiceName: cfg.App.Name,
			Version:     Version,
			Commit:      GitCommit,
			Port:        strconv.Itoa(cfg.Metrics.Port),
			Logger:      appLog,
			Checks:      a.ReadinessChecks(),
			Metrics:     metrics.Handler(),
			MetricsPath: cfg.Metrics.Path,
		})
		if err := healthServer.Start(ctx); err != nil {
			appLog.WithError(err).Fatal("Failed to start health server")
		}
	}

	if *syncOnStart {
		if report, err := a.Ingestion.SyncOdds(ctx, cfg.Ingestion.OddsKeys); err != nil {
			appLog.WithError(err).Warn("Initial odds sync failed")
		} else {
			appLog.WithField("report", report.String()).Info("Initial odds sync complete")
		}
		if report, err := a.Ingestion.SyncScores(ctx, scoreOpts); err != nil {
			appLog.WithError(err).Warn("Initial score sync failed")
		} else {
			appLog.WithField("report", report.String()).Info("Initial score sync complete")
		}
	}

	sched := scheduler.NewScheduler(a.Ingestion, appLog)
	if err := sched.ScheduleOddsSync(cfg.Ingestion.OddsSchedule, cfg.Ingestion.OddsKeys); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule odds sync")
	}
	if err := sched.ScheduleScoreSync(cfg.Ingestion.ScoresSchedule, scoreOpts); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule score sync")
	}
	if err := sched.Start(); err != nil {
		appLog.WithError(err).Fatal("Failed to start scheduler")
	}
	if healthServer != nil {
		healthServer.SetReady(true)
	}

	appLog.WithField("next_run", sched.GetNextRun()).Info("Data ingestion service running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	appLog.WithField("signal", sig).Info("Shutdown signal received")

	if healthServer != nil {
		healthServer.SetReady(false)
	}
	if err := sched.Stop(); err != nil {
		appLog.WithError(err).Error("Error during scheduler shutdown")
	}
	cancel()

	appLog.Info("Data ingestion service shut down")
}
