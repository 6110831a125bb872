package main

import (
	"context"
	"io"
	"time"

	"github.com/benbjohnson/clock"

	"vitals-monitor/internal/application/diagnosis"
	"vitals-monitor/internal/application/monitor"
	"vitals-monitor/internal/application/worker"
	"vitals-monitor/internal/domain"
	"vitals-monitor/internal/infra"
	"vitals-monitor/internal/infrastructure/chart"
	"vitals-monitor/internal/infrastructure/panel"
	"vitals-monitor/internal/infrastructure/repository/memory"
	"vitals-monitor/internal/infrastructure/repository/postgres"
)

const databaseWaitTimeout = 30 * time.Second

func provideConfig(overrides flagOverrides) infra.Config {
	cfg := infra.LoadConfig()
	overrides.apply(&cfg)
	return cfg
}

func provideServiceName() string {
	return "vitals-monitor"
}

func provideLogger(out io.Writer, serviceName string, cfg infra.Config) *infra.Logger {
	return infra.NewLoggerWithLevel(out, serviceName, cfg.LogLevel)
}

func provideClock() clock.Clock {
	return clock.New()
}

func provideChannels(cfg infra.Config) ([]domain.ChannelConfig, error) {
	policy, err := domain.ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}

	return monitor.DefaultChannels(monitor.Options{
		WarmUp:     time.Duration(cfg.WarmUpMillis) * time.Millisecond,
		TickPeriod: time.Duration(cfg.TickMillis) * time.Millisecond,
		SampleCap:  cfg.SampleCap,
		Policy:     policy,
		Seed:       cfg.RandSeed,
	}), nil
}

func provideBoard() *chart.Board {
	return chart.NewBoard(chart.DefaultWindow, chart.DefaultStyles())
}

func providePanel(channels []domain.ChannelConfig) *panel.Panel {
	names := make([]string, 0, len(channels))
	for _, channel := range channels {
		names = append(names, channel.Name)
	}
	return panel.New(names...)
}

func provideQueue(cfg infra.Config) *worker.Queue {
	return worker.NewQueue(cfg.ArchiveBuffer)
}

func provideWorkerPool(cfg infra.Config, archive domain.SummaryRepository, logger *infra.Logger) *worker.Pool {
	return worker.New(cfg.ArchiveWorkers, archive, logger)
}

// provideSink shows each summary on the panel and queues it for the archive.
func provideSink(regions *panel.Panel, queue *worker.Queue) domain.DiagnosisSink {
	return diagnosis.Fanout{regions, queue}
}

func provideMonitor(channels []domain.ChannelConfig, clk clock.Clock, board *chart.Board, sink domain.DiagnosisSink, archive domain.SummaryRepository, logger *infra.Logger) (*monitor.Monitor, error) {
	return monitor.New(channels, monitor.Deps{
		Clock:   clk,
		Chart:   board,
		Charts:  board,
		Sink:    sink,
		Archive: archive,
		Logger:  logger,
	})
}

// provideArchive opens the postgres archive when a database is configured and
// falls back to memory when it is unreachable.
func provideArchive(ctx context.Context, cfg infra.Config, logger *infra.Logger) (domain.SummaryRepository, func(), error) {
	if !cfg.DatabaseConfigured() {
		logger.Println(ctx, "archive: no database configured, keeping summaries in memory")
		return memory.New(), func() {}, nil
	}

	dsn, err := postgres.BuildDatabaseDSN(cfg)
	if err != nil {
		return nil, nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, databaseWaitTimeout)
	defer cancel()
	if err := postgres.WaitForDatabase(waitCtx, cfg, logger); err != nil {
		logger.Warnf(ctx, "archive: database connectivity check failed, keeping summaries in memory: %v", err)
		return memory.New(), func() {}, nil
	}
	logger.Println(ctx, "archive: database connectivity check succeeded")

	repo, err := postgres.Open(ctx, dsn, logger)
	if err != nil {
		logger.Warnf(ctx, "archive: postgres unavailable, keeping summaries in memory: %v", err)
		return memory.New(), func() {}, nil
	}

	cleanup := func() {
		if err := repo.Close(); err != nil {
			logger.Printf(ctx, "archive: failed to close repository: %v", err)
		}
	}
	return repo, cleanup, nil
}
