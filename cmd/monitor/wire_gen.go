//go:build !wireinject

package main

import (
	"context"
	"io"

	"vitals-monitor/internal/application/monitor"
	"vitals-monitor/internal/domain"
	"vitals-monitor/internal/infra"
	"vitals-monitor/internal/infrastructure/chart"
)

func initApplication(ctx context.Context, out io.Writer, overrides flagOverrides) (*application, func(), error) {
	cfg, logger := setupBase(out, overrides)
	archive, cleanup, err := provideArchive(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	channels, err := provideChannels(cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	board := provideBoard()
	regions := providePanel(channels)
	queue := provideQueue(cfg)
	pool := provideWorkerPool(cfg, archive, logger)
	sink := provideSink(regions, queue)

	m, err := setupMonitor(channels, board, sink, archive, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	app := newApplication(cfg, logger, m, board, regions, queue, pool)
	return assembleApplication(app, cleanup)
}

func setupBase(out io.Writer, overrides flagOverrides) (infra.Config, *infra.Logger) {
	cfg := provideConfig(overrides)
	svcName := provideServiceName()
	log := provideLogger(out, svcName, cfg)
	return cfg, log
}

func setupMonitor(channels []domain.ChannelConfig, board *chart.Board, sink domain.DiagnosisSink, archive domain.SummaryRepository, logger *infra.Logger) (*monitor.Monitor, error) {
	clk := provideClock()
	return provideMonitor(channels, clk, board, sink, archive, logger)
}
