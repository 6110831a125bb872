package main

import (
	"vitals-monitor/internal/application/monitor"
	"vitals-monitor/internal/application/worker"
	"vitals-monitor/internal/domain"
	"vitals-monitor/internal/infra"
	"vitals-monitor/internal/infrastructure/chart"
	"vitals-monitor/internal/infrastructure/panel"
)

type application struct {
	Config  infra.Config
	Logger  *infra.Logger
	Monitor *monitor.Monitor
	Board   *chart.Board
	Panel   *panel.Panel
	Queue   *worker.Queue
	Pool    domain.WorkerPool
}

func newApplication(cfg infra.Config, logger *infra.Logger, m *monitor.Monitor, board *chart.Board, regions *panel.Panel, queue *worker.Queue, pool *worker.Pool) *application {
	return &application{
		Config:  cfg,
		Logger:  logger,
		Monitor: m,
		Board:   board,
		Panel:   regions,
		Queue:   queue,
		Pool:    pool,
	}
}

func assembleApplication(app *application, cleanup func()) (*application, func(), error) {
	if cleanup == nil {
		cleanup = func() {}
	}
	return app, cleanup, nil
}
