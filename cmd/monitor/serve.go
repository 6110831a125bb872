package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	grpcapi "vitals-monitor/internal/api/grpc"
	httpapi "vitals-monitor/internal/api/http"
	"vitals-monitor/internal/infra"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run both channel sessions and expose them over HTTP, WebSocket and gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			overrides, err := collectOverrides(cmd)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cmd, overrides)
		},
	}
	cmd.Flags().String("http-port", "", "HTTP listen port (overrides HTTP_PORT)")
	cmd.Flags().String("grpc-port", "", "gRPC listen port (overrides GRPC_PORT)")
	cmd.Flags().String("metrics-port", "", "metrics listen port (overrides METRICS_PORT)")
	addSessionFlags(cmd.Flags())
	return cmd
}

func serve(parent context.Context, cmd *cobra.Command, overrides flagOverrides) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := initApplication(ctx, cmd.ErrOrStderr(), overrides)
	if err != nil {
		return fmt.Errorf("failed to initialise application: %w", err)
	}
	defer cleanup()

	cfg := app.Config
	logger := app.Logger
	defer logger.Sync()

	infra.LogConfig(ctx, logger, cfg)
	if cfg.MetricsPort != "" {
		infra.StartMetricsServer(ctx, cfg.MetricsPort, logger)
		logger.Printf(ctx, "metrics server listening on :%s", cfg.MetricsPort)
	}

	// The pool outlives ctx so that summaries queued during shutdown still
	// reach the archive. It stops once the queue is closed and drained.
	var archiving sync.WaitGroup
	archiving.Add(1)
	go func() {
		defer archiving.Done()
		app.Pool.Run(context.WithoutCancel(ctx), app.Queue.Summaries())
	}()

	monitorDone := make(chan error, 1)
	go func() {
		monitorDone <- app.Monitor.Run(ctx)
	}()

	httpServer := newHTTPServer(cfg.HTTPPort, httpapi.Deps{
		Service: app.Monitor,
		Charts:  app.Board,
		Regions: app.Panel,
		Logger:  logger,
	})
	httpListener, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		stop()
		finish(app, monitorDone, &archiving)
		return fmt.Errorf("failed to listen on HTTP port %s: %w", cfg.HTTPPort, err)
	}

	grpcServer := grpcapi.NewServer(app.Monitor, logger)
	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		_ = httpListener.Close()
		stop()
		finish(app, monitorDone, &archiving)
		return fmt.Errorf("failed to listen on gRPC port %s: %w", cfg.GRPCPort, err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf(ctx, "HTTP server shutdown error: %v", err)
		}

		grpcServer.GracefulStop()
	}()

	serverErrs := make(chan error, 2)
	var serverGroup sync.WaitGroup

	serverGroup.Add(1)
	go func() {
		defer serverGroup.Done()
		logger.Printf(ctx, "HTTP server listening on %s", httpListener.Addr())
		if err := httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrs <- fmt.Errorf("http server: %w", err)
		}
	}()

	serverGroup.Add(1)
	go func() {
		defer serverGroup.Done()
		logger.Printf(ctx, "gRPC server listening on %s", grpcListener.Addr())
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serverErrs <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	// Finished sessions keep being served until the process is signalled.
	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-serverErrs:
		serveErr = err
	}

	stop()
	serverGroup.Wait()
	if err := finish(app, monitorDone, &archiving); err != nil {
		logger.Printf(ctx, "monitor error: %v", err)
	}

	if serveErr != nil {
		logger.Printf(ctx, "server error: %v", serveErr)
		return serveErr
	}

	logger.Println(ctx, "server stopped")
	return nil
}

// finish waits for the sessions, then closes the archive queue and waits for
// the pool to drain it.
func finish(app *application, monitorDone <-chan error, archiving *sync.WaitGroup) error {
	err := <-monitorDone
	app.Queue.Close()
	archiving.Wait()
	return err
}

func newHTTPServer(port string, deps httpapi.Deps) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           httpapi.NewServer(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
