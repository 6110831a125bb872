package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	grpcapi "vitals-monitor/internal/api/grpc"
	"vitals-monitor/internal/domain"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one session per channel in the terminal and print the diagnoses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			overrides, err := collectOverrides(cmd)
			if err != nil {
				return err
			}
			return runHeadless(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), overrides)
		},
	}
	addSessionFlags(cmd.Flags())
	return cmd
}

func runHeadless(parent context.Context, out, logOut io.Writer, overrides flagOverrides) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := initApplication(ctx, logOut, overrides)
	if err != nil {
		return fmt.Errorf("failed to initialise application: %w", err)
	}
	defer cleanup()
	defer app.Logger.Sync()

	var archiving sync.WaitGroup
	archiving.Add(1)
	go func() {
		defer archiving.Done()
		app.Pool.Run(context.WithoutCancel(ctx), app.Queue.Summaries())
	}()

	frames, unsubscribe := app.Board.Subscribe()
	var printing sync.WaitGroup
	printing.Add(1)
	go func() {
		defer printing.Done()
		printFrames(out, frames)
	}()

	runErr := app.Monitor.Run(ctx)

	unsubscribe()
	printing.Wait()
	app.Queue.Close()
	archiving.Wait()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	fmt.Fprintln(out)
	statuses := make([]grpcapi.ChannelStatus, 0, len(app.Monitor.Channels()))
	for _, state := range app.Monitor.Channels() {
		var summary *domain.Summary
		if s, err := app.Monitor.Diagnosis(state.Channel); err == nil {
			summary = &s
		}
		statuses = append(statuses, localStatus(state, summary))
	}
	renderStatusTable(out, statuses)

	for _, region := range app.Panel.Regions() {
		if !region.Visible {
			continue
		}
		fmt.Fprintf(out, "%s: %s\n", region.Name, region.Text)
	}
	return nil
}

// printFrames writes the newest value of every chart push until frames closes.
func printFrames(out io.Writer, frames <-chan domain.ChartFrame) {
	for frame := range frames {
		latest := latestValue(frame)
		if latest == nil {
			continue
		}
		fmt.Fprintf(out, "%-9s #%-3d %8.2f\n", frame.Chart, frame.Seq, *latest)
	}
}

func latestValue(frame domain.ChartFrame) *float64 {
	if len(frame.Values) == 0 {
		return nil
	}
	return frame.Values[len(frame.Values)-1]
}
