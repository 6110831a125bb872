package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	grpcapi "vitals-monitor/internal/api/grpc"
)

func newStatusCommand() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running monitor over gRPC and print its channels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, conn, err := grpcapi.Dial(addr)
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			statuses, err := client.ListChannels(ctx)
			if err != nil {
				return fmt.Errorf("list channels from %s: %w", addr, err)
			}
			renderStatusTable(cmd.OutOrStdout(), statuses)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:50051", "gRPC address of a running monitor")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")
	return cmd
}
