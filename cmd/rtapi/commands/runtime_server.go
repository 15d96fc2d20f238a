// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package commands

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/ChainSafe/rtapi/lib/runtime/remote"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

func newRuntimeServerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runtime-server",
		Short: "Serve the native runtime builds to remote hosts",
		Long: `The runtime-server command executes runtime calls for hosts configured with
the remote executor. The state is read from and written to the host.
Example:
	rtapi runtime-server --listen localhost:7100`,
		Annotations: map[string]string{"config": "none"},
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := cmd.Flags().GetString("listen")
			if err != nil {
				return fmt.Errorf("failed to get --listen: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serveRuntime(ctx, address, func(addr net.Addr) {
				fmt.Fprintf(cmd.OutOrStdout(), "serving runtime on %s\n", addr)
			})
		},
	}
	cmd.Flags().String("listen", "localhost:7100", "listening address")
	return cmd
}

// serveRuntime serves the native runtime builds until ctx is done.
func serveRuntime(ctx context.Context, address string, listening func(net.Addr)) error {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", address, err)
	}

	server := grpc.NewServer()
	remote.RegisterRuntimeServer(server, remote.NewServer(nativeExecutor()))
	listening(lis.Addr())

	go func() {
		<-ctx.Done()
		logger.Info("stopping runtime server: " + ctx.Err().Error())
		server.GracefulStop()
	}()
	return server.Serve(lis)
}
