package main

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/desertthunder/knuckles/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the local HTTP relay until the command context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	library, err := r.Library()
	if err != nil {
		return err
	}

	host := r.config.Server.Host
	if h := cmd.String("host"); h != "" {
		host = h
	}
	port := r.config.Server.Port
	if p := cmd.Int("port"); p > 0 {
		port = p
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	relay := server.NewRelay(addr, library, r.streamOptions(cmd), r.logger)
	r.writePlain("Relaying %s on http://%s\n", library.Server(), addr)

	if err := relay.Run(ctx); err != nil {
		return fmt.Errorf("relay: %w", err)
	}
	return nil
}
