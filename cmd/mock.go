package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/desertthunder/mpdx/internal/server"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// Mock serves the development backend until interrupted.
func (r *Runner) Mock(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Mock.Addr()
	}
	pin := cmd.String("pin")
	if pin == "" {
		pin = r.config.Server.PIN
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	mock := server.NewMock(server.MockOpts{Addr: addr, PIN: pin, Logger: r.logger})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return mock.ListenAndServe(ctx) })
	if cmd.Bool("tick") {
		g.Go(func() error {
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					mock.Tick()
				}
			}
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
