package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"

	"github.com/desertthunder/mpdx/internal/app"
	"github.com/desertthunder/mpdx/internal/events"
	"github.com/desertthunder/mpdx/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// Watch connects to the push channel and prints every event until interrupted.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	kinds := cmd.StringSlice("kind")
	for _, k := range kinds {
		if events.ParseKind(k) == events.KindUnknown {
			return fmt.Errorf("%w: unknown event %q", shared.ErrInvalidArgument, k)
		}
	}
	asJSON := cmd.Bool("json")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	c, err := r.newClient(nil)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := r.login(ctx, c.dispatcher, ""); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	sub := c.app.Subscribe(ctx)
	g.Go(func() error { return c.loop.Run(ctx) })
	g.Go(func() error {
		for ev := range sub {
			e := ev.Payload
			if len(kinds) > 0 && !slices.Contains(kinds, e.Method) {
				continue
			}
			if err := r.printEvent(e, asJSON); err != nil {
				return err
			}
		}
		return ctx.Err()
	})

	r.logger.Info("watching", "url", c.app.Stream().URL())
	c.app.Post(func(a *app.Application) { a.Start(ctx, "") })

	err = g.Wait()
	c.app.Close()
	if canceled(err) {
		return nil
	}
	return err
}

func (r *Runner) printEvent(e events.Event, asJSON bool) error {
	if asJSON {
		return r.writeJSON(map[string]any{
			"kind":   e.Kind.String(),
			"method": e.Method,
			"params": e.Params,
		}, false)
	}
	if len(e.Params) == 0 {
		return r.writePlain("%-20s %s\n", e.Kind, e.Method)
	}
	return r.writePlain("%-20s %s %s\n", e.Kind, e.Method, e.Params)
}
