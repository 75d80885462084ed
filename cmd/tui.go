package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mpdx/internal/app"
	"github.com/desertthunder/mpdx/internal/shared"
	"github.com/desertthunder/mpdx/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// TUI launches the interactive client, optionally starting at fragment.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.config.Log.ParsedLevel())
	r.SetLogger(fileLogger)

	var program *tea.Program
	bridge := ui.NewBridge(func(msg tea.Msg) { program.Send(msg) })

	c, err := r.newClient(bridge)
	if err != nil {
		return err
	}
	defer c.Close()
	bridge.Bind(c.app.State)

	if err := r.login(ctx, c.dispatcher, ""); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel(c.app, c.app.State().Tree(), bridge, c.loop.Post)
	program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.loop.Run(ctx) })
	g.Go(func() error {
		for ev := range c.notes.Subscribe(ctx) {
			program.Send(ui.NotificationMsg(ev.Payload))
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("error running TUI: %w", err)
		}
		return nil
	})

	fragment := cmd.StringArg("fragment")
	c.app.Post(func(a *app.Application) { a.Start(ctx, fragment) })

	err = g.Wait()
	c.app.Close()
	if canceled(err) {
		return nil
	}
	return err
}
