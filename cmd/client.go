package main

import (
	"context"
	"database/sql"
	"errors"

	"github.com/desertthunder/mpdx/internal/app"
	"github.com/desertthunder/mpdx/internal/events"
	"github.com/desertthunder/mpdx/internal/loop"
	"github.com/desertthunder/mpdx/internal/notify"
	"github.com/desertthunder/mpdx/internal/repositories"
	"github.com/desertthunder/mpdx/internal/services"
)

// client bundles what a long running command needs around the application.
type client struct {
	loop       *loop.Loop
	app        *app.Application
	dispatcher *services.Dispatcher
	notes      *notify.Log
	db         *sql.DB
}

func (c *client) Close() {
	if c.db != nil {
		c.db.Close()
	}
}

// newClient builds the application from config. The database is optional: when it cannot be
// opened neither screen params nor notifications are persisted.
func (r *Runner) newClient(view app.View) (*client, error) {
	cfg := r.config

	url, err := events.URL(cfg.Server.URL, cfg.WebSocket.Path, cfg.Server.Partition)
	if err != nil {
		return nil, err
	}

	c := &client{loop: loop.New(r.logger)}
	var screens app.ScreenStore
	var store notify.Store
	if db, err := r.database(); err != nil {
		r.logger.Warn("history will not be saved", "error", err)
	} else {
		c.db = db
		screens = repositories.NewScreenStateRepository(db)
		store = repositories.NewNotificationRepository(db)
	}
	c.notes = notify.New(r.logger, store)
	c.dispatcher = r.dispatcher(c.loop, c.notes)

	c.app, err = app.New(app.Opts{
		Scheduler: c.loop,
		Caller:    c.dispatcher,
		Notifier:  c.notes,
		View:      view,
		Logger:    r.logger,
		Screens:   screens,
		Stream: events.StreamOpts{
			URL:             url,
			Dialer:          events.WSDialer{},
			ConnectRetries:  cfg.WebSocket.ConnectRetries,
			RetryDelay:      cfg.WebSocket.RetryDelay(),
			ReconnectDelay:  cfg.WebSocket.ReconnectDelay(),
			Keepalive:       cfg.WebSocket.Keepalive(),
			MaxMessageBytes: cfg.WebSocket.MaxMessageBytes,
		},
		DefaultFragment: cfg.Navigation.DefaultScreen,
		Partition:       cfg.Server.Partition,
		PageSize:        cfg.API.PageSize,
		StartupWait:     cfg.Navigation.StartupWait(),
	})
	if err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// canceled reports whether err only says the command was interrupted or ran out of time.
func canceled(err error) bool {
	return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
