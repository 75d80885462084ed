package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/mpdx/internal/formatter"
	"github.com/desertthunder/mpdx/internal/models"
	"github.com/desertthunder/mpdx/internal/notify"
	"github.com/desertthunder/mpdx/internal/shared"
	"github.com/urfave/cli/v3"
)

const methodPlayerState = "MYMPD_API_PLAYER_STATE"

// APICall sends one JSON-RPC request and prints the reply envelope
func (r *Runner) APICall(ctx context.Context, cmd *cli.Command) error {
	method := cmd.StringArg("method")
	if method == "" {
		return fmt.Errorf("%w: method", shared.ErrMissingArgument)
	}

	params := cmd.String("params")
	if !json.Valid([]byte(params)) {
		return fmt.Errorf("%w: params is not valid JSON", shared.ErrInvalidInput)
	}

	d := r.dispatcher(nil, notify.New(r.logger, nil))
	if err := r.login(ctx, d, cmd.String("pin")); err != nil {
		return err
	}

	r.logger.Info("calling", "method", method, "endpoint", d.Endpoint())
	reply, err := d.CallSync(ctx, method, json.RawMessage(params), cmd.Bool("report-errors"))
	if reply.Envelope != nil {
		if werr := r.writeJSON(reply.Envelope, cmd.Bool("pretty")); werr != nil {
			return werr
		}
	}
	if err != nil {
		return err
	}

	r.logger.Debug("reply", "method", method, "outcome", reply.Outcome)
	return nil
}

// APILogin opens a session and validates it against the server
func (r *Runner) APILogin(ctx context.Context, cmd *cli.Command) error {
	pin := cmd.String("pin")
	if pin == "" {
		pin = r.config.Server.PIN
	}
	if pin == "" {
		return fmt.Errorf("%w: --pin or server.pin is required", shared.ErrMissingArgument)
	}

	d := r.dispatcher(nil, notify.New(r.logger, nil))
	if err := r.login(ctx, d, pin); err != nil {
		return err
	}
	if err := d.Session().Validate(ctx); err != nil {
		return err
	}

	r.writePlain("✓ Session opened on %s\n", r.config.Server.URL)
	return d.Session().Logout(ctx)
}

// Player fetches MYMPD_API_PLAYER_STATE and renders it
func (r *Runner) Player(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	d := r.dispatcher(nil, notify.New(r.logger, nil))
	if err := r.login(ctx, d, ""); err != nil {
		return err
	}

	reply, err := d.CallSync(ctx, methodPlayerState, nil, true)
	if err != nil {
		return err
	}

	var st models.PlayerState
	if err := reply.Decode(&st); err != nil {
		return err
	}

	data, err := formatter.Player(format, st)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}
