package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mpdx/internal/formatter"
	"github.com/desertthunder/mpdx/internal/repositories"
	"github.com/desertthunder/mpdx/internal/services"
	"github.com/urfave/cli/v3"
)

// Notifications prints the persisted notification log, newest first.
func (r *Runner) Notifications(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	criteria := map[string]any{}
	if sev := cmd.String("severity"); sev != "" {
		criteria["severity"] = services.ParseSeverity(sev, services.SeverityInfo).String()
	}

	db, err := r.database()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewNotificationRepository(db)
	ns, err := repo.List(criteria)
	if err != nil {
		return err
	}

	data, err := formatter.Notifications(format, ns)
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteFile(path, data); err != nil {
			return err
		}
		r.logger.Info("notifications written", "path", path, "entries", len(ns))
	} else if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if cmd.Bool("clear") {
		n, err := repo.Clear()
		if err != nil {
			return err
		}
		r.logger.Info("notifications cleared", "entries", n)
	}
	return nil
}
