package main

import (
	"context"
	"strings"

	"github.com/desertthunder/mpdx/internal/navigation"
	"github.com/desertthunder/mpdx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Open opens the myMPD web interface, at fragment when one is given.
func (r *Runner) Open(ctx context.Context, cmd *cli.Command) error {
	url := strings.TrimSuffix(r.config.Server.URL, "/") + "/"
	if fragment := cmd.StringArg("fragment"); fragment != "" {
		if _, _, err := navigation.Parse(fragment); err != nil {
			return err
		}
		url += "#" + strings.TrimPrefix(fragment, "#")
	}

	r.logger.Info("opening browser", "url", url)
	return shared.OpenBrowser(url)
}
