package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mpdx/internal/formatter"
	"github.com/desertthunder/mpdx/internal/navigation"
	"github.com/desertthunder/mpdx/internal/shared"
	"github.com/urfave/cli/v3"
)

// RouteEncode prints the fragment Goto would write for the given app and overrides.
func (r *Runner) RouteEncode(ctx context.Context, cmd *cli.Command) error {
	app := cmd.StringArg("app")
	if app == "" {
		return fmt.Errorf("%w: app", shared.ErrMissingArgument)
	}

	state, err := navigation.NewState(nil, nil, nil)
	if err != nil {
		return err
	}

	var opts []navigation.GotoOption
	if cmd.IsSet("tab") {
		opts = append(opts, navigation.WithTab(cmd.String("tab")))
	}
	if cmd.IsSet("view") {
		opts = append(opts, navigation.WithView(cmd.String("view")))
	}
	if cmd.IsSet("page") {
		opts = append(opts, navigation.WithPage(int(cmd.Int("page"))))
	}
	if cmd.IsSet("filter") {
		opts = append(opts, navigation.WithFilter(cmd.String("filter")))
	}
	if cmd.IsSet("sort") {
		opts = append(opts, navigation.WithSort(cmd.String("sort")))
	}
	if cmd.IsSet("tag") {
		opts = append(opts, navigation.WithTag(cmd.String("tag")))
	}
	if cmd.IsSet("search") {
		opts = append(opts, navigation.WithSearch(cmd.String("search")))
	}

	fragment, err := state.Goto(app, opts...)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", fragment)
}

// RouteDecode resolves a fragment against the default tree and prints the location.
func (r *Runner) RouteDecode(ctx context.Context, cmd *cli.Command) error {
	fragment := cmd.StringArg("fragment")
	if fragment == "" {
		return fmt.Errorf("%w: fragment", shared.ErrMissingArgument)
	}

	state, err := navigation.NewState(nil, nil, nil)
	if err != nil {
		return err
	}
	loc, err := state.Resolve(fragment)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(loc, false)
	}

	r.writePlainHeader(loc.Descriptor.String())
	r.writePlain("Screen:   %s\n", loc.ID())
	r.writePlain("Page:     %d\n", loc.Page)
	r.writePlain("Filter:   %s\n", loc.Filter)
	r.writePlain("Sort:     %s\n", loc.Sort)
	r.writePlain("Tag:      %s\n", loc.Tag)
	r.writePlain("Search:   %s\n", loc.Search)
	return r.writePlain("Fragment: %s\n", loc.Fragment())
}

// RouteList prints every screen of the default tree.
func (r *Runner) RouteList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	data, err := formatter.RouteTable(format, formatter.Routes(navigation.DefaultTree()))
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}
