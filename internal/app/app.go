package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mpdx/internal/events"
	"github.com/desertthunder/mpdx/internal/loop"
	"github.com/desertthunder/mpdx/internal/models"
	"github.com/desertthunder/mpdx/internal/navigation"
	"github.com/desertthunder/mpdx/internal/pubsub"
	"github.com/desertthunder/mpdx/internal/services"
	"github.com/desertthunder/mpdx/internal/shared"
)

const (
	methodSettingsGet = "MYMPD_API_SETTINGS_GET"
	methodPlayerState = "MYMPD_API_PLAYER_STATE"
	methodOutputList  = "MYMPD_API_PLAYER_OUTPUT_LIST"

	// DefaultFragment is the screen shown when the requested fragment has no route.
	DefaultFragment = "#/Home!0/-/-/-/"
	DefaultPageSize = 100
)

// ScreenStore persists leaf params across runs.
type ScreenStore interface {
	Save(screenID string, params navigation.Params) (*models.ScreenState, error)
	List(criteria map[string]any) ([]*models.ScreenState, error)
}

// Opts configures an [Application]. Nil fields get defaults.
type Opts struct {
	Scheduler loop.Scheduler
	Caller    services.Caller
	Notifier  services.Notifier
	View      View
	Logger    *log.Logger
	Tree      *navigation.Tree
	Fetch     FetchTable
	Screens   ScreenStore
	// Stream carries connection settings. Handlers and hooks are set by the application.
	Stream          events.StreamOpts
	DefaultFragment string
	Partition       string
	PageSize        int
	StartupWait     time.Duration
	Progress        time.Duration
}

// Application owns the client state: navigation, the push stream, connection flags and the
// progress tick. Apart from [Application.Post] its methods must run on the scheduler.
type Application struct {
	ctx       context.Context
	scheduler loop.Scheduler
	caller    services.Caller
	notifier  services.Notifier
	view      View
	logger    *log.Logger
	state     *navigation.State
	stream    *events.Stream
	fetch     FetchTable
	screens   ScreenStore
	published *pubsub.Broker[events.Event]

	defaultFragment string
	partition       string
	pageSize        int
	startupWait     time.Duration
	progressEvery   time.Duration

	fragment      string
	inited        bool
	uiEnabled     bool
	mpdConnected  bool
	initializing  bool
	startupTimer  loop.Timer
	progressTimer loop.Timer

	player   models.PlayerState
	settings json.RawMessage
	outputs  json.RawMessage
}

// New validates the default fragment against the tree and wires the push stream.
func New(opts Opts) (*Application, error) {
	if opts.Scheduler == nil {
		return nil, fmt.Errorf("%w: scheduler is required", shared.ErrMissingArgument)
	}
	if opts.Caller == nil {
		return nil, fmt.Errorf("%w: caller is required", shared.ErrMissingArgument)
	}
	if opts.Notifier == nil {
		opts.Notifier = services.NotifierFunc(func(string, string, string, services.Severity) {})
	}
	if opts.View == nil {
		opts.View = NopView{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Fetch == nil {
		opts.Fetch = DefaultFetchTable()
	}
	if opts.DefaultFragment == "" {
		opts.DefaultFragment = DefaultFragment
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.StartupWait <= 0 {
		opts.StartupWait = 500 * time.Millisecond
	}
	if opts.Progress <= 0 {
		opts.Progress = time.Second
	}

	a := &Application{
		ctx:             context.Background(),
		scheduler:       opts.Scheduler,
		caller:          opts.Caller,
		notifier:        opts.Notifier,
		view:            opts.View,
		logger:          shared.WithLogger(opts.Logger, "component", "app"),
		fetch:           opts.Fetch,
		screens:         opts.Screens,
		published:       pubsub.NewBroker[events.Event](opts.Logger),
		defaultFragment: opts.DefaultFragment,
		partition:       opts.Partition,
		pageSize:        opts.PageSize,
		startupWait:     opts.StartupWait,
		progressEvery:   opts.Progress,
	}

	var scroll navigation.ScrollReader
	if r, ok := opts.View.(navigation.ScrollReader); ok {
		scroll = r
	}
	state, err := navigation.NewState(opts.Tree, navigation.FragmentSinkFunc(a.setFragment), scroll)
	if err != nil {
		return nil, err
	}
	a.state = state

	d, _, err := navigation.Parse(a.defaultFragment)
	if err == nil {
		_, err = state.Tree().Leaf(d)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: default screen %q: %w", shared.ErrInvalidConfig, a.defaultFragment, err)
	}

	so := opts.Stream
	so.Scheduler = opts.Scheduler
	so.Notifier = opts.Notifier
	so.Logger = opts.Logger
	so.Handlers = a.pushHandlers()
	so.Unknown = a.onUnknown
	so.OnOpen = a.onOpen
	so.OnClose = a.onClose
	if a.stream, err = events.NewStream(so); err != nil {
		return nil, err
	}

	return a, nil
}

// Post runs fn on the scheduler. It is safe from any goroutine.
func (a *Application) Post(fn func(*Application)) {
	a.scheduler.Post(func() { fn(a) })
}

// State returns the navigation state.
func (a *Application) State() *navigation.State { return a.state }

// Stream returns the push channel.
func (a *Application) Stream() *events.Stream { return a.stream }

// Fragment returns the last routed fragment.
func (a *Application) Fragment() string { return a.fragment }

func (a *Application) Inited() bool       { return a.inited }
func (a *Application) UIEnabled() bool    { return a.uiEnabled }
func (a *Application) MPDConnected() bool { return a.mpdConnected }

// Player returns the last known player state.
func (a *Application) Player() models.PlayerState { return a.player }

// Settings returns the raw MYMPD_API_SETTINGS_GET result.
func (a *Application) Settings() json.RawMessage { return a.settings }

// Outputs returns the raw MYMPD_API_PLAYER_OUTPUT_LIST result.
func (a *Application) Outputs() json.RawMessage { return a.outputs }

// Subscribe streams every push event received until ctx ends.
func (a *Application) Subscribe(ctx context.Context) <-chan pubsub.Event[events.Event] {
	return a.published.Subscribe(ctx)
}

// Start restores saved screens and begins the startup sequence: connect, fetch settings, then
// route the pending fragment. While the socket is not open Connect is re-invoked every
// startup wait interval.
func (a *Application) Start(ctx context.Context, fragment string) {
	a.ctx = ctx
	a.restore()
	if fragment != "" {
		a.fragment = fragment
	}

	a.stream.Connect()
	a.armStartup()
}

func (a *Application) armStartup() {
	stop(a.startupTimer)
	a.startupTimer = a.scheduler.AfterFunc(a.startupWait, func() {
		a.startupTimer = nil
		if a.inited {
			return
		}
		if a.stream.State() != events.Connected && !a.stream.RetryPending() {
			a.stream.Connect()
		}
		a.armStartup()
	})
}

// Close stops every timer and closes the stream without reconnecting.
func (a *Application) Close() {
	a.startupTimer = stop(a.startupTimer)
	a.stopProgress()
	a.stream.Close()
}

// Goto navigates to app. The route runs asynchronously on the scheduler, like a hashchange
// event.
func (a *Application) Goto(app string, opts ...navigation.GotoOption) (string, error) {
	return a.state.Goto(app, opts...)
}

// Refresh re-fetches the current screen.
func (a *Application) Refresh() {
	if loc, ok := a.state.Current(); ok {
		a.load(loc)
	}
}

func (a *Application) setFragment(fragment string) {
	a.scheduler.Post(func() { a.Route(fragment) })
}

// Route resolves fragment and loads its screen. A fragment without a route falls back to the
// default screen once.
func (a *Application) Route(fragment string) {
	loc, err := a.state.Resolve(fragment)
	if err != nil {
		a.logger.Warn("no route, using default screen", "fragment", fragment, "error", err)
		fragment = a.defaultFragment
		if loc, err = a.state.Resolve(fragment); err != nil {
			a.logger.Error("default screen has no route", "fragment", fragment, "error", err)
			return
		}
	}
	a.fragment = fragment

	if a.state.ScreenChanged() {
		a.view.ShowScreen(loc)
		a.view.RestoreScroll(loc.ScrollPos)
	}

	a.persist(loc)
	a.load(loc)
}

// load issues the screen's calls. Replies for a screen that is no longer current are dropped.
func (a *Application) load(loc navigation.Location) {
	id := loc.ID()
	for _, c := range a.fetch.Calls(loc, a.pageSize) {
		method := c.Method
		a.caller.Call(a.ctx, method, c.Params, func(reply services.Reply) {
			if cur, ok := a.state.Current(); !ok || cur.ID() != id {
				a.logger.Debug("dropping stale reply", "method", method, "screen", id)
				return
			}
			a.view.Render(id, reply)
		}, c.ReportErrors)
	}
}

// refreshIf reloads the current screen when its ID is one of ids.
func (a *Application) refreshIf(ids ...string) {
	loc, ok := a.state.Current()
	if !ok {
		return
	}
	for _, id := range ids {
		if loc.ID() == id {
			a.load(loc)
			return
		}
	}
}

func (a *Application) restore() {
	if a.screens == nil {
		return
	}
	saved, err := a.screens.List(nil)
	if err != nil {
		a.logger.Warn("failed to load saved screens", "error", err)
		return
	}

	byID := make(map[string]navigation.Descriptor)
	for _, d := range a.state.Tree().Screens() {
		byID[d.ID()] = d
	}
	for _, s := range saved {
		d, ok := byID[s.ScreenID()]
		if !ok {
			continue
		}
		if err := a.state.Seed(d, s.Params()); err != nil {
			a.logger.Warn("skipping saved screen", "screen", s.ScreenID(), "error", err)
		}
	}
}

func (a *Application) persist(loc navigation.Location) {
	if a.screens == nil {
		return
	}
	if _, err := a.screens.Save(loc.ID(), loc.Params); err != nil {
		a.logger.Warn("failed to save screen", "screen", loc.ID(), "error", err)
	}
}

func (a *Application) onOpen() {
	a.view.HideBanner()
	if a.inited {
		a.uiEnabled = true
		a.view.SetControlsEnabled(true)
		return
	}
	if a.initializing {
		return
	}

	a.initializing = true
	a.caller.Call(a.ctx, methodSettingsGet, nil, func(reply services.Reply) {
		a.initializing = false
		if reply.Outcome != services.OutcomeSuccess {
			a.startupTimer = stop(a.startupTimer)
			a.view.ShowStartupError("Can not fetch settings")
			return
		}
		a.settings = reply.Envelope.Result
		a.finishStartup()
	}, true)
}

func (a *Application) finishStartup() {
	a.inited = true
	a.uiEnabled = true
	a.startupTimer = stop(a.startupTimer)
	a.view.SetControlsEnabled(true)
	a.logger.Info("startup finished")

	a.fetchState()

	fragment := a.fragment
	if fragment == "" {
		fragment = a.defaultFragment
	}
	a.Route(fragment)
}

func (a *Application) onClose() {
	if !a.inited {
		a.initializing = false
		a.view.ShowStartupError("Websocket connection closed")
		return
	}
	a.uiEnabled = false
	a.view.SetControlsEnabled(false)
	a.stopProgress()
	a.view.ShowBanner("Websocket connection failed, trying to reconnect", services.SeverityDanger)
}

func stop(t loop.Timer) loop.Timer {
	if t != nil {
		t.Stop()
	}
	return nil
}
