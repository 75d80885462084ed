package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mpdx/internal/events"
	"github.com/desertthunder/mpdx/internal/loop"
	"github.com/desertthunder/mpdx/internal/models"
	"github.com/desertthunder/mpdx/internal/navigation"
	"github.com/desertthunder/mpdx/internal/services"
	"github.com/desertthunder/mpdx/internal/shared"
)

type pendingCall struct {
	method       string
	params       any
	onResult     func(services.Reply)
	reportErrors bool
}

// fakeCaller records calls. Tests answer them with reply.
type fakeCaller struct {
	calls []*pendingCall
}

func (c *fakeCaller) Call(_ context.Context, method string, params any, onResult func(services.Reply), reportErrors bool) {
	c.calls = append(c.calls, &pendingCall{method, params, onResult, reportErrors})
}

func (c *fakeCaller) methods() []string {
	out := make([]string, len(c.calls))
	for i, call := range c.calls {
		out[i] = call.method
	}
	return out
}

func (c *fakeCaller) last(method string) *pendingCall {
	for i := len(c.calls) - 1; i >= 0; i-- {
		if c.calls[i].method == method {
			return c.calls[i]
		}
	}
	return nil
}

func (c *fakeCaller) count(method string) int {
	n := 0
	for _, call := range c.calls {
		if call.method == method {
			n++
		}
	}
	return n
}

func (c *fakeCaller) reset() { c.calls = nil }

func success(method string, result any) services.Reply {
	data, _ := json.Marshal(result)
	env := &services.Response{JSONRPC: services.JSONRPCVersion, Result: data}
	return services.Reply{Method: method, Outcome: services.OutcomeSuccess, Status: 200, Envelope: env}
}

func failure(method string) services.Reply {
	env := &services.Response{JSONRPC: services.JSONRPCVersion, Error: &services.RPCError{Code: -32000, Message: "boom"}}
	return services.Reply{Method: method, Outcome: services.OutcomeError, Status: 200, Envelope: env}
}

type recordingView struct {
	NopView
	shown    []string
	scrolls  []int
	rendered []string
	controls []bool
	startup  []string
	banners  []string
	hidden   int
	progress [][2]int
	players  []models.PlayerState
	scroll   int
}

func (v *recordingView) ShowScreen(loc navigation.Location) { v.shown = append(v.shown, loc.ID()) }
func (v *recordingView) RestoreScroll(pos int)              { v.scrolls = append(v.scrolls, pos) }
func (v *recordingView) Render(id string, _ services.Reply) { v.rendered = append(v.rendered, id) }
func (v *recordingView) SetControlsEnabled(on bool)         { v.controls = append(v.controls, on) }
func (v *recordingView) ShowStartupError(msg string)        { v.startup = append(v.startup, msg) }
func (v *recordingView) HideBanner()                        { v.hidden++ }
func (v *recordingView) ScrollPos() int                     { return v.scroll }

func (v *recordingView) ShowBanner(msg string, _ services.Severity) {
	v.banners = append(v.banners, msg)
}

func (v *recordingView) UpdateProgress(elapsed, total int) {
	v.progress = append(v.progress, [2]int{elapsed, total})
}

func (v *recordingView) UpdatePlayer(st models.PlayerState) { v.players = append(v.players, st) }

type fakeConn struct {
	frames chan []byte
	done   chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan []byte, 16), done: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case f := <-c.frames:
		return 1, f, nil
	case <-c.done:
		return 0, nil, errors.New("use of closed connection")
	}
}

func (c *fakeConn) WriteMessage(int, []byte) error { return nil }

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

// fakeDialer hands out queued connections and blocks when the queue is empty.
type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	dials int
}

func (d *fakeDialer) push(c *fakeConn) {
	d.mu.Lock()
	d.conns = append(d.conns, c)
	d.mu.Unlock()
}

func (d *fakeDialer) Dial(ctx context.Context, _ string) (events.Conn, error) {
	d.mu.Lock()
	d.dials++
	if len(d.conns) == 0 {
		d.mu.Unlock()
		<-ctx.Done()
		return nil, ctx.Err()
	}
	c := d.conns[0]
	d.conns = d.conns[1:]
	d.mu.Unlock()
	return c, nil
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

type memScreens struct {
	saved map[string]navigation.Params
}

func (m *memScreens) Save(id string, p navigation.Params) (*models.ScreenState, error) {
	if m.saved == nil {
		m.saved = map[string]navigation.Params{}
	}
	m.saved[id] = p
	return models.NewScreenState(1, id, p), nil
}

func (m *memScreens) List(map[string]any) ([]*models.ScreenState, error) {
	var out []*models.ScreenState
	for id, p := range m.saved {
		out = append(out, models.NewScreenState(1, id, p))
	}
	return out, nil
}

type fixture struct {
	sched  *loop.Manual
	caller *fakeCaller
	view   *recordingView
	dialer *fakeDialer
	notes  []string
	app    *Application
}

func newFixture(t *testing.T, screens ScreenStore) *fixture {
	t.Helper()
	f := &fixture{sched: loop.NewManual(), caller: &fakeCaller{}, view: &recordingView{}, dialer: &fakeDialer{}}
	a, err := New(Opts{
		Scheduler: f.sched,
		Caller:    f.caller,
		View:      f.view,
		Logger:    log.New(io.Discard),
		Screens:   screens,
		Notifier: services.NotifierFunc(func(title, _, _ string, _ services.Severity) {
			f.notes = append(f.notes, title)
		}),
		Stream: events.StreamOpts{URL: "ws://mympd.test/ws/", Dialer: f.dialer},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	f.app = a
	t.Cleanup(a.Close)
	return f
}

func (f *fixture) waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	if !f.sched.DrainUntil(cond, 2*time.Second) {
		t.Fatal("condition not reached")
	}
}

// started runs the startup sequence through a successful settings fetch.
func (f *fixture) started(t *testing.T) *fakeConn {
	t.Helper()
	conn := newFakeConn()
	f.dialer.push(conn)
	f.app.Start(context.Background(), "")
	f.waitFor(t, func() bool { return f.caller.last(methodSettingsGet) != nil })
	f.caller.last(methodSettingsGet).onResult(success(methodSettingsGet, map[string]any{"pin": false}))
	if !f.app.Inited() {
		t.Fatal("expected application to be initialized")
	}
	return conn
}

func (f *fixture) push(method string, params any) {
	data, _ := json.Marshal(map[string]any{"jsonrpc": "2.0", "method": method, "params": params})
	f.app.Stream().Dispatch(data)
}

func TestNew(t *testing.T) {
	t.Run("Requires Scheduler", func(t *testing.T) {
		_, err := New(Opts{Caller: &fakeCaller{}, Logger: log.New(io.Discard)})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Requires Caller", func(t *testing.T) {
		_, err := New(Opts{Scheduler: loop.NewManual(), Logger: log.New(io.Discard)})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Rejects Default Screen Without Route", func(t *testing.T) {
		_, err := New(Opts{
			Scheduler:       loop.NewManual(),
			Caller:          &fakeCaller{},
			Logger:          log.New(io.Discard),
			DefaultFragment: "#/Nowhere!0/-/-/-/",
		})
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestRoute(t *testing.T) {
	t.Run("Shows Screen And Restores Scroll On Change", func(t *testing.T) {
		f := newFixture(t, nil)
		f.app.Route("#/Queue/Current!2/-/-/-/")

		if len(f.view.shown) != 1 || f.view.shown[0] != ScreenQueueCurrent {
			t.Errorf("expected QueueCurrent shown, got %v", f.view.shown)
		}
		if len(f.view.scrolls) != 1 || f.view.scrolls[0] != 0 {
			t.Errorf("expected scroll restored to 0, got %v", f.view.scrolls)
		}
		if f.app.Fragment() != "#/Queue/Current!2/-/-/-/" {
			t.Errorf("unexpected fragment %q", f.app.Fragment())
		}
	})

	t.Run("Same Screen Only Refetches", func(t *testing.T) {
		f := newFixture(t, nil)
		f.app.Route("#/Queue/Current!0/-/-/-/")
		f.app.Route("#/Queue/Current!1/-/-/-/")

		if len(f.view.shown) != 1 {
			t.Errorf("expected one ShowScreen, got %v", f.view.shown)
		}
		if got := f.caller.count("MYMPD_API_QUEUE_LIST"); got != 2 {
			t.Errorf("expected two fetches, got %d", got)
		}
		call := f.caller.last("MYMPD_API_QUEUE_LIST")
		if off := call.params.(map[string]any)["offset"]; off != DefaultPageSize {
			t.Errorf("expected offset %d, got %v", DefaultPageSize, off)
		}
	})

	t.Run("Falls Back To Default Screen", func(t *testing.T) {
		f := newFixture(t, nil)
		f.app.Route("#/Bogus!0/-/-/-/")

		if f.app.Fragment() != DefaultFragment {
			t.Errorf("expected default fragment, got %q", f.app.Fragment())
		}
		loc, ok := f.app.State().Current()
		if !ok || loc.ID() != ScreenHome {
			t.Errorf("expected Home, got %v", loc.ID())
		}
	})

	t.Run("Renders Current Screen Replies", func(t *testing.T) {
		f := newFixture(t, nil)
		f.app.Route("#/Home!0/-/-/-/")
		f.caller.last("MYMPD_API_HOME_ICON_LIST").onResult(success("MYMPD_API_HOME_ICON_LIST", map[string]any{}))

		if len(f.view.rendered) != 1 || f.view.rendered[0] != ScreenHome {
			t.Errorf("expected Home rendered, got %v", f.view.rendered)
		}
	})

	t.Run("Drops Stale Replies", func(t *testing.T) {
		f := newFixture(t, nil)
		f.app.Route("#/Home!0/-/-/-/")
		home := f.caller.last("MYMPD_API_HOME_ICON_LIST")
		f.app.Route("#/Queue/Current!0/-/-/-/")
		home.onResult(success("MYMPD_API_HOME_ICON_LIST", map[string]any{}))

		if len(f.view.rendered) != 0 {
			t.Errorf("expected stale reply dropped, got %v", f.view.rendered)
		}
	})

	t.Run("Persists Params", func(t *testing.T) {
		screens := &memScreens{}
		f := newFixture(t, screens)
		f.app.Route("#/Search!0/Title/-/Any/beatles")

		p, ok := screens.saved[ScreenSearch]
		if !ok || p.Search != "beatles" {
			t.Errorf("expected saved search params, got %+v", screens.saved)
		}
	})
}

func TestGoto(t *testing.T) {
	t.Run("Routes Asynchronously", func(t *testing.T) {
		f := newFixture(t, nil)
		frag, err := f.app.Goto("Browse", navigation.WithTab("Filesystem"), navigation.WithSearch("music"))
		if err != nil {
			t.Fatalf("Goto failed: %v", err)
		}
		if len(f.view.shown) != 0 {
			t.Fatal("expected route to wait for the loop")
		}

		f.sched.Drain()
		if f.app.Fragment() != frag {
			t.Errorf("expected %q, got %q", frag, f.app.Fragment())
		}
		call := f.caller.last("MYMPD_API_DATABASE_FILESYSTEM_LIST")
		if call == nil || call.params.(map[string]any)["path"] != "music" {
			t.Errorf("expected filesystem fetch for music, got %v", f.caller.methods())
		}
	})
}

func TestStartup(t *testing.T) {
	t.Run("Routes After Settings", func(t *testing.T) {
		f := newFixture(t, nil)
		conn := newFakeConn()
		f.dialer.push(conn)
		f.app.Start(context.Background(), "#/Queue/Current!0/-/-/-/")
		f.waitFor(t, func() bool { return f.caller.last(methodSettingsGet) != nil })

		if len(f.view.shown) != 0 {
			t.Fatal("expected no route before settings arrive")
		}
		f.caller.last(methodSettingsGet).onResult(success(methodSettingsGet, map[string]any{"pin": false}))

		if !f.app.Inited() || !f.app.UIEnabled() {
			t.Error("expected initialized and enabled")
		}
		if len(f.view.shown) != 1 || f.view.shown[0] != ScreenQueueCurrent {
			t.Errorf("expected pending fragment routed, got %v", f.view.shown)
		}
		if f.caller.last(methodPlayerState) == nil {
			t.Error("expected player state fetch")
		}
		if string(f.app.Settings()) != `{"pin":false}` {
			t.Errorf("unexpected settings %s", f.app.Settings())
		}
	})

	t.Run("Settings Failure Shows Startup Error", func(t *testing.T) {
		f := newFixture(t, nil)
		f.dialer.push(newFakeConn())
		f.app.Start(context.Background(), "")
		f.waitFor(t, func() bool { return f.caller.last(methodSettingsGet) != nil })
		f.caller.last(methodSettingsGet).onResult(failure(methodSettingsGet))

		if f.app.Inited() {
			t.Error("expected not initialized")
		}
		if len(f.view.startup) != 1 {
			t.Errorf("expected startup error, got %v", f.view.startup)
		}

		f.sched.Advance(10 * time.Second)
		f.sched.Drain()
		if got := f.caller.count(methodSettingsGet); got != 1 {
			t.Errorf("expected no further settings fetch, got %d", got)
		}
		// only the keepalive ping is left
		if got := f.sched.Pending(); got != 1 {
			t.Errorf("expected the startup wait to stop, got %d timers", got)
		}
	})

	t.Run("Retries Connect Until Open", func(t *testing.T) {
		f := newFixture(t, nil)
		f.app.Start(context.Background(), "")
		f.sched.Drain()

		f.sched.Advance(500 * time.Millisecond)
		if got := f.app.Stream().Retries(); got != 1 {
			t.Errorf("expected one retry while connecting, got %d", got)
		}
		f.sched.Advance(500 * time.Millisecond)
		if got := f.app.Stream().Retries(); got != 2 {
			t.Errorf("expected two retries, got %d", got)
		}
	})

	t.Run("Waits For The Retry Delay After The Budget Is Spent", func(t *testing.T) {
		f := newFixture(t, nil)
		f.app.Start(context.Background(), "")
		f.sched.Drain()

		for i := 0; i < 21; i++ {
			f.sched.Advance(500 * time.Millisecond)
		}
		stream := f.app.Stream()
		if stream.State() != events.Disconnected || !stream.RetryPending() {
			t.Fatalf("expected abandoned attempt with a pending retry, got %s", stream.State())
		}

		for i := 0; i < 5; i++ {
			f.sched.Advance(500 * time.Millisecond)
			if stream.State() != events.Disconnected {
				t.Fatalf("expected no dial %dms into the retry delay, got %s", (i+1)*500, stream.State())
			}
		}

		f.sched.Advance(500 * time.Millisecond)
		if stream.State() != events.Connecting {
			t.Fatalf("expected a dial once the retry delay elapsed, got %s", stream.State())
		}
		f.waitFor(t, func() bool { return f.dialer.count() == 2 })
	})

	t.Run("Restores Saved Screens", func(t *testing.T) {
		screens := &memScreens{saved: map[string]navigation.Params{
			ScreenBrowseFilesystem: {Filter: "-", Sort: "-", Tag: "dir", Search: "saved/path"},
		}}
		f := newFixture(t, screens)
		f.app.Start(context.Background(), "")

		if _, err := f.app.Goto("Browse", navigation.WithTab("Filesystem")); err != nil {
			t.Fatalf("Goto failed: %v", err)
		}
		f.sched.Drain()
		loc, _ := f.app.State().Current()
		if loc.Search != "saved/path" {
			t.Errorf("expected restored search, got %q", loc.Search)
		}
	})
}

func TestConnection(t *testing.T) {
	t.Run("Close After Startup Shows Banner", func(t *testing.T) {
		f := newFixture(t, nil)
		conn := f.started(t)
		conn.Close()
		f.waitFor(t, func() bool { return !f.app.UIEnabled() })

		if len(f.view.banners) == 0 {
			t.Error("expected reconnect banner")
		}
		if f.view.controls[len(f.view.controls)-1] {
			t.Error("expected controls disabled")
		}
	})

	t.Run("Reopen Re-enables Without Refetching Settings", func(t *testing.T) {
		f := newFixture(t, nil)
		conn := f.started(t)
		f.dialer.push(newFakeConn())
		conn.Close()
		f.waitFor(t, func() bool { return !f.app.UIEnabled() })

		f.sched.Advance(3 * time.Second)
		f.waitFor(t, func() bool { return f.app.UIEnabled() })
		if got := f.caller.count(methodSettingsGet); got != 1 {
			t.Errorf("expected one settings fetch, got %d", got)
		}
	})

	t.Run("Close Before Startup Shows Startup Error", func(t *testing.T) {
		f := newFixture(t, nil)
		conn := newFakeConn()
		f.dialer.push(conn)
		f.app.Start(context.Background(), "")
		f.waitFor(t, func() bool { return f.app.Stream().State() == events.Connected })
		conn.Close()
		f.waitFor(t, func() bool { return len(f.view.startup) > 0 })

		if f.view.startup[0] != "Websocket connection closed" {
			t.Errorf("unexpected startup error %q", f.view.startup[0])
		}
	})
}

func TestPush(t *testing.T) {
	t.Run("Queue Change Refreshes Only Current Queue", func(t *testing.T) {
		f := newFixture(t, nil)
		f.app.Route("#/Home!0/-/-/-/")
		f.caller.reset()
		f.push("update_queue", map[string]any{"queueLength": 3})
		if f.caller.count("MYMPD_API_QUEUE_LIST") != 0 {
			t.Error("expected no queue fetch off screen")
		}

		f.app.Route("#/Queue/Current!0/-/-/-/")
		f.caller.reset()
		f.push("update_queue", map[string]any{"queueLength": 3})
		if f.caller.count("MYMPD_API_QUEUE_LIST") != 1 {
			t.Errorf("expected queue refetch, got %v", f.caller.methods())
		}
		if f.app.Player().QueueLength != 3 {
			t.Errorf("expected queue length 3, got %d", f.app.Player().QueueLength)
		}
	})

	t.Run("Song Change Refreshes Playback", func(t *testing.T) {
		f := newFixture(t, nil)
		f.app.Route("#/Playback!0/-/-/-/")
		f.caller.reset()

		f.push("update_state", map[string]any{"state": "pause", "currentSongId": 7})
		f.push("update_state", map[string]any{"state": "pause", "currentSongId": 7})
		if got := f.caller.count("MYMPD_API_PLAYER_CURRENT_SONG"); got != 1 {
			t.Errorf("expected one refetch, got %d", got)
		}
	})

	t.Run("MPD Disconnect And Connect", func(t *testing.T) {
		f := newFixture(t, nil)
		f.started(t)
		f.push("mpd_disconnected", nil)
		if f.app.MPDConnected() || len(f.view.banners) != 1 {
			t.Error("expected disconnected banner")
		}

		f.caller.reset()
		f.push("mpd_connected", nil)
		if !f.app.MPDConnected() {
			t.Error("expected MPD connected")
		}
		if f.caller.count(methodPlayerState) != 1 || f.caller.count(methodSettingsGet) != 1 {
			t.Errorf("expected state and settings fetch, got %v", f.caller.methods())
		}
	})

	t.Run("Notify Push Is Phrased", func(t *testing.T) {
		f := newFixture(t, nil)
		f.push("notify", map[string]any{
			"message":  "Updated %{count} songs",
			"severity": "info",
			"data":     map[string]any{"count": 4},
		})
		if len(f.notes) != 1 || f.notes[0] != "Updated 4 songs" {
			t.Errorf("unexpected notes %v", f.notes)
		}
	})

	t.Run("Outputs Are Stored", func(t *testing.T) {
		f := newFixture(t, nil)
		f.push("update_outputs", nil)
		f.caller.last(methodOutputList).onResult(success(methodOutputList, map[string]any{"numOutputs": 1}))
		if string(f.app.Outputs()) != `{"numOutputs":1}` {
			t.Errorf("unexpected outputs %s", f.app.Outputs())
		}
	})

	t.Run("Events Are Republished", func(t *testing.T) {
		f := newFixture(t, nil)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sub := f.app.Subscribe(ctx)

		f.push("update_home", nil)
		select {
		case ev := <-sub:
			if ev.Payload.Kind != events.KindHomeChanged {
				t.Errorf("expected home changed, got %v", ev.Payload.Kind)
			}
		case <-time.After(time.Second):
			t.Fatal("expected published event")
		}
	})
}

func TestProgress(t *testing.T) {
	t.Run("Ticks While Playing", func(t *testing.T) {
		f := newFixture(t, nil)
		f.push("update_state", map[string]any{"state": "play", "elapsedTime": 10, "totalTime": 12})

		f.sched.Advance(time.Second)
		f.sched.Advance(time.Second)
		f.sched.Advance(time.Second)

		last := f.view.progress[len(f.view.progress)-1]
		if last != [2]int{12, 12} {
			t.Errorf("expected progress capped at total, got %v", last)
		}
	})

	t.Run("Stops When Paused", func(t *testing.T) {
		f := newFixture(t, nil)
		f.push("update_state", map[string]any{"state": "play", "elapsedTime": 10, "totalTime": 100})
		f.push("update_state", map[string]any{"state": "pause", "elapsedTime": 11, "totalTime": 100})
		n := len(f.view.progress)

		f.sched.Advance(5 * time.Second)
		if len(f.view.progress) != n {
			t.Errorf("expected no ticks while paused, got %v", f.view.progress[n:])
		}
	})
}
