package ui

import (
	"encoding/json"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mpdx/internal/navigation"
	"github.com/desertthunder/mpdx/internal/notify"
	"github.com/desertthunder/mpdx/internal/services"
)

type gotoCall struct {
	app string
	loc navigation.Location
}

// fakeController resolves Goto immediately against a real navigation state.
type fakeController struct {
	state    *navigation.State
	gotos    []gotoCall
	refreshs int
}

func newFakeController(t *testing.T) *fakeController {
	t.Helper()
	c := &fakeController{}
	state, err := navigation.NewState(nil, navigation.FragmentSinkFunc(func(f string) {
		loc, err := c.state.Resolve(f)
		if err != nil {
			t.Fatalf("resolve %q: %v", f, err)
		}
		c.gotos[len(c.gotos)-1].loc = loc
	}), nil)
	if err != nil {
		t.Fatalf("NewState failed: %v", err)
	}
	c.state = state
	return c
}

func (c *fakeController) Goto(app string, opts ...navigation.GotoOption) (string, error) {
	c.gotos = append(c.gotos, gotoCall{app: app})
	return c.state.Goto(app, opts...)
}

func (c *fakeController) Refresh()                 { c.refreshs++ }
func (c *fakeController) State() *navigation.State { return c.state }

func (c *fakeController) last() navigation.Location {
	return c.gotos[len(c.gotos)-1].loc
}

type harness struct {
	ctrl   *fakeController
	bridge *Bridge
	model  *Model
	sent   []tea.Msg
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{ctrl: newFakeController(t)}
	h.bridge = NewBridge(func(msg tea.Msg) {
		h.sent = append(h.sent, msg)
		h.model.Update(msg)
	})
	h.bridge.Bind(h.ctrl.State)
	h.model = NewModel(h.ctrl, h.ctrl.state.Tree(), h.bridge, func(fn func()) { fn() })
	h.model.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return h
}

// show routes fragment the way the application does and enables the controls.
func (h *harness) show(t *testing.T, fragment string) navigation.Location {
	t.Helper()
	loc, err := h.ctrl.state.Resolve(fragment)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	h.bridge.SetControlsEnabled(true)
	h.bridge.ShowScreen(loc)
	return loc
}

func (h *harness) press(keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "shift+tab":
			msg = tea.KeyMsg{Type: tea.KeyShiftTab}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		h.model.Update(msg)
	}
}

func reply(t *testing.T, result any) services.Reply {
	t.Helper()
	data, err := json.Marshal(result)
	if err != nil {
		t.Fatal(err)
	}
	return services.Reply{Outcome: services.OutcomeSuccess, Envelope: &services.Response{Result: data}}
}

func TestBridge(t *testing.T) {
	t.Run("Renders List Rows", func(t *testing.T) {
		h := newHarness(t)
		h.show(t, "#/Queue/Current!0/any/-/-/")
		h.bridge.Render("QueueCurrent", reply(t, map[string]any{
			"totalEntities": 2,
			"data": []map[string]any{
				{"uri": "a.flac", "Title": "Angel", "Artist": []string{"Massive Attack"}, "Duration": 379},
				{"uri": "b.flac", "Title": "Teardrop"},
			},
		}))

		if got := len(h.model.rows.Items()); got != 2 {
			t.Fatalf("expected 2 rows, got %d", got)
		}
		first := h.model.rows.Items()[0].(item)
		if first.desc != "Massive Attack • 6:19" {
			t.Errorf("unexpected description %q", first.desc)
		}
	})

	t.Run("Ignores Other Screens", func(t *testing.T) {
		h := newHarness(t)
		h.show(t, "#/Home!0/-/-/-/")
		n := len(h.sent)
		h.bridge.Render("QueueCurrent", reply(t, map[string]any{"data": []any{}}))
		if len(h.sent) != n {
			t.Error("expected render for another screen to be dropped")
		}
	})

	t.Run("Shows Advisory Message", func(t *testing.T) {
		h := newHarness(t)
		h.show(t, "#/Playback!0/-/-/-/")
		h.bridge.Render("Playback", reply(t, map[string]any{"method": "MYMPD_API_PLAYER_CURRENT_SONG", "message": "No current song"}))
		if h.model.status != "No current song" {
			t.Errorf("unexpected status %q", h.model.status)
		}
	})

	t.Run("Restores Scroll After Rows Arrive", func(t *testing.T) {
		h := newHarness(t)
		h.show(t, "#/Queue/Current!0/any/-/-/")
		h.bridge.RestoreScroll(2)
		h.bridge.Render("QueueCurrent", reply(t, map[string]any{
			"data": []map[string]any{{"Title": "a"}, {"Title": "b"}, {"Title": "c"}},
		}))
		if got := h.bridge.ScrollPos(); got != 2 {
			t.Errorf("expected scroll 2, got %d", got)
		}
	})
}

func TestModel(t *testing.T) {
	t.Run("Keys Are Ignored While Disabled", func(t *testing.T) {
		h := newHarness(t)
		h.press("2")
		if len(h.ctrl.gotos) != 0 {
			t.Errorf("expected no navigation, got %v", h.ctrl.gotos)
		}
	})

	t.Run("Number Keys Switch App", func(t *testing.T) {
		h := newHarness(t)
		h.show(t, "#/Home!0/-/-/-/")
		h.press("3")
		if got := h.ctrl.last(); got.ID() != "QueueCurrent" {
			t.Errorf("expected QueueCurrent, got %s", got.ID())
		}
	})

	t.Run("Tab Cycles Tabs", func(t *testing.T) {
		h := newHarness(t)
		h.show(t, "#/Queue/Current!0/any/-/-/")
		h.press("shift+tab")
		if got := h.ctrl.last(); got.ID() != "QueueJukebox" {
			t.Errorf("expected wrap to QueueJukebox, got %s", got.ID())
		}
		h.press("tab")
		if got := h.ctrl.last(); got.ID() != "QueueLastPlayed" {
			t.Errorf("expected QueueLastPlayed, got %s", got.ID())
		}
	})

	t.Run("Paging Stops At Bounds", func(t *testing.T) {
		h := newHarness(t)
		h.show(t, "#/Queue/Current!0/any/-/-/")
		h.bridge.Render("QueueCurrent", reply(t, map[string]any{
			"totalEntities": 150, "offset": 0, "data": []map[string]any{{"Title": "a"}},
		}))

		h.press("p")
		if len(h.ctrl.gotos) != 0 {
			t.Fatal("expected no page before the first")
		}
		h.press("n")
		if got := h.ctrl.last(); got.Page != 1 || got.Filter != "any" {
			t.Errorf("expected page 1 keeping the filter, got %+v", got.Params)
		}

		h.show(t, "#/Queue/Current!1/any/-/-/")
		h.bridge.Render("QueueCurrent", reply(t, map[string]any{
			"totalEntities": 150, "offset": 100, "data": make([]map[string]any, 50),
		}))
		n := len(h.ctrl.gotos)
		h.press("n")
		if len(h.ctrl.gotos) != n {
			t.Error("expected no page past the last")
		}
	})

	t.Run("Search Submits Search Param", func(t *testing.T) {
		h := newHarness(t)
		h.show(t, "#/Search!0/any/-/-/")
		h.press("/", "b", "e", "a", "enter")
		if got := h.ctrl.last(); got.ID() != "Search" || got.Search != "bea" {
			t.Errorf("expected search for bea, got %+v", got)
		}
	})

	t.Run("Escape Cancels Search", func(t *testing.T) {
		h := newHarness(t)
		h.show(t, "#/Search!0/any/-/-/")
		h.press("/", "x", "esc")
		if h.model.searching || len(h.ctrl.gotos) != 0 {
			t.Error("expected search to be canceled")
		}
	})

	t.Run("Enter Opens Directory", func(t *testing.T) {
		h := newHarness(t)
		h.show(t, "#/Browse/Filesystem!0/-/-/dir/")
		h.bridge.Render("BrowseFilesystem", reply(t, map[string]any{
			"data": []map[string]any{{"Type": "dir", "uri": "Air", "name": "Air"}},
		}))
		h.press("enter")
		if got := h.ctrl.last(); got.Search != "Air" {
			t.Errorf("expected to open Air, got %+v", got.Params)
		}
	})

	t.Run("Refresh Runs On Loop", func(t *testing.T) {
		h := newHarness(t)
		h.show(t, "#/Home!0/-/-/-/")
		h.press("r")
		if h.ctrl.refreshs != 1 {
			t.Errorf("expected one refresh, got %d", h.ctrl.refreshs)
		}
	})

	t.Run("Quit", func(t *testing.T) {
		h := newHarness(t)
		_, cmd := h.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestView(t *testing.T) {
	t.Run("Startup Error Replaces Screen", func(t *testing.T) {
		h := newHarness(t)
		h.bridge.ShowStartupError("Websocket connection closed")
		if !strings.Contains(h.model.View(), "Startup failed: Websocket connection closed") {
			t.Errorf("unexpected view %q", h.model.View())
		}
	})

	t.Run("Banner And Fragment", func(t *testing.T) {
		h := newHarness(t)
		h.show(t, "#/Home!0/-/-/-/")
		h.bridge.ShowBanner("MPD disconnected", services.SeverityDanger)
		out := h.model.View()
		if !strings.Contains(out, "MPD disconnected") || !strings.Contains(out, "#/Home!0/-/-/-/") {
			t.Errorf("unexpected view %q", out)
		}

		h.bridge.HideBanner()
		if strings.Contains(h.model.View(), "MPD disconnected") {
			t.Error("expected banner hidden")
		}
	})

	t.Run("Notifications Fold Repeats", func(t *testing.T) {
		h := newHarness(t)
		h.model.Update(NotificationMsg(notify.Entry{Title: "Connected to MPD", Occurrence: 1}))
		h.model.Update(NotificationMsg(notify.Entry{Title: "Connected to MPD", Occurrence: 2}))
		if len(h.model.notes) != 1 {
			t.Fatalf("expected one note, got %d", len(h.model.notes))
		}
		if !strings.Contains(h.model.View(), "Connected to MPD (x2)") {
			t.Error("expected occurrence count in view")
		}
	})

	t.Run("Progress Line", func(t *testing.T) {
		h := newHarness(t)
		h.bridge.SetControlsEnabled(true)
		h.bridge.UpdateProgress(65, 300)
		if !strings.Contains(h.model.View(), "1:05 / 5:00") {
			t.Errorf("unexpected view %q", h.model.View())
		}
	})
}
