package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/mpdx/internal/models"
	"github.com/desertthunder/mpdx/internal/navigation"
	"github.com/desertthunder/mpdx/internal/notify"
	"github.com/desertthunder/mpdx/internal/services"
	"github.com/desertthunder/mpdx/internal/shared"
)

// maxNotes is how many notifications the footer shows.
const maxNotes = 3

// Controller is the part of the application the TUI drives. Its methods must run on the
// event loop, which is why the model only calls them through post.
type Controller interface {
	Goto(app string, opts ...navigation.GotoOption) (string, error)
	Refresh()
	State() *navigation.State
}

// Model represents the TUI application state.
type Model struct {
	ctrl   Controller
	post   func(func())
	bridge *Bridge
	apps   []string
	tabs   map[string][]string

	width   int
	height  int
	loc     navigation.Location
	rows    list.Model
	total   int
	offset  int
	restore int
	status  string
	banner  *bannerData
	startup string
	enabled bool
	player  models.PlayerState
	elapsed int
	length  int
	notes   []notify.Entry

	searching bool
	input     textinput.Model
	help      help.Model
	keys      keyMap
}

// NewModel creates the TUI model. post schedules a function on the event loop.
func NewModel(ctrl Controller, tree *navigation.Tree, bridge *Bridge, post func(func())) *Model {
	tabs := map[string][]string{}
	for _, a := range tree.Apps() {
		if n, ok := tree.App(a); ok {
			if b, ok := n.(*navigation.Branch); ok {
				tabs[a] = b.Names()
			}
		}
	}

	input := textinput.New()
	input.Prompt = "/ "
	input.CharLimit = 128

	rows := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	rows.SetShowTitle(false)
	rows.SetShowHelp(false)
	rows.SetFilteringEnabled(false)

	return &Model{
		ctrl:    ctrl,
		post:    post,
		bridge:  bridge,
		apps:    tree.Apps(),
		tabs:    tabs,
		rows:    rows,
		input:   input,
		help:    help.New(),
		keys:    newKeyMap(),
		status:  "Connecting...",
		restore: -1,
	}
}

// Init implements [tea.Model].
func (m *Model) Init() tea.Cmd { return nil }

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.rows.SetSize(msg.Width-2, max(msg.Height-10, 3))
		return m, nil
	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKeys(msg)
		}
		return m.handleKeys(msg)
	case Msg:
		m.apply(msg)
		return m, nil
	}
	return m, nil
}

func (m *Model) apply(msg Msg) {
	switch msg.kind {
	case MsgScreen:
		m.loc = msg.data.(navigation.Location)
		m.rows.SetItems(nil)
		m.total, m.offset = 0, 0
		m.status = "Loading..."
	case MsgScroll:
		m.restore = msg.data.(int)
		m.selectRow(m.restore)
	case MsgRows:
		d := msg.data.(rowsData)
		m.loc = d.loc
		items := make([]list.Item, len(d.items))
		for i, it := range d.items {
			items[i] = it
		}
		cursor := m.rows.Index()
		if m.restore >= 0 {
			cursor, m.restore = m.restore, -1
		}
		m.rows.SetItems(items)
		m.selectRow(cursor)
		m.total, m.offset = d.total, d.offset
		m.status = d.err
		if m.status == "" && len(items) == 0 {
			m.status = "Empty list"
		}
	case MsgControls:
		m.enabled = msg.data.(bool)
	case MsgStartupError:
		m.startup = msg.data.(string)
	case MsgBanner:
		b := msg.data.(bannerData)
		m.banner = &b
	case MsgBannerHidden:
		m.banner = nil
	case MsgProgress:
		p := msg.data.(progressData)
		m.elapsed, m.length = p.elapsed, p.total
	case MsgPlayer:
		m.player = msg.data.(models.PlayerState)
	case MsgNotification:
		e := msg.data.(notify.Entry)
		if n := len(m.notes); n > 0 && m.notes[n-1].Title == e.Title {
			m.notes[n-1] = e
		} else {
			m.notes = append(m.notes, e)
		}
		if len(m.notes) > maxNotes {
			m.notes = m.notes[len(m.notes)-maxNotes:]
		}
	}
}

func (m *Model) selectRow(pos int) {
	if n := len(m.rows.Items()); n > 0 {
		m.rows.Select(min(max(pos, 0), n-1))
	}
	m.bridge.setScroll(m.rows.Index())
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}
	if !m.enabled {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.apps):
		if i := int(msg.String()[0] - '1'); i < len(m.apps) {
			m.gotoApp(m.apps[i])
		}
		return m, nil
	case key.Matches(msg, m.keys.nextTab):
		m.cycleTab(1)
		return m, nil
	case key.Matches(msg, m.keys.prevTab):
		m.cycleTab(-1)
		return m, nil
	case key.Matches(msg, m.keys.next):
		m.page(1)
		return m, nil
	case key.Matches(msg, m.keys.prev):
		m.page(-1)
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		m.post(m.ctrl.Refresh)
		return m, nil
	case key.Matches(msg, m.keys.search):
		m.searching = true
		m.input.SetValue(strings.TrimSpace(m.loc.Search))
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.enter):
		m.open()
		return m, nil
	}

	var cmd tea.Cmd
	m.rows, cmd = m.rows.Update(msg)
	m.bridge.setScroll(m.rows.Index())
	return m, cmd
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.searching = false
		m.input.Blur()
		return m, nil
	case msg.Type == tea.KeyEnter:
		m.searching = false
		m.input.Blur()
		m.gotoHere(navigation.WithSearch(m.input.Value()), navigation.WithPage(0))
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// gotoHere navigates within the current screen, keeping params not named by opts.
func (m *Model) gotoHere(opts ...navigation.GotoOption) {
	loc := m.loc
	if loc.App == "" {
		return
	}
	opts = append([]navigation.GotoOption{navigation.WithTab(loc.Tab), navigation.WithView(loc.View)}, opts...)
	m.goTo(loc.App, opts...)
}

func (m *Model) gotoApp(app string) { m.goTo(app) }

func (m *Model) goTo(app string, opts ...navigation.GotoOption) {
	m.post(func() {
		if _, err := m.ctrl.Goto(app, opts...); err != nil {
			m.bridge.send(bannerMsg(err.Error(), services.SeverityWarn))
		}
	})
}

func (m *Model) cycleTab(dir int) {
	tabs := m.tabs[m.loc.App]
	if len(tabs) == 0 {
		return
	}
	i := 0
	for j, t := range tabs {
		if t == m.loc.Tab {
			i = j
		}
	}
	next := tabs[(i+dir+len(tabs))%len(tabs)]
	m.goTo(m.loc.App, navigation.WithTab(next))
}

func (m *Model) page(delta int) {
	p := m.loc.Page + delta
	if p < 0 {
		return
	}
	if delta > 0 && m.offset+len(m.rows.Items()) >= m.total {
		return
	}
	m.gotoHere(navigation.WithPage(p))
}

// open descends into the selected row on screens with detail views.
func (m *Model) open() {
	sel, ok := m.rows.SelectedItem().(item)
	if !ok || sel.uri == "" {
		return
	}

	switch m.loc.ID() {
	case "BrowseFilesystem":
		if sel.kind == "dir" {
			m.goTo("Browse", navigation.WithTab("Filesystem"), navigation.WithSearch(sel.uri), navigation.WithPage(0))
		}
	case "BrowsePlaylistsList":
		m.goTo("Browse", navigation.WithTab("Playlists"), navigation.WithView("Detail"), navigation.WithFilter(sel.uri), navigation.WithPage(0))
	}
}

// View renders the UI.
func (m *Model) View() string {
	if m.startup != "" {
		return styles.err.Render("Startup failed: "+m.startup) + "\n\n" + styles.help.Render("Press q to quit")
	}

	var b strings.Builder
	b.WriteString(m.renderApps())
	b.WriteString("\n")
	if tabs := m.renderTabs(); tabs != "" {
		b.WriteString(tabs + "\n")
	}
	if m.loc.App != "" {
		b.WriteString(styles.fragment.Render(m.loc.Fragment()) + "\n")
	}
	if m.banner != nil {
		b.WriteString(styles.banner.Render(m.banner.text) + "\n")
	}
	b.WriteString("\n")

	if m.searching {
		b.WriteString(m.input.View() + "\n")
	}
	if m.status != "" {
		b.WriteString(styles.help.Render(m.status) + "\n")
	} else {
		b.WriteString(m.rows.View() + "\n")
	}

	b.WriteString("\n" + m.renderPlayer() + "\n")
	for _, n := range m.notes {
		line := n.Title
		if n.Occurrence > 1 {
			line = fmt.Sprintf("%s (x%d)", line, n.Occurrence)
		}
		b.WriteString(styles.Severity(n.Severity).Render(line) + "\n")
	}
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m *Model) renderApps() string {
	parts := make([]string, len(m.apps))
	for i, a := range m.apps {
		label := fmt.Sprintf("%d %s", i+1, a)
		if a == m.loc.App {
			parts[i] = styles.active.Render(label)
		} else {
			parts[i] = styles.tab.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderTabs() string {
	tabs := m.tabs[m.loc.App]
	if len(tabs) == 0 {
		return ""
	}
	parts := make([]string, len(tabs))
	for i, t := range tabs {
		if t == m.loc.Tab {
			parts[i] = styles.active.Render(t)
		} else {
			parts[i] = styles.tab.Render(t)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderPlayer() string {
	state := m.player.State
	if state == "" {
		state = "-"
	}
	line := fmt.Sprintf("[%s] %s / %s  vol %d%%", state, shared.FormatSeconds(m.elapsed), shared.FormatSeconds(m.length), m.player.Volume)
	if !m.enabled {
		return styles.warn.Render(line + "  (offline)")
	}
	return styles.ok.Render(line)
}
