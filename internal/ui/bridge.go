package ui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mpdx/internal/app"
	"github.com/desertthunder/mpdx/internal/models"
	"github.com/desertthunder/mpdx/internal/navigation"
	"github.com/desertthunder/mpdx/internal/services"
)

var _ app.View = (*Bridge)(nil)

// Bridge implements app.View by sending messages to the bubbletea program. Its methods run on
// the event loop, so it reads navigation state there and ships snapshots.
type Bridge struct {
	send   func(tea.Msg)
	state  func() *navigation.State
	scroll atomic.Int64
}

// NewBridge creates a [Bridge]. send is usually tea.Program.Send.
func NewBridge(send func(tea.Msg)) *Bridge {
	return &Bridge{send: send}
}

// Bind gives the bridge access to the navigation state once the application exists.
func (b *Bridge) Bind(state func() *navigation.State) { b.state = state }

// ScrollPos reports the cursor of the result list.
func (b *Bridge) ScrollPos() int { return int(b.scroll.Load()) }

func (b *Bridge) setScroll(pos int) { b.scroll.Store(int64(pos)) }

func (b *Bridge) ShowScreen(loc navigation.Location) { b.send(screenMsg(loc)) }
func (b *Bridge) RestoreScroll(pos int)              { b.send(scrollMsg(pos)) }
func (b *Bridge) SetControlsEnabled(enabled bool)    { b.send(controlsMsg(enabled)) }
func (b *Bridge) ShowStartupError(msg string)        { b.send(startupErrorMsg(msg)) }
func (b *Bridge) HideBanner()                        { b.send(bannerHiddenMsg()) }
func (b *Bridge) UpdateProgress(elapsed, total int)  { b.send(progressMsg(elapsed, total)) }
func (b *Bridge) UpdatePlayer(st models.PlayerState) { b.send(playerMsg(st)) }

func (b *Bridge) ShowBanner(msg string, sev services.Severity) {
	b.send(bannerMsg(msg, sev))
}

// Render decodes a fetched result into list rows.
func (b *Bridge) Render(screenID string, reply services.Reply) {
	var loc navigation.Location
	if b.state != nil {
		loc, _ = b.state().Current()
	}
	if loc.ID() != screenID {
		return
	}

	if reply.Outcome == services.OutcomeError || reply.Outcome == services.OutcomeNoData {
		b.send(rowsMsg(loc, nil, 0, 0, "Could not load "+loc.String()))
		return
	}

	var list models.ListResult
	if err := reply.Decode(&list); err == nil && list.Data != nil {
		items := make([]item, len(list.Data))
		for i, row := range list.Data {
			items[i] = newItem(row)
		}
		b.send(rowsMsg(loc, items, max(list.TotalEntities, list.Offset+len(items)), list.Offset, ""))
		return
	}

	var row map[string]any
	if err := reply.Decode(&row); err != nil {
		b.send(rowsMsg(loc, nil, 0, 0, err.Error()))
		return
	}
	if msg, ok := row["message"].(string); ok && len(row) <= 2 {
		b.send(rowsMsg(loc, nil, 0, 0, msg))
		return
	}
	b.send(rowsMsg(loc, []item{newItem(row)}, 1, 0, ""))
}
