package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mpdx/internal/models"
	"github.com/desertthunder/mpdx/internal/navigation"
	"github.com/desertthunder/mpdx/internal/notify"
	"github.com/desertthunder/mpdx/internal/services"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgScreen MsgKind = iota
	MsgScroll
	MsgRows
	MsgControls
	MsgStartupError
	MsgBanner
	MsgBannerHidden
	MsgProgress
	MsgPlayer
	MsgNotification
)

type rowsData struct {
	loc   navigation.Location
	items  []item
	total  int
	offset int
	err    string
}

type bannerData struct {
	text string
	sev  services.Severity
}

type progressData struct {
	elapsed int
	total   int
}

// screenMsg is the constructor for [MsgScreen]
func screenMsg(loc navigation.Location) Msg { return Msg{kind: MsgScreen, data: loc} }

// scrollMsg is the constructor for [MsgScroll]
func scrollMsg(pos int) Msg { return Msg{kind: MsgScroll, data: pos} }

// rowsMsg is the constructor for [MsgRows]
func rowsMsg(loc navigation.Location, items []item, total, offset int, err string) Msg {
	return Msg{kind: MsgRows, data: rowsData{loc, items, total, offset, err}}
}

func controlsMsg(enabled bool) Msg    { return Msg{kind: MsgControls, data: enabled} }
func startupErrorMsg(text string) Msg { return Msg{kind: MsgStartupError, data: text} }
func bannerHiddenMsg() Msg            { return Msg{kind: MsgBannerHidden} }

func bannerMsg(text string, sev services.Severity) Msg {
	return Msg{kind: MsgBanner, data: bannerData{text, sev}}
}

func progressMsg(elapsed, total int) Msg {
	return Msg{kind: MsgProgress, data: progressData{elapsed, total}}
}

func playerMsg(st models.PlayerState) Msg { return Msg{kind: MsgPlayer, data: st} }

// NotificationMsg wraps a notification log entry for the program.
func NotificationMsg(e notify.Entry) tea.Msg { return Msg{kind: MsgNotification, data: e} }
