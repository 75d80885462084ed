package app

import (
	"github.com/desertthunder/mpdx/internal/models"
	"github.com/desertthunder/mpdx/internal/navigation"
	"github.com/desertthunder/mpdx/internal/services"
)

// View is the presentation collaborator. Every method is called on the event loop.
type View interface {
	// ShowScreen hides every other screen and shows loc's.
	ShowScreen(loc navigation.Location)
	// RestoreScroll scrolls the shown screen to pos.
	RestoreScroll(pos int)
	// Render displays a reply fetched for screenID.
	Render(screenID string, reply services.Reply)
	SetControlsEnabled(enabled bool)
	ShowStartupError(msg string)
	ShowBanner(msg string, sev services.Severity)
	HideBanner()
	UpdateProgress(elapsed, total int)
	UpdatePlayer(state models.PlayerState)
}

// NopView ignores everything. It is used by the headless watch command.
type NopView struct{}

func (NopView) ShowScreen(navigation.Location)       {}
func (NopView) RestoreScroll(int)                    {}
func (NopView) Render(string, services.Reply)        {}
func (NopView) SetControlsEnabled(bool)              {}
func (NopView) ShowStartupError(string)              {}
func (NopView) ShowBanner(string, services.Severity) {}
func (NopView) HideBanner()                          {}
func (NopView) UpdateProgress(int, int)              {}
func (NopView) UpdatePlayer(models.PlayerState)      {}
