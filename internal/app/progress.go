package app

import "github.com/desertthunder/mpdx/internal/models"

func (a *Application) setPlayer(st models.PlayerState) {
	a.player = st
	a.view.UpdatePlayer(st)
	a.tick()
}

// tick renders the elapsed time and, while playing, advances it once per interval until the
// song's total time.
func (a *Application) tick() {
	a.stopProgress()
	a.view.UpdateProgress(a.player.Elapsed, a.player.TotalTime)
	if !a.player.Playing() {
		return
	}

	a.progressTimer = a.scheduler.AfterFunc(a.progressEvery, func() {
		a.progressTimer = nil
		if a.player.TotalTime <= 0 || a.player.Elapsed < a.player.TotalTime {
			a.player.Elapsed++
		}
		a.tick()
	})
}

func (a *Application) stopProgress() {
	a.progressTimer = stop(a.progressTimer)
}
