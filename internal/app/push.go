package app

import (
	"github.com/desertthunder/mpdx/internal/events"
	"github.com/desertthunder/mpdx/internal/models"
	"github.com/desertthunder/mpdx/internal/pubsub"
	"github.com/desertthunder/mpdx/internal/services"
)

// pushHandlers returns the handler for every known push kind. Each handler also republishes
// the event to subscribers.
func (a *Application) pushHandlers() map[events.Kind]events.Handler {
	table := map[events.Kind]events.Handler{
		events.KindWelcome:           a.onWelcome,
		events.KindStateChanged:      a.onStateChanged,
		events.KindMPDDisconnected:   a.onMPDDisconnected,
		events.KindMPDConnected:      a.onMPDConnected,
		events.KindQueueChanged:      a.onQueueChanged,
		events.KindOptionsChanged:    func(events.Event) { a.fetchSettings() },
		events.KindOutputsChanged:    func(events.Event) { a.fetchOutputs() },
		events.KindUpdateStarted:     a.onUpdateStarted,
		events.KindUpdateDatabase:    a.onUpdateDone("Database successfully updated"),
		events.KindUpdateFinished:    a.onUpdateDone("Database update finished"),
		events.KindVolumeChanged:     a.onVolumeChanged,
		events.KindPlaylistChanged:   a.refreshOn(ScreenBrowsePlaylistsList, ScreenBrowsePlaylistsDetail),
		events.KindLastPlayedChanged: a.refreshOn(ScreenQueueLastPlayed),
		events.KindJukeboxChanged:    a.refreshOn(ScreenQueueJukebox),
		events.KindHomeChanged:       a.refreshOn(ScreenHome),
		events.KindAlbumCacheChanged: a.refreshOn(ScreenBrowseDatabaseList),
		events.KindNotify:            a.onNotice(services.SeverityInfo),
		events.KindError:             a.onNotice(services.SeverityDanger),
		events.KindWarn:              a.onNotice(services.SeverityWarn),
		events.KindInfo:              a.onNotice(services.SeverityInfo),
	}

	for k, h := range table {
		table[k] = func(e events.Event) {
			h(e)
			a.published.Publish(pubsub.CreatedEvent, e)
		}
	}
	return table
}

func (a *Application) onUnknown(e events.Event) {
	a.logger.Warn("unknown push notification", "method", e.Method)
	a.published.Publish(pubsub.CreatedEvent, e)
}

func (a *Application) refreshOn(ids ...string) events.Handler {
	return func(events.Event) { a.refreshIf(ids...) }
}

func (a *Application) onWelcome(events.Event) {
	partition := a.partition
	if partition == "" {
		partition = "default"
	}
	a.notifier.Notify("Connected to myMPD", "Partition: "+partition, "", services.SeverityInfo)
	a.fetchState()
}

func (a *Application) onStateChanged(e events.Event) {
	var st models.PlayerState
	if err := e.Decode(&st); err != nil {
		a.logger.Warn("invalid player state", "error", err)
		return
	}

	songChanged := st.SongID != a.player.SongID
	a.setPlayer(st)
	if songChanged {
		a.refreshIf(ScreenPlayback)
	}
}

func (a *Application) onQueueChanged(e events.Event) {
	var st models.PlayerState
	if err := e.Decode(&st); err == nil {
		a.player.QueueLength = st.QueueLength
		a.view.UpdatePlayer(a.player)
	}
	a.refreshIf(ScreenQueueCurrent)
}

func (a *Application) onMPDDisconnected(events.Event) {
	a.mpdConnected = false
	a.stopProgress()
	a.view.ShowBanner("MPD disconnected", services.SeverityDanger)
	a.view.SetControlsEnabled(false)
}

func (a *Application) onMPDConnected(events.Event) {
	a.mpdConnected = true
	a.view.HideBanner()
	a.view.SetControlsEnabled(a.uiEnabled)
	a.notifier.Notify("Connected to MPD", "", "", services.SeverityInfo)
	a.fetchState()
	a.fetchSettings()
}

func (a *Application) onUpdateStarted(events.Event) {
	a.notifier.Notify("Database update started", "", "", services.SeverityInfo)
}

func (a *Application) onUpdateDone(title string) events.Handler {
	return func(events.Event) {
		a.notifier.Notify(title, "", "", services.SeveritySuccess)
		a.refreshIf(ScreenBrowseDatabaseList, ScreenBrowseDatabaseDetail, ScreenBrowseFilesystem)
	}
}

func (a *Application) onVolumeChanged(e events.Event) {
	var v models.VolumeState
	if err := e.Decode(&v); err != nil {
		a.logger.Warn("invalid volume", "error", err)
		return
	}
	a.player.Volume = v.Volume
	a.view.UpdatePlayer(a.player)
}

func (a *Application) onNotice(fallback services.Severity) events.Handler {
	return func(e events.Event) {
		var n models.Notice
		if err := e.Decode(&n); err != nil {
			a.logger.Warn("invalid notification", "method", e.Method, "error", err)
			return
		}
		sev := services.ParseSeverity(n.Severity, fallback)
		a.notifier.Notify(services.Phrase(n.Message, n.Data), n.Facility, "", sev)
	}
}

func (a *Application) fetchState() {
	a.caller.Call(a.ctx, methodPlayerState, nil, a.applyState, false)
}

func (a *Application) applyState(reply services.Reply) {
	var st models.PlayerState
	if err := reply.Decode(&st); err != nil {
		a.logger.Warn("invalid player state", "error", err)
		return
	}
	a.setPlayer(st)
}

func (a *Application) fetchSettings() {
	a.caller.Call(a.ctx, methodSettingsGet, nil, func(reply services.Reply) {
		if reply.Outcome == services.OutcomeSuccess {
			a.settings = reply.Envelope.Result
		}
	}, true)
}

func (a *Application) fetchOutputs() {
	a.caller.Call(a.ctx, methodOutputList, nil, func(reply services.Reply) {
		if reply.Outcome == services.OutcomeSuccess {
			a.outputs = reply.Envelope.Result
		}
	}, false)
}
