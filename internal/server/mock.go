package server

import (
	"encoding/json"
	"strings"

	"github.com/desertthunder/mpdx/internal/models"
	"github.com/desertthunder/mpdx/internal/services"
)

var library = []models.Song{
	{URI: "Air/Moon Safari/01 La femme d'argent.flac", Title: "La femme d'argent", Artist: "Air", Album: "Moon Safari", Duration: 430},
	{URI: "Air/Moon Safari/02 Sexy Boy.flac", Title: "Sexy Boy", Artist: "Air", Album: "Moon Safari", Duration: 298},
	{URI: "Portishead/Dummy/01 Mysterons.flac", Title: "Mysterons", Artist: "Portishead", Album: "Dummy", Duration: 302},
	{URI: "Portishead/Dummy/02 Sour Times.flac", Title: "Sour Times", Artist: "Portishead", Album: "Dummy", Duration: 251},
	{URI: "Massive Attack/Mezzanine/01 Angel.flac", Title: "Angel", Artist: "Massive Attack", Album: "Mezzanine", Duration: 379},
}

type pageParams struct {
	Offset    int    `json:"offset"`
	Limit     int    `json:"limit"`
	SearchStr string `json:"searchstr"`
}

func songList(method string, raw json.RawMessage) (any, error) {
	p := pageParams{Limit: 100}
	_ = json.Unmarshal(raw, &p)

	var matched []map[string]any
	for i, s := range library {
		if p.SearchStr != "" && !strings.Contains(strings.ToLower(s.Title+" "+s.Artist+" "+s.Album), strings.ToLower(p.SearchStr)) {
			continue
		}
		matched = append(matched, map[string]any{
			"uri": s.URI, "Title": s.Title, "Artist": s.Artist, "Album": s.Album, "Duration": s.Duration, "Pos": i,
		})
	}

	total := len(matched)
	start := min(max(p.Offset, 0), total)
	end := total
	if p.Limit > 0 {
		end = min(start+p.Limit, total)
	}
	page := matched[start:end]
	return models.ListResult{
		Method:           method,
		TotalEntities:    total,
		ReturnedEntities: len(page),
		Offset:           start,
		Data:             page,
	}, nil
}

// seed registers the methods the client fetches on startup and per screen.
func (m *Mock) seed() {
	m.API.Result("MYMPD_API_SETTINGS_GET", map[string]any{"pin": m.pin != "", "mympdVersion": "mock"})
	m.API.Result("MYMPD_API_HOME_ICON_LIST", models.ListResult{Data: []map[string]any{}})
	m.API.Result("MYMPD_API_PLAYER_OUTPUT_LIST", map[string]any{
		"numOutputs": 1,
		"data":       []map[string]any{{"id": 0, "name": "Default", "state": 1}},
	})
	m.API.Register("MYMPD_API_PLAYER_STATE", func(json.RawMessage) (any, error) { return m.Player(), nil })
	m.API.Register("MYMPD_API_PLAYER_CURRENT_SONG", func(json.RawMessage) (any, error) {
		st := m.Player()
		if st.State == models.StateStop {
			return map[string]any{"message": "No current song"}, nil
		}
		return library[st.SongPos], nil
	})

	for _, method := range []string{
		"MYMPD_API_QUEUE_LIST",
		"MYMPD_API_QUEUE_SEARCH",
		"MYMPD_API_LAST_PLAYED_LIST",
		"MYMPD_API_JUKEBOX_LIST",
		"MYMPD_API_DATABASE_SEARCH",
		"MYMPD_API_PLAYLIST_CONTENT_LIST",
	} {
		m.API.Register(method, func(raw json.RawMessage) (any, error) { return songList(method, raw) })
	}
	for _, method := range []string{
		"MYMPD_API_DATABASE_TAG_LIST",
		"MYMPD_API_DATABASE_ALBUMS_GET",
		"MYMPD_API_DATABASE_TAG_ALBUM_TITLE_LIST",
		"MYMPD_API_DATABASE_FILESYSTEM_LIST",
		"MYMPD_API_PLAYLIST_LIST",
		"MYMPD_API_WEBRADIO_FAVORITE_LIST",
		"MYMPD_API_CLOUD_WEBRADIODB_COMBINED_GET",
		"MYMPD_API_CLOUD_RADIOBROWSER_NEWEST",
		"MYMPD_API_CLOUD_RADIOBROWSER_SEARCH",
	} {
		m.API.Result(method, models.ListResult{Method: method, Data: []map[string]any{}})
	}

	m.API.Register("MYMPD_API_PLAYER_PLAY", m.transition(models.StatePlay))
	m.API.Register("MYMPD_API_PLAYER_PAUSE", m.transition(models.StatePause))
	m.API.Register("MYMPD_API_PLAYER_STOP", m.transition(models.StateStop))
	m.API.Register("MYMPD_API_DATABASE_UPDATE", func(json.RawMessage) (any, error) {
		m.push("update_started", nil)
		m.push("update_database", nil)
		return map[string]any{"message": services.SuccessMessage}, nil
	})
	m.API.Protect("MYMPD_API_DATABASE_UPDATE")
}

// Player returns the mock player state.
func (m *Mock) Player() models.PlayerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.player
}

// Tick advances elapsed time by one second while playing and pushes the new state.
func (m *Mock) Tick() {
	m.mu.Lock()
	if !m.player.Playing() {
		m.mu.Unlock()
		return
	}
	m.player.Elapsed++
	if m.player.Elapsed >= m.player.TotalTime {
		m.player.SongPos = (m.player.SongPos + 1) % len(library)
		m.player.SongID = m.player.SongPos + 1
		m.player.Elapsed = 0
		m.player.TotalTime = library[m.player.SongPos].Duration
	}
	st := m.player
	m.mu.Unlock()
	m.push("update_state", st)
}

func (m *Mock) transition(state string) Method {
	return func(json.RawMessage) (any, error) {
		m.mu.Lock()
		m.player.State = state
		if state == models.StateStop {
			m.player.Elapsed = 0
		}
		st := m.player
		m.mu.Unlock()
		m.push("update_state", st)
		return map[string]any{"message": services.SuccessMessage}, nil
	}
}

func (m *Mock) push(method string, params any) {
	if _, err := m.Socket.Broadcast(method, params); err != nil {
		m.logger.Warn("push failed", "method", method, "error", err)
	}
}
