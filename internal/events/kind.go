package events

import (
	"encoding/json"
	"fmt"

	"github.com/desertthunder/mpdx/internal/shared"
)

// Kind is a push notification sent by myMPD over the websocket.
type Kind int

const (
	KindUnknown Kind = iota
	KindWelcome
	KindStateChanged
	KindMPDDisconnected
	KindMPDConnected
	KindQueueChanged
	KindOptionsChanged
	KindOutputsChanged
	KindUpdateStarted
	KindUpdateDatabase
	KindUpdateFinished
	KindVolumeChanged
	KindPlaylistChanged
	KindLastPlayedChanged
	KindJukeboxChanged
	KindHomeChanged
	KindAlbumCacheChanged
	KindNotify
	KindError
	KindWarn
	KindInfo
)

type kindName struct {
	wire  string
	label string
}

var kindNames = map[Kind]kindName{
	KindWelcome:           {"welcome", "welcome"},
	KindStateChanged:      {"update_state", "state-changed"},
	KindMPDDisconnected:   {"mpd_disconnected", "mpd-disconnected"},
	KindMPDConnected:      {"mpd_connected", "mpd-connected"},
	KindQueueChanged:      {"update_queue", "queue-changed"},
	KindOptionsChanged:    {"update_options", "options-changed"},
	KindOutputsChanged:    {"update_outputs", "outputs-changed"},
	KindUpdateStarted:     {"update_started", "update-started"},
	KindUpdateDatabase:    {"update_database", "update-database"},
	KindUpdateFinished:    {"update_finished", "update-finished"},
	KindVolumeChanged:     {"update_volume", "volume-changed"},
	KindPlaylistChanged:   {"update_stored_playlist", "playlist-changed"},
	KindLastPlayedChanged: {"update_last_played", "last-played-changed"},
	KindJukeboxChanged:    {"update_jukebox", "jukebox-changed"},
	KindHomeChanged:       {"update_home", "home-changed"},
	KindAlbumCacheChanged: {"update_album_cache", "album-cache-changed"},
	KindNotify:            {"notify", "notify"},
	KindError:             {"error", "error"},
	KindWarn:              {"warn", "warn"},
	KindInfo:              {"info", "info"},
}

var kindsByWire = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, n := range kindNames {
		m[n.wire] = k
	}
	return m
}()

// ParseKind maps a wire method name to its [Kind]. Unrecognised names are [KindUnknown].
func ParseKind(method string) Kind {
	if k, ok := kindsByWire[method]; ok {
		return k
	}
	return KindUnknown
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n.label
	}
	return "unknown"
}

// Wire returns the method name myMPD uses for k.
func (k Kind) Wire() string {
	return kindNames[k].wire
}

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for k := KindWelcome; k <= KindInfo; k++ {
		out = append(out, k)
	}
	return out
}

// Event is a decoded push frame.
type Event struct {
	Kind   Kind
	Method string
	Params json.RawMessage
}

// Decode unmarshals the event params into v.
func (e Event) Decode(v any) error {
	if len(e.Params) == 0 {
		return fmt.Errorf("%w: %s has no params", shared.ErrEmptyResponse, e.Method)
	}
	if err := json.Unmarshal(e.Params, v); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrProtocol, err)
	}
	return nil
}

// Handler reacts to one push event. Handlers run on the event loop.
type Handler func(Event)
