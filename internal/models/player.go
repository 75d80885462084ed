package models

// Player states reported by myMPD.
const (
	StatePlay  = "play"
	StatePause = "pause"
	StateStop  = "stop"
)

// PlayerState is the result of MYMPD_API_PLAYER_STATE and the params of update_state.
type PlayerState struct {
	State       string `json:"state"`
	Volume      int    `json:"volume"`
	SongPos     int    `json:"songPos"`
	SongID      int    `json:"currentSongId"`
	Elapsed     int    `json:"elapsedTime"`
	TotalTime   int    `json:"totalTime"`
	QueueLength int    `json:"queueLength"`
	NextSongPos int    `json:"nextSongPos"`
}

// Playing reports whether playback is running.
func (p PlayerState) Playing() bool { return p.State == StatePlay }

// VolumeState is the params of update_volume.
type VolumeState struct {
	Volume int `json:"volume"`
}

// Song is the subset of a song the client displays.
type Song struct {
	URI      string `json:"uri"`
	Title    string `json:"Title"`
	Artist   any    `json:"Artist"`
	Album    string `json:"Album"`
	Duration int    `json:"Duration"`
	Pos      int    `json:"Pos"`
}

// ListResult is the common shape of paged list results.
type ListResult struct {
	Method           string           `json:"method"`
	TotalEntities    int              `json:"totalEntities"`
	ReturnedEntities int              `json:"returnedEntities"`
	Offset           int              `json:"offset"`
	Data             []map[string]any `json:"data"`
}

// Notice is the params of a notify push and of error/warn/info pushes.
type Notice struct {
	Message  string         `json:"message"`
	Facility string         `json:"facility"`
	Severity string         `json:"severity"`
	Data     map[string]any `json:"data"`
}
