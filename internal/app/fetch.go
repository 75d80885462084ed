package app

import (
	"unicode/utf8"

	"github.com/desertthunder/mpdx/internal/navigation"
)

// Screen IDs of the default tree.
const (
	ScreenHome                    = "Home"
	ScreenPlayback                = "Playback"
	ScreenQueueCurrent            = "QueueCurrent"
	ScreenQueueLastPlayed         = "QueueLastPlayed"
	ScreenQueueJukebox            = "QueueJukebox"
	ScreenBrowseDatabaseList      = "BrowseDatabaseList"
	ScreenBrowseDatabaseDetail    = "BrowseDatabaseDetail"
	ScreenBrowsePlaylistsList     = "BrowsePlaylistsList"
	ScreenBrowsePlaylistsDetail   = "BrowsePlaylistsDetail"
	ScreenBrowseFilesystem        = "BrowseFilesystem"
	ScreenBrowseRadioFavorites    = "BrowseRadioFavorites"
	ScreenBrowseRadioWebradiodb   = "BrowseRadioWebradiodb"
	ScreenBrowseRadioRadiobrowser = "BrowseRadioRadiobrowser"
	ScreenSearch                  = "Search"
)

// minSearchLength is the shortest search string that triggers a server side search.
const minSearchLength = 2

// Call is one request issued for a screen.
type Call struct {
	Method       string
	Params       map[string]any
	ReportErrors bool
}

// Fetcher returns the calls that load a screen at loc. limit is the page size.
type Fetcher func(loc navigation.Location, limit int) []Call

// FetchTable maps screen IDs to their fetchers.
type FetchTable map[string]Fetcher

// Calls returns the calls for loc, or nil for screens without data.
func (t FetchTable) Calls(loc navigation.Location, limit int) []Call {
	f, ok := t[loc.ID()]
	if !ok || f == nil {
		return nil
	}
	return f(loc, limit)
}

func offset(loc navigation.Location, limit int) int {
	return loc.Page * limit
}

func one(method string, params map[string]any, reportErrors bool) []Call {
	return []Call{{Method: method, Params: params, ReportErrors: reportErrors}}
}

func searchable(s string) bool {
	return utf8.RuneCountInString(s) >= minSearchLength
}

// DefaultFetchTable mirrors the requests myMPD issues for each screen.
func DefaultFetchTable() FetchTable {
	return FetchTable{
		ScreenHome: func(navigation.Location, int) []Call {
			return one("MYMPD_API_HOME_ICON_LIST", nil, false)
		},
		ScreenPlayback: func(navigation.Location, int) []Call {
			return one("MYMPD_API_PLAYER_CURRENT_SONG", nil, false)
		},
		ScreenQueueCurrent: func(loc navigation.Location, limit int) []Call {
			if searchable(loc.Search) {
				return one("MYMPD_API_QUEUE_SEARCH", map[string]any{
					"offset":    offset(loc, limit),
					"limit":     limit,
					"filter":    loc.Filter,
					"searchstr": loc.Search,
					"sort":      loc.SortTag(),
					"sortdesc":  loc.SortDesc(),
				}, false)
			}
			return one("MYMPD_API_QUEUE_LIST", map[string]any{
				"offset": offset(loc, limit),
				"limit":  limit,
			}, false)
		},
		ScreenQueueLastPlayed: func(loc navigation.Location, limit int) []Call {
			return one("MYMPD_API_LAST_PLAYED_LIST", map[string]any{
				"offset":    offset(loc, limit),
				"limit":     limit,
				"searchstr": loc.Search,
			}, false)
		},
		ScreenQueueJukebox: func(loc navigation.Location, limit int) []Call {
			return one("MYMPD_API_JUKEBOX_LIST", map[string]any{
				"offset":    offset(loc, limit),
				"limit":     limit,
				"searchstr": loc.Search,
			}, false)
		},
		ScreenBrowseDatabaseList: func(loc navigation.Location, limit int) []Call {
			if loc.Tag == "Album" {
				return one("MYMPD_API_DATABASE_ALBUMS_GET", map[string]any{
					"offset":     offset(loc, limit),
					"limit":      limit,
					"expression": loc.Search,
					"sort":       loc.SortTag(),
					"sortdesc":   loc.SortDesc(),
				}, true)
			}
			return one("MYMPD_API_DATABASE_TAG_LIST", map[string]any{
				"offset":    offset(loc, limit),
				"limit":     limit,
				"searchstr": loc.Search,
				"tag":       loc.Tag,
				"sortdesc":  loc.SortDesc(),
			}, true)
		},
		ScreenBrowseDatabaseDetail: func(loc navigation.Location, _ int) []Call {
			if loc.Filter != "Album" {
				return nil
			}
			return one("MYMPD_API_DATABASE_TAG_ALBUM_TITLE_LIST", map[string]any{
				"album":       loc.Tag,
				"albumartist": loc.Search,
			}, true)
		},
		ScreenBrowsePlaylistsList: func(loc navigation.Location, limit int) []Call {
			return one("MYMPD_API_PLAYLIST_LIST", map[string]any{
				"offset":    offset(loc, limit),
				"limit":     limit,
				"searchstr": loc.Search,
				"type":      0,
			}, false)
		},
		ScreenBrowsePlaylistsDetail: func(loc navigation.Location, limit int) []Call {
			return one("MYMPD_API_PLAYLIST_CONTENT_LIST", map[string]any{
				"offset":    offset(loc, limit),
				"limit":     limit,
				"searchstr": loc.Search,
				"plist":     loc.Filter,
			}, false)
		},
		ScreenBrowseFilesystem: func(loc navigation.Location, limit int) []Call {
			path := loc.Search
			if path == "" {
				path = "/"
			}
			searchstr := loc.Filter
			if searchstr == navigation.NoValue {
				searchstr = ""
			}
			typ := loc.Tag
			if typ == navigation.NoValue {
				typ = "dir"
			}
			return one("MYMPD_API_DATABASE_FILESYSTEM_LIST", map[string]any{
				"offset":    offset(loc, limit),
				"limit":     limit,
				"path":      path,
				"searchstr": searchstr,
				"type":      typ,
			}, true)
		},
		ScreenBrowseRadioFavorites: func(loc navigation.Location, limit int) []Call {
			return one("MYMPD_API_WEBRADIO_FAVORITE_LIST", map[string]any{
				"offset":    offset(loc, limit),
				"limit":     limit,
				"searchstr": loc.Search,
			}, true)
		},
		ScreenBrowseRadioWebradiodb: func(navigation.Location, int) []Call {
			return one("MYMPD_API_CLOUD_WEBRADIODB_COMBINED_GET", nil, true)
		},
		ScreenBrowseRadioRadiobrowser: func(loc navigation.Location, limit int) []Call {
			if loc.Search == "" {
				return one("MYMPD_API_CLOUD_RADIOBROWSER_NEWEST", map[string]any{
					"offset": offset(loc, limit),
					"limit":  limit,
				}, true)
			}
			return one("MYMPD_API_CLOUD_RADIOBROWSER_SEARCH", map[string]any{
				"offset":    offset(loc, limit),
				"limit":     limit,
				"searchstr": loc.Search,
			}, true)
		},
		ScreenSearch: func(loc navigation.Location, limit int) []Call {
			if !searchable(loc.Search) {
				return nil
			}
			sort := loc.SortTag()
			if sort == navigation.NoValue || sort == "" {
				sort = "Title"
			}
			return one("MYMPD_API_DATABASE_SEARCH", map[string]any{
				"offset":     offset(loc, limit),
				"limit":      limit,
				"expression": loc.Search,
				"sort":       sort,
				"sortdesc":   loc.SortDesc(),
			}, true)
		},
	}
}
