package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/mpdx/internal/shared"
)

var _ list.Item = item{}

// item is one row of a rendered result.
type item struct {
	title string
	desc  string
	uri   string
	kind  string
}

func (i item) FilterValue() string { return i.title }
func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }

// newItem picks display fields from a result row. myMPD uses different keys per list.
func newItem(row map[string]any) item {
	it := item{
		title: first(row, "Title", "name", "Name", "value", "Value", "uri"),
		uri:   first(row, "uri", "name", "Name"),
		kind:  first(row, "Type", "type"),
	}

	var parts []string
	if artist := joined(row["Artist"]); artist != "" {
		parts = append(parts, artist)
	}
	if album := first(row, "Album"); album != "" {
		parts = append(parts, album)
	}
	if d, ok := row["Duration"].(float64); ok && d > 0 {
		parts = append(parts, shared.FormatSeconds(int(d)))
	}
	if len(parts) == 0 && it.kind != "" {
		parts = append(parts, it.kind)
	}
	it.desc = strings.Join(parts, " • ")

	if it.title == "" {
		it.title = "(unnamed)"
	}
	return it
}

func first(row map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := row[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%g", v)
		}
	}
	return ""
}

// joined renders multi-value tags, which myMPD sends as arrays.
func joined(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if s, ok := s.(string); ok {
				out = append(out, s)
			}
		}
		return strings.Join(out, ", ")
	}
	return ""
}
