// package formatter renders player state, routes and notification history as text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/mpdx/internal/models"
	"github.com/desertthunder/mpdx/internal/navigation"
	"github.com/desertthunder/mpdx/internal/shared"
)

// Format names an output format.
type Format string

const (
	Text     Format = "txt"
	Markdown Format = "markdown"
	CSV      Format = "csv"
	JSON     Format = "json"
)

// ParseFormat accepts txt, text, md, markdown, csv and json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "txt", "text":
		return Text, nil
	case "md", "markdown":
		return Markdown, nil
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
}

// Route is one row of a route table.
type Route struct {
	Screen   string `json:"screen"`
	Fragment string `json:"fragment"`
}

// Routes lists every screen of tree with the fragment its current params encode to.
func Routes(tree *navigation.Tree) []Route {
	var rows []Route
	tree.Walk(func(d navigation.Descriptor, leaf *navigation.Leaf) {
		rows = append(rows, Route{Screen: d.ID(), Fragment: navigation.Encode(d, leaf.Params)})
	})
	return rows
}

// notificationRow is the serialized form of a [models.Notification].
type notificationRow struct {
	Time       time.Time `json:"time"`
	Severity   string    `json:"severity"`
	Title      string    `json:"title"`
	Text       string    `json:"text,omitempty"`
	Occurrence int       `json:"occurrence"`
}

func rows(ns []*models.Notification) []notificationRow {
	out := make([]notificationRow, len(ns))
	for i, n := range ns {
		out[i] = notificationRow{
			Time:       n.UpdatedAt(),
			Severity:   n.Severity(),
			Title:      n.Title(),
			Text:       n.Text(),
			Occurrence: n.Occurrence(),
		}
	}
	return out
}

// Player renders st.
func Player(f Format, st models.PlayerState) ([]byte, error) {
	progress := fmt.Sprintf("%s / %s", shared.FormatSeconds(st.Elapsed), shared.FormatSeconds(st.TotalTime))
	switch f {
	case JSON:
		return marshal(st)
	case Markdown:
		var buf bytes.Buffer
		buf.WriteString("# Player\n\n")
		fmt.Fprintf(&buf, "**State**: %s\n", st.State)
		fmt.Fprintf(&buf, "**Progress**: %s\n", progress)
		fmt.Fprintf(&buf, "**Volume**: %d\n", st.Volume)
		fmt.Fprintf(&buf, "**Queue**: song %d of %d\n", st.SongPos+1, st.QueueLength)
		return buf.Bytes(), nil
	case CSV:
		return writeCSV(
			[]string{"State", "Elapsed", "Total", "Volume", "SongPos", "SongID", "QueueLength"},
			[][]string{{
				st.State,
				strconv.Itoa(st.Elapsed),
				strconv.Itoa(st.TotalTime),
				strconv.Itoa(st.Volume),
				strconv.Itoa(st.SongPos),
				strconv.Itoa(st.SongID),
				strconv.Itoa(st.QueueLength),
			}},
		)
	default:
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "State: %s\n", st.State)
		fmt.Fprintf(&buf, "Progress: %s\n", progress)
		fmt.Fprintf(&buf, "Volume: %d\n", st.Volume)
		return buf.Bytes(), nil
	}
}

// RouteTable renders a route table.
func RouteTable(f Format, routes []Route) ([]byte, error) {
	switch f {
	case JSON:
		return marshal(routes)
	case Markdown:
		var buf bytes.Buffer
		buf.WriteString("| Screen | Fragment |\n|---|---|\n")
		for _, r := range routes {
			fmt.Fprintf(&buf, "| %s | `%s` |\n", r.Screen, r.Fragment)
		}
		return buf.Bytes(), nil
	case CSV:
		records := make([][]string, len(routes))
		for i, r := range routes {
			records[i] = []string{r.Screen, r.Fragment}
		}
		return writeCSV([]string{"Screen", "Fragment"}, records)
	default:
		width := 0
		for _, r := range routes {
			width = max(width, len(r.Screen))
		}
		var buf bytes.Buffer
		for _, r := range routes {
			fmt.Fprintf(&buf, "%-*s  %s\n", width, r.Screen, r.Fragment)
		}
		return buf.Bytes(), nil
	}
}

// Notifications renders notification history, newest first as given.
func Notifications(f Format, ns []*models.Notification) ([]byte, error) {
	rs := rows(ns)
	switch f {
	case JSON:
		return marshal(rs)
	case Markdown:
		var buf bytes.Buffer
		buf.WriteString("# Notifications\n\n")
		fmt.Fprintf(&buf, "**Entries**: %d\n\n", len(rs))
		for i, r := range rs {
			fmt.Fprintf(&buf, "%d. **%s** %s%s (%s)\n", i+1, r.Severity, r.Title, repeat(r.Occurrence), r.Time.Format(time.DateTime))
			if r.Text != "" {
				fmt.Fprintf(&buf, "   %s\n", r.Text)
			}
		}
		return buf.Bytes(), nil
	case CSV:
		records := make([][]string, len(rs))
		for i, r := range rs {
			records[i] = []string{r.Time.Format(time.RFC3339), r.Severity, r.Title, r.Text, strconv.Itoa(r.Occurrence)}
		}
		return writeCSV([]string{"Time", "Severity", "Title", "Text", "Occurrence"}, records)
	default:
		var buf bytes.Buffer
		for _, r := range rs {
			fmt.Fprintf(&buf, "%s [%s] %s%s\n", r.Time.Format(time.DateTime), r.Severity, r.Title, repeat(r.Occurrence))
		}
		return buf.Bytes(), nil
	}
}

func repeat(n int) string {
	if n <= 1 {
		return ""
	}
	return fmt.Sprintf(" (x%d)", n)
}

func marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

func writeCSV(headers []string, records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
