package navigation

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/mpdx/internal/shared"
)

const (
	pathSep  = "/"
	paramSep = "!"
	// paramCount is page, filter, sort, tag and search.
	paramCount = 5
)

// Encode serializes a descriptor and its params into a fragment. Tab and view segments are
// left out when empty.
//
// Segments are escaped with [url.PathEscape], which also escapes "/" and "!", so any string
// round-trips through [Parse].
func Encode(d Descriptor, p Params) string {
	var b strings.Builder
	b.WriteString("#/")
	b.WriteString(url.PathEscape(d.App))
	if d.Tab != "" {
		b.WriteString(pathSep + url.PathEscape(d.Tab))
		if d.View != "" {
			b.WriteString(pathSep + url.PathEscape(d.View))
		}
	}
	b.WriteString(paramSep)
	b.WriteString(strconv.Itoa(p.Page))
	for _, s := range []string{p.Filter, p.Sort, p.Tag, p.Search} {
		b.WriteString(pathSep + url.PathEscape(s))
	}
	return b.String()
}

// Parse is the inverse of [Encode]. It checks syntax only. Whether the path exists in a tree
// is decided by [State.Resolve].
//
// The returned Params never carry a scroll position.
func Parse(fragment string) (Descriptor, Params, error) {
	var d Descriptor
	var p Params

	raw := strings.TrimPrefix(fragment, "#")
	if !strings.HasPrefix(raw, pathSep) {
		return d, p, invalid(fragment, "must start with #/")
	}

	path, query, ok := strings.Cut(raw[1:], paramSep)
	if !ok {
		return d, p, invalid(fragment, "missing "+paramSep)
	}
	if strings.Contains(query, paramSep) {
		return d, p, invalid(fragment, "more than one "+paramSep)
	}

	segments := strings.Split(strings.TrimSuffix(path, pathSep), pathSep)
	if len(segments) > 3 {
		return d, p, invalid(fragment, "too many path segments")
	}
	names := make([]string, len(segments))
	for i, s := range segments {
		v, err := url.PathUnescape(s)
		if err != nil {
			return d, p, invalid(fragment, err.Error())
		}
		if v == "" {
			return d, p, invalid(fragment, "empty path segment")
		}
		names[i] = v
	}
	d.App = names[0]
	if len(names) > 1 {
		d.Tab = names[1]
	}
	if len(names) > 2 {
		d.View = names[2]
	}

	values := strings.Split(query, pathSep)
	if len(values) != paramCount {
		return d, p, invalid(fragment, fmt.Sprintf("expected %d parameters, got %d", paramCount, len(values)))
	}

	page, err := parsePage(values[0])
	if err != nil {
		return d, p, invalid(fragment, err.Error())
	}
	p.Page = page

	decoded := make([]string, paramCount-1)
	for i, s := range values[1:] {
		v, err := url.PathUnescape(s)
		if err != nil {
			return d, p, invalid(fragment, err.Error())
		}
		decoded[i] = v
	}
	p.Filter, p.Sort, p.Tag, p.Search = decoded[0], decoded[1], decoded[2], decoded[3]

	return d, p, nil
}

// parsePage accepts decimal digits only, so "+1", "-1" and "" fail.
func parsePage(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty page")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("page %q is not a non-negative integer", s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("page %q: %w", s, err)
	}
	return n, nil
}

// invalid errors match both [shared.ErrInvalidFragment] and [shared.ErrNoRoute].
func invalid(fragment, reason string) error {
	return fmt.Errorf("%w: %w: %q: %s", shared.ErrNoRoute, shared.ErrInvalidFragment, fragment, reason)
}
