package navigation

import (
	"fmt"
	"strings"

	"github.com/desertthunder/mpdx/internal/shared"
)

// NoValue is the sentinel meaning "no filter", "no sort" or "no tag".
// It is distinct from the empty string, which the view layer treats differently.
const NoValue = "-"

// Params are the mutable parameters attached to a leaf screen.
type Params struct {
	Page      int    `json:"page"`      // zero based page of a paginated result set
	Filter    string `json:"filter"`    // tag name or [NoValue]
	Sort      string `json:"sort"`      // tag name, "-" prefixed for descending, or [NoValue]
	Tag       string `json:"tag"`       // secondary selector, e.g. the grouping tag of a drill-down
	Search    string `json:"search"`    // free text or a search expression
	ScrollPos int    `json:"scrollPos"` // last scroll offset, restored on back-navigation
}

// DefaultParams returns page 0 with the given filter, sort, tag and search.
func DefaultParams(filter, sort, tag, search string) Params {
	return Params{Filter: filter, Sort: sort, Tag: tag, Search: search}
}

// SortTag returns the sort tag without its direction prefix.
func (p Params) SortTag() string {
	if p.Sort == NoValue || !strings.HasPrefix(p.Sort, "-") {
		return p.Sort
	}
	return p.Sort[1:]
}

// SortDesc reports whether the sort is descending.
func (p Params) SortDesc() bool {
	return p.Sort != NoValue && strings.HasPrefix(p.Sort, "-")
}

// Sorted reports whether any sort is set.
func (p Params) Sorted() bool {
	return p.Sort != NoValue && p.Sort != ""
}

// Descriptor identifies a screen by app, optional tab and optional view.
type Descriptor struct {
	App  string `json:"app"`
	Tab  string `json:"tab,omitempty"`
	View string `json:"view,omitempty"`
}

// ID concatenates the path, e.g. "QueueJukebox". Screen tables are keyed by it.
func (d Descriptor) ID() string {
	return d.App + d.Tab + d.View
}

func (d Descriptor) String() string {
	switch {
	case d.View != "":
		return d.App + "/" + d.Tab + "/" + d.View
	case d.Tab != "":
		return d.App + "/" + d.Tab
	default:
		return d.App
	}
}

// Validate checks that a view is only set together with a tab.
func (d Descriptor) Validate() error {
	if d.App == "" {
		return fmt.Errorf("%w: app is required", shared.ErrInvalidArgument)
	}
	if d.View != "" && d.Tab == "" {
		return fmt.Errorf("%w: view %q without tab", shared.ErrInvalidArgument, d.View)
	}
	return nil
}

// Location is a resolved screen with a snapshot of its parameters.
type Location struct {
	Descriptor
	Params
}

// Fragment serializes the location with [Encode].
func (l Location) Fragment() string {
	return Encode(l.Descriptor, l.Params)
}

// SameScreen reports whether both locations address the same leaf.
func (l Location) SameScreen(o Location) bool {
	return l.Descriptor == o.Descriptor
}
