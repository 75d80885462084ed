package navigation

import (
	"fmt"

	"github.com/desertthunder/mpdx/internal/shared"
)

// FragmentSink receives fragments written by [State.Goto]. In the client it schedules the
// route handler, which models the browser's asynchronous hashchange event.
type FragmentSink interface {
	SetFragment(fragment string)
}

// ScrollReader reports the caller's current scroll offset.
type ScrollReader interface {
	ScrollPos() int
}

// FragmentSinkFunc adapts a function to [FragmentSink].
type FragmentSinkFunc func(string)

func (f FragmentSinkFunc) SetFragment(fragment string) { f(fragment) }

// ScrollReaderFunc adapts a function to [ScrollReader].
type ScrollReaderFunc func() int

func (f ScrollReaderFunc) ScrollPos() int { return f() }

// State holds the screen tree and the current/previous location pair.
//
// State is not safe for concurrent use. The client only touches it from its event loop.
type State struct {
	tree     *Tree
	sink     FragmentSink
	scroll   ScrollReader
	current  *Location
	previous *Location
}

// NewState validates tree and returns a State with no current location.
//
// A nil sink discards fragments and a nil scroll reader always reports 0.
func NewState(tree *Tree, sink FragmentSink, scroll ScrollReader) (*State, error) {
	if tree == nil {
		tree = DefaultTree()
	}
	if err := tree.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = FragmentSinkFunc(func(string) {})
	}
	if scroll == nil {
		scroll = ScrollReaderFunc(func() int { return 0 })
	}
	return &State{tree: tree, sink: sink, scroll: scroll}, nil
}

// Tree returns the underlying screen tree.
func (s *State) Tree() *Tree { return s.tree }

// Current returns the most recently resolved location.
func (s *State) Current() (Location, bool) {
	if s.current == nil {
		return Location{}, false
	}
	return *s.current, true
}

// Previous returns the location that was current before the last [State.Resolve].
func (s *State) Previous() (Location, bool) {
	if s.previous == nil {
		return Location{}, false
	}
	return *s.previous, true
}

// ScreenChanged reports whether the last resolve moved to a different app/tab/view.
func (s *State) ScreenChanged() bool {
	if s.current == nil {
		return false
	}
	return s.previous == nil || !s.previous.SameScreen(*s.current)
}

// Params returns the stored params of the leaf addressed by d.
func (s *State) Params(d Descriptor) (Params, error) {
	leaf, err := s.tree.Leaf(d)
	if err != nil {
		return Params{}, err
	}
	return leaf.Params, nil
}

// Seed overwrites the stored params of a leaf without navigating, e.g. when restoring saved
// state at startup.
func (s *State) Seed(d Descriptor, p Params) error {
	leaf, err := s.tree.Leaf(d)
	if err != nil {
		return err
	}
	if p.Page < 0 || p.ScrollPos < 0 {
		return fmt.Errorf("%w: negative page or scroll position for %s", shared.ErrInvalidArgument, d)
	}
	leaf.Params = p
	return nil
}

// GotoOption sets one navigation argument. Arguments not given fall back to the target
// leaf's stored value, and an omitted tab or view falls back to the active child.
type GotoOption func(*gotoArgs)

type gotoArgs struct {
	tab, view                 *string
	page                      *int
	filter, sort, tag, search *string
}

func WithTab(tab string) GotoOption       { return func(a *gotoArgs) { a.tab = &tab } }
func WithView(view string) GotoOption     { return func(a *gotoArgs) { a.view = &view } }
func WithPage(page int) GotoOption        { return func(a *gotoArgs) { a.page = &page } }
func WithFilter(filter string) GotoOption { return func(a *gotoArgs) { a.filter = &filter } }
func WithSort(sort string) GotoOption     { return func(a *gotoArgs) { a.sort = &sort } }
func WithTag(tag string) GotoOption       { return func(a *gotoArgs) { a.tag = &tag } }
func WithSearch(search string) GotoOption { return func(a *gotoArgs) { a.search = &search } }

// Goto writes the fragment for the target screen to the sink and returns it.
//
// Before writing, the caller's scroll offset is stored in the current leaf when the target
// is a different leaf. Goto does not resolve the fragment and does not fetch anything.
func (s *State) Goto(app string, opts ...GotoOption) (string, error) {
	var args gotoArgs
	for _, opt := range opts {
		opt(&args)
	}

	d := Descriptor{App: app}
	if args.tab != nil {
		d.Tab = *args.tab
	}
	if args.view != nil {
		d.View = *args.view
	}
	d, err := s.tree.Complete(d)
	if err != nil {
		return "", err
	}
	leaf, err := s.tree.Leaf(d)
	if err != nil {
		return "", err
	}

	p := leaf.Params
	if args.page != nil {
		if *args.page < 0 {
			return "", fmt.Errorf("%w: negative page %d", shared.ErrInvalidArgument, *args.page)
		}
		p.Page = *args.page
	}
	for dst, src := range map[*string]*string{
		&p.Filter: args.filter,
		&p.Sort:   args.sort,
		&p.Tag:    args.tag,
		&p.Search: args.search,
	} {
		if src != nil {
			*dst = *src
		}
	}

	if s.current != nil && s.current.Descriptor != d {
		if from, err := s.tree.Leaf(s.current.Descriptor); err == nil {
			from.Params.ScrollPos = s.scroll.ScrollPos()
		}
	}

	fragment := Encode(d, p)
	s.sink.SetFragment(fragment)
	return fragment, nil
}

// Resolve parses fragment, writes the parsed params into the matching leaf, points the
// branches' Active at it and makes it the current location.
//
// On failure nothing changes and the error matches [shared.ErrNoRoute].
func (s *State) Resolve(fragment string) (Location, error) {
	d, p, err := Parse(fragment)
	if err != nil {
		return Location{}, err
	}

	leaf, app, tab, err := s.tree.lookup(d)
	if err != nil {
		return Location{}, err
	}

	p.ScrollPos = leaf.Params.ScrollPos
	leaf.Params = p
	if app != nil {
		app.Active = d.Tab
	}
	if tab != nil {
		tab.Active = d.View
	}

	loc := Location{Descriptor: d, Params: p}
	s.previous = s.current
	s.current = &loc
	return loc, nil
}
