package navigation

import (
	"fmt"

	"github.com/desertthunder/mpdx/internal/shared"
)

// Node is a screen tree node: a [*Leaf] or a [*Branch].
type Node interface {
	node()
}

// Leaf is a screen without children. It owns the screen's [Params].
type Leaf struct {
	Params Params
}

// Branch is a screen with tab or view children.
type Branch struct {
	Active   string // last visited child
	names    []string
	children map[string]Node
}

// Child names a node for [NewBranch] and [NewTree].
type Child struct {
	Name string
	Node Node
}

func (*Leaf) node()   {}
func (*Branch) node() {}

// NewLeaf creates a [Leaf] with the given defaults.
func NewLeaf(p Params) *Leaf { return &Leaf{Params: p} }

// NewBranch creates a [Branch] whose children keep the given order.
func NewBranch(active string, children ...Child) *Branch {
	b := &Branch{Active: active, children: make(map[string]Node, len(children))}
	for _, c := range children {
		b.names = append(b.names, c.Name)
		b.children[c.Name] = c.Node
	}
	return b
}

// Child returns the named child.
func (b *Branch) Child(name string) (Node, bool) {
	n, ok := b.children[name]
	return n, ok
}

// Names returns the child names in declaration order.
func (b *Branch) Names() []string {
	return append([]string(nil), b.names...)
}

// Tree is the static screen tree. Its shape never changes after construction. Only leaf
// params and branch Active pointers are mutated.
type Tree struct {
	names []string
	apps  map[string]Node
}

// NewTree creates a [Tree] from ordered apps.
func NewTree(apps ...Child) *Tree {
	t := &Tree{apps: make(map[string]Node, len(apps))}
	for _, a := range apps {
		t.names = append(t.names, a.Name)
		t.apps[a.Name] = a.Node
	}
	return t
}

// Apps returns the app names in declaration order.
func (t *Tree) Apps() []string {
	return append([]string(nil), t.names...)
}

// App returns the named app node.
func (t *Tree) App(name string) (Node, bool) {
	n, ok := t.apps[name]
	return n, ok
}

// Validate checks the depth rule (views are leaves), that every branch has children and that
// every Active pointer names an existing child.
func (t *Tree) Validate() error {
	if len(t.names) == 0 {
		return fmt.Errorf("%w: no apps", shared.ErrInvalidTree)
	}
	for _, app := range t.names {
		if err := validateNode(app, t.apps[app], 0); err != nil {
			return err
		}
	}
	return nil
}

func validateNode(path string, n Node, depth int) error {
	switch n := n.(type) {
	case *Leaf:
		return nil
	case *Branch:
		if depth >= 2 {
			return fmt.Errorf("%w: %s is nested below view level", shared.ErrInvalidTree, path)
		}
		if len(n.names) == 0 {
			return fmt.Errorf("%w: %s has no children", shared.ErrInvalidTree, path)
		}
		if _, ok := n.children[n.Active]; !ok {
			return fmt.Errorf("%w: %s active child %q does not exist", shared.ErrInvalidTree, path, n.Active)
		}
		for _, name := range n.names {
			if err := validateNode(path+"/"+name, n.children[name], depth+1); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %s has no node", shared.ErrInvalidTree, path)
	}
}

// Leaf returns the leaf addressed exactly by d. Tab and view must be present exactly when the
// tree has them.
func (t *Tree) Leaf(d Descriptor) (*Leaf, error) {
	leaf, _, _, err := t.lookup(d)
	return leaf, err
}

// lookup returns the leaf plus the branches on its path, nil where the app or tab is a leaf.
func (t *Tree) lookup(d Descriptor) (*Leaf, *Branch, *Branch, error) {
	app, ok := t.apps[d.App]
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: unknown app %q", shared.ErrNoRoute, d.App)
	}

	switch app := app.(type) {
	case *Leaf:
		if d.Tab != "" || d.View != "" {
			return nil, nil, nil, fmt.Errorf("%w: app %q has no tabs", shared.ErrNoRoute, d.App)
		}
		return app, nil, nil, nil
	case *Branch:
		tab, ok := app.children[d.Tab]
		if !ok {
			return nil, nil, nil, fmt.Errorf("%w: app %q has no tab %q", shared.ErrNoRoute, d.App, d.Tab)
		}
		switch tab := tab.(type) {
		case *Leaf:
			if d.View != "" {
				return nil, nil, nil, fmt.Errorf("%w: tab %s/%s has no views", shared.ErrNoRoute, d.App, d.Tab)
			}
			return tab, app, nil, nil
		case *Branch:
			view, ok := tab.children[d.View]
			if !ok {
				return nil, nil, nil, fmt.Errorf("%w: tab %s/%s has no view %q", shared.ErrNoRoute, d.App, d.Tab, d.View)
			}
			leaf, ok := view.(*Leaf)
			if !ok {
				return nil, nil, nil, fmt.Errorf("%w: %s is not a leaf", shared.ErrInvalidTree, d)
			}
			return leaf, app, tab, nil
		}
	}
	return nil, nil, nil, fmt.Errorf("%w: %s", shared.ErrInvalidTree, d)
}

// Complete fills an omitted tab or view from the Active pointers. Explicit values are kept
// and checked.
func (t *Tree) Complete(d Descriptor) (Descriptor, error) {
	app, ok := t.apps[d.App]
	if !ok {
		return d, fmt.Errorf("%w: unknown app %q", shared.ErrNoRoute, d.App)
	}

	b, ok := app.(*Branch)
	if !ok {
		if d.Tab != "" || d.View != "" {
			return d, fmt.Errorf("%w: app %q has no tabs", shared.ErrNoRoute, d.App)
		}
		return d, nil
	}

	if d.Tab == "" {
		if d.View != "" {
			return d, fmt.Errorf("%w: view %q without tab", shared.ErrNoRoute, d.View)
		}
		d.Tab = b.Active
	}
	tab, ok := b.children[d.Tab]
	if !ok {
		return d, fmt.Errorf("%w: app %q has no tab %q", shared.ErrNoRoute, d.App, d.Tab)
	}

	if tb, ok := tab.(*Branch); ok && d.View == "" {
		d.View = tb.Active
	}
	return d, nil
}

// Walk calls fn for every leaf in declaration order.
func (t *Tree) Walk(fn func(Descriptor, *Leaf)) {
	for _, app := range t.names {
		switch n := t.apps[app].(type) {
		case *Leaf:
			fn(Descriptor{App: app}, n)
		case *Branch:
			for _, tab := range n.names {
				switch c := n.children[tab].(type) {
				case *Leaf:
					fn(Descriptor{App: app, Tab: tab}, c)
				case *Branch:
					for _, view := range c.names {
						if leaf, ok := c.children[view].(*Leaf); ok {
							fn(Descriptor{App: app, Tab: tab, View: view}, leaf)
						}
					}
				}
			}
		}
	}
}

// Screens returns the descriptor of every leaf in declaration order.
func (t *Tree) Screens() []Descriptor {
	var out []Descriptor
	t.Walk(func(d Descriptor, _ *Leaf) { out = append(out, d) })
	return out
}

// DefaultTree returns the myMPD screen tree with its default parameters.
func DefaultTree() *Tree {
	plain := func() *Leaf { return NewLeaf(DefaultParams(NoValue, NoValue, NoValue, "")) }
	anyFilter := func() *Leaf { return NewLeaf(DefaultParams("any", NoValue, NoValue, "")) }

	return NewTree(
		Child{"Home", plain()},
		Child{"Playback", plain()},
		Child{"Queue", NewBranch("Current",
			Child{"Current", anyFilter()},
			Child{"LastPlayed", anyFilter()},
			Child{"Jukebox", anyFilter()},
		)},
		Child{"Browse", NewBranch("Database",
			Child{"Database", NewBranch("List",
				Child{"List", NewLeaf(DefaultParams("any", "AlbumArtist", "Album", ""))},
				Child{"Detail", plain()},
			)},
			Child{"Playlists", NewBranch("List",
				Child{"List", plain()},
				Child{"Detail", plain()},
			)},
			Child{"Filesystem", plain()},
			Child{"Radio", NewBranch("Favorites",
				Child{"Favorites", plain()},
				Child{"Webradiodb", plain()},
				Child{"Radiobrowser", plain()},
			)},
		)},
		Child{"Search", anyFilter()},
	)
}
