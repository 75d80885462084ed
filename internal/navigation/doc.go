// Package navigation implements the screen router: a fixed tree of screens, the parameters
// each screen remembers, and the URL fragment that addresses them.
//
// # Screen Tree
//
// A [Tree] is an ordered set of apps. Each app is either a [Leaf] or a [Branch] of tabs, and
// each tab is either a [Leaf] or a [Branch] of views. Views are always leaves. The variant
// answers whether an app has tabs, so callers never probe for missing fields.
//
// Every leaf owns one [Params] value for the lifetime of the process. It is overwritten each
// time navigation lands on that leaf, so the tree always reflects the last visited parameters
// of every screen, not only the active one. A [Branch] remembers its last visited child in
// Active, which is used when a parent is addressed without naming a child.
//
// # Fragments
//
// Locations serialize to
//
//	#/<app>/<tab>/<view>!<page>/<filter>/<sort>/<tag>/<search>
//
// with every segment percent-encoded on its own. Tab and view segments are omitted when the
// tree says the app or tab has none. [Parse] is strict: a missing separator, a wrong
// parameter count or a non-numeric page fails the whole parse.
//
// # State
//
// [State] keeps exactly one current [Location] plus the previous one, used to detect screen
// changes. [State.Goto] only writes a fragment, it never fetches data. [State.Resolve] is the
// inverse and is what the route handler calls when the fragment changes.
package navigation
