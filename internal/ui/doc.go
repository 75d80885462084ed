// Package ui implements the interactive terminal client with bubbletea's Elm architecture.
//
// [Bridge] is the application's View: every call becomes a [Msg] sent into the program, so
// the event loop never touches model state. The [Model] renders the app and tab bar, the
// current fragment, the result list of the shown screen, a connection banner, the player
// line and the latest notifications.
//
// Key presses turn into navigation. Number keys pick an app, tab cycles tabs, n and p page,
// and / edits the search parameter. All of them run on the event loop through post.
package ui
