// Package app wires navigation, the request dispatcher and the push stream into a client.
//
// The [Application] runs entirely on a [loop.Scheduler]. Navigation writes a fragment, the
// route is posted back to the loop, and [Application.Route] shows the screen and fetches its
// data through a [FetchTable]. Push notifications refresh the current screen when they
// concern it.
//
// Startup connects the websocket, fetches the settings once the socket opens, and only then
// routes the pending fragment. Later reconnects just re-enable the controls.
package app
