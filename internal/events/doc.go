// Package events maintains the myMPD websocket push channel.
//
// A [Stream] moves between [Disconnected], [Connecting] and [Connected]. Connect is a no-op
// while connected, counts against a bounded retry budget while a dial is outstanding, and
// otherwise dials. After an unexpected close exactly one reconnect is scheduled. [Stream.Close]
// detaches the connection so no reconnect follows.
//
// Frames are routed by [Kind] through a handler table fixed at construction. Frames carrying a
// JSON-RPC error or result are shown through the notifier the same way responses on the
// request channel are.
package events
