// Package server is a development stand-in for a myMPD server.
//
// # Router Infrastructure
//
// [BasicRouter] wraps [http.ServeMux] with a [Middleware] stack. The first middleware added
// runs outermost. [Logging] and [Recover] are the two the mock uses.
//
// # Handlers
//
// [APIHandler] serves the JSON-RPC endpoint at /api and /api/<partition>. Methods are
// registered as functions. Unknown methods answer with an error envelope, and methods marked
// with [APIHandler.Protect] answer 401 without a session once a pin is set.
//
// [SocketHandler] serves the push channel at /ws/<partition>. It greets each client with a
// welcome notification and answers the client keepalive.
//
// # Mock
//
// [Mock] combines both handlers with a small song library and a player that can be started,
// paused and ticked. State changes are pushed to every connected client.
package server
