// Package services implements the request side of the myMPD client: an HTTP [Transport],
// the JSON-RPC envelope, the PIN [Session] and the [Dispatcher].
//
// # Request Flow
//
// [Dispatcher.Call] posts {"jsonrpc":"2.0","id":0,"method":...,"params":...} to /api, or
// /api/<partition> when a partition is configured. The response is classified with [Classify]
// in this order:
//   - error envelope: notified, callback only when the caller reports errors
//   - result with a message other than "ok": notified unless ignored, callback runs
//   - result with message "ok" or with a method: callback runs
//   - anything else: logged, callback only when the caller reports errors
//
// An empty body, a transport failure or a non-2xx status is [OutcomeNoData]. A body that is
// not JSON is reported once and never reaches the callback.
//
// Call completes on the [loop.Scheduler] given to the dispatcher, so callbacks observe the
// same single-threaded state as the rest of the client. [Dispatcher.CallSync] blocks instead
// and is meant for the CLI.
//
// # Sessions
//
// myMPD protects some methods with a PIN. [Session.Login] trades the PIN for a session token,
// and [Session.RoundTripper] attaches it as a bearer header through [oauth2.Transport].
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrAPIRequest] : transport failure, non-2xx status or error envelope
//   - [shared.ErrEmptyResponse] : empty body
//   - [shared.ErrProtocol] : body is not JSON
//   - [shared.ErrNotAuthenticated] : server answered 401 or the session was rejected
//   - [shared.ErrAuthFailed] : PIN login failed
package services
