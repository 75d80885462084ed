// Package loop serializes client state changes onto a single goroutine.
//
// The navigation tree, the current location and the push connection state are owned by one
// goroutine. Network completions, socket frames, timers and UI input never touch that state
// directly: they [Scheduler.Post] a callback and the loop runs callbacks one at a time in the
// order they were posted. This keeps ordering between callbacks significant without locks.
//
// Two implementations exist:
//   - [Loop] : the production loop, driven by [Loop.Run]
//   - [Manual] : a deterministic scheduler with a virtual clock, used by tests
package loop
