// Package models defines persisted entities and the DTOs decoded from myMPD responses.
//
// Persistent entities embed a shared record with ID, sequence, timestamps and soft delete:
//   - [ScreenState] : last visited parameters of a leaf screen
//   - [Notification] : an entry of the notification history
//
// DTOs are plain structs with JSON tags matching myMPD field names:
//   - [PlayerState] : playback state, position and volume
//   - [ListResult] : paged list results
//   - [Notice] : push notification payloads
//
// The [Repository] interface defines standard CRUD operations for database access.
package models
