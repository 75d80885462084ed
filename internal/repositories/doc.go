// Package repositories implements SQLite persistence for the client's local state.
//
// Each repository handles CRUD operations with atomic sequence generation for stable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [ScreenStateRepository] : last visited parameters per leaf screen, keyed by screen ID
//   - [NotificationRepository] : notification history shown by the notifications command
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
