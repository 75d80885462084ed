package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/mpdx/internal/models"
	"github.com/desertthunder/mpdx/internal/shared"
)

const notificationColumns = `id, sequence, title, text, severity, occurrence, created_at, updated_at, deleted_at`

// NotificationRepository implements [models.Repository] for [models.Notification] persistence.
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new [NotificationRepository] with the given database connection
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification with generated ID and sequence
func (r *NotificationRepository) Create(n *models.Notification) error {
	if err := n.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "notifications")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	n.SetID(shared.GenerateID())
	n.SetSequence(sequence)

	query := `
		INSERT INTO notifications (id, sequence, title, text, severity, occurrence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, n.ID(), sequence, n.Title(), n.Text(), n.Severity(), n.Occurrence(), n.CreatedAt(), n.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// Get retrieves a notification by ID, excluding soft-deleted rows
func (r *NotificationRepository) Get(id string) (*models.Notification, error) {
	row := r.db.QueryRow(`SELECT `+notificationColumns+` FROM notifications WHERE id = ? AND deleted_at IS NULL`, id)
	n, err := scanNotification(row)
	if err != nil {
		return nil, notFound(err, "notifications", id)
	}
	return n, nil
}

// Update stores a changed occurrence count
func (r *NotificationRepository) Update(n *models.Notification) error {
	if err := n.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	n.SetUpdatedAt(now)

	result, err := r.db.Exec(
		`UPDATE notifications SET occurrence = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		n.Occurrence(), now, n.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	return expectRow(result, "notifications", n.ID())
}

// Delete soft-deletes a notification by ID
func (r *NotificationRepository) Delete(id string) error {
	return softDelete(r.db, "notifications", id)
}

// List retrieves live notifications, newest first.
//
// Supported criteria: "severity" (string) and "limit" (int).
func (r *NotificationRepository) List(criteria map[string]any) ([]*models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE deleted_at IS NULL`
	args := []any{}

	if sev, ok := criteria["severity"].(string); ok && sev != "" {
		query += " AND severity = ?"
		args = append(args, sev)
	}
	query += " ORDER BY sequence DESC"
	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

// Clear soft-deletes every notification and returns how many were removed.
func (r *NotificationRepository) Clear() (int64, error) {
	result, err := r.db.Exec(`UPDATE notifications SET deleted_at = ? WHERE deleted_at IS NULL`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to clear notifications: %w", err)
	}
	return result.RowsAffected()
}

func scanNotification(s scanner) (*models.Notification, error) {
	var (
		id, title, text, severity string
		sequence, occurrence      int
		createdAt, updatedAt      time.Time
		deletedAt                 sql.NullTime
	)

	err := s.Scan(&id, &sequence, &title, &text, &severity, &occurrence, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	n := models.NewNotification(sequence, title, text, severity)
	n.SetID(id)
	n.SetOccurrence(occurrence)
	n.SetCreatedAt(createdAt)
	n.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		n.SetDeletedAt(&deletedAt.Time)
	}
	return n, nil
}
