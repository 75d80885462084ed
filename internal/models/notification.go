package models

import (
	"fmt"

	"github.com/desertthunder/mpdx/internal/shared"
)

// Notification is a persisted entry of the notification log.
type Notification struct {
	record
	title      string
	text       string
	severity   string
	occurrence int
}

// NewNotification creates a [Notification] seen once.
func NewNotification(sequence int, title, text, severity string) *Notification {
	return &Notification{record: newRecord(sequence), title: title, text: text, severity: severity, occurrence: 1}
}

func (n *Notification) Title() string       { return n.title }
func (n *Notification) Text() string        { return n.text }
func (n *Notification) Severity() string    { return n.severity }
func (n *Notification) Occurrence() int     { return n.occurrence }
func (n *Notification) SetOccurrence(c int) { n.occurrence = c }

func (n *Notification) Validate() error {
	if n.title == "" {
		return fmt.Errorf("%w: title is required", shared.ErrInvalidInput)
	}
	switch n.severity {
	case "info", "success", "warn", "danger":
	default:
		return fmt.Errorf("%w: unknown severity %q", shared.ErrInvalidInput, n.severity)
	}
	if n.occurrence < 1 {
		return fmt.Errorf("%w: occurrence must be positive", shared.ErrInvalidInput)
	}
	return nil
}
