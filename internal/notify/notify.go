// Package notify keeps the notification log shown to the user.
//
// [Log] implements services.Notifier. Repeated notifications with the same title fold into the
// most recent entry, and only the newest [MaxEntries] entries are kept.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mpdx/internal/models"
	"github.com/desertthunder/mpdx/internal/pubsub"
	"github.com/desertthunder/mpdx/internal/services"
	"github.com/desertthunder/mpdx/internal/shared"
)

// MaxEntries is the size of the in-memory log.
const MaxEntries = 10

// Entry is one notification.
type Entry struct {
	Title      string
	Text       string
	HTML       string
	Severity   services.Severity
	Occurrence int
	Time       time.Time
}

// Store persists entries.
type Store interface {
	Create(n *models.Notification) error
	Update(n *models.Notification) error
}

// Log records notifications.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	last    *models.Notification

	store  Store
	broker *pubsub.Broker[Entry]
	logger *log.Logger
	now    func() time.Time
}

// New creates a [Log]. store may be nil.
func New(logger *log.Logger, store Store) *Log {
	if logger == nil {
		logger = log.Default()
	}
	logger = shared.WithLogger(logger, "component", "notify")
	return &Log{
		store:  store,
		broker: pubsub.NewBroker[Entry](logger),
		logger: logger,
		now:    time.Now,
	}
}

// Notify implements services.Notifier.
func (l *Log) Notify(title, text, html string, sev services.Severity) {
	l.mu.Lock()
	now := l.now()

	var entry Entry
	folded := false
	if n := len(l.entries); n > 0 && l.entries[n-1].Title == title {
		l.entries[n-1].Occurrence++
		l.entries[n-1].Time = now
		l.entries[n-1].Text = text
		l.entries[n-1].Severity = sev
		entry = l.entries[n-1]
		folded = true
	} else {
		entry = Entry{Title: title, Text: text, HTML: html, Severity: sev, Occurrence: 1, Time: now}
		l.entries = append(l.entries, entry)
		if len(l.entries) > MaxEntries {
			l.entries = append([]Entry(nil), l.entries[len(l.entries)-MaxEntries:]...)
		}
	}
	l.persist(entry, folded)
	l.mu.Unlock()

	l.write(entry)
	if folded {
		l.broker.Publish(pubsub.UpdatedEvent, entry)
	} else {
		l.broker.Publish(pubsub.CreatedEvent, entry)
	}
}

// persist must be called with mu held.
func (l *Log) persist(e Entry, folded bool) {
	if l.store == nil {
		return
	}

	if folded && l.last != nil {
		l.last.SetOccurrence(e.Occurrence)
		if err := l.store.Update(l.last); err != nil {
			l.logger.Warn("failed to update notification", "error", err)
		}
		return
	}

	n := models.NewNotification(0, e.Title, e.Text, e.Severity.String())
	if err := l.store.Create(n); err != nil {
		l.logger.Warn("failed to store notification", "error", err)
		l.last = nil
		return
	}
	l.last = n
}

func (l *Log) write(e Entry) {
	kv := []any{"severity", e.Severity.String()}
	if e.Text != "" {
		kv = append(kv, "text", e.Text)
	}
	if e.Occurrence > 1 {
		kv = append(kv, "occurrence", e.Occurrence)
	}

	switch e.Severity {
	case services.SeverityDanger:
		l.logger.Error(e.Title, kv...)
	case services.SeverityWarn:
		l.logger.Warn(e.Title, kv...)
	default:
		l.logger.Info(e.Title, kv...)
	}
}

// Entries returns the log, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

// Latest returns the most recent entry.
func (l *Log) Latest() (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// Clear empties the in-memory log.
func (l *Log) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.last = nil
	l.mu.Unlock()
}

// Subscribe streams new and folded entries until ctx ends.
func (l *Log) Subscribe(ctx context.Context) <-chan pubsub.Event[Entry] {
	return l.broker.Subscribe(ctx)
}
