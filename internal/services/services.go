package services

import (
	"context"
	"strings"
)

// Severity ranks a user notification.
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarn
	SeverityDanger
)

func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityWarn:
		return "warn"
	case SeverityDanger:
		return "danger"
	default:
		return "info"
	}
}

// ParseSeverity maps a myMPD severity name to a [Severity], returning fallback for empty or
// unknown names.
func ParseSeverity(name string, fallback Severity) Severity {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "emerg", "alert", "crit", "error", "danger":
		return SeverityDanger
	case "warn", "warning":
		return SeverityWarn
	case "notice", "info":
		return SeverityInfo
	case "success", "ok":
		return SeveritySuccess
	default:
		return fallback
	}
}

// Notifier shows a message to the user.
type Notifier interface {
	Notify(title, text, html string, sev Severity)
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(title, text, html string, sev Severity)

func (f NotifierFunc) Notify(title, text, html string, sev Severity) { f(title, text, html, sev) }

type discardNotifier struct{}

func (discardNotifier) Notify(string, string, string, Severity) {}

// Caller issues requests whose completion is delivered on the event loop.
type Caller interface {
	Call(ctx context.Context, method string, params any, onResult func(Reply), reportErrors bool)
}

// SyncCaller issues blocking requests.
type SyncCaller interface {
	CallSync(ctx context.Context, method string, params any, reportErrors bool) (Reply, error)
}

// DefaultIgnoredMessages are advisory messages that never produce a notification.
var DefaultIgnoredMessages = []string{"No current song", "No lyrics found"}

// Notice derives the user-facing notification for an error or advisory response. ok is false
// for outcomes that are never shown.
func Notice(r *Response, o Outcome, h ResultHeader) (title, facility string, sev Severity, ok bool) {
	switch o {
	case OutcomeError:
		return Phrase(r.Error.Message, r.Error.Data), r.Error.Facility, ParseSeverity(r.Error.Severity, SeverityDanger), true
	case OutcomeAdvisory:
		return Phrase(h.Message, h.Data), h.Facility, ParseSeverity(h.Severity, SeverityInfo), true
	default:
		return "", "", SeverityInfo, false
	}
}
