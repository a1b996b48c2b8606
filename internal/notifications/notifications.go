// Package notifications delivers user-facing timeline notifications. The
// platform's timeline service is the real sink; this module only produces
// the payloads.
package notifications

import (
	"context"

	"github.com/hashicorp/go-hclog"
)

// Notification types emitted by this module.
const (
	// TypeUnused nags a pad owner about a long-idle pad.
	TypeUnused = "collaborativeeditor.unused"
	// TypeShare tells a user a pad was shared with them.
	TypeShare = "collaborativeeditor.share"
)

// Notification is one timeline message.
type Notification struct {
	// Type is one of the Type constants.
	Type string

	// Recipients are platform user ids.
	Recipients []string

	// Locale selects the recipient-facing translation.
	Locale string

	// Params carries the template values (resource name, uri, dates).
	Params map[string]interface{}
}

// Notifier is the timeline sink. Delivery is fire and forget; an error is
// for the caller's log only.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier records notifications instead of delivering them; the default
// sink when no timeline transport is configured.
type LogNotifier struct {
	Logger hclog.Logger
}

// Notify implements Notifier.
func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	if l.Logger != nil {
		l.Logger.Info("timeline notification",
			"type", n.Type,
			"recipients", n.Recipients,
			"locale", n.Locale,
		)
	}
	return nil
}
