// Package inactivity runs the recurring job that reminds owners about pads
// nobody has edited for a long time.
package inactivity

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/OPEN-ENT-NG/collaborative-editor/internal/notifications"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/pads"
	"github.com/OPEN-ENT-NG/collaborative-editor/pkg/etherpad"
	"github.com/OPEN-ENT-NG/collaborative-editor/pkg/models"
)

const (
	// DefaultDaysWithoutActivity is the idle threshold before the owner is
	// first notified.
	DefaultDaysWithoutActivity = 90

	// DefaultRecurringNotificationDays is how many job runs are skipped
	// between two reminders for the same pad.
	DefaultRecurringNotificationDays = 15

	// DefaultInterval is the pause between two scans.
	DefaultInterval = 24 * time.Hour
)

// Config holds the tunables of the job.
type Config struct {
	// DaysWithoutActivity is the idle threshold in days.
	DaysWithoutActivity int

	// RecurringNotificationDays throttles repeat reminders.
	RecurringNotificationDays int

	// Interval is the pause between scans.
	Interval time.Duration
}

// Job scans every pad record, asks the backend for its last edit date, and
// notifies the owner of pads idle beyond the threshold. A countdown column
// on the record keeps reminders from repeating on every run.
type Job struct {
	pads     *pads.Service
	registry *etherpad.Registry
	notifier notifications.Notifier
	logger   hclog.Logger

	daysWithoutActivity       int
	recurringNotificationDays int
	interval                  time.Duration

	// now is swapped in tests.
	now func() time.Time
}

// NewJob builds the job, applying defaults for zero config values.
func NewJob(
	padsSvc *pads.Service,
	registry *etherpad.Registry,
	notifier notifications.Notifier,
	cfg Config,
	logger hclog.Logger,
) *Job {
	if cfg.DaysWithoutActivity <= 0 {
		cfg.DaysWithoutActivity = DefaultDaysWithoutActivity
	}
	if cfg.RecurringNotificationDays <= 0 {
		cfg.RecurringNotificationDays = DefaultRecurringNotificationDays
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Job{
		pads:                      padsSvc,
		registry:                  registry,
		notifier:                  notifier,
		logger:                    logger,
		daysWithoutActivity:       cfg.DaysWithoutActivity,
		recurringNotificationDays: cfg.RecurringNotificationDays,
		interval:                  cfg.Interval,
		now:                       time.Now,
	}
}

// Run scans immediately, then on every tick, until the context is canceled.
func (j *Job) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	if err := j.RunOnce(ctx); err != nil {
		j.logger.Error("inactivity scan failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("inactivity job stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil {
				j.logger.Error("inactivity scan failed", "error", err)
			}
		}
	}
}

// RunOnce executes a single scan over every pad record.
func (j *Job) RunOnce(ctx context.Context) error {
	all, err := j.pads.All(ctx)
	if err != nil {
		return err
	}
	j.logger.Info("starting inactivity scan", "pads", len(all))

	client := j.registry.FirstClient()
	idleBefore := j.now().AddDate(0, 0, -j.daysWithoutActivity)

	notified := 0
	for i := range all {
		pad := &all[i]
		if j.checkPad(ctx, client, pad, idleBefore) {
			notified++
		}
	}

	j.logger.Info("inactivity scan done", "pads", len(all), "notified", notified)
	return nil
}

// checkPad handles one record and reports whether the owner was notified.
func (j *Job) checkPad(ctx context.Context, client *etherpad.Client, pad *models.Pad, idleBefore time.Time) bool {
	lastEdited := j.lastEdited(ctx, client, pad)
	if lastEdited.After(idleBefore) {
		// Active again: rearm the reminder.
		if pad.DaysBeforeNotification != 0 {
			j.setCountdown(ctx, pad, 0)
		}
		return false
	}

	if pad.DaysBeforeNotification > 0 {
		j.setCountdown(ctx, pad, pad.DaysBeforeNotification-1)
		return false
	}

	locale := pad.Locale
	if locale == "" {
		locale = "fr"
	}
	err := j.notifier.Notify(ctx, notifications.Notification{
		Type:       notifications.TypeUnused,
		Recipients: []string{pad.OwnerID},
		Locale:     locale,
		Params: map[string]interface{}{
			"resourceName": pad.Name,
			"resourceUri":  "/collaborativeeditor#/view/" + pad.UUID,
			"lastEdited":   lastEdited.Format("2006-01-02"),
		},
	})
	if err != nil {
		j.logger.Error("error notifying pad owner",
			"pad", pad.UUID, "owner", pad.OwnerID, "error", err)
		return false
	}
	j.setCountdown(ctx, pad, j.recurringNotificationDays)
	return true
}

// lastEdited asks the backend for the pad's last edit; when the backend
// cannot answer it falls back to the record's own modification date.
func (j *Job) lastEdited(ctx context.Context, client *etherpad.Client, pad *models.Pad) time.Time {
	if client != nil {
		result := client.GetLastEdited(ctx, pad.EpName)
		if result.OK() {
			if millis, ok := result.GetInt64("lastEdited"); ok {
				return time.UnixMilli(millis)
			}
		} else {
			j.logger.Warn("error fetching last edit date from backend",
				"pad", pad.EpName, "error", result.Message())
		}
	}
	return pad.LastModified()
}

func (j *Job) setCountdown(ctx context.Context, pad *models.Pad, days int) {
	if err := j.pads.SetNotificationCountdown(ctx, pad.UUID, days); err != nil {
		j.logger.Error("error updating notification countdown",
			"pad", pad.UUID, "error", err)
	}
}
