// Package explorer feeds the platform's content-explorer index. Deliveries
// are fire and forget: a failed notification is logged, never surfaced to
// the end user.
package explorer

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/OPEN-ENT-NG/collaborative-editor/pkg/models"
)

// Resource is the payload shape the explorer expects for one pad.
type Resource struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	OwnerID     string `json:"ownerId"`
	OwnerName   string `json:"ownerName,omitempty"`

	// Version orders events for the same resource; it is the emission
	// instant in Unix milliseconds.
	Version int64 `json:"version"`
}

// Notifier is the explorer-indexing sink.
type Notifier interface {
	// NotifyUpsert announces a created or updated resource.
	NotifyUpsert(ctx context.Context, res Resource)
	// NotifyDelete announces a deleted resource id.
	NotifyDelete(ctx context.Context, id string, version int64)
}

// ResourceFromPad builds the explorer payload for a pad, stamped now.
func ResourceFromPad(pad *models.Pad) Resource {
	return Resource{
		ID:          pad.UUID,
		Name:        pad.Name,
		Description: pad.Description,
		Thumbnail:   pad.Thumbnail,
		OwnerID:     pad.OwnerID,
		OwnerName:   pad.OwnerDisplayName,
		Version:     time.Now().UnixMilli(),
	}
}

// LogNotifier is the default sink when no explorer transport is wired: it
// records the event and drops it.
type LogNotifier struct {
	Logger hclog.Logger
}

// NotifyUpsert implements Notifier.
func (n *LogNotifier) NotifyUpsert(_ context.Context, res Resource) {
	if n.Logger != nil {
		n.Logger.Debug("explorer upsert", "id", res.ID, "version", res.Version)
	}
}

// NotifyDelete implements Notifier.
func (n *LogNotifier) NotifyDelete(_ context.Context, id string, version int64) {
	if n.Logger != nil {
		n.Logger.Debug("explorer delete", "id", id, "version", version)
	}
}
