package models

import (
	"time"

	"gorm.io/gorm"
)

// Pad is the metadata record for one collaborative editor resource. The text
// itself lives on the external Etherpad backend; this record binds the
// platform-side resource (name, owner, shares) to the backend artifacts
// (EpName pad id, EpGroupID group id).
type Pad struct {
	gorm.Model

	// UUID is the resource identifier exposed through the HTTP API.
	UUID string `gorm:"uniqueIndex;not null;size:36"`

	// Name is the user-chosen display name of the editor.
	Name string `gorm:"not null"`

	// Description is an optional free-text description.
	Description string

	// Thumbnail is an optional image URI shown by the resource explorer.
	Thumbnail string

	// EpName is the backend pad id, conventionally groupID$padName.
	EpName string `gorm:"uniqueIndex;not null"`

	// EpGroupID is the backend group scoping the pad.
	EpGroupID string `gorm:"not null"`

	// OwnerID and OwnerDisplayName identify the platform user owning the
	// resource. The Etherpad backend has no concept of this owner.
	OwnerID          string `gorm:"index;not null"`
	OwnerDisplayName string

	// Locale is the owner's locale at creation time, used when rendering
	// notifications.
	Locale string `gorm:"size:8"`

	// DaysBeforeNotification throttles the inactivity nag: zero means the
	// owner may be notified, a positive value counts down one per job run.
	DaysBeforeNotification int `gorm:"not null;default:0"`

	Shares []PadShare `gorm:"constraint:OnDelete:CASCADE"`
}

// LastModified returns the platform-side modification instant.
func (p *Pad) LastModified() time.Time {
	return p.UpdatedAt
}
