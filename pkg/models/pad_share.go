package models

import "gorm.io/gorm"

// Share actions understood by the permission oracle, from weakest to
// strongest. A stronger action implies the weaker ones.
const (
	ActionRead    = "read"
	ActionContrib = "contrib"
	ActionManager = "manager"
)

// PadShare grants one subject (a user or a group) an action on one pad. The
// set of shares plus the owner is the whole input of the authorization
// oracle; the generic sharing engine of the platform maintains these rows.
type PadShare struct {
	gorm.Model

	PadID uint `gorm:"index:idx_pad_subject;not null"`

	// SubjectID is a platform user or group identifier.
	SubjectID string `gorm:"index:idx_pad_subject;not null"`

	// SubjectType is "user" or "group".
	SubjectType string `gorm:"index:idx_pad_subject;not null;size:8"`

	// Action is one of ActionRead, ActionContrib, ActionManager.
	Action string `gorm:"not null;size:16"`
}

// actionRank orders share actions by strength.
func actionRank(action string) int {
	switch action {
	case ActionRead:
		return 1
	case ActionContrib:
		return 2
	case ActionManager:
		return 3
	default:
		return 0
	}
}

// Allows reports whether the granted action covers the requested one.
func (s *PadShare) Allows(action string) bool {
	return actionRank(s.Action) >= actionRank(action) && actionRank(action) > 0
}
