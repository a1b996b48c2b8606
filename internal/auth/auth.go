// Package auth carries the request user identity and the authorization
// oracle deciding whether a user may act on a pad. The generic sharing
// engine of the platform maintains the share rows; this package only reads
// them.
package auth

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/OPEN-ENT-NG/collaborative-editor/pkg/models"
)

// User is the authenticated platform user attached to a request.
type User struct {
	ID          string
	Login       string
	DisplayName string

	// Groups are the platform group ids the user belongs to; group shares
	// match against them.
	Groups []string
}

type contextKey int

const userKey contextKey = 0

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// FromContext returns the authenticated user of a request, if any.
func FromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userKey).(*User)
	return u, ok && u != nil
}

// Authorizer answers "may user perform action on the pad with this UUID".
// It is a pure oracle: callers translate a negative answer into their own
// error surface.
type Authorizer interface {
	Can(ctx context.Context, user *User, action, padUUID string) (bool, error)
}

// DBAuthorizer decides from the owner column and the share rows: the owner
// may do anything, a shared subject what its strongest share action covers.
type DBAuthorizer struct {
	db *gorm.DB
}

// NewDBAuthorizer returns an Authorizer reading the metadata database.
func NewDBAuthorizer(db *gorm.DB) *DBAuthorizer {
	return &DBAuthorizer{db: db}
}

// Can implements Authorizer.
func (a *DBAuthorizer) Can(ctx context.Context, user *User, action, padUUID string) (bool, error) {
	if user == nil {
		return false, nil
	}

	var pad models.Pad
	err := a.db.WithContext(ctx).
		Preload("Shares").
		Where("uuid = ?", padUUID).
		First(&pad).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if pad.OwnerID == user.ID {
		return true, nil
	}

	groups := make(map[string]bool, len(user.Groups))
	for _, g := range user.Groups {
		groups[g] = true
	}
	for i := range pad.Shares {
		share := &pad.Shares[i]
		subjectMatches := (share.SubjectType == "user" && share.SubjectID == user.ID) ||
			(share.SubjectType == "group" && groups[share.SubjectID])
		if subjectMatches && share.Allows(action) {
			return true, nil
		}
	}
	return false, nil
}
