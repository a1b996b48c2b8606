// Package pads is the CRUD service for pad metadata records. It owns every
// database access for the resource itself; handlers compose it with the
// Etherpad client for the backend side.
package pads

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/OPEN-ENT-NG/collaborative-editor/internal/auth"
	"github.com/OPEN-ENT-NG/collaborative-editor/pkg/models"
)

// ErrNotFound is returned when no pad matches the given identifier.
var ErrNotFound = errors.New("pad not found")

// Visibility filters List results.
type Visibility string

const (
	// VisibilityOwner lists only pads the user owns.
	VisibilityOwner Visibility = "owner"
	// VisibilityShared lists only pads shared with the user.
	VisibilityShared Visibility = "shared"
	// VisibilityAll lists owned and shared pads.
	VisibilityAll Visibility = "all"
)

// ParseVisibility maps a request filter parameter onto a Visibility,
// defaulting to VisibilityAll for unknown values.
func ParseVisibility(s string) Visibility {
	switch Visibility(s) {
	case VisibilityOwner, VisibilityShared, VisibilityAll:
		return Visibility(s)
	default:
		return VisibilityAll
	}
}

// Service is the metadata CRUD service.
type Service struct {
	db     *gorm.DB
	logger hclog.Logger
}

// NewService returns a Service over the given database.
func NewService(db *gorm.DB, logger hclog.Logger) *Service {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Service{db: db, logger: logger}
}

// Create stores a new pad record for the owner and assigns its UUID.
func (s *Service) Create(ctx context.Context, pad *models.Pad, owner *auth.User) error {
	pad.UUID = uuid.New().String()
	pad.OwnerID = owner.ID
	pad.OwnerDisplayName = owner.DisplayName
	if err := s.db.WithContext(ctx).Create(pad).Error; err != nil {
		return fmt.Errorf("error creating pad record: %w", err)
	}
	return nil
}

// Get returns the pad with the given UUID.
func (s *Service) Get(ctx context.Context, padUUID string) (*models.Pad, error) {
	var pad models.Pad
	err := s.db.WithContext(ctx).
		Preload("Shares").
		Where("uuid = ?", padUUID).
		First(&pad).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving pad: %w", err)
	}
	return &pad, nil
}

// GetByEpName returns the pad referencing the given backend pad id.
func (s *Service) GetByEpName(ctx context.Context, epName string) (*models.Pad, error) {
	var pad models.Pad
	err := s.db.WithContext(ctx).
		Where("ep_name = ?", epName).
		First(&pad).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving pad: %w", err)
	}
	return &pad, nil
}

// Update changes the user-editable fields of a pad.
func (s *Service) Update(ctx context.Context, padUUID string, name, description, thumbnail string) (*models.Pad, error) {
	pad, err := s.Get(ctx, padUUID)
	if err != nil {
		return nil, err
	}
	pad.Name = name
	pad.Description = description
	pad.Thumbnail = thumbnail
	if err := s.db.WithContext(ctx).Save(pad).Error; err != nil {
		return nil, fmt.Errorf("error updating pad: %w", err)
	}
	return pad, nil
}

// Delete removes a pad record and its shares.
func (s *Service) Delete(ctx context.Context, padUUID string) error {
	pad, err := s.Get(ctx, padUUID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).
		Where("pad_id = ?", pad.ID).
		Delete(&models.PadShare{}).Error; err != nil {
		return fmt.Errorf("error deleting pad shares: %w", err)
	}
	if err := s.db.WithContext(ctx).Delete(pad).Error; err != nil {
		return fmt.Errorf("error deleting pad: %w", err)
	}
	return nil
}

// ReplaceShares swaps the full share list of a pad in one transaction.
func (s *Service) ReplaceShares(ctx context.Context, pad *models.Pad, shares []models.PadShare) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pad_id = ?", pad.ID).
			Delete(&models.PadShare{}).Error; err != nil {
			return err
		}
		if len(shares) == 0 {
			return nil
		}
		return tx.Create(&shares).Error
	})
	if err != nil {
		return fmt.Errorf("error replacing pad shares: %w", err)
	}
	pad.Shares = shares
	return nil
}

// RemoveShare drops every share of a pad held by one subject.
func (s *Service) RemoveShare(ctx context.Context, pad *models.Pad, subjectID string) error {
	err := s.db.WithContext(ctx).
		Where("pad_id = ? AND subject_id = ?", pad.ID, subjectID).
		Delete(&models.PadShare{}).Error
	if err != nil {
		return fmt.Errorf("error removing pad share: %w", err)
	}
	return nil
}

// List returns the pads visible to a user under the given filter, most
// recently modified first.
func (s *Service) List(ctx context.Context, user *auth.User, visibility Visibility) ([]models.Pad, error) {
	subjects := append([]string{user.ID}, user.Groups...)
	sharedIDs := s.db.Model(&models.PadShare{}).
		Select("pad_id").
		Where("subject_id IN ?", subjects)

	q := s.db.WithContext(ctx).Model(&models.Pad{})
	switch visibility {
	case VisibilityOwner:
		q = q.Where("owner_id = ?", user.ID)
	case VisibilityShared:
		q = q.Where("id IN (?)", sharedIDs)
	default:
		q = q.Where("owner_id = ?", user.ID).Or("id IN (?)", sharedIDs)
	}

	var result []models.Pad
	if err := q.Order("updated_at DESC").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("error listing pads: %w", err)
	}
	return result, nil
}

// Search returns the visible pads whose name or description matches every
// search word, for the platform's search integration.
func (s *Service) Search(ctx context.Context, user *auth.User, words []string, page, limit int) ([]models.Pad, error) {
	if limit <= 0 {
		limit = 20
	}
	if page < 0 {
		page = 0
	}

	subjects := append([]string{user.ID}, user.Groups...)
	sharedIDs := s.db.Model(&models.PadShare{}).
		Select("pad_id").
		Where("subject_id IN ?", subjects)

	q := s.db.WithContext(ctx).Model(&models.Pad{}).
		Where(s.db.Where("owner_id = ?", user.ID).Or("id IN (?)", sharedIDs))
	for _, word := range words {
		pattern := "%" + word + "%"
		q = q.Where(
			s.db.Where("name LIKE ?", pattern).Or("description LIKE ?", pattern))
	}

	var result []models.Pad
	err := q.Order("updated_at DESC").
		Offset(page * limit).
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("error searching pads: %w", err)
	}
	return result, nil
}

// All returns every pad record; the inactivity job scans them.
func (s *Service) All(ctx context.Context) ([]models.Pad, error) {
	var result []models.Pad
	if err := s.db.WithContext(ctx).Find(&result).Error; err != nil {
		return nil, fmt.Errorf("error listing pads: %w", err)
	}
	return result, nil
}

// SetNotificationCountdown stores the inactivity-nag throttle counter.
func (s *Service) SetNotificationCountdown(ctx context.Context, padUUID string, days int) error {
	err := s.db.WithContext(ctx).Model(&models.Pad{}).
		Where("uuid = ?", padUUID).
		UpdateColumn("days_before_notification", days).Error
	if err != nil {
		return fmt.Errorf("error updating notification countdown: %w", err)
	}
	return nil
}
