// Package export renders a user's pads into the platform's personal-data
// archive: one JSON metadata document and one text file per pad, written
// into the archive directory the platform hands over.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/OPEN-ENT-NG/collaborative-editor/internal/auth"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/pads"
	"github.com/OPEN-ENT-NG/collaborative-editor/pkg/etherpad"
	"github.com/OPEN-ENT-NG/collaborative-editor/pkg/models"
)

// padDocument is the archived metadata shape for one pad.
type padDocument struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"ownerId"`
	OwnerName   string    `json:"ownerName,omitempty"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
}

// Exporter writes a user's pads to an archive directory.
type Exporter struct {
	pads     *pads.Service
	registry *etherpad.Registry
	logger   hclog.Logger
}

// NewExporter returns an Exporter over the metadata store and the backend
// registry.
func NewExporter(padsSvc *pads.Service, registry *etherpad.Registry, logger hclog.Logger) *Exporter {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Exporter{pads: padsSvc, registry: registry, logger: logger}
}

// ExportUserPads writes every pad visible to the user into dir: the metadata
// record as <uuid>.json and, when the backend can still serve it, the pad
// text as <uuid>.txt. A pad whose text cannot be fetched is still archived
// with its metadata; the failures are aggregated into the returned error so
// the platform can flag the archive as incomplete.
func (e *Exporter) ExportUserPads(ctx context.Context, user *auth.User, dir string) error {
	found, err := e.pads.List(ctx, user, pads.VisibilityAll)
	if err != nil {
		return fmt.Errorf("error listing pads to export: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating export directory: %w", err)
	}

	client := e.registry.FirstClient()
	var result *multierror.Error
	failures := 0
	for i := range found {
		pad := &found[i]
		if err := e.exportPad(ctx, client, pad, dir); err != nil {
			result = multierror.Append(result, err)
			failures++
		}
	}

	e.logger.Info("exported user pads",
		"user", user.ID, "pads", len(found), "dir", dir,
		"failures", failures)
	return result.ErrorOrNil()
}

func (e *Exporter) exportPad(ctx context.Context, client *etherpad.Client, pad *models.Pad, dir string) error {
	doc := padDocument{
		ID:          pad.UUID,
		Name:        pad.Name,
		Description: pad.Description,
		OwnerID:     pad.OwnerID,
		OwnerName:   pad.OwnerDisplayName,
		Created:     pad.CreatedAt,
		Modified:    pad.UpdatedAt,
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("pad %s: error encoding metadata: %w", pad.UUID, err)
	}
	if err := os.WriteFile(filepath.Join(dir, pad.UUID+".json"), raw, 0o644); err != nil {
		return fmt.Errorf("pad %s: error writing metadata: %w", pad.UUID, err)
	}

	res := client.GetText(ctx, pad.EpName)
	if !res.OK() {
		e.logger.Warn("error fetching pad text for export",
			"pad", pad.EpName, "message", res.Message())
		return fmt.Errorf("pad %s: %s", pad.UUID, res.Message())
	}
	text := []byte(res.GetString("text"))
	if err := os.WriteFile(filepath.Join(dir, pad.UUID+".txt"), text, 0o644); err != nil {
		return fmt.Errorf("pad %s: error writing text: %w", pad.UUID, err)
	}
	return nil
}
