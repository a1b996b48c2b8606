// Package search adapts pad records to the platform's searching events: the
// shared search facade fans a query out to every application and renders the
// column-shaped rows each one returns.
package search

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"github.com/OPEN-ENT-NG/collaborative-editor/internal/auth"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/pads"
	"github.com/OPEN-ENT-NG/collaborative-editor/pkg/models"
)

// AppFilter is the filter value under which this module answers search
// events; requests not naming it get an empty result.
const AppFilter = "collaborativeeditor"

// Request is one platform search event.
type Request struct {
	// AppFilters names the applications the user searches in.
	AppFilters []string

	// Words are the search terms, all of which must match.
	Words []string

	Page  int
	Limit int

	// Columns is the header shape the platform expects rows in, in order:
	// name, description, modification date, owner display name, owner id,
	// resource URI.
	Columns []string
}

// Events answers search events over the pad metadata store.
type Events struct {
	pads   *pads.Service
	logger hclog.Logger
}

// NewEvents returns a search-events adapter over the CRUD service.
func NewEvents(service *pads.Service, logger hclog.Logger) *Events {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Events{pads: service, logger: logger}
}

// SearchResource returns the matching pads as column-keyed rows. A request
// not targeting this application yields an empty result, not an error.
func (e *Events) SearchResource(ctx context.Context, user *auth.User, req Request) ([]map[string]interface{}, error) {
	if !containsApp(req.AppFilters) {
		return []map[string]interface{}{}, nil
	}

	found, err := e.pads.Search(ctx, user, req.Words, req.Page, req.Limit)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("search event answered", "matches", len(found))
	return formatRows(found, req.Columns), nil
}

func containsApp(filters []string) bool {
	for _, f := range filters {
		if f == AppFilter {
			return true
		}
	}
	return false
}

// formatRows shapes pads into the platform's column-keyed payload.
func formatRows(found []models.Pad, columns []string) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(found))
	if len(columns) < 6 {
		return rows
	}
	for i := range found {
		pad := &found[i]
		rows = append(rows, map[string]interface{}{
			columns[0]: pad.Name,
			columns[1]: pad.Description,
			columns[2]: pad.LastModified(),
			columns[3]: pad.OwnerDisplayName,
			columns[4]: pad.OwnerID,
			columns[5]: "/collaborativeeditor#/view/" + pad.UUID,
		})
	}
	return rows
}
