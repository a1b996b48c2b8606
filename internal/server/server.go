package server

import (
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/OPEN-ENT-NG/collaborative-editor/internal/auth"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/config"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/explorer"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/notifications"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/pads"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/search"
	"github.com/OPEN-ENT-NG/collaborative-editor/pkg/etherpad"
)

// Server bundles the shared dependencies every HTTP handler needs.
type Server struct {
	// Registry resolves the Etherpad backend serving a request host.
	Registry *etherpad.Registry

	// Pads is the metadata CRUD service.
	Pads *pads.Service

	// Authorizer answers "may this user perform this action on this pad".
	Authorizer auth.Authorizer

	// Explorer receives fire-and-forget resource upsert/delete events.
	Explorer explorer.Notifier

	// Timeline receives user-facing notifications.
	Timeline notifications.Notifier

	// Search answers the platform's searching events.
	Search *search.Events

	// Config is the application configuration.
	Config *config.Config

	// DB is the metadata database.
	DB *gorm.DB

	// Logger is the root logger for the server.
	Logger hclog.Logger
}
