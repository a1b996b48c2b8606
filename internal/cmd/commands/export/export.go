// Package export implements the `export` CLI command: write one user's pads
// (metadata and text) into an archive directory, for the platform's
// personal-data export.
package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/OPEN-ENT-NG/collaborative-editor/internal/auth"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/cmd/base"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/config"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/export"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/pads"
	"github.com/OPEN-ENT-NG/collaborative-editor/pkg/database"
	"github.com/OPEN-ENT-NG/collaborative-editor/pkg/etherpad"
)

type Command struct {
	*base.Command

	flagConfig string
	flagUser   string
	flagGroups string
	flagDir    string
}

func (c *Command) Synopsis() string {
	return "Export a user's pads to an archive directory"
}

func (c *Command) Help() string {
	return `Usage: collaborative-editor export -config=<path> -user=<id> -dir=<path>

  Writes the metadata record and the pad text of every pad visible to the
  user into the given directory.

` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet("export")
	f.StringVar(&c.flagConfig, "config", "config.hcl",
		"Path to the HCL configuration file")
	f.StringVar(&c.flagUser, "user", "",
		"Platform id of the user to export")
	f.StringVar(&c.flagGroups, "groups", "",
		"Comma-separated group ids of the user (for shared pads)")
	f.StringVar(&c.flagDir, "dir", "",
		"Directory the archive is written into")
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if c.flagUser == "" || c.flagDir == "" {
		c.UI.Error("both -user and -dir are required")
		return 1
	}

	cfg, err := config.NewConfig(c.flagConfig)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error loading configuration: %v", err))
		return 1
	}

	db, err := database.Connect(database.Config{
		Driver:   cfg.Database.Driver,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
		Path:     cfg.Database.Path,
	}, c.Log)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error connecting to database: %v", err))
		return 1
	}

	targets, err := cfg.Etherpad.Targets()
	if err != nil {
		c.UI.Error(fmt.Sprintf("error building etherpad targets: %v", err))
		return 1
	}
	registry, err := etherpad.NewRegistry(targets, c.Log)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error building etherpad clients: %v", err))
		return 1
	}

	user := &auth.User{ID: c.flagUser}
	if c.flagGroups != "" {
		user.Groups = strings.Split(c.flagGroups, ",")
	}

	exporter := export.NewExporter(
		pads.NewService(db, c.Log.Named("pads")), registry,
		c.Log.Named("export"))
	if err := exporter.ExportUserPads(context.Background(), user, c.flagDir); err != nil {
		c.UI.Warn(fmt.Sprintf("archive incomplete: %v", err))
		return 1
	}

	c.UI.Info(fmt.Sprintf("exported pads of user %s to %s", c.flagUser, c.flagDir))
	return 0
}
