package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/OPEN-ENT-NG/collaborative-editor/internal/cmd/base"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/cmd/commands/export"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/cmd/commands/server"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/cmd/commands/version"
)

// Commands maps subcommand names to their factories.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	Commands = map[string]cli.CommandFactory{
		"export": func() (cli.Command, error) {
			return &export.Command{
				Command: base.NewCommand(log.Named("export"), ui),
			}, nil
		},
		"server": func() (cli.Command, error) {
			return &server.Command{
				Command: base.NewCommand(log.Named("server"), ui),
			}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{
				Command: base.NewCommand(log, ui),
			}, nil
		},
	}
}
