// Package version implements the `version` CLI command.
package version

import (
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/cmd/base"
	appversion "github.com/OPEN-ENT-NG/collaborative-editor/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return "Usage: collaborative-editor version"
}

func (c *Command) Run(_ []string) int {
	c.UI.Output(appversion.Version)
	return 0
}
