// Package base holds what every CLI command shares: the UI, the logger and a
// flag.FlagSet wrapper whose usage text renders uniformly.
package base

import (
	"bytes"
	"flag"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Command is embedded by every CLI command.
type Command struct {
	// Log is the command's logger.
	Log hclog.Logger

	// UI is the terminal the command talks to.
	UI cli.Ui
}

// NewCommand returns a base command.
func NewCommand(log hclog.Logger, ui cli.Ui) *Command {
	return &Command{Log: log, UI: ui}
}

// FlagSet wraps flag.FlagSet so commands can append its usage to their help
// text.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet returns a FlagSet for a command.
func NewFlagSet(name string) *FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	// Help text is rendered by the command, not by flag's own error path.
	fs.Usage = func() {}
	return &FlagSet{FlagSet: fs}
}

// Help returns the rendered flag defaults.
func (f *FlagSet) Help() string {
	var buf bytes.Buffer
	f.SetOutput(&buf)
	f.PrintDefaults()
	return buf.String()
}
