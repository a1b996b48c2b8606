package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/OPEN-ENT-NG/collaborative-editor/internal/version"
)

// Main runs the CLI with the given arguments and returns the exit code.
// With no subcommand it starts the HTTP server.
func Main(args []string) int {
	name := filepath.Base(args[0])

	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}
	initCommands(hclog.New(&hclog.LoggerOptions{Name: name}), ui)

	subArgs := args[1:]
	if len(subArgs) == 0 {
		subArgs = []string{"server"}
	}

	c := &cli.CLI{
		Name:     name,
		Args:     subArgs,
		Version:  version.Version,
		Commands: Commands,
	}

	code, err := c.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		return 1
	}
	return code
}
