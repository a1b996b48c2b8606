package main

import (
	"os"

	"github.com/OPEN-ENT-NG/collaborative-editor/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
