// Binary main package for the pelias command-line application.
package main

import (
	"os"

	"github.com/pelias/cli/internal/cli"
	"github.com/pelias/cli/pkg/req"
)

// Version reports the build-time version string injected by ldflags.
var (
	Version = "0.0.0"
)

func main() {
	cli.Version = Version
	code := cli.Run(os.Args[1:], os.Stdout, os.Stderr, cli.Deps{Download: req.DownloadContext, Stdin: os.Stdin})
	os.Exit(code)
}
