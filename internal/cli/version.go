package cli

import (
	"fmt"
	"runtime/debug"
	"strings"
)

const defaultVersion = "0.0.0"

// Version is set by the main package prior to executing the CLI.
var Version = defaultVersion

var buildInfoReader = debug.ReadBuildInfo

func (a *app) version(args []string) error {
	if err := noExtraArgs(flagVersion, args); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Version : %s\n", resolvedVersion())
	return nil
}

func resolvedVersion() string {
	if v := normalizedVersion(Version); v != "" {
		return v
	}

	if info, ok := buildInfoReader(); ok {
		if v := normalizedVersion(info.Main.Version); v != "" {
			return v
		}
	}

	return defaultVersion
}

func normalizedVersion(v string) string {
	version := strings.TrimSpace(v)
	if version == "" || version == "(devel)" || version == defaultVersion {
		return ""
	}
	return version
}
