// Package version reports the build identity of the bcall binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set via -ldflags at release time.
var (
	Version = "dev"
	Commit  = "<unknown>"
	Date    = ""
)

// Info returns the version, falling back to the module version recorded by
// the Go toolchain when the binary was built with "go install".
func Info() string {
	v := Version

	if v == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			v = bi.Main.Version
		}
	}

	if Date == "" {
		return fmt.Sprintf("%s (%s)", v, Commit)
	}

	return fmt.Sprintf("%s (%s, %s)", v, Commit, Date)
}
