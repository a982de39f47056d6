package version

import (
	"fmt"
	"runtime"
)

// Set at build time with ldflags.
var (
	Version   = "0.3.0"
	Commit    = "dev"
	BuildDate = "unknown"
)

// Info returns the multi-line version report for the version command.
func Info() string {
	return fmt.Sprintf("webstrike version %s\n  commit: %s\n  built: %s\n  go: %s\n  os/arch: %s/%s",
		Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
