package tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/strikesec/webstrike/internal/exec"
)

// minGoVersion is the oldest toolchain known to build every catalog tool.
const minGoVersion = "1.21.0"

// CheckGoToolchain verifies that a working Go toolchain is present and new
// enough to run the catalog's install commands. It returns the reported
// version string for display.
func CheckGoToolchain() (string, error) {
	r := exec.Run("go", []string{"version"}, &exec.Options{Timeout: 10 * time.Second})
	if r.Error != nil {
		return "", fmt.Errorf("go toolchain not found: %w", r.Error)
	}

	// Output shape: "go version go1.22.1 linux/amd64"
	fields := strings.Fields(r.Stdout)
	if len(fields) < 3 || !strings.HasPrefix(fields[2], "go") {
		return "", fmt.Errorf("unexpected go version output: %q", strings.TrimSpace(r.Stdout))
	}
	raw := strings.TrimPrefix(fields[2], "go")

	current, err := semver.NewVersion(raw)
	if err != nil {
		return "", fmt.Errorf("parse go version %q: %w", raw, err)
	}
	minimum := semver.MustParse(minGoVersion)
	if current.LessThan(minimum) {
		return raw, fmt.Errorf("go %s is too old, need %s or newer", raw, minGoVersion)
	}
	return raw, nil
}
