package tools

import (
	"os"
	osexec "os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/remeh/sizedwaitgroup"

	"github.com/strikesec/webstrike/internal/exec"
)

// verifyTimeout bounds each health-check invocation.
const verifyTimeout = 15 * time.Second

type Checker struct{}

func NewChecker() *Checker { return &Checker{} }

// FallbackDirs lists the directories searched when a binary is not on PATH.
func FallbackDirs() []string {
	home, _ := os.UserHomeDir()
	return []string{
		filepath.Join(home, ".go", "bin"),
		filepath.Join(home, "go", "bin"),
		"/usr/local/go/bin",
		"/usr/local/bin",
		"/usr/bin",
	}
}

// IsInstalled reports whether the binary resolves on PATH or in one of the
// fallback install directories.
func (c *Checker) IsInstalled(binary string) bool {
	if _, err := osexec.LookPath(binary); err == nil {
		return true
	}
	for _, dir := range FallbackDirs() {
		if _, err := os.Stat(filepath.Join(dir, binary)); err == nil {
			return true
		}
	}
	return false
}

// Verify runs the tool's health-check command. Non-zero exit or timeout
// marks the tool broken.
func (c *Checker) Verify(t Tool) bool {
	r := exec.Run(t.Binary, t.CheckArgs, &exec.Options{Timeout: verifyTimeout})
	return r.Error == nil
}

// Classify determines the state of one tool: present and healthy, absent,
// or present but failing its health check.
func (c *Checker) Classify(t Tool) State {
	if !c.IsInstalled(t.Binary) {
		return StateMissing
	}
	if !c.Verify(t) {
		return StateBroken
	}
	return StateAvailable
}

// CheckAll classifies every catalog tool, a few in parallel. Result order
// matches the catalog.
func (c *Checker) CheckAll() []Status {
	catalog := Catalog()
	statuses := make([]Status, len(catalog))

	swg := sizedwaitgroup.New(4)
	var mu sync.Mutex

	for i, t := range catalog {
		swg.Add()
		go func(idx int, tool Tool) {
			defer swg.Done()
			s := Status{Tool: tool, State: c.Classify(tool)}
			if s.State == StateAvailable {
				s.Version = c.versionFast(tool.Binary)
			}
			mu.Lock()
			statuses[idx] = s
			mu.Unlock()
		}(i, t)
	}

	swg.Wait()
	return statuses
}

// versionFast tries to get version quickly with shorter timeout
func (c *Checker) versionFast(bin string) string {
	r := exec.Run(bin, []string{"-version"}, &exec.Options{Timeout: 500 * time.Millisecond})
	out := r.Stdout
	if out == "" {
		out = r.Stderr
	}
	if r.Error != nil || out == "" {
		return ""
	}
	v := strings.TrimSpace(strings.Split(out, "\n")[0])
	if len(v) > 40 {
		return v[:40] + "..."
	}
	return v
}
