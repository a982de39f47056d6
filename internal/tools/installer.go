package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/remeh/sizedwaitgroup"

	"github.com/strikesec/webstrike/internal/exec"
)

// installTimeout bounds each `go install` invocation.
const installTimeout = 300 * time.Second

type Installer struct {
	c *Checker
}

func NewInstaller() *Installer {
	return &Installer{c: NewChecker()}
}

// GoPathRoot is the install root passed to `go install` as GOPATH, so tool
// binaries land in a predictable fallback directory.
func GoPathRoot() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".go")
}

// Install fetches and builds one tool with `go install`, bounded by
// installTimeout. The install root and tool directories are injected so a
// freshly built binary resolves immediately.
func (i *Installer) Install(t Tool) error {
	r := exec.Run("go", []string{"install", t.InstallPkg}, &exec.Options{
		Timeout: installTimeout,
		Env:     []string{"GOPATH=" + GoPathRoot()},
	})
	if r.TimedOut {
		return fmt.Errorf("install %s: %w", t.Name, exec.ErrTimeout)
	}
	if r.Error != nil {
		detail := strings.TrimSpace(r.Stderr)
		if detail == "" {
			detail = r.Error.Error()
		}
		return fmt.Errorf("install %s: %s", t.Name, detail)
	}
	return nil
}

// EnsureAll is the pre-scan gate: classify every catalog tool, then install
// the missing ones and reinstall the broken ones. Any install failure is a
// hard stop; there is no degraded mode where a scan runs with a partial
// toolset.
func (i *Installer) EnsureAll() error {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Println("[*] Checking required security tools...")

	var missing, broken []Tool
	var available []string
	for _, t := range Catalog() {
		switch i.c.Classify(t) {
		case StateMissing:
			missing = append(missing, t)
			yellow.Printf("    ✗ %s is not installed\n", t.Name)
		case StateBroken:
			broken = append(broken, t)
			yellow.Printf("    ○ %s is installed but not working\n", t.Name)
		default:
			available = append(available, t.Name)
			green.Printf("    ✓ %s is available\n", t.Name)
		}
	}

	fmt.Printf("    %d available, %d missing, %d broken\n", len(available), len(missing), len(broken))

	for _, t := range missing {
		fmt.Printf("    installing %s...\n", t.Name)
		if err := i.Install(t); err != nil {
			return err
		}
		green.Printf("    ✓ installed %s\n", t.Name)
	}
	for _, t := range broken {
		fmt.Printf("    reinstalling %s...\n", t.Name)
		if err := i.Install(t); err != nil {
			return err
		}
		green.Printf("    ✓ reinstalled %s\n", t.Name)
	}

	if len(missing) == 0 && len(broken) == 0 {
		green.Println("    all required tools are available")
	}
	return nil
}

// InstallResult reports one tool's outcome from InstallAll.
type InstallResult struct {
	Name    string
	Err     error
	Skipped bool
}

// InstallAll installs every tool that is missing or broken, a few in
// parallel. Used by the standalone install command; the pre-scan gate uses
// EnsureAll for its fail-fast contract.
func (i *Installer) InstallAll(concurrency int) []InstallResult {
	if concurrency <= 0 {
		concurrency = 4
	}

	catalog := Catalog()
	results := make([]InstallResult, len(catalog))

	swg := sizedwaitgroup.New(concurrency)
	var mu sync.Mutex

	for idx, t := range catalog {
		swg.Add()
		go func(n int, tool Tool) {
			defer swg.Done()
			res := InstallResult{Name: tool.Name}
			if i.c.Classify(tool) == StateAvailable {
				res.Skipped = true
			} else {
				res.Err = i.Install(tool)
			}
			mu.Lock()
			results[n] = res
			mu.Unlock()
		}(idx, t)
	}

	swg.Wait()
	return results
}
