package subdomain

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/strikesec/webstrike/internal/config"
	"github.com/strikesec/webstrike/internal/exec"
	"github.com/strikesec/webstrike/internal/output"
	"github.com/strikesec/webstrike/internal/tools"
)

// amass is slow to warm up; give it at least this long even when the
// configured per-command timeout is shorter.
const amassMinTimeout = 2 * time.Minute

type Result struct {
	Domain     string         `json:"domain"`
	Subdomains []string       `json:"subdomains"`
	Total      int            `json:"total"`
	Sources    map[string]int `json:"sources"`
	Duration   time.Duration  `json:"duration"`
}

type Enumerator struct {
	cfg *config.Config
	c   *tools.Checker
	out *output.Manager
}

func NewEnumerator(cfg *config.Config, checker *tools.Checker, out *output.Manager) *Enumerator {
	return &Enumerator{cfg: cfg, c: checker, out: out}
}

// Enumerate runs each available enumeration tool in sequence, appending
// raw output to the subdomain file, then rewrites it deduplicated and
// sorted. One tool failing does not stop the others; the phase only errors
// when no tool could run at all.
func (e *Enumerator) Enumerate(domain string) (*Result, error) {
	start := time.Now()
	result := &Result{Domain: domain, Sources: make(map[string]int)}

	subsFile := e.out.SubsFile()
	if err := e.out.SaveLines(subsFile, nil); err != nil {
		return nil, fmt.Errorf("prepare subdomain file: %w", err)
	}

	runs := []struct {
		name string
		fn   func(string) ([]string, error)
	}{
		{"subfinder", e.subfinder},
		{"amass", e.amass},
		{"assetfinder", e.assetfinder},
	}

	ran := 0
	for _, t := range runs {
		if !e.c.IsInstalled(t.name) {
			color.Yellow("    [!] %s not installed, skipping", t.name)
			continue
		}
		found, err := t.fn(domain)
		if err != nil {
			color.Red("    [✗] %s failed: %v", t.name, err)
			continue
		}
		ran++
		result.Sources[t.name] = len(found)
		fmt.Printf("        %s: %d\n", t.name, len(found))
		if len(found) > 0 {
			if err := e.out.AppendRaw(subsFile, strings.Join(found, "\n")+"\n"); err != nil {
				return nil, fmt.Errorf("append %s output: %w", t.name, err)
			}
		}
	}
	if ran == 0 {
		return nil, fmt.Errorf("no subdomain enumeration tool could run for %s", domain)
	}

	lines, err := e.out.ReadLines(subsFile)
	if err != nil {
		return nil, fmt.Errorf("read subdomain file: %w", err)
	}
	unique, err := e.out.SaveUniqueSorted(subsFile, lines)
	if err != nil {
		return nil, fmt.Errorf("rewrite subdomain file: %w", err)
	}

	result.Subdomains = unique
	result.Total = len(unique)
	result.Duration = time.Since(start)
	return result, nil
}

func (e *Enumerator) timeout() time.Duration {
	return time.Duration(e.cfg.Timeout) * time.Second
}

func (e *Enumerator) subfinder(domain string) ([]string, error) {
	r := exec.Run("subfinder", []string{"-d", domain, "-silent"}, &exec.Options{Timeout: e.timeout()})
	if r.Error != nil {
		return nil, r.Error
	}
	return exec.Lines(r.Stdout), nil
}

func (e *Enumerator) amass(domain string) ([]string, error) {
	timeout := e.timeout()
	if timeout < amassMinTimeout {
		timeout = amassMinTimeout
	}
	r := exec.Run("amass", []string{"enum", "-d", domain, "-silent"}, &exec.Options{Timeout: timeout})
	if r.Error != nil {
		return nil, r.Error
	}
	return exec.Lines(r.Stdout), nil
}

func (e *Enumerator) assetfinder(domain string) ([]string, error) {
	r := exec.Run("assetfinder", []string{"--subs-only", domain}, &exec.Options{Timeout: e.timeout()})
	if r.Error != nil {
		return nil, r.Error
	}
	return exec.Lines(r.Stdout), nil
}
