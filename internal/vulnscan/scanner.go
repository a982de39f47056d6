package vulnscan

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"

	"github.com/strikesec/webstrike/internal/config"
	"github.com/strikesec/webstrike/internal/exec"
	"github.com/strikesec/webstrike/internal/output"
	"github.com/strikesec/webstrike/internal/tools"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoInput means there were no live hosts to scan.
var ErrNoInput = errors.New("no live hosts for vulnerability scanning")

// Finding is one nuclei result in the shape the report carries.
type Finding struct {
	Host        string `json:"host"`
	MatchedAt   string `json:"matched_at"`
	TemplateID  string `json:"template_id"`
	Name        string `json:"name"`
	Severity    string `json:"severity"`
	Description string `json:"description,omitempty"`
}

type Result struct {
	Target     string         `json:"target"`
	Findings   []Finding      `json:"findings"`
	Total      int            `json:"total"`
	BySeverity map[string]int `json:"by_severity"`
	Duration   time.Duration  `json:"duration"`
}

type Scanner struct {
	cfg *config.Config
	c   *tools.Checker
	out *output.Manager
}

func NewScanner(cfg *config.Config, checker *tools.Checker, out *output.Manager) *Scanner {
	return &Scanner{cfg: cfg, c: checker, out: out}
}

// Scan runs nuclei against the live hosts. The -json-export flag owns the
// findings file; findings are read back from it after a clean exit, never
// from captured stdout.
func (s *Scanner) Scan() (*Result, error) {
	start := time.Now()

	probe := s.out.ProbeFile()
	hosts, err := s.out.ReadLines(probe)
	if err != nil {
		return nil, fmt.Errorf("read probe file: %w", err)
	}
	if len(hosts) == 0 {
		return nil, ErrNoInput
	}
	if !s.c.IsInstalled("nuclei") {
		return nil, fmt.Errorf("nuclei is not installed")
	}

	findingsFile := s.out.FindingsFile()
	args := []string{
		"-list", probe,
		"-severity", strings.Join(s.cfg.NucleiSeverity, ","),
		"-json-export", findingsFile,
	}
	if dir := s.templatesDir(); dir != "" {
		args = append(args, "-t", dir)
	} else {
		color.Yellow("    [!] nuclei templates not found, using built-in templates")
	}

	r := exec.Run("nuclei", args, &exec.Options{Timeout: time.Duration(s.cfg.Timeout) * time.Second})
	if r.Error != nil {
		return nil, fmt.Errorf("nuclei: %w", r.Error)
	}

	result := &Result{Target: s.out.Target(), BySeverity: make(map[string]int)}
	data, err := os.ReadFile(findingsFile)
	if err != nil {
		if os.IsNotExist(err) {
			// nuclei writes no export file when nothing matched
			result.Duration = time.Since(start)
			return result, nil
		}
		return nil, fmt.Errorf("read findings file: %w", err)
	}

	findings, malformed := ParseFindings(data)
	if malformed > 0 {
		color.Yellow("    [!] skipped %d malformed finding lines", malformed)
	}
	for _, f := range findings {
		result.BySeverity[strings.ToLower(f.Severity)]++
	}
	result.Findings = findings
	result.Total = len(findings)
	result.Duration = time.Since(start)
	return result, nil
}

// templatesDir resolves the template directory: the configured path when it
// exists, then ~/.local/nuclei-templates, then empty for nuclei's built-ins.
func (s *Scanner) templatesDir() string {
	if path := expandHome(s.cfg.NucleiTemplates); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		local := filepath.Join(home, ".local", "nuclei-templates")
		if _, err := os.Stat(local); err == nil {
			return local
		}
	}
	return ""
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// nucleiEntry matches nuclei's own output field names.
type nucleiEntry struct {
	Host       string `json:"host"`
	MatchedAt  string `json:"matched-at"`
	TemplateID string `json:"template-id"`
	Info       struct {
		Name        string `json:"name"`
		Severity    string `json:"severity"`
		Description string `json:"description"`
	} `json:"info"`
}

func (e nucleiEntry) toFinding() (Finding, bool) {
	if e.Host == "" && e.MatchedAt == "" {
		return Finding{}, false
	}
	return Finding{
		Host:        e.Host,
		MatchedAt:   e.MatchedAt,
		TemplateID:  e.TemplateID,
		Name:        e.Info.Name,
		Severity:    e.Info.Severity,
		Description: e.Info.Description,
	}, true
}

// ParseFindings decodes a nuclei export. Line-delimited JSON is the normal
// shape; newer nuclei versions export one JSON array instead, so both are
// accepted. Malformed lines are counted and skipped, never fatal.
func ParseFindings(data []byte) ([]Finding, int) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, 0
	}

	if trimmed[0] == '[' {
		var entries []nucleiEntry
		if err := json.Unmarshal(trimmed, &entries); err == nil {
			var findings []Finding
			for _, e := range entries {
				if f, ok := e.toFinding(); ok {
					findings = append(findings, f)
				}
			}
			return findings, 0
		}
	}

	var findings []Finding
	malformed := 0
	for _, line := range strings.Split(string(trimmed), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e nucleiEntry
		if err := json.UnmarshalFromString(line, &e); err != nil {
			malformed++
			continue
		}
		if f, ok := e.toFinding(); ok {
			findings = append(findings, f)
		}
	}
	return findings, malformed
}
