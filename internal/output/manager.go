package output

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Manager owns the artifact layout for one target. Every path is
// deterministic from (output directory, target, suffix) so repeated runs
// against the same target write the same files.
type Manager struct {
	outputDir string
	target    string
}

// NewManager creates an output manager rooted at outputDir.
func NewManager(outputDir, target string) *Manager {
	return &Manager{outputDir: outputDir, target: target}
}

// EnsureDirs creates the output directory tree.
func (m *Manager) EnsureDirs() error {
	dirs := []string{
		m.outputDir,
		filepath.Join(m.outputDir, "Subdomains"),
		filepath.Join(m.outputDir, "Vulns"),
		filepath.Join(m.outputDir, "WebAppContent"),
		filepath.Join(m.outputDir, "Reports"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// BaseDir returns the base output directory
func (m *Manager) BaseDir() string { return m.outputDir }

// Target returns the scan target
func (m *Manager) Target() string { return m.target }

// SubsFile is the deduplicated subdomain list.
func (m *Manager) SubsFile() string {
	return filepath.Join(m.outputDir, "Subdomains", m.target+".subs")
}

// ProbeFile is the live-host list produced by HTTP probing.
func (m *Manager) ProbeFile() string {
	return filepath.Join(m.outputDir, "Subdomains", m.target+".httpprobe")
}

// WebContentFile is a per-tool artifact under WebAppContent.
func (m *Manager) WebContentFile(suffix string) string {
	return filepath.Join(m.outputDir, "WebAppContent", m.target+"."+suffix)
}

// URLsFile is the combined deduplicated URL list from content discovery.
func (m *Manager) URLsFile() string { return m.WebContentFile("urls") }

// ExtendedURLsFile is the combined URL list from the extended chain.
func (m *Manager) ExtendedURLsFile() string { return m.WebContentFile("extended_urls") }

// FindingsFile is the line-delimited JSON vulnerability output.
func (m *Manager) FindingsFile() string {
	return filepath.Join(m.outputDir, "Vulns", m.target+".nuclei.json")
}

// ReportFile is the timestamped aggregated report path.
func (m *Manager) ReportFile(ts time.Time) string {
	name := fmt.Sprintf("%s_report_%s.json", m.target, ts.Format("20060102_150405"))
	return filepath.Join(m.outputDir, "Reports", name)
}

// SaveLines writes lines to path, one per line, replacing any existing file.
func (m *Manager) SaveLines(path string, lines []string) error {
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// AppendRaw appends raw tool output to path, creating it if needed.
func (m *Manager) AppendRaw(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(content)
	return err
}

// ReadLines returns the non-blank trimmed lines of path. A missing file
// yields an empty slice, not an error.
func (m *Manager) ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var lines []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		if l := strings.TrimSpace(s.Text()); l != "" {
			lines = append(lines, l)
		}
	}
	return lines, s.Err()
}

// SaveUniqueSorted rewrites path with the sorted set of lines: duplicates
// collapse and output order is independent of input order. Returns the
// lines that were written.
func (m *Manager) SaveUniqueSorted(path string, lines []string) ([]string, error) {
	set := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			set[l] = struct{}{}
		}
	}
	unique := make([]string, 0, len(set))
	for l := range set {
		unique = append(unique, l)
	}
	sort.Strings(unique)
	return unique, m.SaveLines(path, unique)
}
