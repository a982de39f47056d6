package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEnsureDirsCreatesLayout(t *testing.T) {
	base := filepath.Join(t.TempDir(), "Targets")
	m := NewManager(base, "example.com")

	if err := m.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	for _, dir := range []string{"Subdomains", "Vulns", "WebAppContent", "Reports"} {
		info, err := os.Stat(filepath.Join(base, dir))
		if err != nil {
			t.Fatalf("missing directory %s: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("%s is not a directory", dir)
		}
	}
}

func TestArtifactPaths(t *testing.T) {
	m := NewManager("/tmp/out", "example.com")

	if got := m.SubsFile(); got != "/tmp/out/Subdomains/example.com.subs" {
		t.Errorf("SubsFile = %s", got)
	}
	if got := m.ProbeFile(); got != "/tmp/out/Subdomains/example.com.httpprobe" {
		t.Errorf("ProbeFile = %s", got)
	}
	if got := m.WebContentFile("katana"); got != "/tmp/out/WebAppContent/example.com.katana" {
		t.Errorf("WebContentFile = %s", got)
	}
	if got := m.FindingsFile(); got != "/tmp/out/Vulns/example.com.nuclei.json" {
		t.Errorf("FindingsFile = %s", got)
	}

	ts := time.Date(2024, 3, 9, 14, 30, 5, 0, time.UTC)
	want := "/tmp/out/Reports/example.com_report_20240309_143005.json"
	if got := m.ReportFile(ts); got != want {
		t.Errorf("ReportFile = %s, want %s", got, want)
	}
}

func TestSaveLines(t *testing.T) {
	m := NewManager(t.TempDir(), "example.com")
	path := filepath.Join(m.BaseDir(), "lines.txt")

	if err := m.SaveLines(path, []string{"a", "b"}); err != nil {
		t.Fatalf("SaveLines: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "a\nb\n" {
		t.Errorf("content = %q, want trailing newline", string(data))
	}

	if err := m.SaveLines(path, nil); err != nil {
		t.Fatalf("SaveLines empty: %v", err)
	}
	data, _ = os.ReadFile(path)
	if len(data) != 0 {
		t.Errorf("empty save left %q", string(data))
	}
}

func TestReadLinesMissingFile(t *testing.T) {
	m := NewManager(t.TempDir(), "example.com")
	lines, err := m.ReadLines(filepath.Join(m.BaseDir(), "nope.txt"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("expected no lines, got %v", lines)
	}
}

func TestReadLinesSkipsBlanks(t *testing.T) {
	m := NewManager(t.TempDir(), "example.com")
	path := filepath.Join(m.BaseDir(), "mixed.txt")
	if err := os.WriteFile(path, []byte("one\n\n  \ntwo\n"), 0644); err != nil {
		t.Fatal(err)
	}
	lines, err := m.ReadLines(path)
	if err != nil {
		t.Fatalf("ReadLines: %v", err)
	}
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Errorf("lines = %v", lines)
	}
}

func TestSaveUniqueSorted(t *testing.T) {
	m := NewManager(t.TempDir(), "example.com")
	path := filepath.Join(m.BaseDir(), "subs.txt")

	unique, err := m.SaveUniqueSorted(path, []string{"b.example.com", "a.example.com", "b.example.com", " ", ""})
	if err != nil {
		t.Fatalf("SaveUniqueSorted: %v", err)
	}
	if len(unique) != 2 || unique[0] != "a.example.com" {
		t.Errorf("unique = %v", unique)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "a.example.com\nb.example.com\n" {
		t.Errorf("content = %q", string(data))
	}
}

func TestAppendRaw(t *testing.T) {
	m := NewManager(t.TempDir(), "example.com")
	path := filepath.Join(m.BaseDir(), "raw.txt")

	if err := m.AppendRaw(path, "first\n"); err != nil {
		t.Fatalf("AppendRaw create: %v", err)
	}
	if err := m.AppendRaw(path, "second\n"); err != nil {
		t.Fatalf("AppendRaw append: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "first\n") || !strings.HasSuffix(string(data), "second\n") {
		t.Errorf("content = %q", string(data))
	}
}
