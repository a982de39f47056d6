package subdomain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/strikesec/webstrike/internal/config"
	"github.com/strikesec/webstrike/internal/output"
	"github.com/strikesec/webstrike/internal/tools"
)

func writeFakeTool(t *testing.T, dir, name, script string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("write fake %s: %v", name, err)
	}
}

func newTestEnumerator(t *testing.T) (*Enumerator, *output.Manager, string) {
	t.Helper()
	bin := t.TempDir()
	t.Setenv("PATH", bin)
	t.Setenv("HOME", t.TempDir())

	cfg := config.DefaultConfig()
	cfg.Target = "example.com"
	cfg.Timeout = 30

	out := output.NewManager(t.TempDir(), "example.com")
	if err := out.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	return NewEnumerator(cfg, tools.NewChecker(), out), out, bin
}

func TestEnumerateMergesAndDeduplicates(t *testing.T) {
	e, out, bin := newTestEnumerator(t)
	writeFakeTool(t, bin, "subfinder", "echo a.example.com\n")
	writeFakeTool(t, bin, "amass", "echo b.example.com\necho a.example.com\n")
	writeFakeTool(t, bin, "assetfinder", "exit 0")

	res, err := e.Enumerate("example.com")
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if res.Total != 2 {
		t.Errorf("Total = %d, want 2", res.Total)
	}
	want := []string{"a.example.com", "b.example.com"}
	for i, s := range want {
		if res.Subdomains[i] != s {
			t.Errorf("Subdomains[%d] = %s, want %s", i, res.Subdomains[i], s)
		}
	}
	if res.Sources["subfinder"] != 1 || res.Sources["amass"] != 2 || res.Sources["assetfinder"] != 0 {
		t.Errorf("Sources = %v", res.Sources)
	}

	data, err := os.ReadFile(out.SubsFile())
	if err != nil {
		t.Fatalf("read subs file: %v", err)
	}
	if string(data) != "a.example.com\nb.example.com\n" {
		t.Errorf("subs file = %q", string(data))
	}
}

func TestEnumerateSurvivesFailingTool(t *testing.T) {
	e, _, bin := newTestEnumerator(t)
	writeFakeTool(t, bin, "subfinder", "echo a.example.com\n")
	writeFakeTool(t, bin, "amass", "echo broken >&2\nexit 1\n")
	writeFakeTool(t, bin, "assetfinder", "echo b.example.com\n")

	res, err := e.Enumerate("example.com")
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if res.Total != 2 {
		t.Errorf("Total = %d, want 2", res.Total)
	}
	if _, ok := res.Sources["amass"]; ok {
		t.Error("failed tool should not appear in sources")
	}
}

func TestEnumerateMissingToolsSkipped(t *testing.T) {
	e, _, bin := newTestEnumerator(t)
	writeFakeTool(t, bin, "subfinder", "echo a.example.com\n")

	res, err := e.Enumerate("example.com")
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if res.Total != 1 {
		t.Errorf("Total = %d, want 1", res.Total)
	}
	if len(res.Sources) != 1 {
		t.Errorf("Sources = %v, want subfinder only", res.Sources)
	}
}

func TestEnumerateErrorsWhenNothingRan(t *testing.T) {
	e, _, _ := newTestEnumerator(t)

	if _, err := e.Enumerate("example.com"); err == nil {
		t.Fatal("expected error when no enumeration tool is available")
	}
}
