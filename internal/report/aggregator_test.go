package report

import (
	stdjson "encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/strikesec/webstrike/internal/config"
	"github.com/strikesec/webstrike/internal/output"
)

func newTestAggregator(t *testing.T) (*Aggregator, *output.Manager) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Target = "example.com"
	cfg.Threads = 7
	cfg.Timeout = 45

	out := output.NewManager(t.TempDir(), "example.com")
	if err := out.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	return NewAggregator(cfg, out), out
}

func TestGenerateCollectsAllArtifacts(t *testing.T) {
	a, out := newTestAggregator(t)

	if err := out.SaveLines(out.SubsFile(), []string{"a.example.com", "b.example.com"}); err != nil {
		t.Fatal(err)
	}
	if err := out.SaveLines(out.ProbeFile(), []string{"http://a.example.com"}); err != nil {
		t.Fatal(err)
	}
	if err := out.SaveLines(out.URLsFile(), []string{"http://a.example.com/page"}); err != nil {
		t.Fatal(err)
	}
	if err := out.SaveLines(out.ExtendedURLsFile(), []string{"http://a.example.com/old"}); err != nil {
		t.Fatal(err)
	}
	finding := `{"host":"http://a.example.com","matched-at":"http://a.example.com/.env","template-id":"env-file","info":{"name":"Env File","severity":"high"}}`
	if err := os.WriteFile(out.FindingsFile(), []byte(finding+"\nnot json\n"), 0644); err != nil {
		t.Fatal(err)
	}

	path, rep, err := a.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(rep.Results.Subdomains) != 2 || len(rep.Results.LiveHosts) != 1 {
		t.Errorf("results = %+v", rep.Results)
	}
	if len(rep.Results.Vulnerabilities) != 1 || rep.Results.Vulnerabilities[0].TemplateID != "env-file" {
		t.Errorf("vulnerabilities = %+v", rep.Results.Vulnerabilities)
	}
	if rep.ScanInfo.Target != "example.com" || rep.ScanInfo.Threads != 7 || rep.ScanInfo.Timeout != 45 {
		t.Errorf("scan_info = %+v", rep.ScanInfo)
	}
	if _, err := time.Parse(time.RFC3339, rep.ScanInfo.Timestamp); err != nil {
		t.Errorf("timestamp %q not RFC3339: %v", rep.ScanInfo.Timestamp, err)
	}

	name := filepath.Base(path)
	if !strings.HasPrefix(name, "example.com_report_") || !strings.HasSuffix(name, ".json") {
		t.Errorf("report name = %s", name)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var decoded Report
	if err := stdjson.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if decoded.Results.Subdomains[0] != "a.example.com" {
		t.Errorf("decoded = %+v", decoded.Results)
	}
	if !strings.Contains(string(data), "\n  \"scan_info\"") {
		t.Error("report should be indented with two spaces")
	}
}

func TestGenerateWithNoArtifacts(t *testing.T) {
	a, _ := newTestAggregator(t)

	path, rep, err := a.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(rep.Results.Subdomains) != 0 || len(rep.Results.Vulnerabilities) != 0 {
		t.Errorf("results = %+v, want all empty", rep.Results)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	// absent artifacts must encode as [], not null
	if strings.Contains(string(data), "null") {
		t.Errorf("report contains null lists:\n%s", string(data))
	}
}
