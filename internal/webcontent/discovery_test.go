package webcontent

import (
	"errors"
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

func newTestDiscoverer(t *testing.T) (*Discoverer, *output.Manager, string) {
	t.Helper()
	bin := t.TempDir()
	t.Setenv("PATH", bin+":/bin:/usr/bin")
	t.Setenv("HOME", t.TempDir())

	cfg := config.DefaultConfig()
	cfg.Target = "example.com"
	cfg.Timeout = 30

	out := output.NewManager(t.TempDir(), "example.com")
	if err := out.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	return NewDiscoverer(cfg, tools.NewChecker(), out), out, bin
}

func TestDiscoverMergesToolOutputs(t *testing.T) {
	d, out, bin := newTestDiscoverer(t)

	// katana writes URLs to the file named by -output
	writeFakeTool(t, bin, "katana", `echo "http://a.example.com/page1" > "$6"`)
	writeFakeTool(t, bin, "gau", `echo "http://a.example.com/old1"
echo "http://a.example.com/page1"`)
	writeFakeTool(t, bin, "gospider", `echo "http://a.example.com/spider"`)

	if err := out.SaveLines(out.ProbeFile(), []string{"http://a.example.com"}); err != nil {
		t.Fatal(err)
	}

	res, err := d.Discover("")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if res.Total != 3 {
		t.Errorf("Total = %d, want 3 unique URLs", res.Total)
	}
	if res.Sources["katana"] != 1 || res.Sources["gau"] != 2 || res.Sources["gospider"] != 1 {
		t.Errorf("Sources = %v", res.Sources)
	}

	urls, err := out.ReadLines(out.URLsFile())
	if err != nil {
		t.Fatalf("read urls file: %v", err)
	}
	if len(urls) != 3 || urls[0] != "http://a.example.com/old1" {
		t.Errorf("urls = %v", urls)
	}
}

func TestDiscoverSkipsWhenNoLiveHosts(t *testing.T) {
	d, out, _ := newTestDiscoverer(t)

	if err := out.SaveLines(out.ProbeFile(), nil); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Discover(""); !errors.Is(err, ErrNoInput) {
		t.Fatalf("err = %v, want ErrNoInput", err)
	}
}

func TestDiscoverErrorsWithNoTools(t *testing.T) {
	d, out, _ := newTestDiscoverer(t)

	if err := out.SaveLines(out.ProbeFile(), []string{"http://a.example.com"}); err != nil {
		t.Fatal(err)
	}

	_, err := d.Discover("")
	if err == nil || errors.Is(err, ErrNoInput) {
		t.Fatalf("err = %v, want tool availability error", err)
	}
}

func TestDiscoverFfufNeedsWordlist(t *testing.T) {
	d, out, bin := newTestDiscoverer(t)
	writeFakeTool(t, bin, "ffuf", `echo '{"results":[]}' > "$9"`)

	if err := out.SaveLines(out.ProbeFile(), []string{"http://a.example.com"}); err != nil {
		t.Fatal(err)
	}

	if _, err := d.Discover(""); err != nil {
		t.Fatalf("Discover without wordlist: %v", err)
	}
	if _, err := os.Stat(out.WebContentFile("ffuf")); !os.IsNotExist(err) {
		t.Error("ffuf should not run without a wordlist")
	}

	wordlist := filepath.Join(t.TempDir(), "common.txt")
	if err := os.WriteFile(wordlist, []byte("admin\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Discover(wordlist); err != nil {
		t.Fatalf("Discover with wordlist: %v", err)
	}
	if _, err := os.Stat(out.WebContentFile("ffuf")); err != nil {
		t.Errorf("ffuf artifact missing: %v", err)
	}
}

func TestDiscoverCapsHostFanout(t *testing.T) {
	d, out, bin := newTestDiscoverer(t)

	calls := filepath.Join(t.TempDir(), "gau-calls")
	t.Setenv("GAU_CALLS", calls)
	writeFakeTool(t, bin, "gau", `echo "$4" >> "$GAU_CALLS"`)

	hosts := make([]string, 12)
	for i := range hosts {
		hosts[i] = "http://h" + string(rune('a'+i)) + ".example.com"
	}
	if err := out.SaveLines(out.ProbeFile(), hosts); err != nil {
		t.Fatal(err)
	}

	if _, err := d.Discover(""); err != nil {
		t.Fatalf("Discover: %v", err)
	}

	data, err := os.ReadFile(calls)
	if err != nil {
		t.Fatalf("gau was never called: %v", err)
	}
	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	if lines != hostFanoutLimit {
		t.Errorf("gau ran for %d hosts, want %d", lines, hostFanoutLimit)
	}
}

func TestDiscoverIsolatesFailingTool(t *testing.T) {
	d, out, bin := newTestDiscoverer(t)
	writeFakeTool(t, bin, "katana", `exit 1`)
	writeFakeTool(t, bin, "gau", `echo "http://a.example.com/found"`)

	if err := out.SaveLines(out.ProbeFile(), []string{"http://a.example.com"}); err != nil {
		t.Fatal(err)
	}

	res, err := d.Discover("")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if _, ok := res.Sources["katana"]; ok {
		t.Error("failed katana should not appear in sources")
	}
	if res.Sources["gau"] != 1 {
		t.Errorf("Sources = %v", res.Sources)
	}
	if res.Total != 1 {
		t.Errorf("Total = %d, want 1", res.Total)
	}
}
