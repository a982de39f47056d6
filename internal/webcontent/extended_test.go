package webcontent

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestExtendedScanMergesAllSources(t *testing.T) {
	d, out, bin := newTestDiscoverer(t)
	writeFakeTool(t, bin, "hakrawler", `echo "http://a.example.com/crawled"`)
	writeFakeTool(t, bin, "waybackurls", `echo "http://a.example.com/archived"
echo "http://a.example.com/crawled"`)

	// dirsearch is python3 <script> -l <probe> -o <out>
	writeFakeTool(t, bin, "python3", `echo "http://a.example.com/hidden" > "$5"`)
	script := filepath.Join(t.TempDir(), "dirsearch.py")
	if err := os.WriteFile(script, []byte("# stub"), 0644); err != nil {
		t.Fatal(err)
	}
	orig := dirsearchScript
	dirsearchScript = script
	defer func() { dirsearchScript = orig }()

	if err := out.SaveLines(out.ProbeFile(), []string{"http://a.example.com"}); err != nil {
		t.Fatal(err)
	}

	res, err := d.ExtendedScan()
	if err != nil {
		t.Fatalf("ExtendedScan: %v", err)
	}
	if res.Total != 3 {
		t.Errorf("Total = %d, want 3 unique URLs", res.Total)
	}

	urls, err := out.ReadLines(out.ExtendedURLsFile())
	if err != nil {
		t.Fatalf("read extended urls: %v", err)
	}
	if len(urls) != 3 || urls[0] != "http://a.example.com/archived" {
		t.Errorf("extended urls = %v", urls)
	}
}

func TestExtendedScanAlwaysWritesCombinedFile(t *testing.T) {
	d, out, bin := newTestDiscoverer(t)
	writeFakeTool(t, bin, "waybackurls", `exit 0`)

	orig := dirsearchScript
	dirsearchScript = filepath.Join(t.TempDir(), "missing.py")
	defer func() { dirsearchScript = orig }()

	if err := out.SaveLines(out.ProbeFile(), []string{"http://a.example.com"}); err != nil {
		t.Fatal(err)
	}

	res, err := d.ExtendedScan()
	if err != nil {
		t.Fatalf("ExtendedScan with empty tool output: %v", err)
	}
	if res.Total != 0 {
		t.Errorf("Total = %d, want 0", res.Total)
	}
	if _, err := os.Stat(out.ExtendedURLsFile()); err != nil {
		t.Errorf("extended urls file should exist even when empty: %v", err)
	}
}

func TestExtendedScanErrorsWithNoTools(t *testing.T) {
	d, out, _ := newTestDiscoverer(t)

	orig := dirsearchScript
	dirsearchScript = filepath.Join(t.TempDir(), "missing.py")
	defer func() { dirsearchScript = orig }()

	if err := out.SaveLines(out.ProbeFile(), []string{"http://a.example.com"}); err != nil {
		t.Fatal(err)
	}

	_, err := d.ExtendedScan()
	if err == nil || errors.Is(err, ErrNoInput) {
		t.Fatalf("err = %v, want tool availability error", err)
	}
}

func TestExtendedScanSkipsWithoutProbeFile(t *testing.T) {
	d, _, _ := newTestDiscoverer(t)

	if _, err := d.ExtendedScan(); !errors.Is(err, ErrNoInput) {
		t.Fatalf("err = %v, want ErrNoInput", err)
	}
}

func TestExtendedScanSurvivesFailingTool(t *testing.T) {
	d, out, bin := newTestDiscoverer(t)
	writeFakeTool(t, bin, "hakrawler", `exit 1`)
	writeFakeTool(t, bin, "waybackurls", `echo "http://a.example.com/archived"`)

	orig := dirsearchScript
	dirsearchScript = filepath.Join(t.TempDir(), "missing.py")
	defer func() { dirsearchScript = orig }()

	if err := out.SaveLines(out.ProbeFile(), []string{"http://a.example.com"}); err != nil {
		t.Fatal(err)
	}

	res, err := d.ExtendedScan()
	if err != nil {
		t.Fatalf("ExtendedScan: %v", err)
	}
	if res.Total != 1 || res.URLs[0] != "http://a.example.com/archived" {
		t.Errorf("URLs = %v", res.URLs)
	}
	if _, err := os.Stat(out.WebContentFile("hakrawler")); !os.IsNotExist(err) {
		t.Error("failed hakrawler should leave no artifact")
	}
}
