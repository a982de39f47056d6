package webcontent

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/strikesec/webstrike/internal/exec"
)

// dirsearch is a python project, not a go binary; the conventional drop
// location is /tmp/dirsearch.
var dirsearchScript = "/tmp/dirsearch/dirsearch.py"

type ExtendedResult struct {
	Target   string        `json:"target"`
	URLs     []string      `json:"urls"`
	Total    int           `json:"total"`
	Duration time.Duration `json:"duration"`
}

// ExtendedScan runs the slower crawl chain (hakrawler, waybackurls,
// dirsearch) against the live hosts and merges whatever they produced
// into the extended URL file. The merged file is written even when every
// tool came up empty, so downstream consumers always find it; the phase
// errors only when no tool is available at all.
func (d *Discoverer) ExtendedScan() (*ExtendedResult, error) {
	start := time.Now()

	probe := d.out.ProbeFile()
	if _, err := os.Stat(probe); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoInput
		}
		return nil, fmt.Errorf("stat probe file: %w", err)
	}
	if !d.c.IsInstalled("hakrawler") && !d.c.IsInstalled("waybackurls") && !d.dirsearchAvailable() {
		return nil, fmt.Errorf("no extended discovery tool is available")
	}

	var merged []string
	collect := func(name, path string) {
		lines, err := d.out.ReadLines(path)
		if err != nil {
			color.Red("    [✗] read %s output: %v", name, err)
			return
		}
		merged = append(merged, lines...)
		fmt.Printf("        %s: %d\n", name, len(lines))
	}

	if d.c.IsInstalled("hakrawler") {
		out := d.out.WebContentFile("hakrawler")
		if d.runPipeline("hakrawler", fmt.Sprintf("cat %s | hakrawler -d 2 -u", probe), out) {
			collect("hakrawler", out)
		}
	} else {
		color.Yellow("    [!] hakrawler not installed, skipping")
	}

	if d.c.IsInstalled("waybackurls") {
		out := d.out.WebContentFile("wayback")
		if d.runPipeline("waybackurls", fmt.Sprintf("cat %s | waybackurls", probe), out) {
			collect("waybackurls", out)
		}
	} else {
		color.Yellow("    [!] waybackurls not installed, skipping")
	}

	if d.dirsearchAvailable() {
		out := d.out.WebContentFile("dirsearch")
		args := []string{dirsearchScript, "-l", probe, "-o", out}
		r := exec.Run("python3", args, &exec.Options{Timeout: d.timeout(), Tool: "dirsearch"})
		if r.Error != nil {
			color.Red("    [✗] dirsearch failed: %v", r.Error)
		} else {
			collect("dirsearch", out)
		}
	} else {
		color.Yellow("    [!] dirsearch not available, skipping")
	}

	sorted, err := d.out.SaveUniqueSorted(d.out.ExtendedURLsFile(), merged)
	if err != nil {
		return nil, fmt.Errorf("write extended urls: %w", err)
	}

	return &ExtendedResult{
		Target:   d.out.Target(),
		URLs:     sorted,
		Total:    len(sorted),
		Duration: time.Since(start),
	}, nil
}

func (d *Discoverer) runPipeline(name, pipeline, outputFile string) bool {
	r := exec.RunShell(pipeline, &exec.Options{Timeout: d.timeout(), OutputFile: outputFile, Tool: name})
	if r.Error != nil {
		color.Red("    [✗] %s failed: %v", name, r.Error)
		return false
	}
	return true
}

func (d *Discoverer) dirsearchAvailable() bool {
	if !d.c.IsInstalled("python3") {
		return false
	}
	_, err := os.Stat(dirsearchScript)
	return err == nil
}
