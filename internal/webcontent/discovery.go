package webcontent

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/strikesec/webstrike/internal/config"
	"github.com/strikesec/webstrike/internal/exec"
	"github.com/strikesec/webstrike/internal/output"
	"github.com/strikesec/webstrike/internal/tools"
)

// ErrNoInput means the probe file had no live hosts, so there is nothing
// to crawl. The caller treats this as a skip, not a failure.
var ErrNoInput = errors.New("no live hosts for content discovery")

// gau and gospider run once per live host; past this many hosts the tail
// is dropped to keep the phase inside its time budget.
const hostFanoutLimit = 10

type Result struct {
	Target   string         `json:"target"`
	URLs     []string       `json:"urls"`
	Total    int            `json:"total"`
	Sources  map[string]int `json:"sources"`
	Duration time.Duration  `json:"duration"`
}

type Discoverer struct {
	cfg *config.Config
	c   *tools.Checker
	out *output.Manager
}

func NewDiscoverer(cfg *config.Config, checker *tools.Checker, out *output.Manager) *Discoverer {
	return &Discoverer{cfg: cfg, c: checker, out: out}
}

// Discover runs the content discovery tools in sequence against the live
// hosts from the probe file. katana, gau and gospider feed one combined
// URL set; ffuf leaves its own artifact but contributes no URLs. Each tool
// failing is logged and the rest still run; the phase errors only when no
// tool is installed at all.
func (d *Discoverer) Discover(wordlist string) (*Result, error) {
	start := time.Now()

	hosts, err := d.out.ReadLines(d.out.ProbeFile())
	if err != nil {
		return nil, fmt.Errorf("read probe file: %w", err)
	}
	if len(hosts) == 0 {
		return nil, ErrNoInput
	}
	if !d.anyDiscoveryTool() {
		return nil, fmt.Errorf("no content discovery tool is installed")
	}

	fmt.Printf("    [*] Content discovery across %d live hosts\n", len(hosts))

	urls := make(map[string]struct{})
	sources := make(map[string]int)
	add := func(name string, lines []string) {
		sources[name] = len(lines)
		for _, l := range lines {
			urls[l] = struct{}{}
		}
		fmt.Printf("        %s: %d\n", name, len(lines))
	}

	if d.c.IsInstalled("katana") {
		add("katana", d.katana())
	} else {
		color.Yellow("    [!] katana not installed, skipping")
	}

	if wordlist == "" {
		color.Yellow("    [!] no wordlist available, skipping ffuf")
	} else if d.c.IsInstalled("ffuf") {
		if d.ffuf(wordlist) {
			fmt.Println("        ffuf: fuzzing complete")
		}
	} else {
		color.Yellow("    [!] ffuf not installed, skipping")
	}

	if d.c.IsInstalled("gau") {
		add("gau", d.gau(hosts))
	} else {
		color.Yellow("    [!] gau not installed, skipping")
	}

	if d.c.IsInstalled("gospider") {
		add("gospider", d.gospider(hosts))
	} else {
		color.Yellow("    [!] gospider not installed, skipping")
	}

	result := &Result{Target: d.out.Target(), Sources: sources}
	if len(urls) > 0 {
		flat := make([]string, 0, len(urls))
		for u := range urls {
			flat = append(flat, u)
		}
		sorted, err := d.out.SaveUniqueSorted(d.out.URLsFile(), flat)
		if err != nil {
			return nil, fmt.Errorf("write combined urls: %w", err)
		}
		result.URLs = sorted
		result.Total = len(sorted)
	} else {
		color.Yellow("    [!] no URLs discovered by any tool")
	}
	result.Duration = time.Since(start)
	return result, nil
}

func (d *Discoverer) timeout() time.Duration {
	return time.Duration(d.cfg.Timeout) * time.Second
}

func (d *Discoverer) anyDiscoveryTool() bool {
	for _, name := range []string{"katana", "ffuf", "gau", "gospider"} {
		if d.c.IsInstalled(name) {
			return true
		}
	}
	return false
}

func capHosts(hosts []string) []string {
	if len(hosts) > hostFanoutLimit {
		return hosts[:hostFanoutLimit]
	}
	return hosts
}

// katana crawls every live host in one run. The -output flag owns the
// artifact file; URLs come from reading it back after a clean exit.
func (d *Discoverer) katana() []string {
	katanaOut := d.out.WebContentFile("katana")
	args := []string{"-no-color", "-system-chrome", "-list", d.out.ProbeFile(), "-output", katanaOut}
	r := exec.Run("katana", args, &exec.Options{Timeout: d.timeout()})
	if r.Error != nil {
		color.Red("    [✗] katana failed: %v", r.Error)
		return nil
	}
	lines, err := d.out.ReadLines(katanaOut)
	if err != nil {
		color.Red("    [✗] read katana output: %v", err)
		return nil
	}
	return lines
}

// ffuf fuzzes HOST/WORD across the probe file and wordlist. Its JSON
// report lands in the ffuf artifact via -o; nothing is merged into the
// combined URL set.
func (d *Discoverer) ffuf(wordlist string) bool {
	probe := d.out.ProbeFile()
	args := []string{
		"-u", "HOST/WORD",
		"-w", probe + ":HOST",
		"-w", wordlist + ":WORD",
		"-ac",
		"-o", d.out.WebContentFile("ffuf"),
	}
	r := exec.Run("ffuf", args, &exec.Options{Timeout: d.timeout()})
	if r.Error != nil {
		color.Red("    [✗] ffuf failed: %v", r.Error)
		return false
	}
	return true
}

func (d *Discoverer) gau(hosts []string) []string {
	gauOut := d.out.WebContentFile("gau")
	for _, host := range capHosts(hosts) {
		args := []string{"--subs", "--threads", fmt.Sprintf("%d", d.cfg.Threads), host}
		r := exec.Run("gau", args, &exec.Options{Timeout: d.timeout()})
		if r.Error != nil {
			color.Red("    [✗] gau failed for %s: %v", host, r.Error)
			continue
		}
		if r.Stdout != "" {
			if err := d.out.AppendRaw(gauOut, r.Stdout); err != nil {
				color.Red("    [✗] append gau output: %v", err)
			}
		}
	}
	lines, err := d.out.ReadLines(gauOut)
	if err != nil {
		return nil
	}
	return lines
}

func (d *Discoverer) gospider(hosts []string) []string {
	gospiderOut := d.out.WebContentFile("gospider")
	for _, host := range capHosts(hosts) {
		args := []string{"-s", host, "-c", "10", "-d", "1", "--other-source"}
		r := exec.Run("gospider", args, &exec.Options{Timeout: d.timeout()})
		if r.Error != nil {
			color.Red("    [✗] gospider failed for %s: %v", host, r.Error)
			continue
		}
		if r.Stdout != "" {
			if err := d.out.AppendRaw(gospiderOut, r.Stdout); err != nil {
				color.Red("    [✗] append gospider output: %v", err)
			}
		}
	}
	lines, err := d.out.ReadLines(gospiderOut)
	if err != nil {
		return nil
	}
	return lines
}
