package report

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"

	"github.com/strikesec/webstrike/internal/config"
	"github.com/strikesec/webstrike/internal/output"
	"github.com/strikesec/webstrike/internal/vulnscan"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type ScanInfo struct {
	Target    string `json:"target"`
	Timestamp string `json:"timestamp"`
	Threads   int    `json:"threads"`
	Timeout   int    `json:"timeout"`
}

type Results struct {
	Subdomains      []string           `json:"subdomains"`
	LiveHosts       []string           `json:"live_hosts"`
	URLs            []string           `json:"urls"`
	ExtendedURLs    []string           `json:"extended_urls"`
	Vulnerabilities []vulnscan.Finding `json:"vulnerabilities"`
}

type Report struct {
	ScanInfo ScanInfo `json:"scan_info"`
	Results  Results  `json:"results"`
}

type Aggregator struct {
	cfg *config.Config
	out *output.Manager
}

func NewAggregator(cfg *config.Config, out *output.Manager) *Aggregator {
	return &Aggregator{cfg: cfg, out: out}
}

// Generate assembles the report from whatever artifacts the scan left
// behind and writes it pretty-printed under Reports. A missing artifact
// contributes an empty list, never an error; the report is always written.
func (a *Aggregator) Generate() (string, *Report, error) {
	rep := &Report{
		ScanInfo: ScanInfo{
			Target:    a.cfg.Target,
			Timestamp: time.Now().Format(time.RFC3339),
			Threads:   a.cfg.Threads,
			Timeout:   a.cfg.Timeout,
		},
		Results: Results{
			Subdomains:      []string{},
			LiveHosts:       []string{},
			URLs:            []string{},
			ExtendedURLs:    []string{},
			Vulnerabilities: []vulnscan.Finding{},
		},
	}

	if lines, err := a.out.ReadLines(a.out.SubsFile()); err == nil && len(lines) > 0 {
		rep.Results.Subdomains = lines
	}
	if lines, err := a.out.ReadLines(a.out.ProbeFile()); err == nil && len(lines) > 0 {
		rep.Results.LiveHosts = lines
	}
	if lines, err := a.out.ReadLines(a.out.URLsFile()); err == nil && len(lines) > 0 {
		rep.Results.URLs = lines
	}
	if lines, err := a.out.ReadLines(a.out.ExtendedURLsFile()); err == nil && len(lines) > 0 {
		rep.Results.ExtendedURLs = lines
	}

	if data, err := os.ReadFile(a.out.FindingsFile()); err == nil {
		findings, malformed := vulnscan.ParseFindings(data)
		if malformed > 0 {
			color.Yellow("    [!] report: skipped %d malformed finding lines", malformed)
		}
		if len(findings) > 0 {
			rep.Results.Vulnerabilities = findings
		}
	}

	path := a.out.ReportFile(time.Now())
	if err := saveJSON(path, rep); err != nil {
		return "", nil, fmt.Errorf("write report: %w", err)
	}
	return path, rep, nil
}

func saveJSON(path string, v interface{}) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
