package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/strikesec/webstrike/internal/config"
	"github.com/strikesec/webstrike/internal/debug"
	"github.com/strikesec/webstrike/internal/output"
	"github.com/strikesec/webstrike/internal/pipeline"
	"github.com/strikesec/webstrike/internal/probe"
	"github.com/strikesec/webstrike/internal/report"
	"github.com/strikesec/webstrike/internal/storage"
	"github.com/strikesec/webstrike/internal/subdomain"
	"github.com/strikesec/webstrike/internal/tools"
	"github.com/strikesec/webstrike/internal/vulnscan"
	"github.com/strikesec/webstrike/internal/webcontent"
)

// Event describes a single phase transition. The server streams these
// to websocket clients while a scan is running.
type Event struct {
	Phase   string `json:"phase"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Runner drives a full scan against the configured target, one phase
// at a time. A failed phase never aborts the run; later phases work
// with whatever the earlier ones managed to produce.
type Runner struct {
	cfg     *config.Config
	c       *tools.Checker
	out     *output.Manager
	store   *storage.Store
	onEvent func(Event)

	table      *pipeline.Table
	reportPath string
	scanID     string
}

func New(cfg *config.Config) *Runner {
	return &Runner{
		cfg: cfg,
		c:   tools.NewChecker(),
		out: output.NewManager(cfg.OutputDir, cfg.Target),
	}
}

// SetStore enables scan history persistence. Saving is best effort;
// a storage error never fails the scan.
func (r *Runner) SetStore(s *storage.Store) { r.store = s }

// SetEventFunc registers a callback invoked on every phase transition.
func (r *Runner) SetEventFunc(fn func(Event)) { r.onEvent = fn }

// SetScanID fixes the history record ID up front. Without it a random
// ID is assigned when the scan is saved.
func (r *Runner) SetScanID(id string) { r.scanID = id }

// Status reports the overall outcome: completed when every phase
// finished, partial when at least one did, failed otherwise.
func (r *Runner) Status() string {
	if r.table == nil {
		return "pending"
	}
	switch completed := r.table.CompletedCount(); {
	case completed == len(pipeline.All()):
		return "completed"
	case completed > 0:
		return "partial"
	default:
		return "failed"
	}
}

// ReportPath returns the path of the generated report, set once Run
// has finished.
func (r *Runner) ReportPath() string { return r.reportPath }

// ScanID returns the history record ID. Empty until a store save
// assigns one, unless SetScanID was called.
func (r *Runner) ScanID() string { return r.scanID }

// Results returns the per-phase outcomes recorded so far.
func (r *Runner) Results() []pipeline.Result {
	if r.table == nil {
		return nil
	}
	return r.table.Results()
}

// Run executes every scan phase in order and always writes a report,
// even when most phases fail. It returns an error only when no phase
// completed at all.
func (r *Runner) Run() error {
	start := time.Now()
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	if r.cfg.Verbose {
		debug.Enable()
	}

	cyan.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	cyan.Printf("  Target: %s\n", r.cfg.Target)
	cyan.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")

	if err := r.out.EnsureDirs(); err != nil {
		return fmt.Errorf("create output directories: %w", err)
	}

	r.table = pipeline.NewTable()

	// Phase 1: wordlist download
	r.banner(pipeline.PhaseWordlist)
	r.phaseStart(pipeline.PhaseWordlist)
	wordlist, err := tools.DownloadWordlist(r.cfg.WordlistURL)
	if err != nil {
		r.phaseFail(pipeline.PhaseWordlist, err)
		red.Printf("[-] Wordlist download failed: %v\n", err)
		if wordlist = tools.FindLocalWordlist(); wordlist != "" {
			yellow.Printf("[!] Using local wordlist: %s\n", wordlist)
		} else {
			yellow.Println("[!] No local wordlist found, directory fuzzing will be skipped")
		}
	} else {
		green.Printf("[+] Wordlist ready: %s\n", wordlist)
		r.phaseComplete(pipeline.PhaseWordlist, wordlist)
	}

	// Phase 2: subdomain discovery
	r.banner(pipeline.PhaseSubdomains)
	r.phaseStart(pipeline.PhaseSubdomains)
	enum := subdomain.NewEnumerator(r.cfg, r.c, r.out)
	subRes, err := enum.Enumerate(r.cfg.Target)
	if err != nil {
		r.phaseFail(pipeline.PhaseSubdomains, err)
		red.Printf("[-] Subdomain discovery failed: %v\n", err)
	} else {
		for tool, n := range subRes.Sources {
			fmt.Printf("    %-12s %d\n", tool, n)
		}
		green.Printf("[+] %d unique subdomains in %s\n", subRes.Total, subRes.Duration.Round(time.Second))
		r.phaseComplete(pipeline.PhaseSubdomains, fmt.Sprintf("%d subdomains", subRes.Total))
	}
	r.seedSubdomains(yellow)

	// Phase 3: HTTP probing
	r.banner(pipeline.PhaseProbing)
	r.phaseStart(pipeline.PhaseProbing)
	prober := probe.NewProber(r.cfg, r.c, r.out)
	probeRes, err := prober.Probe()
	switch {
	case errors.Is(err, probe.ErrNoInput):
		r.phaseSkip(pipeline.PhaseProbing, "no subdomains to probe")
		yellow.Println("[!] No subdomains to probe")
	case err != nil:
		r.phaseFail(pipeline.PhaseProbing, err)
		red.Printf("[-] HTTP probing failed: %v\n", err)
	default:
		green.Printf("[+] %d live hosts out of %d candidates\n", probeRes.Total, probeRes.Candidates)
		r.phaseComplete(pipeline.PhaseProbing, fmt.Sprintf("%d live hosts", probeRes.Total))
	}
	r.seedProbedHosts(yellow)

	// Phase 4: web content discovery
	r.banner(pipeline.PhaseWebContent)
	r.phaseStart(pipeline.PhaseWebContent)
	disco := webcontent.NewDiscoverer(r.cfg, r.c, r.out)
	webRes, err := disco.Discover(wordlist)
	switch {
	case errors.Is(err, webcontent.ErrNoInput):
		r.phaseSkip(pipeline.PhaseWebContent, "no live hosts")
		yellow.Println("[!] No live hosts, skipping web content discovery")
	case err != nil:
		r.phaseFail(pipeline.PhaseWebContent, err)
		red.Printf("[-] Web content discovery failed: %v\n", err)
	default:
		for tool, n := range webRes.Sources {
			fmt.Printf("    %-12s %d\n", tool, n)
		}
		green.Printf("[+] %d unique URLs discovered\n", webRes.Total)
		r.phaseComplete(pipeline.PhaseWebContent, fmt.Sprintf("%d URLs", webRes.Total))
	}

	// Phase 5: extended content discovery
	r.banner(pipeline.PhaseExtended)
	r.phaseStart(pipeline.PhaseExtended)
	extRes, err := disco.ExtendedScan()
	switch {
	case errors.Is(err, webcontent.ErrNoInput):
		r.phaseSkip(pipeline.PhaseExtended, "no live hosts")
		yellow.Println("[!] No live hosts, skipping extended discovery")
	case err != nil:
		r.phaseFail(pipeline.PhaseExtended, err)
		red.Printf("[-] Extended discovery failed: %v\n", err)
	default:
		green.Printf("[+] %d URLs from extended discovery\n", extRes.Total)
		r.phaseComplete(pipeline.PhaseExtended, fmt.Sprintf("%d URLs", extRes.Total))
	}

	// Phase 6: vulnerability scanning
	r.banner(pipeline.PhaseVulnScan)
	r.phaseStart(pipeline.PhaseVulnScan)
	scanner := vulnscan.NewScanner(r.cfg, r.c, r.out)
	vulnRes, err := scanner.Scan()
	switch {
	case errors.Is(err, vulnscan.ErrNoInput):
		r.phaseSkip(pipeline.PhaseVulnScan, "no live hosts")
		yellow.Println("[!] No live hosts, skipping vulnerability scan")
	case err != nil:
		r.phaseFail(pipeline.PhaseVulnScan, err)
		red.Printf("[-] Vulnerability scan failed: %v\n", err)
	default:
		for sev, n := range vulnRes.BySeverity {
			fmt.Printf("    %-12s %d\n", sev, n)
		}
		green.Printf("[+] %d findings in %s\n", vulnRes.Total, vulnRes.Duration.Round(time.Second))
		r.phaseComplete(pipeline.PhaseVulnScan, fmt.Sprintf("%d findings", vulnRes.Total))
	}

	// The report aggregates whatever the phases produced, so it is
	// generated even after a run where everything failed.
	reportPath, rep, err := report.NewAggregator(r.cfg, r.out).Generate()
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	r.reportPath = reportPath

	r.printSummary(start, reportPath)
	r.persist(start, rep, reportPath)

	if debug.IsEnabled() {
		debug.Summary()
	}

	completed := r.table.CompletedCount()
	total := len(pipeline.All())
	switch {
	case completed == total:
		green.Printf("\n[+] All %d phases completed successfully\n", total)
	case r.table.AnyCompleted():
		yellow.Printf("\n[!] %d/%d phases completed, partial results are available\n", completed, total)
	default:
		red.Println("\n[-] All scan phases failed")
		return fmt.Errorf("all scan phases failed for %s", r.cfg.Target)
	}
	return nil
}

func (r *Runner) banner(ph pipeline.Phase) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Printf("\n%s\n", pipeline.DisplayName(ph))
	fmt.Println("─────────────────────────────────────────────────")
}

func (r *Runner) phaseStart(ph pipeline.Phase) {
	r.table.Start(ph)
	debug.LogPhaseStart(pipeline.Name(ph))
	r.emit(ph, pipeline.StatusRunning, "")
}

func (r *Runner) phaseComplete(ph pipeline.Phase, detail string) {
	r.table.Complete(ph, detail)
	debug.LogPhaseEnd(pipeline.Name(ph), r.table.Get(ph).StartTime)
	r.emit(ph, pipeline.StatusCompleted, detail)
}

func (r *Runner) phaseFail(ph pipeline.Phase, err error) {
	r.table.Fail(ph, err)
	debug.LogPhaseEnd(pipeline.Name(ph), r.table.Get(ph).StartTime)
	r.emit(ph, pipeline.StatusFailed, err.Error())
}

func (r *Runner) phaseSkip(ph pipeline.Phase, reason string) {
	r.table.Skip(ph, reason)
	debug.LogPhaseEnd(pipeline.Name(ph), r.table.Get(ph).StartTime)
	r.emit(ph, pipeline.StatusSkipped, reason)
}

func (r *Runner) emit(ph pipeline.Phase, st pipeline.Status, msg string) {
	if r.onEvent != nil {
		r.onEvent(Event{Phase: string(ph), Status: string(st), Message: msg})
	}
}

// seedSubdomains guarantees later phases always have at least the bare
// target to work with when enumeration produced nothing.
func (r *Runner) seedSubdomains(yellow *color.Color) {
	lines, err := r.out.ReadLines(r.out.SubsFile())
	if err == nil && len(lines) > 0 {
		return
	}
	if err := r.out.SaveLines(r.out.SubsFile(), []string{r.cfg.Target}); err == nil {
		yellow.Printf("[!] Falling back to bare target %s\n", r.cfg.Target)
	}
}

// seedProbedHosts writes http:// and https:// URLs for the target when
// probing left no output behind, so content discovery and the
// vulnerability scan still have candidates. An existing empty probe
// file means probing genuinely found nothing alive and is left alone.
func (r *Runner) seedProbedHosts(yellow *color.Color) {
	if _, err := os.Stat(r.out.ProbeFile()); err == nil {
		return
	}
	urls := []string{
		"http://" + r.cfg.Target,
		"https://" + r.cfg.Target,
	}
	if err := r.out.SaveLines(r.out.ProbeFile(), urls); err == nil {
		yellow.Printf("[!] Assuming %s and %s\n", urls[0], urls[1])
	}
}

func (r *Runner) printSummary(start time.Time, reportPath string) {
	green := color.New(color.FgGreen)

	green.Printf("\n┌─ Scan Summary ─────────────────────────────────\n")
	green.Printf("│ Target:   %s\n", r.cfg.Target)
	green.Printf("│ Duration: %s\n", time.Since(start).Round(time.Second))
	green.Printf("│ Results:  %s\n", r.out.BaseDir())
	green.Printf("│ Report:   %s\n", reportPath)
	green.Printf("└────────────────────────────────────────────────\n")

	for _, res := range r.table.Results() {
		glyph, c := statusGlyph(res.Status)
		line := fmt.Sprintf("  %s %-28s %-10s", glyph, pipeline.Name(res.Phase), res.Status)
		if res.Detail != "" {
			line += " " + res.Detail
		}
		c.Println(line)
	}
}

func statusGlyph(st pipeline.Status) (string, *color.Color) {
	switch st {
	case pipeline.StatusCompleted:
		return "✓", color.New(color.FgGreen)
	case pipeline.StatusFailed:
		return "✗", color.New(color.FgRed)
	case pipeline.StatusSkipped:
		return "○", color.New(color.FgYellow)
	default:
		return "·", color.New(color.FgWhite)
	}
}

// persist records the finished scan in history. Failures only warn:
// the scan itself already succeeded or failed on its own terms.
func (r *Runner) persist(start time.Time, rep *report.Report, reportPath string) {
	if r.store == nil {
		return
	}
	if r.scanID == "" {
		r.scanID = uuid.New().String()
	}

	rec := &storage.ScanRecord{
		ID:          r.scanID,
		Target:      r.cfg.Target,
		StartedAt:   start.UTC(),
		CompletedAt: time.Now().UTC(),
		Status:      r.Status(),
		Phases:      r.table.StatusMap(),
		Subdomains:  len(rep.Results.Subdomains),
		LiveHosts:   len(rep.Results.LiveHosts),
		URLs:        len(rep.Results.URLs),
		Findings:    len(rep.Results.Vulnerabilities),
		ReportPath:  reportPath,
	}
	ctx := context.Background()
	if err := r.store.SaveScan(ctx, rec); err != nil {
		color.Yellow("[!] Could not save scan history: %v", err)
		return
	}
	if err := r.store.SaveFindings(ctx, rec.ID, rep.Results.Vulnerabilities); err != nil {
		color.Yellow("[!] Could not save findings: %v", err)
	}
}
