package pipeline

import (
	"fmt"
	"sync"
	"time"
)

// Phase represents a scan phase identifier
type Phase string

const (
	PhaseWordlist   Phase = "wordlist_download"      // Phase 1
	PhaseSubdomains Phase = "subdomain_discovery"    // Phase 2
	PhaseProbing    Phase = "http_probing"           // Phase 3
	PhaseWebContent Phase = "web_content_discovery"  // Phase 4
	PhaseExtended   Phase = "extended_scan"          // Phase 5
	PhaseVulnScan   Phase = "vulnerability_scanning" // Phase 6
)

// phaseNumber maps phases to their display number
var phaseNumber = map[Phase]int{
	PhaseWordlist:   1,
	PhaseSubdomains: 2,
	PhaseProbing:    3,
	PhaseWebContent: 4,
	PhaseExtended:   5,
	PhaseVulnScan:   6,
}

// phaseName maps phases to their display name
var phaseName = map[Phase]string{
	PhaseWordlist:   "Wordlist Download",
	PhaseSubdomains: "Subdomain Discovery",
	PhaseProbing:    "HTTP Probing",
	PhaseWebContent: "Web Content Discovery",
	PhaseExtended:   "Extended Scan",
	PhaseVulnScan:   "Vulnerability Scanning",
}

// All returns the phases in execution order. Later phases consume the
// artifacts of earlier ones, so the order is fixed.
func All() []Phase {
	return []Phase{
		PhaseWordlist,
		PhaseSubdomains,
		PhaseProbing,
		PhaseWebContent,
		PhaseExtended,
		PhaseVulnScan,
	}
}

// DisplayName returns "[Phase N] Name" for CLI output
func DisplayName(phase Phase) string {
	return fmt.Sprintf("[Phase %d] %s", phaseNumber[phase], phaseName[phase])
}

// Name returns the human-readable phase name
func Name(phase Phase) string {
	return phaseName[phase]
}

// Status represents the execution status of a phase
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Result represents the outcome of one phase execution
type Result struct {
	Phase     Phase
	Status    Status
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Detail    string
	Error     error
}

// Table tracks per-phase outcomes across a scan. A failed phase never
// aborts the table; the scan drives on and the table records what happened.
type Table struct {
	mu      sync.Mutex
	results map[Phase]*Result
}

// NewTable creates a table with every phase pending.
func NewTable() *Table {
	t := &Table{results: make(map[Phase]*Result, len(All()))}
	for _, p := range All() {
		t.results[p] = &Result{Phase: p, Status: StatusPending}
	}
	return t
}

// Start marks a phase running and stamps its start time.
func (t *Table) Start(phase Phase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.results[phase]
	r.Status = StatusRunning
	r.StartTime = time.Now()
}

func (t *Table) finish(phase Phase, status Status, detail string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.results[phase]
	r.Status = status
	r.Detail = detail
	r.Error = err
	r.EndTime = time.Now()
	if !r.StartTime.IsZero() {
		r.Duration = r.EndTime.Sub(r.StartTime)
	}
}

// Complete marks a phase as completed with an optional detail line.
func (t *Table) Complete(phase Phase, detail string) {
	t.finish(phase, StatusCompleted, detail, nil)
}

// Fail marks a phase as failed with the error that stopped it.
func (t *Table) Fail(phase Phase, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	t.finish(phase, StatusFailed, detail, err)
}

// Skip marks a phase as skipped with the reason.
func (t *Table) Skip(phase Phase, reason string) {
	t.finish(phase, StatusSkipped, reason, nil)
}

// Get returns a copy of the result for one phase.
func (t *Table) Get(phase Phase) Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.results[phase]
}

// Results returns result copies in execution order.
func (t *Table) Results() []Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Result, 0, len(t.results))
	for _, p := range All() {
		out = append(out, *t.results[p])
	}
	return out
}

// CompletedCount returns how many phases finished successfully.
func (t *Table) CompletedCount() int {
	return t.count(StatusCompleted)
}

// FailedCount returns how many phases failed.
func (t *Table) FailedCount() int {
	return t.count(StatusFailed)
}

func (t *Table) count(status Status) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, r := range t.results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// AnyCompleted reports whether at least one phase finished successfully.
// One completed phase is enough for the scan to count as useful.
func (t *Table) AnyCompleted() bool {
	return t.CompletedCount() > 0
}

// StatusMap returns phase name to status string, used by the report and
// scan history persistence.
func (t *Table) StatusMap() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]string, len(t.results))
	for p, r := range t.results {
		out[string(p)] = string(r.Status)
	}
	return out
}
