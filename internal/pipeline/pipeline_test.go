package pipeline

import (
	"errors"
	"testing"
)

func TestAllPhasesOrdered(t *testing.T) {
	want := []Phase{
		PhaseWordlist,
		PhaseSubdomains,
		PhaseProbing,
		PhaseWebContent,
		PhaseExtended,
		PhaseVulnScan,
	}
	got := All()
	if len(got) != len(want) {
		t.Fatalf("All() returned %d phases, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("phase %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName(PhaseSubdomains); got != "[Phase 2] Subdomain Discovery" {
		t.Errorf("DisplayName = %q", got)
	}
	if got := DisplayName(PhaseVulnScan); got != "[Phase 6] Vulnerability Scanning" {
		t.Errorf("DisplayName = %q", got)
	}
}

func TestTableLifecycle(t *testing.T) {
	tbl := NewTable()

	for _, p := range All() {
		if s := tbl.Get(p).Status; s != StatusPending {
			t.Fatalf("phase %s starts as %s, want pending", p, s)
		}
	}

	tbl.Start(PhaseSubdomains)
	if s := tbl.Get(PhaseSubdomains).Status; s != StatusRunning {
		t.Errorf("after Start status = %s", s)
	}

	tbl.Complete(PhaseSubdomains, "42 subdomains")
	r := tbl.Get(PhaseSubdomains)
	if r.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", r.Status)
	}
	if r.Detail != "42 subdomains" {
		t.Errorf("detail = %q", r.Detail)
	}
	if r.EndTime.Before(r.StartTime) {
		t.Error("end time before start time")
	}
}

func TestTableFailureIsolated(t *testing.T) {
	tbl := NewTable()

	tbl.Start(PhaseWordlist)
	tbl.Fail(PhaseWordlist, errors.New("download refused"))
	tbl.Start(PhaseSubdomains)
	tbl.Complete(PhaseSubdomains, "")
	tbl.Skip(PhaseProbing, "no subdomains file")

	if got := tbl.FailedCount(); got != 1 {
		t.Errorf("FailedCount = %d, want 1", got)
	}
	if got := tbl.CompletedCount(); got != 1 {
		t.Errorf("CompletedCount = %d, want 1", got)
	}
	if !tbl.AnyCompleted() {
		t.Error("AnyCompleted should be true with one completed phase")
	}
	if r := tbl.Get(PhaseWordlist); r.Error == nil || r.Detail != "download refused" {
		t.Errorf("failed phase result = %+v", r)
	}
	if r := tbl.Get(PhaseProbing); r.Status != StatusSkipped || r.Detail != "no subdomains file" {
		t.Errorf("skipped phase result = %+v", r)
	}
}

func TestAnyCompletedAllFailed(t *testing.T) {
	tbl := NewTable()
	for _, p := range All() {
		tbl.Start(p)
		tbl.Fail(p, errors.New("boom"))
	}
	if tbl.AnyCompleted() {
		t.Error("AnyCompleted should be false when every phase failed")
	}
	if got := tbl.FailedCount(); got != len(All()) {
		t.Errorf("FailedCount = %d, want %d", got, len(All()))
	}
}

func TestResultsOrderMatchesExecution(t *testing.T) {
	tbl := NewTable()
	results := tbl.Results()
	for i, p := range All() {
		if results[i].Phase != p {
			t.Errorf("results[%d] = %s, want %s", i, results[i].Phase, p)
		}
	}
}

func TestStatusMap(t *testing.T) {
	tbl := NewTable()
	tbl.Start(PhaseVulnScan)
	tbl.Complete(PhaseVulnScan, "")

	m := tbl.StatusMap()
	if m["vulnerability_scanning"] != "completed" {
		t.Errorf("status map entry = %q", m["vulnerability_scanning"])
	}
	if m["wordlist_download"] != "pending" {
		t.Errorf("untouched phase = %q", m["wordlist_download"])
	}
}
