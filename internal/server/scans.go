package server

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/strikesec/webstrike/internal/config"
	"github.com/strikesec/webstrike/internal/pipeline"
	"github.com/strikesec/webstrike/internal/runner"
	"github.com/strikesec/webstrike/internal/storage"
)

// Scan is the API view of one pipeline run.
type Scan struct {
	ID          string       `json:"id"`
	Target      string       `json:"target"`
	Status      string       `json:"status"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Duration    string       `json:"duration,omitempty"`
	Phases      []PhaseState `json:"phases,omitempty"`
	ReportPath  string       `json:"report_path,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// PhaseState is one phase row inside a Scan.
type PhaseState struct {
	Phase  string `json:"phase"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ScanManager launches pipeline runs in the background and tracks the
// ones started by this process. Finished runs also land in the history
// store under the same ID.
type ScanManager struct {
	mu      sync.RWMutex
	scans   map[string]*Scan
	order   []string
	baseCfg *config.Config
	store   *storage.Store
	hub     *Hub
}

func NewScanManager(cfg *config.Config, store *storage.Store) *ScanManager {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &ScanManager{
		scans:   make(map[string]*Scan),
		baseCfg: cfg,
		store:   store,
	}
}

// SetHub wires the websocket hub that receives scan events.
func (m *ScanManager) SetHub(h *Hub) { m.hub = h }

// Start launches a scan against target and returns immediately.
func (m *ScanManager) Start(target string) (Scan, error) {
	cfg := *m.baseCfg
	cfg.Target = target
	if err := cfg.Validate(); err != nil {
		return Scan{}, err
	}

	id := uuid.New().String()[:8]
	scan := &Scan{
		ID:        id,
		Target:    target,
		Status:    "running",
		StartedAt: time.Now(),
	}

	m.mu.Lock()
	m.scans[id] = scan
	m.order = append(m.order, id)
	m.mu.Unlock()

	go m.run(scan, &cfg)
	return *scan, nil
}

func (m *ScanManager) run(scan *Scan, cfg *config.Config) {
	m.broadcast("scan_started", scan)

	r := runner.New(cfg)
	r.SetScanID(scan.ID)
	if m.store != nil {
		r.SetStore(m.store)
	}
	r.SetEventFunc(func(ev runner.Event) {
		m.recordPhase(scan.ID, ev)
		if m.hub != nil {
			m.hub.BroadcastToScan(scan.ID, Message{
				Type:   "phase_update",
				ScanID: scan.ID,
				Data:   ev,
			})
		}
	})

	err := r.Run()

	m.mu.Lock()
	now := time.Now()
	scan.CompletedAt = &now
	scan.Duration = now.Sub(scan.StartedAt).Round(time.Second).String()
	scan.Status = r.Status()
	scan.ReportPath = r.ReportPath()
	if err != nil {
		scan.Error = err.Error()
	}
	m.mu.Unlock()

	event := "scan_completed"
	if scan.Status == "failed" {
		event = "scan_failed"
	}
	m.broadcast(event, scan)
	log.Printf("[scan %s] %s finished: %s", scan.ID, scan.Target, scan.Status)
}

func (m *ScanManager) recordPhase(id string, ev runner.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	scan, ok := m.scans[id]
	if !ok {
		return
	}
	for i := range scan.Phases {
		if scan.Phases[i].Phase == ev.Phase {
			scan.Phases[i].Status = ev.Status
			scan.Phases[i].Detail = ev.Message
			return
		}
	}
	scan.Phases = append(scan.Phases, PhaseState{Phase: ev.Phase, Status: ev.Status, Detail: ev.Message})
}

func (m *ScanManager) broadcast(eventType string, scan *Scan) {
	if m.hub == nil {
		return
	}
	m.mu.RLock()
	view := *scan
	view.Phases = append([]PhaseState(nil), scan.Phases...)
	m.mu.RUnlock()
	m.hub.BroadcastToScan(view.ID, Message{Type: eventType, ScanID: view.ID, Data: view})
}

// Get returns a copy of a scan started by this process.
func (m *ScanManager) Get(id string) (Scan, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	scan, ok := m.scans[id]
	if !ok {
		return Scan{}, false
	}
	view := *scan
	view.Phases = append([]PhaseState(nil), scan.Phases...)
	return view, true
}

// List returns this process's scans, newest first.
func (m *ScanManager) List() []Scan {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Scan, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		scan := m.scans[m.order[i]]
		view := *scan
		view.Phases = append([]PhaseState(nil), scan.Phases...)
		out = append(out, view)
	}
	return out
}

// History returns stored scans that were not started by this process.
func (m *ScanManager) History(ctx context.Context) ([]Scan, error) {
	if m.store == nil {
		return nil, nil
	}
	records, err := m.store.ListScans(ctx)
	if err != nil {
		return nil, fmt.Errorf("list scan history: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Scan
	for _, rec := range records {
		if _, live := m.scans[rec.ID]; live {
			continue
		}
		out = append(out, recordView(rec))
	}
	return out, nil
}

// recordView converts a history record into the API scan shape.
func recordView(rec storage.ScanRecord) Scan {
	completed := rec.CompletedAt
	scan := Scan{
		ID:          rec.ID,
		Target:      rec.Target,
		Status:      rec.Status,
		StartedAt:   rec.StartedAt,
		CompletedAt: &completed,
		Duration:    rec.CompletedAt.Sub(rec.StartedAt).Round(time.Second).String(),
		ReportPath:  rec.ReportPath,
	}
	for _, ph := range pipeline.All() {
		if st, ok := rec.Phases[string(ph)]; ok {
			scan.Phases = append(scan.Phases, PhaseState{Phase: string(ph), Status: st})
		}
	}
	return scan
}
