package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	"github.com/strikesec/webstrike/internal/vulnscan"
)

// DBName is the scan history database file, kept next to the scan output.
const DBName = "webstrike.db"

// ScanRecord is one persisted pipeline run. Records are written once, when
// a run finishes, so every field is final.
type ScanRecord struct {
	ID          string            `json:"id"`
	Target      string            `json:"target"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at"`
	Status      string            `json:"status"`
	Phases      map[string]string `json:"phases"`
	Subdomains  int               `json:"subdomains"`
	LiveHosts   int               `json:"live_hosts"`
	URLs        int               `json:"urls"`
	Findings    int               `json:"findings"`
	ReportPath  string            `json:"report_path"`
}

type Store struct {
	db     *sql.DB
	dbPath string
}

// Open creates or opens the history database under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	dbPath := filepath.Join(dir, DBName)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scans (
		id TEXT PRIMARY KEY,
		target TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		completed_at DATETIME NOT NULL,
		status TEXT NOT NULL,
		phases_json TEXT,
		subdomains INTEGER DEFAULT 0,
		live_hosts INTEGER DEFAULT 0,
		urls INTEGER DEFAULT 0,
		findings INTEGER DEFAULT 0,
		report_path TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_scans_target ON scans(target);
	CREATE INDEX IF NOT EXISTS idx_scans_started_at ON scans(started_at);

	CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scan_id TEXT NOT NULL,
		host TEXT,
		template_id TEXT,
		name TEXT,
		severity TEXT,
		matched_at TEXT,
		FOREIGN KEY (scan_id) REFERENCES scans(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_findings_scan ON findings(scan_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file location.
func (s *Store) Path() string { return s.dbPath }

// SaveScan inserts a finished run.
func (s *Store) SaveScan(ctx context.Context, rec *ScanRecord) error {
	phasesJSON, _ := json.Marshal(rec.Phases)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scans (id, target, started_at, completed_at, status, phases_json,
			subdomains, live_hosts, urls, findings, report_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Target, rec.StartedAt, rec.CompletedAt, rec.Status, string(phasesJSON),
		rec.Subdomains, rec.LiveHosts, rec.URLs, rec.Findings, rec.ReportPath)
	return err
}

// SaveFindings inserts the findings of one run.
func (s *Store) SaveFindings(ctx context.Context, scanID string, findings []vulnscan.Finding) error {
	if len(findings) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO findings (scan_id, host, template_id, name, severity, matched_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, f := range findings {
		if _, err := stmt.ExecContext(ctx, scanID, f.Host, f.TemplateID, f.Name, f.Severity, f.MatchedAt); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ListScans returns all runs, newest first.
func (s *Store) ListScans(ctx context.Context) ([]ScanRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, target, started_at, completed_at, status, phases_json,
			subdomains, live_hosts, urls, findings, report_path
		FROM scans ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ScanRecord
	for rows.Next() {
		rec, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// GetScan returns one run by id.
func (s *Store) GetScan(ctx context.Context, id string) (*ScanRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, target, started_at, completed_at, status, phases_json,
			subdomains, live_hosts, urls, findings, report_path
		FROM scans WHERE id = ?
	`, id)
	rec, err := scanRow(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("scan %s not found", id)
	}
	return rec, err
}

// GetFindings returns the findings of one run.
func (s *Store) GetFindings(ctx context.Context, scanID string) ([]vulnscan.Finding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT host, template_id, name, severity, matched_at
		FROM findings WHERE scan_id = ? ORDER BY id
	`, scanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var findings []vulnscan.Finding
	for rows.Next() {
		var f vulnscan.Finding
		if err := rows.Scan(&f.Host, &f.TemplateID, &f.Name, &f.Severity, &f.MatchedAt); err != nil {
			return nil, err
		}
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRow(row rowScanner) (*ScanRecord, error) {
	var rec ScanRecord
	var phasesJSON string
	err := row.Scan(&rec.ID, &rec.Target, &rec.StartedAt, &rec.CompletedAt, &rec.Status,
		&phasesJSON, &rec.Subdomains, &rec.LiveHosts, &rec.URLs, &rec.Findings, &rec.ReportPath)
	if err != nil {
		return nil, err
	}
	if phasesJSON != "" {
		if err := json.Unmarshal([]byte(phasesJSON), &rec.Phases); err != nil {
			rec.Phases = nil
		}
	}
	return &rec, nil
}
