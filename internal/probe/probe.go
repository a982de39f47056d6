package probe

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/strikesec/webstrike/internal/config"
	"github.com/strikesec/webstrike/internal/exec"
	"github.com/strikesec/webstrike/internal/output"
	"github.com/strikesec/webstrike/internal/tools"
)

// ErrNoInput means the subdomain file was empty, so there is nothing to
// probe. The caller treats this as a skip, not a failure.
var ErrNoInput = errors.New("no subdomains to probe")

type Result struct {
	Target     string        `json:"target"`
	Candidates int           `json:"candidates"`
	Alive      []string      `json:"alive"`
	Total      int           `json:"total"`
	Duration   time.Duration `json:"duration"`
}

type Prober struct {
	cfg *config.Config
	c   *tools.Checker
	out *output.Manager
}

func NewProber(cfg *config.Config, checker *tools.Checker, out *output.Manager) *Prober {
	return &Prober{cfg: cfg, c: checker, out: out}
}

// Probe pipes the discovered subdomains through httprobe and captures the
// responding URLs in the probe file. httprobe reads hostnames on stdin, so
// the subdomain list is staged in a .temp copy that is removed whether or
// not the probe succeeds.
func (p *Prober) Probe() (*Result, error) {
	start := time.Now()

	subs, err := p.out.ReadLines(p.out.SubsFile())
	if err != nil {
		return nil, fmt.Errorf("read subdomain file: %w", err)
	}
	if len(subs) == 0 {
		return nil, ErrNoInput
	}
	if !p.c.IsInstalled("httprobe") {
		return nil, fmt.Errorf("httprobe is not installed")
	}

	tempFile := p.out.SubsFile() + ".temp"
	if err := p.out.SaveLines(tempFile, subs); err != nil {
		return nil, fmt.Errorf("stage probe input: %w", err)
	}
	defer os.Remove(tempFile)

	probeFile := p.out.ProbeFile()
	cmd := fmt.Sprintf("cat %s | httprobe -c %d", tempFile, p.cfg.Threads)
	r := exec.RunShell(cmd, &exec.Options{
		Timeout:    time.Duration(p.cfg.Timeout) * time.Second,
		OutputFile: probeFile,
		Tool:       "httprobe",
	})
	if r.Error != nil {
		return nil, fmt.Errorf("httprobe: %w", r.Error)
	}

	alive, err := p.out.ReadLines(probeFile)
	if err != nil {
		return nil, fmt.Errorf("read probe output: %w", err)
	}

	return &Result{
		Target:     p.out.Target(),
		Candidates: len(subs),
		Alive:      alive,
		Total:      len(alive),
		Duration:   time.Since(start),
	}, nil
}
