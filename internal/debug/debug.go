package debug

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	enabled bool
	mu      sync.Mutex
	entries []entry
)

type entry struct {
	tool     string
	duration time.Duration
	failed   bool
}

// Enable turns on verbose command tracing
func Enable() {
	mu.Lock()
	enabled = true
	mu.Unlock()
}

// IsEnabled returns whether verbose tracing is enabled
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// LogStart traces the start of an external command and returns its start time
func LogStart(tool string, args []string) time.Time {
	if !IsEnabled() {
		return time.Now()
	}
	start := time.Now()
	gray := color.New(color.FgHiBlack)
	gray.Printf("    [debug %s] run: %s %s\n", start.Format("15:04:05.000"), tool, strings.Join(args, " "))
	return start
}

// LogEnd traces the completion of an external command
func LogEnd(tool string, args []string, start time.Time, err error, outputLines int) {
	if !IsEnabled() {
		return
	}
	duration := time.Since(start)

	status := "ok"
	statusColor := color.New(color.FgGreen)
	if err != nil {
		status = fmt.Sprintf("error: %v", err)
		statusColor = color.New(color.FgRed)
	}

	gray := color.New(color.FgHiBlack)
	gray.Printf("    [debug %s] end: %s ", time.Now().Format("15:04:05.000"), tool)
	statusColor.Printf("%s", status)
	gray.Printf(" (%s, %d lines)\n", duration.Round(time.Millisecond), outputLines)

	mu.Lock()
	entries = append(entries, entry{tool: tool, duration: duration, failed: err != nil})
	mu.Unlock()
}

// LogPhaseStart traces the start of a pipeline phase
func LogPhaseStart(phase string) time.Time {
	if !IsEnabled() {
		return time.Now()
	}
	start := time.Now()
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Printf("    [debug %s] phase start: %s\n", start.Format("15:04:05.000"), phase)
	return start
}

// LogPhaseEnd traces the end of a pipeline phase
func LogPhaseEnd(phase string, start time.Time) {
	if !IsEnabled() {
		return
	}
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Printf("    [debug %s] phase end: %s (%s)\n", time.Now().Format("15:04:05.000"), phase, time.Since(start).Round(time.Millisecond))
}

// Summary prints per-tool wall-clock totals collected during the run
func Summary() {
	mu.Lock()
	snapshot := append([]entry{}, entries...)
	mu.Unlock()

	if !IsEnabled() || len(snapshot) == 0 {
		return
	}

	cyan := color.New(color.FgCyan, color.Bold)
	fmt.Println()
	cyan.Println("── command trace ──────────────────────────────")

	var total time.Duration
	for _, e := range snapshot {
		glyph := "✓"
		if e.failed {
			glyph = "✗"
		}
		fmt.Printf("  %s %-20s %10s\n", glyph, e.tool, e.duration.Round(time.Millisecond))
		total += e.duration
	}
	fmt.Printf("  total tool time: %s across %d commands\n", total.Round(time.Millisecond), len(snapshot))
}
