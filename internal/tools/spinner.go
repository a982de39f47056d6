package tools

import (
	"fmt"
	"time"

	"github.com/fatih/color"
)

// Spinner animates a single console line while a slow operation runs.
// Finish with Stop, Success, Fail or Skip.
type Spinner struct {
	message string
	done    chan struct{}
	running bool
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func NewSpinner(message string) *Spinner {
	return &Spinner{message: message}
}

func (s *Spinner) Start() {
	if s.running {
		return
	}
	s.running = true
	s.done = make(chan struct{})

	go func(done chan struct{}, msg string) {
		cyan := color.New(color.FgCyan)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			case <-ticker.C:
				fmt.Printf("\r    %s %s", cyan.Sprint(spinnerFrames[i%len(spinnerFrames)]), msg)
			}
		}
	}(s.done, s.message)
}

// Stop halts the animation and clears the line.
func (s *Spinner) Stop() {
	if !s.running {
		return
	}
	s.running = false
	close(s.done)
	fmt.Print("\r\033[K")
}

func (s *Spinner) Success(message string) {
	s.Stop()
	color.New(color.FgGreen).Printf("    ✓ %s\n", message)
}

func (s *Spinner) Fail(message string) {
	s.Stop()
	color.New(color.FgYellow).Printf("    ✗ %s\n", message)
}
