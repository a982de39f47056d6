package exec

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/strikesec/webstrike/internal/debug"
)

// ErrTimeout is returned in Result.Error when a command exceeds its timeout.
var ErrTimeout = errors.New("command timed out")

// processManager tracks all running child processes for cleanup
var (
	runningProcesses = make(map[int]*exec.Cmd)
	processMu        sync.Mutex
)

// trackProcess adds a process to the tracking map
func trackProcess(cmd *exec.Cmd) {
	if cmd.Process != nil {
		processMu.Lock()
		runningProcesses[cmd.Process.Pid] = cmd
		processMu.Unlock()
	}
}

// untrackProcess removes a process from the tracking map
func untrackProcess(cmd *exec.Cmd) {
	if cmd.Process != nil {
		processMu.Lock()
		delete(runningProcesses, cmd.Process.Pid)
		processMu.Unlock()
	}
}

// KillAllProcesses terminates all tracked child processes and their process groups
func KillAllProcesses() {
	processMu.Lock()
	defer processMu.Unlock()

	for pid, cmd := range runningProcesses {
		if cmd.Process != nil {
			// Kill the entire process group (negative PID)
			syscall.Kill(-pid, syscall.SIGKILL)
			// Also try to kill the process directly
			cmd.Process.Kill()
		}
	}
	// Clear the map
	runningProcesses = make(map[int]*exec.Cmd)
}

type Result struct {
	Stdout, Stderr string
	ExitCode       int
	Duration       time.Duration
	TimedOut       bool
	Error          error
}

type Options struct {
	Timeout    time.Duration
	Env        []string
	OutputFile string // When set, stdout is written here on success
	Tool       string // Trace label when the binary name is not the tool, e.g. sh pipelines
}

// ToolPaths lists the install locations searched for external tool binaries.
// They are prepended to PATH for every invocation so freshly installed tools
// resolve without a shell restart.
func ToolPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		filepath.Join(home, ".go", "bin"),
		filepath.Join(home, "go", "bin"),
		"/usr/local/go/bin",
	}
}

// injectPath prepends the existing tool install directories to PATH.
func injectPath() string {
	path := os.Getenv("PATH")
	for _, p := range ToolPaths() {
		if _, err := os.Stat(p); err == nil {
			path = p + string(os.PathListSeparator) + path
		}
	}
	return "PATH=" + path
}

// Run executes a program directly with tokenized arguments. No shell is
// involved; callers that need pipe semantics use RunShell instead.
func Run(name string, args []string, opts *Options) *Result {
	if opts == nil {
		opts = &Options{Timeout: 5 * time.Minute}
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Minute
	}

	tool := name
	if opts.Tool != "" {
		tool = opts.Tool
	}
	start := debug.LogStart(tool, args)

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)

	// Create new process group so we can kill all child processes
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	cmd.Env = append(os.Environ(), injectPath())
	if len(opts.Env) > 0 {
		cmd.Env = append(cmd.Env, opts.Env...)
	}

	// Capture both stdout and stderr to prevent leaking to terminal
	var stdoutBuf, stderrBuf strings.Builder
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Start()
	if err == nil {
		trackProcess(cmd)
		err = cmd.Wait()
		untrackProcess(cmd)
	}

	r := &Result{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Duration: time.Since(start),
	}
	if ctx.Err() == context.DeadlineExceeded {
		r.TimedOut = true
		r.Error = ErrTimeout
	} else if err != nil {
		r.Error = err
		if exitErr, ok := err.(*exec.ExitError); ok {
			r.ExitCode = exitErr.ExitCode()
		}
	}

	if r.Error == nil && opts.OutputFile != "" {
		if werr := os.WriteFile(opts.OutputFile, []byte(r.Stdout), 0644); werr != nil {
			r.Error = werr
		}
	}

	debug.LogEnd(tool, args, start, r.Error, len(Lines(r.Stdout)))

	return r
}

// RunShell executes a command line through `sh -c` so pipe semantics apply.
// Callers choose this entry point explicitly; Run never invokes a shell.
func RunShell(pipeline string, opts *Options) *Result {
	return Run("sh", []string{"-c", pipeline}, opts)
}

// Lines splits s into trimmed non-blank lines.
func Lines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
