package exec

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRunCapturesStdout(t *testing.T) {
	r := Run("echo", []string{"hello"}, nil)
	if r.Error != nil {
		t.Fatalf("echo failed: %v", r.Error)
	}
	if strings.TrimSpace(r.Stdout) != "hello" {
		t.Fatalf("expected stdout %q, got %q", "hello", r.Stdout)
	}
	if r.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", r.ExitCode)
	}
}

func TestRunWritesOutputFileOnSuccess(t *testing.T) {
	out := filepath.Join(t.TempDir(), "captured.txt")
	r := Run("echo", []string{"one", "two"}, &Options{OutputFile: out})
	if r.Error != nil {
		t.Fatalf("echo failed: %v", r.Error)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read capture file: %v", err)
	}
	if strings.TrimSpace(string(data)) != "one two" {
		t.Fatalf("unexpected capture content: %q", string(data))
	}
}

func TestRunSkipsOutputFileOnFailure(t *testing.T) {
	out := filepath.Join(t.TempDir(), "captured.txt")
	r := Run("sh", []string{"-c", "exit 3"}, &Options{OutputFile: out})
	if r.Error == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if r.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", r.ExitCode)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("capture file must not be written on failure")
	}
}

func TestRunReportsStderrOnFailure(t *testing.T) {
	r := Run("sh", []string{"-c", "echo bad >&2; exit 1"}, nil)
	if r.Error == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(r.Stderr, "bad") {
		t.Fatalf("expected stderr to carry diagnostic, got %q", r.Stderr)
	}
}

func TestRunTimesOut(t *testing.T) {
	r := Run("sleep", []string{"5"}, &Options{Timeout: 100 * time.Millisecond})
	if !r.TimedOut {
		t.Fatal("expected TimedOut to be set")
	}
	if r.Error != ErrTimeout {
		t.Fatalf("expected ErrTimeout, got %v", r.Error)
	}
}

func TestRunShellAppliesPipeSemantics(t *testing.T) {
	r := RunShell("printf 'a\\nb\\nc\\n' | wc -l", nil)
	if r.Error != nil {
		t.Fatalf("pipeline failed: %v", r.Error)
	}
	if strings.TrimSpace(r.Stdout) != "3" {
		t.Fatalf("expected 3 lines counted, got %q", r.Stdout)
	}
}

func TestLinesTrimsAndDropsBlanks(t *testing.T) {
	got := Lines("  a.example.com \n\n b.example.com\n \n")
	if len(got) != 2 || got[0] != "a.example.com" || got[1] != "b.example.com" {
		t.Fatalf("unexpected lines: %v", got)
	}
}
