package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/strikesec/webstrike/internal/cli"
	"github.com/strikesec/webstrike/internal/exec"
)

func main() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigChan
		fmt.Fprintf(os.Stderr, "\n[!] Interrupted, stopping running tools...\n")
		exec.KillAllProcesses()
		os.Exit(130)
	}()

	if err := cli.Execute(); err != nil {
		exec.KillAllProcesses()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
