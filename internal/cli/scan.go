package cli

import (
	"fmt"
	"strings"

	"github.com/bobesa/go-domain-util/domainutil"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/strikesec/webstrike/internal/config"
	"github.com/strikesec/webstrike/internal/runner"
	"github.com/strikesec/webstrike/internal/storage"
	"github.com/strikesec/webstrike/internal/tools"
)

var (
	scanThreads    int
	scanTimeout    int
	scanOutputDir  string
	scanTemplates  string
	scanConfigFile string
	scanVerbose    bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <target>",
	Short: "Run the full scan pipeline against a target domain",
	Long: `Run all scan phases against a target domain: wordlist download,
subdomain discovery, HTTP probing, web content discovery, extended scan
and vulnerability scanning.

Phases run sequentially and a failed phase never aborts the run; the JSON
report reflects whatever succeeded.

Examples:
  webstrike scan example.com
  webstrike scan -t 20 example.com
  webstrike scan --config config.yaml example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVarP(&scanThreads, "threads", "t", 10, "Threads passed through to tools")
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 30, "Per-command timeout in seconds")
	scanCmd.Flags().StringVar(&scanOutputDir, "output-dir", "Targets", "Output directory")
	scanCmd.Flags().StringVar(&scanTemplates, "nuclei-templates", "~/nuclei-templates/", "Path to nuclei templates")
	scanCmd.Flags().StringVar(&scanConfigFile, "config", "", "YAML configuration file (replaces all flag values)")
	scanCmd.Flags().BoolVarP(&scanVerbose, "verbose", "v", false, "Show command traces and per-phase timing")
}

func runScan(cmd *cobra.Command, args []string) error {
	printBanner()

	yellow := color.New(color.FgYellow)
	green := color.New(color.FgGreen)

	var cfg *config.Config
	if scanConfigFile != "" {
		loaded, err := config.LoadFile(scanConfigFile)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
		cfg.Threads = scanThreads
		cfg.Timeout = scanTimeout
		cfg.OutputDir = scanOutputDir
		cfg.NucleiTemplates = scanTemplates
		cfg.Verbose = scanVerbose
	}

	// The config file wins over the positional argument when it names a
	// target of its own.
	if cfg.Target == "" {
		target, stripped := normalizeTarget(strings.TrimSpace(args[0]))
		if stripped {
			yellow.Printf("[!] Target looks like a URL, scanning host %s\n", target)
		}
		cfg.Target = target
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if domainutil.Domain(cfg.Target) == "" {
		yellow.Printf("[!] %s has no recognized public suffix, scanning anyway\n", cfg.Target)
	}

	goVersion, err := tools.CheckGoToolchain()
	if err != nil {
		color.Red("[!] %v", err)
		fmt.Println("    Install Go from: https://golang.org/dl/")
		return err
	}
	green.Printf("[*] Go found: go%s\n", goVersion)

	fmt.Printf("    Target:  %s\n", cfg.Target)
	fmt.Printf("    Threads: %d\n", cfg.Threads)
	fmt.Printf("    Timeout: %ds\n", cfg.Timeout)
	fmt.Printf("    Output:  %s\n", cfg.OutputDir)
	fmt.Println()

	installer := tools.NewInstaller()
	if err := installer.EnsureAll(); err != nil {
		color.Red("[!] Failed to install required tools: %v", err)
		fmt.Println("    Troubleshooting:")
		fmt.Println("      1. Ensure Go is installed: go version")
		fmt.Println("      2. Check your internet connection")
		fmt.Println("      3. Verify you have write permissions to ~/.go")
		fmt.Println("      4. Try: export GOPATH=~/.go && export PATH=$PATH:$GOPATH/bin")
		return fmt.Errorf("required tools are unavailable")
	}

	r := runner.New(cfg)
	if store, err := storage.Open(cfg.OutputDir); err == nil {
		defer store.Close()
		r.SetStore(store)
	} else {
		yellow.Printf("[!] Scan history disabled: %v\n", err)
	}

	return r.Run()
}

// normalizeTarget strips a URL down to its host, so a pasted URL scans the
// underlying domain. The second return reports whether anything was
// stripped.
func normalizeTarget(raw string) (string, bool) {
	if !strings.Contains(raw, "://") {
		return raw, false
	}
	host := raw[strings.Index(raw, "://")+3:]
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if i := strings.LastIndex(host, "@"); i >= 0 {
		host = host[i+1:]
	}
	if i := strings.Index(host, ":"); i >= 0 {
		host = host[:i]
	}
	return host, true
}
