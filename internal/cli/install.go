package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/strikesec/webstrike/internal/config"
	"github.com/strikesec/webstrike/internal/tools"
)

var installConcurrency int

var installCmd = &cobra.Command{
	Use:   "install [tool]",
	Short: "Install missing scan tools",
	Long: `Install every required scan tool that is missing or broken, using
'go install' with ~/.go as the install root. Tools that already pass their
health check are skipped. Also caches the content-discovery wordlist.

With a tool name, install just that tool.

Examples:
  webstrike install
  webstrike install nuclei
  webstrike install --concurrency 2`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().IntVar(&installConcurrency, "concurrency", 4, "Parallel tool installs")
}

func runInstall(cmd *cobra.Command, args []string) error {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan, color.Bold)
	gray := color.New(color.FgHiBlack)

	cyan.Println("\n[+] Installing WebStrike Dependencies")
	fmt.Println()

	platform := tools.DetectPlatform()
	fmt.Printf("    Platform: %s\n", platform)
	fmt.Printf("    Install root: %s\n", tools.GoPathRoot())
	fmt.Printf("    Go bin: %s\n", platform.GoBinDir)
	fmt.Println()

	goVersion, err := tools.CheckGoToolchain()
	if err != nil {
		color.Red("[!] %v", err)
		fmt.Println("    Install Go from: https://golang.org/dl/")
		return err
	}
	gray.Printf("    Toolchain: go%s\n\n", goVersion)

	if len(args) == 1 {
		return installOne(args[0])
	}

	start := time.Now()

	fmt.Println("[*] Installing scan tools...")
	catalog := tools.Catalog()
	spinner := tools.NewSpinner(fmt.Sprintf("Installing %d tools (%d parallel)...", len(catalog), installConcurrency))
	spinner.Start()

	installer := tools.NewInstaller()
	results := installer.InstallAll(installConcurrency)
	spinner.Stop()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	var okCount, skipCount, failCount int
	for _, r := range results {
		switch {
		case r.Skipped:
			skipCount++
			gray.Printf("    ○ %s: already installed\n", r.Name)
		case r.Err != nil:
			failCount++
			yellow.Printf("    ✗ %s: %v\n", r.Name, r.Err)
		default:
			okCount++
			green.Printf("    ✓ %s\n", r.Name)
		}
	}

	fmt.Println("\n[*] Caching wordlist...")
	wlSpinner := tools.NewSpinner("Fetching common.txt...")
	wlSpinner.Start()
	if path, err := tools.DownloadWordlist(config.DefaultWordlistURL); err != nil {
		wlSpinner.Fail(fmt.Sprintf("wordlist: %v", err))
	} else {
		wlSpinner.Success(fmt.Sprintf("wordlist: %s", path))
	}

	elapsed := time.Since(start).Round(time.Second)
	fmt.Println()
	cyan.Println("─────────────────────────────────────────────────")
	green.Printf("[+] Installation complete! (%s)\n", elapsed)
	fmt.Printf("    Tools: %d installed, %d skipped, %d failed\n", okCount, skipCount, failCount)
	fmt.Println("    Run 'webstrike check' to verify all tools are working")

	if failCount > 0 {
		return fmt.Errorf("%d tools failed to install", failCount)
	}
	return nil
}

// installOne installs a single catalog tool by name.
func installOne(name string) error {
	tool, ok := tools.Lookup(name)
	if !ok {
		names := make([]string, 0, len(tools.Catalog()))
		for _, t := range tools.Catalog() {
			names = append(names, t.Name)
		}
		return fmt.Errorf("unknown tool %q, expected one of: %s", name, strings.Join(names, ", "))
	}

	if tools.NewChecker().Classify(tool) == tools.StateAvailable {
		color.New(color.FgHiBlack).Printf("    ○ %s: already installed and healthy\n", tool.Name)
		return nil
	}

	spinner := tools.NewSpinner(fmt.Sprintf("Installing %s...", tool.Name))
	spinner.Start()
	err := tools.NewInstaller().Install(tool)
	spinner.Stop()
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Printf("    ✓ %s\n", tool.Name)
	return nil
}
