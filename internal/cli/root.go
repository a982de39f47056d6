package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/strikesec/webstrike/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "webstrike",
	Short: "Web attack surface scanner",
	Long: `WebStrike chains the standard recon toolchain into one sequential scan:
subdomain discovery, HTTP probing, content discovery and vulnerability
scanning, with deduplicated artifacts and a JSON report per run.

Install: go install github.com/strikesec/webstrike@latest`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(versionCmd)
}

func Execute() error {
	return rootCmd.Execute()
}

func printBanner() {
	red := color.New(color.FgRed, color.Bold)
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)
	white := color.New(color.FgWhite, color.Bold)
	gray := color.New(color.FgHiBlack)

	red.Print(`
__      __  ___   ___   ___   _____   ___   ___   _  __  ___
\ \    / / | __| | _ ) / __| |_   _| | _ \ |_ _| | |/ / | __|
 \ \/\/ /  | _|  | _ \ \__ \   | |   |   /  | |  | ' <  | _|
  \_/\_/   |___| |___/ |___/   |_|   |_|_\ |___| |_|\_\ |___|
`)
	fmt.Println()
	cyan.Print("  Web Attack Surface Scanner")
	gray.Printf("  v%s\n", version.Version)
	fmt.Println()
	yellow.Print("  [*] ")
	white.Println("Subdomain Discovery | HTTP Probing | Content Discovery")
	yellow.Print("  [*] ")
	white.Println("Vulnerability Scanning | JSON Reports | Scan History")
	fmt.Println()
	gray.Println("  github.com/strikesec/webstrike")
	fmt.Println()
}
