package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/strikesec/webstrike/internal/tools"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check which scan tools are installed",
	Long: `Check every required scan tool and report whether it is available,
missing, or installed but failing its health check. Nothing is installed.

Exits non-zero when any tool is unavailable.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan, color.Bold)

	cyan.Println("\n[+] WebStrike Tool Status")
	fmt.Println()

	checker := tools.NewChecker()
	statuses := checker.CheckAll()

	fmt.Println("Required Tools:")
	fmt.Println("─────────────────────────────────────────────────────")

	unavailable := 0
	for _, st := range statuses {
		fmt.Printf("  %-15s ", st.Tool.Name)
		switch st.State {
		case tools.StateAvailable:
			green.Print("✓ available")
			if st.Version != "" {
				fmt.Printf(" (%s)", st.Version)
			}
			fmt.Println()
		case tools.StateBroken:
			unavailable++
			yellow.Println("○ broken, health check failing")
		default:
			unavailable++
			red.Println("✗ missing")
		}
	}

	fmt.Println("\nWordlists:")
	fmt.Println("─────────────────────────────────────────────────────")
	fmt.Printf("  %-15s ", "common.txt")
	if _, err := os.Stat(tools.WordlistCachePath); err == nil {
		green.Print("✓ cached")
		fmt.Printf(" (%s)\n", tools.WordlistCachePath)
	} else if wl := tools.FindLocalWordlist(); wl != "" {
		green.Print("✓ local")
		fmt.Printf(" (%s)\n", wl)
	} else {
		yellow.Println("○ not present, downloaded at scan start")
	}

	fmt.Println("\n─────────────────────────────────────────────────────")
	fmt.Printf("Available: %d/%d\n", len(statuses)-unavailable, len(statuses))

	if unavailable > 0 {
		fmt.Println()
		yellow.Println("⚠ Some required tools are missing or broken!")
		fmt.Println("  Run 'webstrike install' to install them")
		return fmt.Errorf("%d of %d required tools unavailable", unavailable, len(statuses))
	}

	fmt.Println()
	green.Println("✓ All required tools are available!")
	return nil
}
