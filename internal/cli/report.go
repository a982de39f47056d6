package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/strikesec/webstrike/internal/pipeline"
	"github.com/strikesec/webstrike/internal/storage"
)

var (
	reportList      bool
	reportScanID    string
	reportOutputDir string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Browse recorded scan history",
	Long: `Browse the scan history recorded in the output directory's database.

Examples:
  webstrike report --list
  webstrike report --scan 1b2e4f8a
  webstrike report --output-dir ./Targets --list`,
	RunE: runReportCmd,
}

func init() {
	reportCmd.Flags().BoolVar(&reportList, "list", false, "List recorded scans")
	reportCmd.Flags().StringVar(&reportScanID, "scan", "", "Show one recorded scan by id")
	reportCmd.Flags().StringVar(&reportOutputDir, "output-dir", "Targets", "Output directory holding the scan database")

	rootCmd.AddCommand(reportCmd)
}

func runReportCmd(cmd *cobra.Command, args []string) error {
	store, err := storage.Open(reportOutputDir)
	if err != nil {
		return fmt.Errorf("open scan history: %w", err)
	}
	defer store.Close()

	if reportScanID != "" {
		return showScan(store, reportScanID)
	}
	return listStoredScans(store)
}

func listStoredScans(store *storage.Store) error {
	cyan := color.New(color.FgCyan, color.Bold)
	gray := color.New(color.FgHiBlack)

	scans, err := store.ListScans(context.Background())
	if err != nil {
		return fmt.Errorf("list scans: %w", err)
	}
	if len(scans) == 0 {
		fmt.Println("No recorded scans yet. Run 'webstrike scan <target>' first.")
		return nil
	}

	cyan.Println("\n[+] Recorded Scans")
	fmt.Println()
	fmt.Printf("  %-10s %-28s %-10s %-20s %s\n", "ID", "TARGET", "STATUS", "STARTED", "FINDINGS")
	fmt.Println("  " + strings.Repeat("─", 78))
	for _, s := range scans {
		statusColor(s.Status).Printf("  %-10s %-28s %-10s %-20s %d\n",
			s.ID, s.Target, s.Status, s.StartedAt.Local().Format("2006-01-02 15:04:05"), s.Findings)
	}
	fmt.Println()
	gray.Println("  Show one scan: webstrike report --scan <id>")
	return nil
}

func showScan(store *storage.Store, id string) error {
	cyan := color.New(color.FgCyan, color.Bold)

	ctx := context.Background()
	rec, err := store.GetScan(ctx, id)
	if err != nil {
		return fmt.Errorf("scan %s not found", id)
	}

	cyan.Printf("\n[+] Scan %s\n\n", rec.ID)
	fmt.Printf("  Target:     %s\n", rec.Target)
	fmt.Printf("  Status:     %s\n", rec.Status)
	fmt.Printf("  Started:    %s\n", rec.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("  Completed:  %s\n", rec.CompletedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("  Duration:   %s\n", rec.CompletedAt.Sub(rec.StartedAt).Round(time.Second))
	if rec.ReportPath != "" {
		fmt.Printf("  Report:     %s\n", rec.ReportPath)
	}

	fmt.Println("\n  Phases:")
	for _, ph := range pipeline.All() {
		status, ok := rec.Phases[string(ph)]
		if !ok {
			continue
		}
		statusColor(status).Printf("    %-28s %s\n", pipeline.Name(ph), status)
	}

	fmt.Println("\n  Results:")
	fmt.Printf("    %-12s %d\n", "subdomains", rec.Subdomains)
	fmt.Printf("    %-12s %d\n", "live hosts", rec.LiveHosts)
	fmt.Printf("    %-12s %d\n", "urls", rec.URLs)
	fmt.Printf("    %-12s %d\n", "findings", rec.Findings)

	findings, err := store.GetFindings(ctx, id)
	if err != nil {
		return fmt.Errorf("load findings: %w", err)
	}
	if len(findings) > 0 {
		fmt.Println("\n  Findings:")
		for _, f := range findings {
			severityColor(f.Severity).Printf("    [%s] %s\n", strings.ToUpper(f.Severity), f.Name)
			fmt.Printf("        %s\n", f.MatchedAt)
		}
	}
	fmt.Println()
	return nil
}

func statusColor(status string) *color.Color {
	switch status {
	case "completed":
		return color.New(color.FgGreen)
	case "partial":
		return color.New(color.FgYellow)
	case "failed":
		return color.New(color.FgRed)
	}
	return color.New(color.FgWhite)
}

func severityColor(severity string) *color.Color {
	switch strings.ToLower(severity) {
	case "critical", "high":
		return color.New(color.FgRed, color.Bold)
	case "medium":
		return color.New(color.FgYellow)
	case "low":
		return color.New(color.FgCyan)
	}
	return color.New(color.FgWhite)
}
