package cli

import (
	"fmt"
	"net"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/strikesec/webstrike/internal/config"
	"github.com/strikesec/webstrike/internal/server"
)

var (
	serveAddr      string
	servePassword  string
	serveOutputDir string
	serveOrigins   []string
	serveDebug     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the results API server",
	Long: `Start an HTTP API over the scan history and report files.

The server provides:
  - REST API for scan history, reports and starting scans
  - WebSocket stream of phase events for running scans

When --password is set, POST /api/auth/login exchanges it for a session
token and every endpoint except health and login requires one. The signing
key is regenerated on each start, so restarting the server logs every
client out.

Examples:
  # Local only, no authentication
  webstrike serve

  # All interfaces, password protected
  webstrike serve --addr 0.0.0.0:8080 --password <pw>`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "Listen address")
	serveCmd.Flags().StringVar(&servePassword, "password", "", "Password for API authentication (empty disables auth)")
	serveCmd.Flags().StringVar(&serveOutputDir, "output-dir", "Targets", "Output directory holding scans and reports")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "origin", nil, "Additional allowed CORS origins")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Verbose router logging")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	yellow := color.New(color.FgYellow)

	scanCfg := config.DefaultConfig()
	scanCfg.OutputDir = serveOutputDir

	srvCfg := server.DefaultConfig()
	srvCfg.Addr = serveAddr
	srvCfg.Password = servePassword
	srvCfg.Debug = serveDebug
	srvCfg.ScanConfig = scanCfg
	srvCfg.AllowedOrigins = append(srvCfg.AllowedOrigins, serveOrigins...)

	if servePassword == "" {
		yellow.Println("\n[!] No --password set: the API accepts unauthenticated requests")
	}
	if host, _, err := net.SplitHostPort(serveAddr); err == nil && host != "127.0.0.1" && host != "localhost" {
		yellow.Println("[!] Server is reachable from other machines, consider --password")
	}

	srv := server.New(srvCfg)

	fmt.Println("  Press Ctrl+C to stop")
	return srv.StartWithGracefulShutdown()
}
