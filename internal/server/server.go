package server

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/strikesec/webstrike/internal/config"
	"github.com/strikesec/webstrike/internal/storage"
	"github.com/strikesec/webstrike/internal/version"
)

// Config holds the API server settings.
type Config struct {
	Addr           string
	Password       string // empty disables authentication
	AllowedOrigins []string
	Debug          bool
	ScanConfig     *config.Config
}

// DefaultConfig binds to localhost only.
func DefaultConfig() *Config {
	return &Config{
		Addr:           "127.0.0.1:8080",
		AllowedOrigins: []string{"http://localhost:8080", "http://127.0.0.1:8080"},
		ScanConfig:     config.DefaultConfig(),
	}
}

// Server exposes scan history and scan control over HTTP, with a
// websocket stream of phase events for running scans.
type Server struct {
	cfg         *Config
	router      *gin.Engine
	httpServer  *http.Server
	scanMgr     *ScanManager
	hub         *Hub
	store       *storage.Store
	authLimiter *AuthRateLimiter
	jwtSecret   []byte
	upgrader    websocket.Upgrader
}

func New(cfg *Config) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := storage.Open(cfg.ScanConfig.OutputDir)
	if err != nil {
		color.Yellow("[!] Scan history unavailable: %v", err)
		store = nil
	}

	hub := NewHub()
	scanMgr := NewScanManager(cfg.ScanConfig, store)
	scanMgr.SetHub(hub)

	s := &Server{
		cfg:         cfg,
		router:      gin.New(),
		scanMgr:     scanMgr,
		hub:         hub,
		store:       store,
		authLimiter: NewAuthRateLimiter(),
		jwtSecret:   newSessionSecret(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range cfg.AllowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
		},
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// newSessionSecret generates the HMAC key used to sign session tokens.
// A fresh key per process means restarting the server logs everyone out.
func newSessionSecret() []byte {
	b := make([]byte, 32)
	rand.Read(b)
	return b
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLogger())
	s.router.Use(s.securityHeaders())

	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}

func (s *Server) setupRoutes() {
	s.router.GET("/api/health", s.healthCheck)

	login := s.router.Group("/api/auth")
	login.Use(s.authLimiter.Middleware())
	login.POST("/login", s.login)

	api := s.router.Group("/api")
	api.Use(s.authRequired())
	{
		api.GET("/scans", s.listScans)
		api.POST("/scans", s.startScan)
		api.GET("/scans/:id", s.getScan)
		api.GET("/reports", s.listReports)
		api.GET("/reports/:name", s.getReport)
		api.GET("/ws", s.handleWebSocket)
	}
}

func (s *Server) securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// requestLogger prints one line per API request, color coded by status.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if !strings.HasPrefix(path, "/api/") || path == "/api/ws" {
			return
		}

		status := c.Writer.Status()
		statusColor := "\033[32m"
		if status >= 500 {
			statusColor = "\033[31m"
		} else if status >= 400 {
			statusColor = "\033[33m"
		}
		fmt.Printf("%s[%d]\033[0m %-6s %-40s %15s %s\n",
			statusColor, status, c.Request.Method, path, c.ClientIP(),
			time.Since(start).Round(time.Microsecond))
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Close releases the history store.
func (s *Server) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// Start runs the HTTP server until it fails or is shut down.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.hub.Run()

	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Printf("\n[*] webstrike API server\n")
	fmt.Printf("    Version: %s\n", version.Version)
	fmt.Printf("    Address: http://%s\n", s.cfg.Addr)
	if s.cfg.Password != "" {
		fmt.Printf("    Auth:    enabled (POST /api/auth/login)\n")
	} else {
		color.Yellow("    Auth:    disabled (no --password set)")
	}
	fmt.Println()

	return s.httpServer.ListenAndServe()
}

// StartWithGracefulShutdown runs the server and drains connections on
// SIGINT or SIGTERM.
func (s *Server) StartWithGracefulShutdown() error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
		fmt.Println("\n[*] Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.Close()
	fmt.Println("[*] Server stopped")
	return nil
}
