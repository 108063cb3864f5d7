// Command nine-nine starts the Nine-Nine game server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, config directory, debug logging, version output,
// and optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/nine-nine/api"
	"github.com/wricardo/nine-nine/game/config"
	"github.com/wricardo/nine-nine/game/service"
	"github.com/wricardo/nine-nine/game/session"
	"github.com/wricardo/nine-nine/transport/mcp"
	"github.com/wricardo/nine-nine/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Nine-Nine Game Server"
)

// Idle sessions are removed after sessionMaxAge, checked every cleanupInterval
const (
	sessionMaxAge   = 24 * time.Hour
	cleanupInterval = time.Hour
)

// Configuration flags control how the server starts and which services are enabled.
var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	configDir    = flag.String("config-dir", getConfigDirDefault(), "Directory containing rule sets")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

// getConfigDirDefault returns the default configuration directory.
// It first honors the CONFIG_DIR environment variable, then falls back to "configs".
func getConfigDirDefault() string {
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		return configDir
	}
	return "configs"
}

// allowedOrigins reads ORIGIN_ALLOWLIST, defaulting to the local server
func allowedOrigins() []string {
	raw := os.Getenv("ORIGIN_ALLOWLIST")
	if raw == "" {
		raw = fmt.Sprintf("http://localhost:%d,http://127.0.0.1:%d", *port, *port)
	}

	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio        Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "  mcp              Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment:\n")
		fmt.Fprintf(os.Stderr, "  CONFIG_DIR, ORIGIN_ALLOWLIST, NGROK_ENABLED, NGROK_AUTHTOKEN, NGROK_DOMAIN\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                    # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -port 9090         # Run HTTP server on port 9090\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp          # Run MCP stdio server\n", os.Args[0])
	}
}

// setupLogging configures logrus for the selected mode. stdio mode keeps
// stdout free for the protocol.
func setupLogging(debug bool, out io.Writer) {
	logrus.SetOutput(out)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// main parses flags, initializes services, and starts the selected mode.
func main() {
	// Load .env file if it exists
	envErr := godotenv.Load()

	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	setupLogging(*debug, os.Stderr)

	if envErr == nil {
		logrus.Info("loaded environment variables from .env file")
	} else if !os.IsNotExist(envErr) {
		logrus.WithError(envErr).Warn("error loading .env file")
	}

	args := flag.Args()
	mode := "server"
	if len(args) > 0 {
		mode = args[0]
	}

	logrus.WithFields(logrus.Fields{"version": Version, "mode": mode}).Infof("starting %s", AppName)

	origins := allowedOrigins()
	hub := websocket.NewHub(origins...)
	go hub.Run()
	defer hub.Stop()

	gameService, err := initializeServices(*configDir, hub)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize services")
	}
	defer gameService.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sessionCleanupRoutine(ctx, gameService, cleanupInterval, sessionMaxAge)

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		runStdioMCPWithInternalServer(gameService, hub, origins)

	case "server", "http":
		runHTTPServer(ctx, gameService, hub, origins)

	default:
		logrus.Fatalf("unknown mode: %s. Use 'server' (default) or 'stdio-mcp'", mode)
	}
}

// newRouter mounts the REST API and the /mcp proxy endpoint
func newRouter(gameService service.GameService, hub *websocket.Hub, origins []string, baseURL string) http.Handler {
	apiServer := api.NewServer(gameService, hub, origins...)
	mcpClient := mcp.NewClient(baseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled (via flag or environment), it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, gameService service.GameService, hub *websocket.Hub, origins []string) {
	addr := fmt.Sprintf("%s:%d", *host, *port)
	mainRouter := newRouter(gameService, hub, origins, fmt.Sprintf("http://%s", addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		logrus.WithFields(logrus.Fields{
			"rest":      fmt.Sprintf("http://%s/api", addr),
			"websocket": fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp":       fmt.Sprintf("http://%s/mcp", addr),
		}).Infof("HTTP server listening on %s", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server failed")
		}
	}()

	if ngrokRequested() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, mainRouter)
		}()
	}

	sig := <-stop
	logrus.WithField("signal", sig).Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP server shutdown error")
	}

	wg.Wait()
	logrus.Info("server stopped")
}

// ngrokRequested checks the flag, then NGROK_ENABLED
func ngrokRequested() bool {
	if *ngrokEnabled {
		return true
	}
	env := os.Getenv("NGROK_ENABLED")
	return env == "true" || env == "1"
}

// ngrokAuthToken reads the flag, then NGROK_AUTHTOKEN, then NGROK_AUTH_TOKEN
func ngrokAuthToken() string {
	if *ngrokAuth != "" {
		return *ngrokAuth
	}
	if token := os.Getenv("NGROK_AUTHTOKEN"); token != "" {
		return token
	}
	return os.Getenv("NGROK_AUTH_TOKEN")
}

// runNgrokTunnel serves handler through a public ngrok endpoint until ctx ends
func runNgrokTunnel(ctx context.Context, handler http.Handler) {
	authToken := ngrokAuthToken()
	if authToken == "" {
		logrus.Warn("ngrok enabled but no auth token provided (use -ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	domain := *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	logrus.WithField("domain", domain).Info("starting ngrok tunnel")
	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logrus.WithError(err).Error("failed to start ngrok tunnel")
		return
	}
	defer func() {
		if err := tun.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close ngrok tunnel")
		}
	}()

	logrus.WithField("url", tun.URL()).Info("ngrok tunnel established")

	go func() {
		<-ctx.Done()
		tun.Close()
	}()

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		logrus.WithError(err).Warn("ngrok server error")
	}
	logrus.Info("ngrok tunnel closed")
}

// initializeServices wires the config and session managers into the game
// service and publishes every transition to the hub.
func initializeServices(dir string, hub *websocket.Hub) (service.GameService, error) {
	configManager, err := config.NewManager(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"dir":     dir,
		"default": configManager.DefaultID(),
	}).Info("rule sets loaded")

	var opts []service.Option
	if hub != nil {
		opts = append(opts, service.WithPresenter(hub))
	}

	return service.NewGameService(session.NewManager(), configManager, opts...), nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within maxAge. Their timers are stopped by the service.
func sessionCleanupRoutine(ctx context.Context, gameService service.GameService, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := gameService.CleanupExpiredSessions(ctx, maxAge); removed > 0 {
				logrus.WithField("removed", removed).Info("cleaned up expired sessions")
			}
		}
	}
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at http://localhost:<port>; if unavailable, it
// starts a minimal internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(gameService service.GameService, hub *websocket.Hub, origins []string) {
	externalURL := fmt.Sprintf("http://localhost:%d", *port)
	baseURL := externalURL

	logrus.WithField("url", externalURL).Info("checking for external API server")

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/healthz")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		logrus.WithField("url", externalURL).Info("external API server found, using it for MCP")
	} else {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			logrus.WithError(err).Fatal("failed to get available port")
		}

		internalAddr := listener.Addr().String()
		baseURL = fmt.Sprintf("http://%s", internalAddr)

		httpServer := &http.Server{
			Handler: api.NewServer(gameService, hub, origins...),
		}

		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				logrus.WithError(err).Error("internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		logrus.WithField("addr", internalAddr).Info("internal HTTP server started for MCP stdio")
	}

	mcpClient := mcp.NewClient(baseURL)
	logrus.WithField("api", baseURL).Info("MCP stdio server ready")

	if err := mcpClient.Run(); err != nil {
		logrus.WithError(err).Fatal("MCP stdio server error")
	}
}
