package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/gridcleaner/api"
	"github.com/wricardo/mcp-training/gridcleaner/game/service"
	"github.com/wricardo/mcp-training/gridcleaner/game/session"
	"github.com/wricardo/mcp-training/gridcleaner/transport/mcp"
	"github.com/wricardo/mcp-training/gridcleaner/transport/websocket"
)

const (
	defaultAddr     = "localhost:8080"
	shutdownTimeout = 10 * time.Second
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP server with REST API, WebSocket, and MCP endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "HTTP listen address",
				Value:   defaultAddr,
				Sources: cli.EnvVars("GRIDCLEANER_ADDR"),
			},
			&cli.StringFlag{
				Name:    "transcripts",
				Usage:   "directory for zstd session transcripts (disabled when empty)",
				Sources: cli.EnvVars("GRIDCLEANER_TRANSCRIPTS"),
			},
			&cli.DurationFlag{
				Name:  "session-ttl",
				Usage: "remove sessions idle for longer than this",
				Value: 24 * time.Hour,
			},
			&cli.DurationFlag{
				Name:  "cleanup-interval",
				Usage: "how often to look for idle sessions",
				Value: time.Hour,
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			gameService, sessions, err := initializeServices(cmd.String("config-dir"), cmd.String("transcripts"))
			if err != nil {
				return err
			}
			defer sessions.Close()

			go sessionCleanupRoutine(ctx, sessions, cmd.Duration("cleanup-interval"), cmd.Duration("session-ttl"))

			var tunnel *ngrokOptions
			if cmd.Bool("ngrok") {
				tunnel = &ngrokOptions{authToken: cmd.String("ngrok-auth"), domain: cmd.String("ngrok-domain")}
			}
			return runHTTPServer(ctx, gameService, cmd.String("addr"), tunnel)
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:    "mcp",
		Aliases: []string{"stdio-mcp"},
		Usage:   "run an MCP stdio server backed by an external or internal HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "external API to proxy when reachable",
				Value:   "http://" + defaultAddr,
				Sources: cli.EnvVars("GRIDCLEANER_API_URL"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			gameService, sessions, err := initializeServices(cmd.String("config-dir"), "")
			if err != nil {
				return err
			}
			defer sessions.Close()
			return runStdioMCP(ctx, gameService, cmd.String("api-url"))
		},
	}
}

type ngrokOptions struct {
	authToken string
	domain    string
}

// newHandler combines the API server and the /mcp endpoint. The MCP tools call
// back into the API at baseURL.
func newHandler(gameService service.GameService, hub *websocket.Hub, baseURL string) http.Handler {
	apiServer := api.NewServer(gameService, hub)
	mcpClient := mcp.NewClient(baseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
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

// runHTTPServer serves until ctx is cancelled, then shuts down gracefully.
// A non-nil tunnel also serves the same handler through ngrok.
func runHTTPServer(ctx context.Context, gameService service.GameService, addr string, tunnel *ngrokOptions) error {
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	addr = listener.Addr().String()

	handler := newHandler(gameService, hub, "http://"+addr)
	httpServer := &http.Server{
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.WithFields(log.Fields{
			"addr":      addr,
			"api":       fmt.Sprintf("http://%s/api", addr),
			"websocket": fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp":       fmt.Sprintf("http://%s/mcp", addr),
		}).Infof("%s v%s listening", AppName, Version)

		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if tunnel != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, handler, *tunnel)
		}()
	}

	var result error
	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
	case err := <-serveErr:
		result = fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info("Server stopped")
	return result
}

// runNgrok serves handler through an ngrok tunnel until ctx is cancelled
func runNgrok(ctx context.Context, handler http.Handler, opts ngrokOptions) {
	if opts.authToken == "" {
		log.Warn("Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	log.Info("Starting ngrok tunnel...")

	var endpoint ngrokConfig.Tunnel
	if opts.domain != "" {
		endpoint = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.domain))
		log.WithField("domain", opts.domain).Info("Using custom ngrok domain")
	} else {
		endpoint = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, endpoint, ngrok.WithAuthtoken(opts.authToken))
	if err != nil {
		log.WithError(err).Error("Failed to start ngrok tunnel")
		return
	}

	// http.Serve returns once the tunnel is closed
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.WithError(err).Warn("Failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	log.WithFields(log.Fields{
		"api":       ngrokURL + "/api",
		"websocket": ngrokURL + "/ws?session=<session_id>",
		"mcp":       ngrokURL + "/mcp",
	}).Infof("Ngrok tunnel established: %s", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.WithError(err).Error("Ngrok server error")
	}
	log.Info("Ngrok tunnel closed")
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within maxAge
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				log.WithField("remaining", manager.Count()).Debugf("Cleaned up %d expired sessions", removed)
			}
		}
	}
}

// apiAvailable reports whether an API server answers at baseURL
func apiAvailable(baseURL string) bool {
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP runs an MCP stdio server. It reuses the API at externalURL when it
// answers; otherwise it starts an internal API on a random loopback port.
func runStdioMCP(ctx context.Context, gameService service.GameService, externalURL string) error {
	baseURL := externalURL
	log.WithField("url", externalURL).Debug("Checking for external API server")

	if apiAvailable(externalURL) {
		log.WithField("url", externalURL).Info("External API server found, using it for MCP")
	} else {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		hub := websocket.NewHub()
		go hub.Run()
		defer hub.Stop()

		httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("Internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
		log.WithField("url", baseURL).Info("No external API server found, started internal HTTP server")
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
