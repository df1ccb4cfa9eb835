package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/martinsuchenak/netgen/internal/api"
	"github.com/martinsuchenak/netgen/internal/config"
	"github.com/martinsuchenak/netgen/internal/log"
	"github.com/martinsuchenak/netgen/internal/mcp"
	"github.com/martinsuchenak/netgen/internal/storage"
	"github.com/martinsuchenak/netgen/internal/worker"
	"github.com/paularlott/cli"
)

// ServerConfig holds configuration for running the server
type ServerConfig struct {
	Config     *config.Config
	APIHandler *api.Handler
	MCPServer  *mcp.Server
	Scheduler  *worker.Scheduler
}

// RunServer starts the netgen server with the given configuration
func RunServer(cfg *ServerConfig) error {
	// Setup HTTP routes
	mux := http.NewServeMux()

	// API routes
	cfg.APIHandler.RegisterRoutes(mux)

	// Prometheus scrape endpoint
	api.RegisterMetrics(mux)

	// MCP endpoint, only served when a bearer token is configured
	if cfg.Config.IsMCPEnabled() {
		mux.HandleFunc("/mcp", cfg.MCPServer.GetHTTPHandler())
	}

	// Start the retention scheduler
	if cfg.Scheduler != nil {
		if err := cfg.Scheduler.Start(); err != nil {
			return err
		}
		defer cfg.Scheduler.Stop()
	}

	// Apply middleware; logging wraps auth so rejections are logged too
	var handler http.Handler = mux
	handler = api.AuthMiddleware(cfg.Config.BearerToken, handler)
	handler = api.LoggingMiddleware(handler)
	handler = api.SecurityHeadersMiddleware(handler)

	// Start server
	server := &http.Server{
		Addr:    cfg.Config.ListenAddr,
		Handler: handler,
	}

	// Handle shutdown gracefully
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Info("Shutting down server...")
		server.Close()
	}()

	// Log startup info
	log.Info("Starting netgen server", "addr", cfg.Config.ListenAddr)
	log.Info("API available", "url", "http://localhost"+cfg.Config.ListenAddr+"/api/")
	log.Info("Metrics available", "url", "http://localhost"+cfg.Config.ListenAddr+"/metrics")
	if cfg.Config.IsMCPEnabled() {
		log.Info("MCP available", "url", "http://localhost"+cfg.Config.ListenAddr+"/mcp")
		log.Info("MCP authentication enabled")
	} else {
		log.Info("MCP endpoint disabled, no bearer token configured")
	}
	if cfg.Config.BearerToken != "" {
		log.Info("API authentication enabled")
	}

	// Start serving
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("Server error", "error", err)
		return err
	}

	log.Info("Server stopped")
	return nil
}

func Command() *cli.Command {
	return &cli.Command{
		Name:        "server",
		Usage:       "Start the netgen server",
		Description: "Start the HTTP server with the plan API, metrics and MCP endpoints",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Server listen address (e.g. :8080)",
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Plan history directory",
			},
			&cli.StringFlag{
				Name:  "token",
				Usage: "Bearer token for API and MCP authentication",
			},
			&cli.IntFlag{
				Name:  "retention-days",
				Usage: "Prune plans older than this many days (0 keeps everything)",
			},
			&cli.StringFlag{
				Name:  "prune-schedule",
				Usage: "Cron schedule for the retention job",
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			opts := &config.Config{
				DataDir:       cmd.GetString("data-dir"),
				ListenAddr:    cmd.GetString("addr"),
				BearerToken:   cmd.GetString("token"),
				PruneSchedule: cmd.GetString("prune-schedule"),
			}
			if days := cmd.GetInt("retention-days"); days > 0 {
				opts.RetentionDays = days
			}

			cfg := config.Load(opts)
			log.Info("Configuration loaded", "source", cfg.String(), "data_dir", cfg.DataDir, "listen_addr", cfg.ListenAddr)

			store, err := storage.NewSQLiteStore(cfg.DataDir)
			if err != nil {
				log.Error("Failed to initialize storage", "error", err)
				return err
			}
			defer store.Close()
			log.Info("Storage initialized", "backend", "SQLite", "path", cfg.DataDir)

			serverConfig := &ServerConfig{
				Config:     cfg,
				APIHandler: api.NewHandler(store),
				MCPServer:  mcp.NewServer(store, cfg.BearerToken),
				Scheduler:  worker.NewScheduler(store, cfg.PruneSchedule, cfg.RetentionDays),
			}

			return RunServer(serverConfig)
		},
	}
}
