package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/expense-reporting/internal/transport/rest"
	"github.com/frahmantamala/expense-reporting/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

var (
	httpServerCmd = &cobra.Command{
		Use:   "server",
		Short: "Start HTTP server",
		Long:  `Start the HTTP server to handle API requests`,
		Run: func(cmd *cobra.Command, args []string) {
			startHTTPServer()
		},
	}
	specPath string
)

func init() {
	httpServerCmd.Flags().StringVar(&specPath, "spec", "api/openapi.yml", "OpenAPI document served at /openapi.yml")
}

func startHTTPServer() {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Environment)
	log := logger.LoggerWrapper()

	// background workers stop when this context is cancelled during shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := initializeDependencies(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize dependencies", "error", err)
		os.Exit(1)
	}

	if _, err := rest.LoadSpec(ctx, specPath); err != nil {
		log.Warn("OpenAPI document failed to load", "path", specPath, "error", err)
	}

	var background sync.WaitGroup
	deps.Dispatcher.Start()
	background.Add(1)
	go func() {
		defer background.Done()
		deps.Hub.Run(ctx)
	}()
	if deps.Subscriber != nil {
		background.Add(1)
		go func() {
			defer background.Done()
			if err := deps.Subscriber.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Redis subscriber stopped", "error", err)
			}
		}()
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.RouterConfig{
		AllowedOrigins: cfg.Server.Origins(),
		SpecPath:       specPath,
		Logger:         log,
	}, deps.handlers())

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", addr, "environment", cfg.Environment)
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down...", "signal", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
		}
	}

	shutdown(deps, cancel, &background)
	log.Info("Server stopped")
}

// shutdown drains in dependency order. Pending event handlers still enqueue notifications
// and the dispatcher still pushes to the hub.
func shutdown(deps *Dependencies, cancel context.CancelFunc, background *sync.WaitGroup) {
	deps.EventBus.Wait()
	deps.Dispatcher.Shutdown()
	cancel()
	background.Wait()
	deps.Close()
}
