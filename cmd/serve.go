package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/answerdesk/answerdesk/internal/api"
	"github.com/answerdesk/answerdesk/internal/config"
	"github.com/answerdesk/answerdesk/internal/monitor"
	"github.com/answerdesk/answerdesk/internal/ratelimit"
)

// Server timeout configuration.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 2 * time.Minute // event streaming needs the long timeout
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(cfg)
	logger.Info("starting answerdesk", "version", Version, "docs_dir", cfg.DocsDir)

	svc, err := buildServices(ctx, cfg, logger)
	if err != nil {
		return err
	}

	apiServer, err := api.NewServer(api.ServerConfig{
		Logger:         logger,
		Retriever:      svc.retriever,
		Generator:      svc.generator,
		Limiter:        ratelimit.New(cfg.RateLimit, cfg.RateWindow()),
		Monitor:        monitor.NewCollector(),
		Store:          svc.store,
		AdminSecret:    cfg.AdminSecret,
		TrustProxy:     cfg.TrustProxy,
		MaxUploadBytes: int64(cfg.MaxUploadSizeMB) << 20,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	status := svc.retriever.Status()
	logger.Info("HTTP server ready",
		"addr", cfg.Addr,
		"indexed", status.Indexed,
		"chunks", status.ChunkCount,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}
