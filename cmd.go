package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yumyai/phageatlas/internal/config"
	"github.com/yumyai/phageatlas/logger"
	"github.com/yumyai/phageatlas/pkg/db"
	"github.com/yumyai/phageatlas/pkg/handler"
	"github.com/yumyai/phageatlas/pkg/metrics"
)

type rootOptions struct {
	dotenv   string
	logLevel string
	cfg      config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:     "phageatlas",
		Short:   "Phage-host dual RNA-seq expression atlas",
		Version: VERSION,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync() // Make sure that the buffered is flushed.
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts.cfg)
		},
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.dotenv, "env-file", "", "dotenv file to load (default: ./.env)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level, overrides PHAGEATLAS_LOG_LEVEL")

	cmd.AddCommand(newServeCmd(opts), newImportCmd(opts))

	return cmd
}

func (o *rootOptions) init() error {

	var files []string
	if o.dotenv != "" {
		files = append(files, o.dotenv)
	}

	cfg, err := config.Load(files...)
	if err != nil {
		return err
	}

	if o.logLevel != "" {
		if cfg.LogLevel, err = logger.ParseLevel(o.logLevel); err != nil {
			return err
		}
	}

	if err := logger.InitLogger(cfg.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	o.cfg = cfg
	return nil
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the atlas HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if addr != "" {
				cfg.Addr = addr
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides PHAGEATLAS_ADDR")

	return cmd
}

func openAtlas(ctx context.Context, cfg config.Config) (*db.AtlasDB, error) {

	if err := cfg.PrepareDataDir(); err != nil {
		return nil, fmt.Errorf("data dir %s: %w", cfg.DataDir, err)
	}

	atlas, err := db.Open(cfg.DBPath(), cfg.MatrixCache)
	if err != nil {
		return nil, err
	}

	if err := atlas.Migrate(ctx); err != nil {
		atlas.Close()
		return nil, err
	}

	logger.Info("Open database on", zap.String("DB_LOC", cfg.DBPath()))
	return atlas, nil
}

func runServe(ctx context.Context, cfg config.Config) error {

	logger.Info("Start:", zap.String("Version", VERSION))

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	atlas, err := openAtlas(ctx, cfg)
	if err != nil {
		return err
	}
	defer atlas.Close()

	m := metrics.New()
	dbctx := &handler.DBContext{Store: atlas, Metrics: m}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           withMiddleware(NewRouter(dbctx, m), logger.Logger()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Server starting on " + cfg.Addr + "...")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Error starting server:", zap.String("error message", err.Error()))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
