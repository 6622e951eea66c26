package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/skillseeker/skillseeker/registry"
)

var serveFlags struct {
	config string
	listen string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the knowledge-sharing registry API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := registry.DefaultServerConfig()
		if serveFlags.config != "" {
			loaded, err := registry.LoadServerConfig(serveFlags.config)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		if serveFlags.listen != "" {
			cfg.Listen = serveFlags.listen
		}

		// The server logs JSON; the tint console handler is for the
		// interactive commands.
		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
		slog.SetDefault(logger)

		store, err := registry.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := os.MkdirAll(cfg.StorageDir, 0o755); err != nil {
			return err
		}
		ratings, err := registry.OpenRatings(filepath.Join(cfg.StorageDir, "ratings.json"))
		if err != nil {
			return err
		}
		reviews, err := registry.OpenReviews(filepath.Join(cfg.StorageDir, "reviews.json"))
		if err != nil {
			return err
		}

		srv := registry.NewServer(store, ratings, reviews, cfg, logger)
		httpSrv := &http.Server{
			Addr:              cfg.Listen,
			Handler:           srv.Router(),
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("registry listening", "addr", cfg.Listen, "db", cfg.DBPath)
			errCh <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
			logger.Info("shutting down")
			shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
			defer stop()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.config, "config", "c", "", "YAML server config path")
	serveCmd.Flags().StringVar(&serveFlags.listen, "listen", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
