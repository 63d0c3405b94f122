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

	"github.com/dukerupert/grocer/internal/database"
	"github.com/dukerupert/grocer/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and websocket feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		db, err := database.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		srv := server.New(db, cfg, logger)
		httpServer := &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      srv.Router(),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		}

		cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
		defer cleanupCancel()
		go func() {
			ticker := time.NewTicker(10 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					srv.RateLimiter().Cleanup()
				case <-cleanupCtx.Done():
					return
				}
			}
		}()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("grocer starting",
				"addr", cfg.Server.Addr,
				"driver", cfg.Database.DriverName(),
			)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case err := <-errCh:
			return fmt.Errorf("server error: %w", err)
		case <-quit:
		}

		logger.Info("shutting down")
		cleanupCancel()
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8000", "listen address")
	bindFlag(v, "server.addr", serveCmd.Flags().Lookup("addr"))
}
