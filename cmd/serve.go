package cmd

import (
	"bitwise74/account-api/api"
	"bitwise74/account-api/internal"
	"bitwise74/account-api/internal/service"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !dev {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			d, err := internal.NewDeps(cfg)
			if err != nil {
				return err
			}

			service.AccountCleanup(ctx, cfg.Security.CleanupInterval, cfg.Security.UnverifiedMaxAge, d.DB)

			a := api.NewRouter(ctx, d)

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:           a.Router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				zap.L().Info("Server starting", zap.Int("port", cfg.Server.Port))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server stopped, %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			zap.L().Info("Shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down cleanly, %w", err)
			}

			if sqlDB, err := d.DB.DB(); err == nil {
				sqlDB.Close()
			}

			return nil
		},
	}
}
