package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/soomgil/counsel/internal/api/routes"
	"github.com/soomgil/counsel/internal/config"
	"github.com/soomgil/counsel/internal/connections"
	"github.com/soomgil/counsel/internal/services"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and conversation socket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, config.Load())
		},
	}
}

func setupRouter(svc *services.Services, cfg *config.Config, manager *connections.Manager) *mux.Router {
	r := mux.NewRouter()
	routes.RegisterRoutes(r, svc, cfg, manager)
	return r
}

// runServer serves until ctx is done, then closes the conversation sockets
// so their sessions persist before storage is released
func runServer(ctx context.Context, cfg *config.Config) error {
	svc, err := services.InitializeServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close services")
		}
	}()

	manager := connections.NewManager(connections.DefaultTimeouts)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           setupRouter(svc, cfg, manager),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return svc.GetBus().RunAudit(egCtx)
	})

	eg.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server listen error")
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()
		log.Info().Msg("Shutting down gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		manager.CloseAll()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
			return err
		}
		if err := manager.Drain(shutdownCtx); err != nil {
			log.Warn().Err(err).Int("open_connections", manager.GetConnectionCount()).Msg("Conversation sockets still open")
		}
		log.Info().Msg("Server shutdown complete")
		return nil
	})

	return eg.Wait()
}
