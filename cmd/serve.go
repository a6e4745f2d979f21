package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/asystent-elektryka/audytor/internal/analysis"
	"github.com/asystent-elektryka/audytor/internal/config"
	"github.com/asystent-elektryka/audytor/internal/handlers"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const sweepInterval = time.Minute

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the switchboard audit web interface",
		Long: `Starts the Audytor web interface.

Upload a photo of a switchboard, submit it for analysis and switch between
the technical report, the offer with indicative prices and the e-mail draft.`,
		Example: `  # Start server on the port from PORT (default 8888)
  audytor serve

  # Start server on custom port
  audytor serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cfg.GeminiAPIKey == "" {
				log.Warn().Msg("GEMINI_API_KEY is not set; every analysis will fail until it is configured")
			}

			client := analysis.NewClient(analysis.Options{
				APIKey:  cfg.GeminiAPIKey,
				Model:   cfg.GeminiModel,
				BaseURL: cfg.GeminiBaseURL,
			})

			gin.SetMode(gin.ReleaseMode)
			handler, err := handlers.New(cfg, client)
			if err != nil {
				return err
			}

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, ctx := errgroup.WithContext(cmd.Context())

			g.Go(func() error {
				log.Info().Str("addr", addr).Str("url", "http://localhost"+addr).Str("model", client.Model()).Msg("Audytor interface available")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})

			g.Go(func() error {
				ticker := time.NewTicker(sweepInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return nil
					case <-ticker.C:
						if n := handler.Sweep(); n > 0 {
							log.Info().Int("evicted", n).Msg("idle sessions released")
						}
					}
				}
			})

			g.Go(func() error {
				<-ctx.Done()
				log.Info().Msg("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("Server shutdown failed")
					return err
				}
				log.Info().Msg("waiting for in-flight analyses")
				handler.Wait()
				log.Info().Msg("Server stopped")
				return nil
			})

			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", config.DefaultPort, "Port to listen on (overrides PORT)")

	return cmd
}
