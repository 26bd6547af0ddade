package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nixxel-company-limited/tspl-label-printer/adapter"
	"github.com/nixxel-company-limited/tspl-label-printer/api"
	"github.com/nixxel-company-limited/tspl-label-printer/server"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Relay raw TCP print jobs to the configured printer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger := newLogger("[SERVER] ")
			logger.Printf("Server will listen on: %s", cfg.ServerAddress)

			svr := server.NewWithLogger(cfg.Opener(cmd.Context(), logger), cfg.ServerAddress, logger)
			if err := svr.StartAsync(); err != nil {
				return err
			}

			waitForSignal()
			return svr.Stop()
		},
	}
}

func newAPICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "api",
		Short: "Serve the HTTP printing API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger := newLogger("[API] ")
			opts := api.Options{
				Open: func(ctx context.Context) (adapter.Adapter, error) {
					return cfg.Open(ctx, logger)
				},
				Agent:         cfg.NewAgent(),
				Configuration: cfg.Label,
				Logger:        logger,
			}
			srv := api.New(cfg.APIAddress, opts)

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
			case <-signalled():
			}

			logger.Println("Shutting down API server...")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Stop(ctx)
		},
	}
}

func signalled() <-chan os.Signal {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	return sigs
}

func waitForSignal() {
	<-signalled()
}
