package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/moodchat/backend/internal/app"
	"github.com/zhouzirui/moodchat/backend/internal/config"
	"github.com/zhouzirui/moodchat/backend/internal/handler"
	"github.com/zhouzirui/moodchat/backend/internal/service/chat"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           "moodchat-api",
		Short:         "Serve the emotion-aware chatbot over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(envFile); err != nil {
				logrus.WithError(err).Warn("failed to load .env file, continuing with system environment variables only")
			}

			cfg, err := config.Load()
			if err != nil {
				logrus.WithError(err).Error("failed to load configuration")
				return err
			}

			logger := cfg.Log.NewLogger()
			if err := serve(cmd.Context(), cfg, logger); err != nil {
				logger.WithError(err).Error("server error")
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	return cmd
}

func serve(parent context.Context, cfg *config.Config, logger *logrus.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logrus.NewEntry(logger)

	services, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}

	router := handler.NewRouter(handler.Dependencies{
		Chat:     chat.NewService(),
		Pipeline: services.Pipeline,
		Defaults: cfg.Turn,
		Backends: services.Generator.Backends(),
		Log:      log,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.WithField("addr", cfg.Server.Addr).Info("moodchat backend listening")
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
