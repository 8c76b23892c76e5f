// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/app"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/config"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/handler"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/logger"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := logger.New("info")
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.NewFromConfig(cfg.Logging).With().Str("component", "server").Logger()
	if !cfg.EnvFileLoaded {
		log.Debug().Msg("no .env file found, relying on OS environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error().Err(err).Msg("shutdown cleanup failed")
		}
	}()

	if a.Tokens == nil {
		return errors.New("auth.jwt_secret is required to serve the API")
	}

	// With no broker the worker cannot see our jobs, so consume them here.
	if a.LocalQueue() {
		if err := a.ConsumeDispatchJobs(); err != nil {
			return err
		}
	}

	if cfg.Scheduler.Embedded {
		sched, err := a.NewScheduler()
		if err != nil {
			return err
		}
		sched.Start()
		defer func() { <-sched.Stop().Done() }()
		log.Info().Str("spec", cfg.Scheduler.Spec).Msg("embedded scheduler started")
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: handler.NewRouter(handler.Deps{
			Users:    a.Users,
			Clients:  a.Clients,
			Messages: a.Messages,
			Mailings: a.Mailings,
			Stats:    a.Home,
			Tokens:   a.Tokens,
			Log:      log,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
