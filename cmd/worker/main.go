package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/app"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/config"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/logger"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/scheduler"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := logger.New("info")
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.NewFromConfig(cfg.Logging).With().Str("component", "worker").Logger()
	if !cfg.EnvFileLoaded {
		log.Debug().Msg("no .env file found, relying on OS environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start worker")
	}

	sched, err := start(a, log)
	if err != nil {
		a.Close()
		log.Fatal().Err(err).Msg("failed to start worker")
	}

	log.Info().Msg("worker running, waiting for jobs")
	<-ctx.Done()

	log.Info().Msg("shutting down, waiting for the running pass")
	<-sched.Stop().Done()
	if err := a.Close(); err != nil {
		log.Error().Err(err).Msg("shutdown cleanup failed")
	}
}

// start subscribes to queued dispatch jobs when a broker is configured and
// starts the periodic pass.
func start(a *app.App, log zerolog.Logger) (*scheduler.Scheduler, error) {
	if a.LocalQueue() {
		log.Warn().Msg("amqp.url not set, queued sends are handled by the server process")
	} else if err := a.ConsumeDispatchJobs(); err != nil {
		return nil, err
	}

	sched, err := a.NewScheduler()
	if err != nil {
		return nil, err
	}
	sched.Start()
	return sched, nil
}
