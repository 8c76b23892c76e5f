// Package app assembles repositories, cache, queue, mailer, dispatch engine
// and services from configuration. The binaries under cmd/ share it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/auth"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/cache"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/config"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/db"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/dispatch"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/mailer"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/queue"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/repository"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/repository/memory"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/scheduler"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/service"
)

type Repos struct {
	Users    repository.UserRepositoryInterface
	Clients  repository.ClientRepositoryInterface
	Messages repository.MessageRepositoryInterface
	Mailings repository.MailingRepositoryInterface
	Attempts repository.AttemptRepositoryInterface
}

// PostgresRepos binds every repository to db.
func PostgresRepos(db *sql.DB) Repos {
	return Repos{
		Users:    &repository.UserRepository{DB: db},
		Clients:  &repository.ClientRepository{DB: db},
		Messages: &repository.MessageRepository{DB: db},
		Mailings: &repository.MailingRepository{DB: db},
		Attempts: &repository.AttemptRepository{DB: db},
	}
}

func MemoryRepos(s *memory.Store) Repos {
	return Repos{
		Users:    s.Users,
		Clients:  s.Clients,
		Messages: s.Messages,
		Mailings: s.Mailings,
		Attempts: s.Attempts,
	}
}

// Open connects the store selected by database.driver, applies the schema
// and wires the application over it. The memory driver keeps everything in
// process and loses it on exit.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	if cfg.Database.Driver == "memory" {
		log.Warn().Msg("using in-memory store, data is not persisted")
		return New(cfg, log, MemoryRepos(memory.NewStore()))
	}

	conn, err := db.Init(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	a, err := New(cfg, log, PostgresRepos(conn))
	if err != nil {
		conn.Close()
		return nil, err
	}
	a.DB = conn
	a.OnClose(conn.Close)
	return a, nil
}

type App struct {
	Config *config.Config
	Log    zerolog.Logger
	DB     *sql.DB // nil with the memory driver

	Stats  cache.StatsCache
	Queue  queue.Queue
	Sender mailer.Sender
	Engine *dispatch.Engine
	Pass   *scheduler.Pass
	Tokens *auth.JWTService // nil when auth.jwt_secret is unset

	Users    *service.UserService
	Clients  *service.ClientService
	Messages *service.MessageService
	Mailings *service.MailingService
	Home     *service.StatsService

	localQueue bool
	closers    []func() error
}

// New wires the application over repos. Redis backs the stats cache when
// redis.url is set and AMQP backs the dispatch queue when amqp.url is set;
// otherwise both stay in process.
func New(cfg *config.Config, log zerolog.Logger, repos Repos) (*App, error) {
	a := &App{Config: cfg, Log: log}

	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedisStatsCache(cfg.Redis.URL, cfg.Stats.TTL)
		if err != nil {
			return nil, err
		}
		a.Stats = rc
		a.closers = append(a.closers, rc.Close)
		log.Info().Msg("using redis stats cache")
	} else {
		a.Stats = cache.NewMemoryStatsCache(cfg.Stats.TTL)
	}

	if cfg.AMQP.URL != "" {
		q, err := queue.NewAMQPQueue(cfg.AMQP.URL, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Queue = q
		log.Info().Msg("using amqp dispatch queue")
	} else {
		a.Queue = queue.NewInMemoryQueue(log)
		a.localQueue = true
	}
	a.closers = append(a.closers, a.Queue.Close)

	sender, err := mailer.New(cfg.Mail, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Sender = sender

	if cfg.Auth.JWTSecret != "" {
		tokens, err := auth.NewJWTService(cfg.Auth)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Tokens = tokens
	}

	a.Engine = &dispatch.Engine{
		Mailings: repos.Mailings,
		Messages: repos.Messages,
		Attempts: repos.Attempts,
		Sender:   sender,
		From:     cfg.Mail.From,
		Log:      log,
	}
	a.Pass = &scheduler.Pass{
		Mailings:      repos.Mailings,
		Dispatcher:    a.Engine,
		Stats:         a.Stats,
		SelectTimeout: cfg.Scheduler.SelectTimeout,
		Log:           log,
	}

	a.Users = &service.UserService{UserRepo: repos.Users, Log: log}
	if a.Tokens != nil {
		a.Users.Tokens = a.Tokens
	}
	a.Clients = &service.ClientService{ClientRepo: repos.Clients, Stats: a.Stats, Log: log}
	a.Messages = &service.MessageService{MessageRepo: repos.Messages, Stats: a.Stats, Log: log}
	a.Mailings = &service.MailingService{
		MailingRepo: repos.Mailings,
		MessageRepo: repos.Messages,
		ClientRepo:  repos.Clients,
		AttemptRepo: repos.Attempts,
		Dispatcher:  a.Engine,
		Queue:       a.Queue,
		Stats:       a.Stats,
		Log:         log,
	}
	a.Home = &service.StatsService{Mailings: repos.Mailings, Clients: repos.Clients, Cache: a.Stats, Log: log}

	return a, nil
}

// LocalQueue reports whether dispatch jobs stay in this process, in which
// case this process must also consume them.
func (a *App) LocalQueue() bool {
	return a.localQueue
}

// ConsumeDispatchJobs subscribes the engine to queued dispatch requests.
func (a *App) ConsumeDispatchJobs() error {
	return queue.StartDispatchSubscriber(a.Queue, a.Engine, a.Log)
}

// NewScheduler returns the cron scheduler running the periodic pass.
func (a *App) NewScheduler() (*scheduler.Scheduler, error) {
	return scheduler.New(a.Config.Scheduler.Spec, a.Pass, a.Log)
}

// OnClose registers fn to run on Close once the app's own resources are
// released, e.g. the database pool the repositories use.
func (a *App) OnClose(fn func() error) {
	a.closers = append([]func() error{fn}, a.closers...)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("close app: %w", errors.Join(errs...))
	}
	return nil
}
