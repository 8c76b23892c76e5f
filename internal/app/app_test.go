package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/auth"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/cache"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/config"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/model"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/queue"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/repository/memory"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/service"
)

func testConfig() *config.Config {
	return &config.Config{
		Database:  config.DatabaseConfig{Driver: "memory"},
		Mail:      config.MailConfig{Backend: "stdout", From: "noreply@example.com"},
		Scheduler: config.SchedulerConfig{Spec: "@every 1m", SelectTimeout: time.Minute},
		Auth:      config.AuthConfig{JWTSecret: "app-test-secret-0123", TokenTTL: time.Hour},
		Stats:     config.StatsConfig{TTL: time.Minute},
	}
}

func TestNew_InProcessDefaults(t *testing.T) {
	a, err := New(testConfig(), zerolog.Nop(), MemoryRepos(memory.NewStore()))
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &cache.MemoryStatsCache{}, a.Stats)
	assert.IsType(t, &queue.InMemoryQueue{}, a.Queue)
	assert.True(t, a.LocalQueue())
	require.NotNil(t, a.Tokens)
	assert.Nil(t, a.DB)
}

func TestNew_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Redis.URL = "redis://" + mr.Addr()

	a, err := New(cfg, zerolog.Nop(), MemoryRepos(memory.NewStore()))
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &cache.RedisStatsCache{}, a.Stats)
}

func TestNew_RejectsBadMailBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Mail.Backend = "fax"

	_, err := New(cfg, zerolog.Nop(), MemoryRepos(memory.NewStore()))
	assert.Error(t, err)
}

func TestNew_WithoutSecretHasNoTokens(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = ""

	a, err := New(cfg, zerolog.Nop(), MemoryRepos(memory.NewStore()))
	require.NoError(t, err)
	defer a.Close()
	assert.Nil(t, a.Tokens)
}

func TestOpen_MemoryDriver(t *testing.T) {
	a, err := Open(context.Background(), testConfig(), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, a.Close())
}

func TestApp_PassAndQueuedSend(t *testing.T) {
	store := memory.NewStore()
	a, err := New(testConfig(), zerolog.Nop(), MemoryRepos(store))
	require.NoError(t, err)
	require.NoError(t, a.ConsumeDispatchJobs())

	ctx := context.Background()
	owner := auth.Principal{UserID: 1, Role: model.RoleUser}
	c, err := a.Clients.Create(ctx, owner, service.ClientInput{Email: "r@example.com", FullName: "R"})
	require.NoError(t, err)
	msg, err := a.Messages.Create(ctx, owner, service.MessageInput{Subject: "Hello", Body: "World"})
	require.NoError(t, err)
	m, err := a.Mailings.Create(ctx, owner, service.MailingInput{
		FirstSendTime: time.Now().Add(-time.Minute),
		EndTime:       time.Now().Add(time.Hour),
		MessageID:     msg.ID,
		ClientIDs:     []int{c.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, "dispatched 1 mailing(s)", a.Pass.Run(ctx))
	got, err := store.Mailings.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MailingRunning, got.Status)

	require.NoError(t, a.Mailings.EnqueueMailing(ctx, owner, m.ID))
	require.NoError(t, a.Close())

	attempts, err := store.Attempts.ListByMailing(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, attempts, 2)
}

func TestApp_CloseOrder(t *testing.T) {
	a, err := New(testConfig(), zerolog.Nop(), MemoryRepos(memory.NewStore()))
	require.NoError(t, err)

	var order []string
	a.OnClose(func() error {
		order = append(order, "db")
		return errors.New("db close failed")
	})
	a.closers = append(a.closers, func() error {
		order = append(order, "late")
		return nil
	})

	err = a.Close()
	assert.ErrorContains(t, err, "db close failed")
	assert.Equal(t, []string{"late", "db"}, order)
}

func TestApp_NewScheduler(t *testing.T) {
	a, err := New(testConfig(), zerolog.Nop(), MemoryRepos(memory.NewStore()))
	require.NoError(t, err)
	defer a.Close()

	s, err := a.NewScheduler()
	require.NoError(t, err)
	assert.NotNil(t, s)

	a.Config.Scheduler.Spec = "not a spec"
	_, err = a.NewScheduler()
	assert.Error(t, err)
}
