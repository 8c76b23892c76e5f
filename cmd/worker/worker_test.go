package main

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/app"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/config"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/repository/memory"
)

func newTestApp(t *testing.T, spec string) *app.App {
	t.Helper()
	cfg := &config.Config{
		Database:  config.DatabaseConfig{Driver: "memory"},
		Mail:      config.MailConfig{Backend: "stdout", From: "noreply@example.com"},
		Scheduler: config.SchedulerConfig{Spec: spec, SelectTimeout: time.Minute},
		Stats:     config.StatsConfig{TTL: time.Minute},
	}
	a, err := app.New(cfg, zerolog.Nop(), app.MemoryRepos(memory.NewStore()))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestStart(t *testing.T) {
	a := newTestApp(t, "@every 1h")

	sched, err := start(a, zerolog.Nop())
	require.NoError(t, err)

	select {
	case <-sched.Stop().Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestStart_InvalidSpec(t *testing.T) {
	a := newTestApp(t, "whenever")

	_, err := start(a, zerolog.Nop())
	assert.Error(t, err)
}
