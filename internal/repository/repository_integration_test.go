//go:build integration

package repository_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/config"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/db"
	appErrors "github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/errors"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/model"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/repository"
)

var sharedDB *sql.DB

// TestMain sets up a shared PostgreSQL container for all integration tests.
func TestMain(m *testing.M) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	host, err := container.Host(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get container port: %v\n", err)
		os.Exit(1)
	}

	cfg := config.DatabaseConfig{
		URL: fmt.Sprintf("postgres://test:test@%s:%s/test?sslmode=disable", host, port.Port()),
	}
	sharedDB, err = db.Init(ctx, cfg, zerolog.Nop())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	if err := db.Migrate(ctx, sharedDB); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	sharedDB.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func truncate(t *testing.T) {
	t.Helper()
	_, err := sharedDB.Exec(`TRUNCATE users, clients, messages, mailings, mailing_clients, mailing_attempts RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

func seedOwner(t *testing.T, email string) *model.User {
	t.Helper()
	users := &repository.UserRepository{DB: sharedDB}
	u := &model.User{Email: email, Username: email, PasswordHash: "x"}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func TestMailingRepository_Lifecycle(t *testing.T) {
	truncate(t)
	ctx := context.Background()

	owner := seedOwner(t, "owner@example.com")
	clients := &repository.ClientRepository{DB: sharedDB}
	messages := &repository.MessageRepository{DB: sharedDB}
	mailings := &repository.MailingRepository{DB: sharedDB}
	attempts := &repository.AttemptRepository{DB: sharedDB}

	a := &model.Client{Email: "a@x.com", FullName: "A", OwnerID: owner.ID}
	b := &model.Client{Email: "b@x.com", FullName: "B", OwnerID: owner.ID}
	require.NoError(t, clients.Create(ctx, a))
	require.NoError(t, clients.Create(ctx, b))

	msg := &model.Message{Subject: "Hi", Body: "Hello", OwnerID: owner.ID}
	require.NoError(t, messages.Create(ctx, msg))

	now := time.Now().UTC().Truncate(time.Second)
	m := &model.Mailing{
		FirstSendTime: now.Add(-time.Hour),
		EndTime:       now.Add(time.Hour),
		MessageID:     msg.ID,
		ClientIDs:     []int{a.ID, b.ID},
		OwnerID:       owner.ID,
	}
	require.NoError(t, mailings.Create(ctx, m))
	assert.Equal(t, model.MailingCreated, m.Status)

	got, err := mailings.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{a.ID, b.ID}, got.ClientIDs)

	due, err := mailings.ListDue(ctx, now, []model.MailingStatus{model.MailingCreated, model.MailingRunning})
	require.NoError(t, err)
	require.Len(t, due, 1)

	recipients, err := mailings.ListRecipients(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, recipients, 2)

	require.NoError(t, mailings.UpdateStatus(ctx, m.ID, model.MailingRunning))
	require.NoError(t, attempts.Create(ctx, &model.MailingAttempt{MailingID: m.ID, Status: model.AttemptSuccess, ServerResponse: "ok"}))
	require.NoError(t, attempts.Create(ctx, &model.MailingAttempt{MailingID: m.ID, Status: model.AttemptFailed, ServerResponse: "boom"}))

	stats, err := attempts.Statistics(ctx, &owner.ID)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].TotalAttempts)
	assert.Equal(t, 1, stats[0].SuccessfulAttempts)
	assert.Equal(t, 1, stats[0].FailedAttempts)

	counts, err := mailings.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[model.MailingRunning])
}

func TestClientRepository_UniqueEmail(t *testing.T) {
	truncate(t)
	ctx := context.Background()
	owner := seedOwner(t, "owner@example.com")
	other := seedOwner(t, "other@example.com")
	clients := &repository.ClientRepository{DB: sharedDB}

	require.NoError(t, clients.Create(ctx, &model.Client{Email: "dup@x.com", FullName: "A", OwnerID: owner.ID}))
	err := clients.Create(ctx, &model.Client{Email: "dup@x.com", FullName: "B", OwnerID: other.ID})

	var conflict *appErrors.ErrConflict
	assert.ErrorAs(t, err, &conflict)
}

func TestMailingRepository_GetMissing(t *testing.T) {
	truncate(t)
	_, err := (&repository.MailingRepository{DB: sharedDB}).GetByID(context.Background(), 999)
	assert.True(t, appErrors.IsNotFound(err))
}
