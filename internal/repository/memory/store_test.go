package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/errors"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/model"
)

func TestClients_EmailIsGloballyUnique(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.Clients.Create(ctx, &model.Client{Email: "a@x.com", FullName: "A", OwnerID: 1}))
	err := s.Clients.Create(ctx, &model.Client{Email: "a@x.com", FullName: "Other", OwnerID: 2})

	var conflict *appErrors.ErrConflict
	assert.ErrorAs(t, err, &conflict)
}

func TestClients_ListOwnedBy(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Clients.Create(ctx, &model.Client{Email: "a@x.com", OwnerID: 1}))
	require.NoError(t, s.Clients.Create(ctx, &model.Client{Email: "b@x.com", OwnerID: 2}))
	require.NoError(t, s.Clients.Create(ctx, &model.Client{Email: "c@x.com", OwnerID: 1}))

	owned, err := s.Clients.ListOwnedBy(ctx, 1)
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, "a@x.com", owned[0].Email)
	assert.Equal(t, "c@x.com", owned[1].Email)
}

func TestMailings_ListDue(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	open := &model.Mailing{FirstSendTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour), Status: model.MailingCreated}
	future := &model.Mailing{FirstSendTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour), Status: model.MailingRunning}
	done := &model.Mailing{FirstSendTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour), Status: model.MailingCompleted}
	edge := &model.Mailing{FirstSendTime: now, EndTime: now, Status: model.MailingRunning}
	for _, m := range []*model.Mailing{open, future, done, edge} {
		require.NoError(t, s.Mailings.Create(ctx, m))
	}

	due, err := s.Mailings.ListDue(ctx, now, []model.MailingStatus{model.MailingCreated, model.MailingRunning})
	require.NoError(t, err)

	ids := []int{}
	for _, m := range due {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []int{open.ID, edge.ID}, ids)
}

func TestMailings_DeleteCascadesAttempts(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	m := &model.Mailing{Status: model.MailingRunning}
	require.NoError(t, s.Mailings.Create(ctx, m))
	require.NoError(t, s.Attempts.Create(ctx, &model.MailingAttempt{MailingID: m.ID, Status: model.AttemptSuccess}))

	require.NoError(t, s.Mailings.Delete(ctx, m.ID))

	attempts, err := s.Attempts.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, attempts)
}

func TestAttempts_RequireExistingMailing(t *testing.T) {
	s := NewStore()
	err := s.Attempts.Create(context.Background(), &model.MailingAttempt{MailingID: 42, Status: model.AttemptFailed})
	assert.True(t, appErrors.IsNotFound(err))
}

func TestAttempts_Statistics(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	a := &model.Mailing{OwnerID: 1, Status: model.MailingRunning}
	b := &model.Mailing{OwnerID: 2, Status: model.MailingRunning}
	require.NoError(t, s.Mailings.Create(ctx, a))
	require.NoError(t, s.Mailings.Create(ctx, b))
	for _, st := range []model.AttemptStatus{model.AttemptSuccess, model.AttemptSuccess, model.AttemptFailed} {
		require.NoError(t, s.Attempts.Create(ctx, &model.MailingAttempt{MailingID: a.ID, Status: st}))
	}

	owner := 1
	stats, err := s.Attempts.Statistics(ctx, &owner)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, model.MailingStatistics{
		MailingID: a.ID, Status: model.MailingRunning, OwnerID: 1,
		TotalAttempts: 3, SuccessfulAttempts: 2, FailedAttempts: 1,
	}, stats[0])

	all, err := s.Attempts.Statistics(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestClients_DeleteUnlinksFromMailings(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	c := &model.Client{Email: "a@x.com"}
	require.NoError(t, s.Clients.Create(ctx, c))
	m := &model.Mailing{ClientIDs: []int{c.ID}}
	require.NoError(t, s.Mailings.Create(ctx, m))

	require.NoError(t, s.Clients.Delete(ctx, c.ID))

	recipients, err := s.Mailings.ListRecipients(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, recipients)
}
