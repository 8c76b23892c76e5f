package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/model"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/repository/memory"
)

// fakeSender records every call and fails for addresses listed in failFor.
// Like the SMTP sender it gives up on a done context.
type fakeSender struct {
	mu      sync.Mutex
	failFor map[string]error
	calls   []string
	froms   []string
}

func (f *fakeSender) Send(ctx context.Context, subject, body, from, to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	f.calls = append(f.calls, to)
	f.froms = append(f.froms, from)
	if err, ok := f.failFor[to]; ok {
		return err
	}
	return nil
}

var testNow = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store  *memory.Store
	sender *fakeSender
	engine *Engine
	msgID  int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.SetClock(func() time.Time { return testNow })
	sender := &fakeSender{failFor: map[string]error{}}

	msg := &model.Message{Subject: "Spring sale", Body: "Everything -20%", OwnerID: 1}
	require.NoError(t, store.Messages.Create(context.Background(), msg))

	return &fixture{
		store:  store,
		sender: sender,
		msgID:  msg.ID,
		engine: &Engine{
			Mailings: store.Mailings,
			Messages: store.Messages,
			Attempts: store.Attempts,
			Sender:   sender,
			From:     "news@example.org",
			Now:      func() time.Time { return testNow },
			Log:      zerolog.Nop(),
		},
	}
}

func (f *fixture) mailing(t *testing.T, status model.MailingStatus, start, end time.Time, emails ...string) *model.Mailing {
	t.Helper()
	ctx := context.Background()

	ids := []int{}
	for _, e := range emails {
		c := &model.Client{Email: e, FullName: e, OwnerID: 1}
		require.NoError(t, f.store.Clients.Create(ctx, c))
		ids = append(ids, c.ID)
	}
	m := &model.Mailing{
		FirstSendTime: start,
		EndTime:       end,
		Status:        status,
		MessageID:     f.msgID,
		ClientIDs:     ids,
		OwnerID:       1,
	}
	require.NoError(t, f.store.Mailings.Create(ctx, m))
	return m
}

func (f *fixture) attempts(t *testing.T, mailingID int) []model.MailingAttempt {
	t.Helper()
	list, err := f.store.Attempts.ListByMailing(context.Background(), mailingID)
	require.NoError(t, err)
	return list
}

func (f *fixture) status(t *testing.T, mailingID int) model.MailingStatus {
	t.Helper()
	m, err := f.store.Mailings.GetByID(context.Background(), mailingID)
	require.NoError(t, err)
	return m.Status
}

func TestDispatch_PartialFailureStillSucceeds(t *testing.T) {
	f := newFixture(t)
	f.sender.failFor["b@x.com"] = errors.New("550 mailbox unavailable")
	m := f.mailing(t, model.MailingRunning, testNow.Add(-time.Hour), testNow.Add(time.Hour), "a@x.com", "b@x.com")

	ok := f.engine.Dispatch(context.Background(), m.ID)
	require.True(t, ok)

	attempts := f.attempts(t, m.ID)
	require.Len(t, attempts, 2)

	byStatus := map[model.AttemptStatus]model.MailingAttempt{}
	for _, a := range attempts {
		assert.Equal(t, m.ID, a.MailingID)
		byStatus[a.Status] = a
	}
	assert.Equal(t, "message delivered to a@x.com", byStatus[model.AttemptSuccess].ServerResponse)
	assert.Equal(t, "delivery to b@x.com failed: 550 mailbox unavailable", byStatus[model.AttemptFailed].ServerResponse)
	assert.Equal(t, []string{"news@example.org", "news@example.org"}, f.sender.froms)
	assert.Equal(t, model.MailingRunning, f.status(t, m.ID))
}

func TestDispatch_CancelledContextStillReachesEveryRecipient(t *testing.T) {
	f := newFixture(t)
	m := f.mailing(t, model.MailingRunning, testNow.Add(-time.Hour), testNow.Add(time.Hour), "a@x.com", "b@x.com")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.True(t, f.engine.Dispatch(ctx, m.ID))

	attempts := f.attempts(t, m.ID)
	require.Len(t, attempts, 2)
	for _, a := range attempts {
		assert.Equal(t, model.AttemptSuccess, a.Status, a.ServerResponse)
	}
	assert.ElementsMatch(t, []string{"a@x.com", "b@x.com"}, f.sender.calls)
}

func TestDispatch_ExpiredDeadlineStillReachesEveryRecipient(t *testing.T) {
	f := newFixture(t)
	m := f.mailing(t, model.MailingCreated, testNow.Add(-time.Hour), testNow.Add(time.Hour), "a@x.com", "b@x.com", "c@x.com")

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	require.True(t, f.engine.DispatchScheduled(ctx, m.ID))
	assert.Len(t, f.attempts(t, m.ID), 3)
	assert.Len(t, f.sender.calls, 3)
}

func TestDispatch_AllRecipientsSucceed(t *testing.T) {
	f := newFixture(t)
	emails := []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com"}
	m := f.mailing(t, model.MailingRunning, testNow.Add(-time.Hour), testNow.Add(time.Hour), emails...)

	require.True(t, f.engine.Dispatch(context.Background(), m.ID))

	attempts := f.attempts(t, m.ID)
	require.Len(t, attempts, len(emails))
	for _, a := range attempts {
		assert.Equal(t, model.AttemptSuccess, a.Status)
	}
	assert.ElementsMatch(t, emails, f.sender.calls)
}

func TestDispatch_KFailuresOfN(t *testing.T) {
	f := newFixture(t)
	emails := []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com", "e@x.com"}
	f.sender.failFor["b@x.com"] = errors.New("timeout")
	f.sender.failFor["e@x.com"] = errors.New("relay denied")
	m := f.mailing(t, model.MailingRunning, testNow.Add(-time.Hour), testNow.Add(time.Hour), emails...)

	require.True(t, f.engine.Dispatch(context.Background(), m.ID))

	var failed, success int
	for _, a := range f.attempts(t, m.ID) {
		switch a.Status {
		case model.AttemptFailed:
			failed++
		case model.AttemptSuccess:
			success++
		}
	}
	assert.Equal(t, 2, failed)
	assert.Equal(t, 3, success)
}

func TestDispatch_StrictGateRejectsNonRunning(t *testing.T) {
	for _, status := range []model.MailingStatus{model.MailingCreated, model.MailingCompleted} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			m := f.mailing(t, status, testNow.Add(-time.Hour), testNow.Add(time.Hour), "a@x.com")

			assert.False(t, f.engine.Dispatch(context.Background(), m.ID))
			assert.Empty(t, f.attempts(t, m.ID))
			assert.Empty(t, f.sender.calls)
			assert.Equal(t, status, f.status(t, m.ID))
		})
	}
}

func TestDispatch_ExpiredCreatedMailingIsCompleted(t *testing.T) {
	f := newFixture(t)
	m := f.mailing(t, model.MailingCreated, testNow.Add(-2*time.Hour), testNow.Add(-time.Minute), "a@x.com")

	assert.False(t, f.engine.Dispatch(context.Background(), m.ID))
	assert.Equal(t, model.MailingCompleted, f.status(t, m.ID))
	assert.Empty(t, f.attempts(t, m.ID))
}

func TestDispatch_ExpiredCompletesRegardlessOfStatusOrRecipients(t *testing.T) {
	cases := []struct {
		name   string
		status model.MailingStatus
		emails []string
	}{
		{"running with recipients", model.MailingRunning, []string{"a@x.com", "b@x.com"}},
		{"created without recipients", model.MailingCreated, nil},
		{"already completed", model.MailingCompleted, []string{"a@x.com"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			m := f.mailing(t, tc.status, testNow.Add(-2*time.Hour), testNow.Add(-time.Second), tc.emails...)

			assert.False(t, f.engine.Dispatch(context.Background(), m.ID))
			assert.Equal(t, model.MailingCompleted, f.status(t, m.ID))
			assert.Empty(t, f.attempts(t, m.ID))
		})
	}
}

func TestDispatch_CompletedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	m := f.mailing(t, model.MailingRunning, testNow.Add(-2*time.Hour), testNow.Add(-time.Minute), "a@x.com")

	for i := 0; i < 3; i++ {
		assert.False(t, f.engine.Dispatch(context.Background(), m.ID))
		assert.False(t, f.engine.DispatchScheduled(context.Background(), m.ID))
	}
	assert.Equal(t, model.MailingCompleted, f.status(t, m.ID))
	assert.Empty(t, f.attempts(t, m.ID))
	assert.Empty(t, f.sender.calls)
}

func TestDispatch_NotDueHasNoSideEffects(t *testing.T) {
	f := newFixture(t)
	m := f.mailing(t, model.MailingRunning, testNow.Add(time.Hour), testNow.Add(2*time.Hour), "a@x.com")

	assert.False(t, f.engine.Dispatch(context.Background(), m.ID))
	assert.Equal(t, model.MailingRunning, f.status(t, m.ID))
	assert.Empty(t, f.attempts(t, m.ID))
}

func TestDispatch_WindowBoundsAreInclusive(t *testing.T) {
	f := newFixture(t)
	m := f.mailing(t, model.MailingRunning, testNow, testNow, "a@x.com")

	assert.True(t, f.engine.Dispatch(context.Background(), m.ID))
	assert.Len(t, f.attempts(t, m.ID), 1)
}

func TestDispatch_NoRecipients(t *testing.T) {
	f := newFixture(t)
	m := f.mailing(t, model.MailingRunning, testNow.Add(-time.Hour), testNow.Add(time.Hour))

	assert.False(t, f.engine.Dispatch(context.Background(), m.ID))
	assert.Empty(t, f.attempts(t, m.ID))
}

func TestDispatch_UnknownMailing(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.engine.Dispatch(context.Background(), 4242))
	assert.False(t, f.engine.DispatchScheduled(context.Background(), 4242))
}

func TestDispatchScheduled_AcceptsCreated(t *testing.T) {
	f := newFixture(t)
	m := f.mailing(t, model.MailingCreated, testNow.Add(-time.Hour), testNow.Add(time.Hour), "a@x.com")

	assert.True(t, f.engine.DispatchScheduled(context.Background(), m.ID))
	assert.Len(t, f.attempts(t, m.ID), 1)
	// advancing to running is the caller's job
	assert.Equal(t, model.MailingCreated, f.status(t, m.ID))
}

type failingAttempts struct{}

func (failingAttempts) Create(context.Context, *model.MailingAttempt) error {
	return errors.New("disk full")
}

func TestDispatch_AttemptStoreFailureDoesNotAbortLoop(t *testing.T) {
	f := newFixture(t)
	m := f.mailing(t, model.MailingRunning, testNow.Add(-time.Hour), testNow.Add(time.Hour), "a@x.com", "b@x.com")
	f.engine.Attempts = failingAttempts{}

	assert.True(t, f.engine.Dispatch(context.Background(), m.ID))
	assert.Len(t, f.sender.calls, 2)
}

func TestOutcomeLabel(t *testing.T) {
	assert.Equal(t, "sent", outcomeLabel(nil))
	assert.Equal(t, "not_found", outcomeLabel(errNotFound))
	assert.Equal(t, "window_closed", outcomeLabel(errWindowClosed))
	assert.Equal(t, "error", outcomeLabel(errors.New("db down")))
}
