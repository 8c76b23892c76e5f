// Package dispatch sends a mailing's message to each of its clients and records
// one attempt per recipient.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	appErrors "github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/errors"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/logger"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/mailer"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/metrics"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/model"
)

// Reasons a dispatch stops early. They never leave the package; callers only
// see the boolean result.
var (
	errNotFound     = errors.New("mailing not found")
	errNotEligible  = errors.New("mailing not eligible")
	errNotDue       = errors.New("mailing not due yet")
	errWindowClosed = errors.New("mailing window closed")
	errNoRecipients = errors.New("mailing has no recipients")
	errSendFailure  = errors.New("send failure")
)

type MailingStore interface {
	GetByID(ctx context.Context, id int) (*model.Mailing, error)
	UpdateStatus(ctx context.Context, id int, status model.MailingStatus) error
	ListRecipients(ctx context.Context, mailingID int) ([]model.Client, error)
}

type MessageStore interface {
	GetByID(ctx context.Context, id int) (*model.Message, error)
}

type AttemptStore interface {
	Create(ctx context.Context, a *model.MailingAttempt) error
}

// Dispatcher is what the trigger adapters depend on.
type Dispatcher interface {
	Dispatch(ctx context.Context, mailingID int) bool
	DispatchScheduled(ctx context.Context, mailingID int) bool
}

type Engine struct {
	Mailings MailingStore
	Messages MessageStore
	Attempts AttemptStore
	Sender   mailer.Sender
	From     string
	Now      func() time.Time
	Log      zerolog.Logger
}

var _ Dispatcher = (*Engine)(nil)

var (
	strictGate    = []model.MailingStatus{model.MailingRunning}
	scheduledGate = []model.MailingStatus{model.MailingCreated, model.MailingRunning}
)

// Dispatch sends a running mailing to all of its recipients. It returns true
// once the send loop ran, even if some recipients failed.
func (e *Engine) Dispatch(ctx context.Context, mailingID int) bool {
	return e.run(ctx, mailingID, strictGate)
}

// DispatchScheduled is Dispatch for the periodic pass: mailings that were
// never sent yet (status created) are eligible too.
func (e *Engine) DispatchScheduled(ctx context.Context, mailingID int) bool {
	return e.run(ctx, mailingID, scheduledGate)
}

func (e *Engine) run(ctx context.Context, mailingID int, allowed []model.MailingStatus) bool {
	// A started dispatch always reaches every recipient; callers' deadlines
	// and disconnects do not cut the loop short.
	ctx = context.WithoutCancel(ctx)
	log := logger.Ctx(ctx, e.Log).With().Int("mailing_id", mailingID).Logger()

	err := e.dispatch(ctx, log, mailingID, allowed)
	metrics.DispatchTotal.WithLabelValues(outcomeLabel(err)).Inc()

	switch {
	case err == nil:
		return true
	case errors.Is(err, errNotFound):
		log.Error().Err(err).Msg("cannot dispatch mailing")
	case errors.Is(err, errNoRecipients):
		log.Warn().Msg("mailing has no recipients, nothing sent")
	case errors.Is(err, errNotEligible), errors.Is(err, errNotDue), errors.Is(err, errWindowClosed):
		log.Info().Err(err).Msg("mailing skipped")
	default:
		log.Error().Err(err).Msg("dispatch failed")
	}
	return false
}

func (e *Engine) dispatch(ctx context.Context, log zerolog.Logger, mailingID int, allowed []model.MailingStatus) error {
	mailing, err := e.Mailings.GetByID(ctx, mailingID)
	if err != nil {
		if appErrors.IsNotFound(err) {
			return fmt.Errorf("%w: id %d", errNotFound, mailingID)
		}
		return fmt.Errorf("load mailing: %w", err)
	}

	if err := e.checkEligible(ctx, log, mailing, allowed); err != nil {
		return err
	}

	message, err := e.Messages.GetByID(ctx, mailing.MessageID)
	if err != nil {
		return fmt.Errorf("load message %d: %w", mailing.MessageID, err)
	}

	recipients, err := e.Mailings.ListRecipients(ctx, mailing.ID)
	if err != nil {
		return fmt.Errorf("load recipients: %w", err)
	}
	if len(recipients) == 0 {
		return errNoRecipients
	}

	var sent, failed int
	for _, client := range recipients {
		res := e.sendOne(ctx, message, client.Email)

		attempt := &model.MailingAttempt{MailingID: mailing.ID}
		if res.err != nil {
			failed++
			attempt.Status = model.AttemptFailed
			attempt.ServerResponse = fmt.Sprintf("delivery to %s failed: %v", res.recipient, res.err)
			log.Error().Err(res.err).Str("recipient", res.recipient).Msg(errSendFailure.Error())
		} else {
			sent++
			attempt.Status = model.AttemptSuccess
			attempt.ServerResponse = "message delivered to " + res.recipient
			log.Info().Str("recipient", res.recipient).Msg("message sent")
		}

		if err := e.Attempts.Create(ctx, attempt); err != nil {
			log.Error().Err(err).Str("recipient", res.recipient).Msg("failed to record attempt")
			continue
		}
		metrics.AttemptsTotal.WithLabelValues(string(attempt.Status)).Inc()
	}

	log.Info().Int("sent", sent).Int("failed", failed).Msg("mailing dispatched")
	return nil
}

// checkEligible applies the gate in order: closed window, status, not yet due.
// A closed window completes the mailing whatever its previous status was.
func (e *Engine) checkEligible(ctx context.Context, log zerolog.Logger, m *model.Mailing, allowed []model.MailingStatus) error {
	now := e.now()

	if now.After(m.EndTime) {
		if m.Status != model.MailingCompleted {
			if err := e.Mailings.UpdateStatus(ctx, m.ID, model.MailingCompleted); err != nil {
				return fmt.Errorf("complete mailing: %w", err)
			}
			log.Info().Str("previous_status", string(m.Status)).Msg("mailing window closed, marked completed")
		}
		return errWindowClosed
	}

	if !statusAllowed(m.Status, allowed) {
		return fmt.Errorf("%w: status %s", errNotEligible, m.Status)
	}

	if now.Before(m.FirstSendTime) {
		return fmt.Errorf("%w: starts at %s", errNotDue, m.FirstSendTime.Format(time.RFC3339))
	}
	return nil
}

type sendResult struct {
	recipient string
	err       error
}

func (e *Engine) sendOne(ctx context.Context, message *model.Message, to string) sendResult {
	if err := e.Sender.Send(ctx, message.Subject, message.Body, e.From, to); err != nil {
		return sendResult{recipient: to, err: err}
	}
	return sendResult{recipient: to}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func statusAllowed(s model.MailingStatus, allowed []model.MailingStatus) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "sent"
	case errors.Is(err, errNotFound):
		return "not_found"
	case errors.Is(err, errNotEligible):
		return "not_eligible"
	case errors.Is(err, errNotDue):
		return "not_due"
	case errors.Is(err, errWindowClosed):
		return "window_closed"
	case errors.Is(err, errNoRecipients):
		return "no_recipients"
	default:
		return "error"
	}
}
