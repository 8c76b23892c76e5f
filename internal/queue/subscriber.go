package queue

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Dispatcher is the strict dispatch entry point.
type Dispatcher interface {
	Dispatch(ctx context.Context, mailingID int) bool
}

// StartDispatchSubscriber consumes DispatchTopic and dispatches each mailing
// once. A failed dispatch is logged; there is no redelivery.
func StartDispatchSubscriber(q Queue, d Dispatcher, log zerolog.Logger) error {
	err := q.Subscribe(DispatchTopic, func(ctx context.Context, job DispatchJob) error {
		log.Info().Int("mailing_id", job.MailingID).Int("requested_by", job.RequestedBy).Msg("processing queued dispatch")

		if !d.Dispatch(ctx, job.MailingID) {
			return fmt.Errorf("dispatch of mailing %d failed", job.MailingID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to start subscriber for %s: %w", DispatchTopic, err)
	}
	return nil
}
