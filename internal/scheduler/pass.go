// Package scheduler runs dispatch passes over every mailing whose window is
// open, either on a cron schedule or on demand.
package scheduler

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/cache"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/dispatch"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/metrics"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/model"
)

type MailingStore interface {
	ListDue(ctx context.Context, now time.Time, statuses []model.MailingStatus) ([]model.Mailing, error)
	UpdateStatus(ctx context.Context, id int, status model.MailingStatus) error
}

// Pass selects due mailings and hands each to the dispatcher. Overlapping
// passes are not coordinated with each other or with on-demand sends.
type Pass struct {
	Mailings      MailingStore
	Dispatcher    dispatch.Dispatcher
	Stats         cache.StatsCache // optional
	// SelectTimeout bounds the due-mailing query. Dispatches are not bounded.
	SelectTimeout time.Duration
	Now           func() time.Time
	Log           zerolog.Logger
}

// Run dispatches every created or running mailing in its window and moves
// freshly sent created mailings to running. It returns a summary line.
func (p *Pass) Run(ctx context.Context) string {
	start := time.Now()
	defer func() { metrics.PassDuration.Observe(time.Since(start).Seconds()) }()

	due, err := p.listDue(ctx, model.MailingCreated, model.MailingRunning)
	if err != nil {
		p.Log.Error().Err(err).Msg("failed to select due mailings")
		return "dispatched 0 mailing(s)"
	}

	sent := 0
	for _, m := range due {
		if !p.Dispatcher.DispatchScheduled(ctx, m.ID) {
			continue
		}
		sent++

		if m.Status == model.MailingCreated {
			if err := p.Mailings.UpdateStatus(ctx, m.ID, model.MailingRunning); err != nil {
				p.Log.Error().Err(err).Int("mailing_id", m.ID).Msg("failed to mark mailing running")
			}
		}
	}

	metrics.PassDispatched.Add(float64(sent))
	p.invalidateStats(ctx)

	summary := fmt.Sprintf("dispatched %d mailing(s)", sent)
	p.Log.Info().Int("due", len(due)).Int("dispatched", sent).Msg(summary)
	return summary
}

// RunActive sends running mailings in their window through the strict
// dispatch path and writes a progress report to w. It returns the number of
// mailings dispatched.
func (p *Pass) RunActive(ctx context.Context, w io.Writer) int {
	active, err := p.listDue(ctx, model.MailingRunning)
	if err != nil {
		fmt.Fprintf(w, "Failed to load active mailings: %v\n", err)
		return 0
	}
	if len(active) == 0 {
		fmt.Fprintln(w, "No active mailings to send.")
		return 0
	}

	fmt.Fprintf(w, "Found %d mailing(s) to send\n", len(active))
	sent := 0
	for _, m := range active {
		fmt.Fprintf(w, "Sending mailing ID %d\n", m.ID)
		if p.Dispatcher.Dispatch(ctx, m.ID) {
			sent++
			fmt.Fprintf(w, "Mailing ID %d sent.\n", m.ID)
		} else {
			fmt.Fprintf(w, "Failed to send mailing ID %d.\n", m.ID)
		}
	}
	fmt.Fprintln(w, "Done.")

	p.invalidateStats(ctx)
	return sent
}

func (p *Pass) listDue(ctx context.Context, statuses ...model.MailingStatus) ([]model.Mailing, error) {
	if p.SelectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.SelectTimeout)
		defer cancel()
	}
	return p.Mailings.ListDue(ctx, p.now(), statuses)
}

func (p *Pass) invalidateStats(ctx context.Context) {
	if p.Stats == nil {
		return
	}
	if err := p.Stats.Invalidate(ctx); err != nil {
		p.Log.Warn().Err(err).Msg("failed to invalidate home stats")
	}
}

func (p *Pass) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
