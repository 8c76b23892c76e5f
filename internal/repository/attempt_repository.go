package repository

import (
	"context"
	"database/sql"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/model"
)

// AttemptRepositoryInterface is append-only: attempts are never updated or deleted.
type AttemptRepositoryInterface interface {
	Create(ctx context.Context, a *model.MailingAttempt) error
	ListAll(ctx context.Context) ([]model.MailingAttempt, error)
	ListByMailingOwner(ctx context.Context, ownerID int) ([]model.MailingAttempt, error)
	ListByMailing(ctx context.Context, mailingID int) ([]model.MailingAttempt, error)
	// Statistics aggregates attempts per mailing; a nil ownerID covers every mailing.
	Statistics(ctx context.Context, ownerID *int) ([]model.MailingStatistics, error)
}

type AttemptRepository struct {
	DB *sql.DB
}

// Create inserts the attempt; attempt_time is assigned by the database.
func (r *AttemptRepository) Create(ctx context.Context, a *model.MailingAttempt) error {
	query := `
        INSERT INTO mailing_attempts (mailing_id, status, server_response)
        VALUES ($1, $2, $3)
        RETURNING id, attempt_time
    `
	return r.DB.QueryRowContext(ctx, query, a.MailingID, a.Status, a.ServerResponse).Scan(&a.ID, &a.AttemptTime)
}

func (r *AttemptRepository) ListAll(ctx context.Context) ([]model.MailingAttempt, error) {
	return r.list(ctx, `
        SELECT id, mailing_id, attempt_time, status, COALESCE(server_response, '')
        FROM mailing_attempts
        ORDER BY attempt_time DESC, id DESC
    `)
}

func (r *AttemptRepository) ListByMailingOwner(ctx context.Context, ownerID int) ([]model.MailingAttempt, error) {
	return r.list(ctx, `
        SELECT a.id, a.mailing_id, a.attempt_time, a.status, COALESCE(a.server_response, '')
        FROM mailing_attempts a
        JOIN mailings m ON m.id = a.mailing_id
        WHERE m.owner_id = $1
        ORDER BY a.attempt_time DESC, a.id DESC
    `, ownerID)
}

func (r *AttemptRepository) ListByMailing(ctx context.Context, mailingID int) ([]model.MailingAttempt, error) {
	return r.list(ctx, `
        SELECT id, mailing_id, attempt_time, status, COALESCE(server_response, '')
        FROM mailing_attempts
        WHERE mailing_id = $1
        ORDER BY attempt_time DESC, id DESC
    `, mailingID)
}

func (r *AttemptRepository) Statistics(ctx context.Context, ownerID *int) ([]model.MailingStatistics, error) {
	query := `
        SELECT m.id, m.status, m.owner_id,
               COUNT(a.id),
               COUNT(a.id) FILTER (WHERE a.status = 'success'),
               COUNT(a.id) FILTER (WHERE a.status = 'failed')
        FROM mailings m
        LEFT JOIN mailing_attempts a ON a.mailing_id = m.id
        WHERE ($1::int IS NULL OR m.owner_id = $1)
        GROUP BY m.id
        ORDER BY m.id DESC
    `
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []model.MailingStatistics{}
	for rows.Next() {
		var s model.MailingStatistics
		if err := rows.Scan(&s.MailingID, &s.Status, &s.OwnerID, &s.TotalAttempts, &s.SuccessfulAttempts, &s.FailedAttempts); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *AttemptRepository) list(ctx context.Context, query string, args ...any) ([]model.MailingAttempt, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := []model.MailingAttempt{}
	for rows.Next() {
		var a model.MailingAttempt
		if err := rows.Scan(&a.ID, &a.MailingID, &a.AttemptTime, &a.Status, &a.ServerResponse); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

var _ AttemptRepositoryInterface = (*AttemptRepository)(nil)
