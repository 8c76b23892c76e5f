package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/errors"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/model"
)

type MailingRepositoryInterface interface {
	// Mailing CRUD
	Create(ctx context.Context, m *model.Mailing) error
	Update(ctx context.Context, m *model.Mailing) error
	UpdateStatus(ctx context.Context, id int, status model.MailingStatus) error
	Delete(ctx context.Context, id int) error
	GetByID(ctx context.Context, id int) (*model.Mailing, error)
	ListAll(ctx context.Context) ([]model.Mailing, error)
	ListOwnedBy(ctx context.Context, ownerID int) ([]model.Mailing, error)

	// Dispatch support
	ListDue(ctx context.Context, now time.Time, statuses []model.MailingStatus) ([]model.Mailing, error)
	ListRecipients(ctx context.Context, mailingID int) ([]model.Client, error)
	CountByStatus(ctx context.Context) (map[model.MailingStatus]int, error)
}

type MailingRepository struct {
	DB *sql.DB
}

const mailingColumns = `id, first_send_time, end_time, status, message_id, owner_id, created_at`

// ====================== Mailing CRUD ======================

func (r *MailingRepository) Create(ctx context.Context, m *model.Mailing) error {
	if m.Status == "" {
		m.Status = model.MailingCreated
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO mailings (first_send_time, end_time, status, message_id, owner_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `
	if err := tx.QueryRowContext(ctx, query, m.FirstSendTime, m.EndTime, m.Status, m.MessageID, m.OwnerID).
		Scan(&m.ID, &m.CreatedAt); err != nil {
		return err
	}
	if err := linkClients(ctx, tx, m.ID, m.ClientIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// Update rewrites the schedule, message and recipient set. Status and owner
// are left alone.
func (r *MailingRepository) Update(ctx context.Context, m *model.Mailing) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
        UPDATE mailings
        SET first_send_time=$1, end_time=$2, message_id=$3
        WHERE id=$4
    `, m.FirstSendTime, m.EndTime, m.MessageID, m.ID)
	if err != nil {
		return err
	}
	if err := expectRow(res, "mailing", m.ID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM mailing_clients WHERE mailing_id=$1`, m.ID); err != nil {
		return err
	}
	if err := linkClients(ctx, tx, m.ID, m.ClientIDs); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *MailingRepository) UpdateStatus(ctx context.Context, id int, status model.MailingStatus) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE mailings SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	return expectRow(res, "mailing", id)
}

func (r *MailingRepository) Delete(ctx context.Context, id int) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM mailings WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return expectRow(res, "mailing", id)
}

func (r *MailingRepository) GetByID(ctx context.Context, id int) (*model.Mailing, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+mailingColumns+` FROM mailings WHERE id=$1`, id)

	var m model.Mailing
	if err := row.Scan(&m.ID, &m.FirstSendTime, &m.EndTime, &m.Status, &m.MessageID, &m.OwnerID, &m.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("mailing", id)
		}
		return nil, err
	}

	mailings := []model.Mailing{m}
	if err := r.attachClientIDs(ctx, mailings); err != nil {
		return nil, err
	}
	return &mailings[0], nil
}

func (r *MailingRepository) ListAll(ctx context.Context) ([]model.Mailing, error) {
	return r.list(ctx, `SELECT `+mailingColumns+` FROM mailings ORDER BY id DESC`)
}

func (r *MailingRepository) ListOwnedBy(ctx context.Context, ownerID int) ([]model.Mailing, error) {
	return r.list(ctx, `SELECT `+mailingColumns+` FROM mailings WHERE owner_id=$1 ORDER BY id DESC`, ownerID)
}

// ====================== Dispatch support ======================

// ListDue returns mailings in one of statuses whose window contains now.
func (r *MailingRepository) ListDue(ctx context.Context, now time.Time, statuses []model.MailingStatus) ([]model.Mailing, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	query := `
        SELECT ` + mailingColumns + `
        FROM mailings
        WHERE status = ANY($1) AND first_send_time <= $2 AND end_time >= $2
        ORDER BY id
    `
	return r.list(ctx, query, pq.Array(names), now)
}

func (r *MailingRepository) ListRecipients(ctx context.Context, mailingID int) ([]model.Client, error) {
	query := `
        SELECT c.id, c.email, c.full_name, c.comment, c.owner_id
        FROM clients c
        JOIN mailing_clients mc ON mc.client_id = c.id
        WHERE mc.mailing_id = $1
    `
	rows, err := r.DB.QueryContext(ctx, query, mailingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := []model.Client{}
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.Email, &c.FullName, &c.Comment, &c.OwnerID); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *MailingRepository) CountByStatus(ctx context.Context) (map[model.MailingStatus]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM mailings GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[model.MailingStatus]int{
		model.MailingCreated:   0,
		model.MailingRunning:   0,
		model.MailingCompleted: 0,
	}
	for rows.Next() {
		var status model.MailingStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *MailingRepository) list(ctx context.Context, query string, args ...any) ([]model.Mailing, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mailings := []model.Mailing{}
	for rows.Next() {
		var m model.Mailing
		if err := rows.Scan(&m.ID, &m.FirstSendTime, &m.EndTime, &m.Status, &m.MessageID, &m.OwnerID, &m.CreatedAt); err != nil {
			return nil, err
		}
		mailings = append(mailings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachClientIDs(ctx, mailings); err != nil {
		return nil, err
	}
	return mailings, nil
}

func (r *MailingRepository) attachClientIDs(ctx context.Context, mailings []model.Mailing) error {
	if len(mailings) == 0 {
		return nil
	}

	ids := make([]int64, len(mailings))
	index := make(map[int]int, len(mailings))
	for i := range mailings {
		ids[i] = int64(mailings[i].ID)
		index[mailings[i].ID] = i
		mailings[i].ClientIDs = []int{}
	}

	rows, err := r.DB.QueryContext(ctx, `
        SELECT mailing_id, client_id FROM mailing_clients
        WHERE mailing_id = ANY($1)
        ORDER BY client_id
    `, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load mailing clients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mailingID, clientID int
		if err := rows.Scan(&mailingID, &clientID); err != nil {
			return err
		}
		i := index[mailingID]
		mailings[i].ClientIDs = append(mailings[i].ClientIDs, clientID)
	}
	return rows.Err()
}

func linkClients(ctx context.Context, tx *sql.Tx, mailingID int, clientIDs []int) error {
	for _, clientID := range clientIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO mailing_clients (mailing_id, client_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			mailingID, clientID)
		if err != nil {
			return fmt.Errorf("link client %d: %w", clientID, err)
		}
	}
	return nil
}

var _ MailingRepositoryInterface = (*MailingRepository)(nil)
