package repository

import (
	"context"
	"database/sql"
	"errors"

	appErrors "github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/errors"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/model"
)

type MessageRepositoryInterface interface {
	Create(ctx context.Context, m *model.Message) error
	Update(ctx context.Context, m *model.Message) error
	Delete(ctx context.Context, id int) error
	GetByID(ctx context.Context, id int) (*model.Message, error)
	ListAll(ctx context.Context) ([]model.Message, error)
	ListOwnedBy(ctx context.Context, ownerID int) ([]model.Message, error)
}

type MessageRepository struct {
	DB *sql.DB
}

func (r *MessageRepository) Create(ctx context.Context, m *model.Message) error {
	query := `
        INSERT INTO messages (subject, body, owner_id)
        VALUES ($1, $2, $3)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query, m.Subject, m.Body, m.OwnerID).Scan(&m.ID)
}

func (r *MessageRepository) Update(ctx context.Context, m *model.Message) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE messages SET subject=$1, body=$2 WHERE id=$3`, m.Subject, m.Body, m.ID)
	if err != nil {
		return err
	}
	return expectRow(res, "message", m.ID)
}

func (r *MessageRepository) Delete(ctx context.Context, id int) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return expectRow(res, "message", id)
}

func (r *MessageRepository) GetByID(ctx context.Context, id int) (*model.Message, error) {
	var m model.Message
	err := r.DB.QueryRowContext(ctx, `SELECT id, subject, body, owner_id FROM messages WHERE id=$1`, id).
		Scan(&m.ID, &m.Subject, &m.Body, &m.OwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("message", id)
		}
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepository) ListAll(ctx context.Context) ([]model.Message, error) {
	return r.list(ctx, `SELECT id, subject, body, owner_id FROM messages ORDER BY id`)
}

func (r *MessageRepository) ListOwnedBy(ctx context.Context, ownerID int) ([]model.Message, error) {
	return r.list(ctx, `SELECT id, subject, body, owner_id FROM messages WHERE owner_id=$1 ORDER BY id`, ownerID)
}

func (r *MessageRepository) list(ctx context.Context, query string, args ...any) ([]model.Message, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.Subject, &m.Body, &m.OwnerID); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

var _ MessageRepositoryInterface = (*MessageRepository)(nil)
