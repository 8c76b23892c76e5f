package repository

import (
	"context"
	"database/sql"
	"errors"

	appErrors "github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/errors"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/model"
)

// ClientRepositoryInterface defines methods used by services
type ClientRepositoryInterface interface {
	Create(ctx context.Context, c *model.Client) error
	Update(ctx context.Context, c *model.Client) error
	Delete(ctx context.Context, id int) error
	GetByID(ctx context.Context, id int) (*model.Client, error)
	ListAll(ctx context.Context) ([]model.Client, error)
	ListOwnedBy(ctx context.Context, ownerID int) ([]model.Client, error)
	Count(ctx context.Context) (int, error)
}

// ClientRepository is the concrete implementation
type ClientRepository struct {
	DB *sql.DB
}

const clientColumns = `id, email, full_name, comment, owner_id`

func (r *ClientRepository) Create(ctx context.Context, c *model.Client) error {
	query := `
        INSERT INTO clients (email, full_name, comment, owner_id)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	err := r.DB.QueryRowContext(ctx, query, c.Email, c.FullName, c.Comment, c.OwnerID).Scan(&c.ID)
	if isUniqueViolation(err) {
		return appErrors.NewConflict("email", c.Email)
	}
	return err
}

// Update never touches owner_id: ownership does not transfer.
func (r *ClientRepository) Update(ctx context.Context, c *model.Client) error {
	query := `UPDATE clients SET email=$1, full_name=$2, comment=$3 WHERE id=$4`
	res, err := r.DB.ExecContext(ctx, query, c.Email, c.FullName, c.Comment, c.ID)
	if isUniqueViolation(err) {
		return appErrors.NewConflict("email", c.Email)
	}
	if err != nil {
		return err
	}
	return expectRow(res, "client", c.ID)
}

func (r *ClientRepository) Delete(ctx context.Context, id int) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM clients WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return expectRow(res, "client", id)
}

// GetByID fetches a client by ID
func (r *ClientRepository) GetByID(ctx context.Context, id int) (*model.Client, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)

	var c model.Client
	if err := row.Scan(&c.ID, &c.Email, &c.FullName, &c.Comment, &c.OwnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("client", id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *ClientRepository) ListAll(ctx context.Context) ([]model.Client, error) {
	return r.list(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY id`)
}

func (r *ClientRepository) ListOwnedBy(ctx context.Context, ownerID int) ([]model.Client, error) {
	return r.list(ctx, `SELECT `+clientColumns+` FROM clients WHERE owner_id = $1 ORDER BY id`, ownerID)
}

func (r *ClientRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`).Scan(&total)
	return total, err
}

func (r *ClientRepository) list(ctx context.Context, query string, args ...any) ([]model.Client, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
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

func expectRow(res sql.Result, entity string, id int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewNotFound(entity, id)
	}
	return nil
}

var _ ClientRepositoryInterface = (*ClientRepository)(nil)
