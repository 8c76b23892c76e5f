package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	appErrors "github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/errors"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/model"
)

type UserRepositoryInterface interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id int) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateProfile(ctx context.Context, u *model.User) error
	UpdateRole(ctx context.Context, id int, role string) error
}

type UserRepository struct {
	DB *sql.DB
}

const userColumns = `id, email, username, password_hash, role, phone_number, country, created_at`

func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	query := `
        INSERT INTO users (email, username, password_hash, role, phone_number, country)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at
    `
	err := r.DB.QueryRowContext(ctx, query, strings.ToLower(u.Email), u.Username, u.PasswordHash, u.Role, u.PhoneNumber, u.Country).
		Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err) {
		return appErrors.NewConflict("email", u.Email)
	}
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	u, err := r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.NewNotFound("user", id)
	}
	return u, err
}

// GetByEmail returns a nil user and nil error when no account matches.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := r.get(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, strings.ToLower(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *UserRepository) UpdateProfile(ctx context.Context, u *model.User) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET username=$1, phone_number=$2, country=$3 WHERE id=$4`,
		u.Username, u.PhoneNumber, u.Country, u.ID)
	if err != nil {
		return err
	}
	return expectRow(res, "user", u.ID)
}

func (r *UserRepository) UpdateRole(ctx context.Context, id int, role string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET role=$1 WHERE id=$2`, role, id)
	if err != nil {
		return err
	}
	return expectRow(res, "user", id)
}

func (r *UserRepository) get(ctx context.Context, query string, arg any) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Role,
		&u.PhoneNumber, &u.Country, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

var _ UserRepositoryInterface = (*UserRepository)(nil)
