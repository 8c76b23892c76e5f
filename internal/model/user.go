// internal/model/user.go
package model

import "time"

const (
	RoleUser    = "user"
	RoleManager = "manager"
)

type User struct {
	ID           int       `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	PhoneNumber  *string   `db:"phone_number" json:"phone_number,omitempty"`
	Country      *string   `db:"country" json:"country,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
