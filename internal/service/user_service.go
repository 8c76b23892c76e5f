package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/auth"
	appErrors "github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/errors"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/model"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

type RegisterInput struct {
	Email       string  `json:"email" validate:"required,email,max=254"`
	Username    string  `json:"username" validate:"required,max=150"`
	Password    string  `json:"password" validate:"required,min=8,max=72"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=35"`
	Country     *string `json:"country" validate:"omitempty,max=100"`
}

type ProfileInput struct {
	Username    string  `json:"username" validate:"required,max=150"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=35"`
	Country     *string `json:"country" validate:"omitempty,max=100"`
}

type TokenIssuer interface {
	Issue(p auth.Principal) (string, time.Time, error)
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

type UserService struct {
	UserRepo repository.UserRepositoryInterface
	Tokens   TokenIssuer
	Log      zerolog.Logger
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Username:     strings.TrimSpace(in.Username),
		PasswordHash: hash,
		Role:         model.RoleUser,
		PhoneNumber:  in.PhoneNumber,
		Country:      in.Country,
	}
	if err := s.UserRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.Log.Info().Int("user_id", u.ID).Msg("user registered")
	return u, nil
}

// Login checks the credentials and issues a bearer token.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.UserRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if u == nil || !auth.CheckPassword(u.PasswordHash, password) {
		return nil, appErrors.ErrInvalidCredentials
	}

	token, expires, err := s.Tokens.Issue(auth.Principal{UserID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: expires, User: u}, nil
}

func (s *UserService) Profile(ctx context.Context, p auth.Principal) (*model.User, error) {
	return s.UserRepo.GetByID(ctx, p.UserID)
}

func (s *UserService) UpdateProfile(ctx context.Context, p auth.Principal, in ProfileInput) (*model.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	u, err := s.UserRepo.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	u.Username = strings.TrimSpace(in.Username)
	u.PhoneNumber = in.PhoneNumber
	u.Country = in.Country
	if err := s.UserRepo.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// PromoteToManager grants the manager role. alreadyManager is true when the
// user had it before and nothing changed.
func (s *UserService) PromoteToManager(ctx context.Context, email string) (alreadyManager bool, err error) {
	u, err := s.UserRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return false, err
	}
	if u == nil {
		return false, fmt.Errorf("%w: %s", ErrUserNotFound, email)
	}
	if u.Role == model.RoleManager {
		return true, nil
	}
	if err := s.UserRepo.UpdateRole(ctx, u.ID, model.RoleManager); err != nil {
		return false, err
	}
	s.Log.Info().Int("user_id", u.ID).Msg("user promoted to manager")
	return false, nil
}
