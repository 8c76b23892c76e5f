package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/auth"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/cache"
	appErrors "github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/errors"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/model"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/repository"
)

type ClientInput struct {
	Email    string  `json:"email" validate:"required,email,max=254"`
	FullName string  `json:"full_name" validate:"required,max=255"`
	Comment  *string `json:"comment"`
}

type ClientService struct {
	ClientRepo repository.ClientRepositoryInterface
	Stats      cache.StatsCache
	Log        zerolog.Logger
}

// List returns every client to holders of view_client_list and the caller's
// own clients otherwise.
func (s *ClientService) List(ctx context.Context, p auth.Principal) ([]model.Client, error) {
	if p.Can(auth.PermViewClientList) {
		return s.ClientRepo.ListAll(ctx)
	}
	return s.ClientRepo.ListOwnedBy(ctx, p.UserID)
}

func (s *ClientService) Get(ctx context.Context, p auth.Principal, id int) (*model.Client, error) {
	c, err := s.ClientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Owns(c.OwnerID) && !p.Can(auth.PermViewClientList) {
		return nil, appErrors.NewNotFound("client", id)
	}
	return c, nil
}

func (s *ClientService) Create(ctx context.Context, p auth.Principal, in ClientInput) (*model.Client, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	c := &model.Client{
		Email:    strings.TrimSpace(in.Email),
		FullName: strings.TrimSpace(in.FullName),
		Comment:  in.Comment,
		OwnerID:  p.UserID,
	}
	if err := s.ClientRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	invalidate(ctx, s.Stats, s.Log)
	return c, nil
}

// Update changes a client the caller owns. The owner never changes.
func (s *ClientService) Update(ctx context.Context, p auth.Principal, id int, in ClientInput) (*model.Client, error) {
	c, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	c.Email = strings.TrimSpace(in.Email)
	c.FullName = strings.TrimSpace(in.FullName)
	c.Comment = in.Comment
	if err := s.ClientRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	invalidate(ctx, s.Stats, s.Log)
	return c, nil
}

func (s *ClientService) Delete(ctx context.Context, p auth.Principal, id int) error {
	if _, err := s.owned(ctx, p, id); err != nil {
		return err
	}
	if err := s.ClientRepo.Delete(ctx, id); err != nil {
		return err
	}
	invalidate(ctx, s.Stats, s.Log)
	return nil
}

func (s *ClientService) owned(ctx context.Context, p auth.Principal, id int) (*model.Client, error) {
	c, err := s.ClientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Owns(c.OwnerID) {
		return nil, appErrors.NewNotFound("client", id)
	}
	return c, nil
}

func invalidate(ctx context.Context, c cache.StatsCache, log zerolog.Logger) {
	if c == nil {
		return
	}
	if err := c.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate home stats")
	}
}
