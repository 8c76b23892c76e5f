package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/auth"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/cache"
	appErrors "github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/errors"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/model"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/repository"
)

type MessageInput struct {
	Subject string `json:"subject" validate:"required,max=255"`
	Body    string `json:"body" validate:"required"`
}

type MessageService struct {
	MessageRepo repository.MessageRepositoryInterface
	Stats       cache.StatsCache
	Log         zerolog.Logger
}

func (s *MessageService) List(ctx context.Context, p auth.Principal) ([]model.Message, error) {
	if p.Can(auth.PermViewMessageList) {
		return s.MessageRepo.ListAll(ctx)
	}
	return s.MessageRepo.ListOwnedBy(ctx, p.UserID)
}

func (s *MessageService) Get(ctx context.Context, p auth.Principal, id int) (*model.Message, error) {
	m, err := s.MessageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Owns(m.OwnerID) && !p.Can(auth.PermViewMessageList) {
		return nil, appErrors.NewNotFound("message", id)
	}
	return m, nil
}

func (s *MessageService) Create(ctx context.Context, p auth.Principal, in MessageInput) (*model.Message, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	m := &model.Message{Subject: in.Subject, Body: in.Body, OwnerID: p.UserID}
	if err := s.MessageRepo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MessageService) Update(ctx context.Context, p auth.Principal, id int, in MessageInput) (*model.Message, error) {
	m, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	m.Subject, m.Body = in.Subject, in.Body
	if err := s.MessageRepo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes the message and, through the store, every mailing using it.
func (s *MessageService) Delete(ctx context.Context, p auth.Principal, id int) error {
	if _, err := s.owned(ctx, p, id); err != nil {
		return err
	}
	if err := s.MessageRepo.Delete(ctx, id); err != nil {
		return err
	}
	invalidate(ctx, s.Stats, s.Log)
	return nil
}

func (s *MessageService) owned(ctx context.Context, p auth.Principal, id int) (*model.Message, error) {
	m, err := s.MessageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Owns(m.OwnerID) {
		return nil, appErrors.NewNotFound("message", id)
	}
	return m, nil
}
