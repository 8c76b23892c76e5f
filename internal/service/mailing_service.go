package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/auth"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/cache"
	appErrors "github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/errors"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/model"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/queue"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/repository"
)

type MailingInput struct {
	FirstSendTime time.Time `json:"first_send_time" validate:"required"`
	EndTime       time.Time `json:"end_time" validate:"required,gtfield=FirstSendTime"`
	MessageID     int       `json:"message_id" validate:"required,gt=0"`
	ClientIDs     []int     `json:"client_ids" validate:"required,min=1,dive,gt=0"`
}

// Dispatcher runs one on-demand dispatch.
type Dispatcher interface {
	Dispatch(ctx context.Context, mailingID int) bool
}

type MailingService struct {
	MailingRepo repository.MailingRepositoryInterface
	MessageRepo repository.MessageRepositoryInterface
	ClientRepo  repository.ClientRepositoryInterface
	AttemptRepo repository.AttemptRepositoryInterface
	Dispatcher  Dispatcher
	Queue       queue.Queue // optional, enables EnqueueMailing
	Stats       cache.StatsCache
	Log         zerolog.Logger
}

func (s *MailingService) List(ctx context.Context, p auth.Principal) ([]model.Mailing, error) {
	if p.Can(auth.PermViewMailingList) {
		return s.MailingRepo.ListAll(ctx)
	}
	return s.MailingRepo.ListOwnedBy(ctx, p.UserID)
}

func (s *MailingService) Get(ctx context.Context, p auth.Principal, id int) (*model.Mailing, error) {
	m, err := s.MailingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Owns(m.OwnerID) && !p.Can(auth.PermViewMailingList) {
		return nil, appErrors.NewNotFound("mailing", id)
	}
	return m, nil
}

// Create stores a new mailing in status created. The message and every
// client must belong to the caller.
func (s *MailingService) Create(ctx context.Context, p auth.Principal, in MailingInput) (*model.Mailing, error) {
	if err := s.validate(ctx, p, in); err != nil {
		return nil, err
	}
	m := &model.Mailing{
		FirstSendTime: in.FirstSendTime,
		EndTime:       in.EndTime,
		Status:        model.MailingCreated,
		MessageID:     in.MessageID,
		ClientIDs:     dedupe(in.ClientIDs),
		OwnerID:       p.UserID,
	}
	if err := s.MailingRepo.Create(ctx, m); err != nil {
		return nil, err
	}
	invalidate(ctx, s.Stats, s.Log)
	return m, nil
}

// Update rewrites window, message and recipients. Status and owner are kept.
func (s *MailingService) Update(ctx context.Context, p auth.Principal, id int, in MailingInput) (*model.Mailing, error) {
	m, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, p, in); err != nil {
		return nil, err
	}
	m.FirstSendTime = in.FirstSendTime
	m.EndTime = in.EndTime
	m.MessageID = in.MessageID
	m.ClientIDs = dedupe(in.ClientIDs)
	if err := s.MailingRepo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MailingService) Delete(ctx context.Context, p auth.Principal, id int) error {
	if _, err := s.owned(ctx, p, id); err != nil {
		return err
	}
	if err := s.MailingRepo.Delete(ctx, id); err != nil {
		return err
	}
	invalidate(ctx, s.Stats, s.Log)
	return nil
}

// SendMailing dispatches the mailing now. Only the owner or a holder of
// set_mailing_status may trigger it; the boolean is the dispatch result.
func (s *MailingService) SendMailing(ctx context.Context, p auth.Principal, id int) (bool, error) {
	if _, err := s.authorizeSend(ctx, p, id); err != nil {
		return false, err
	}

	ok := s.Dispatcher.Dispatch(ctx, id)
	invalidate(ctx, s.Stats, s.Log)
	return ok, nil
}

// EnqueueMailing hands the dispatch to a worker through the queue.
func (s *MailingService) EnqueueMailing(ctx context.Context, p auth.Principal, id int) error {
	if s.Queue == nil {
		return fmt.Errorf("queued dispatch is not configured")
	}
	if _, err := s.authorizeSend(ctx, p, id); err != nil {
		return err
	}
	job := queue.DispatchJob{MailingID: id, RequestedBy: p.UserID}
	if err := s.Queue.Publish(ctx, queue.DispatchTopic, job); err != nil {
		return fmt.Errorf("enqueue mailing %d: %w", id, err)
	}
	s.Log.Info().Int("mailing_id", id).Int("requested_by", p.UserID).Msg("dispatch queued")
	return nil
}

func (s *MailingService) authorizeSend(ctx context.Context, p auth.Principal, id int) (*model.Mailing, error) {
	m, err := s.MailingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Owns(m.OwnerID) && !p.Can(auth.PermSetMailingStatus) {
		return nil, appErrors.ErrForbidden
	}
	return m, nil
}

// Attempts lists the attempt log, newest first.
func (s *MailingService) Attempts(ctx context.Context, p auth.Principal) ([]model.MailingAttempt, error) {
	if p.Can(auth.PermViewMailingList) {
		return s.AttemptRepo.ListAll(ctx)
	}
	return s.AttemptRepo.ListByMailingOwner(ctx, p.UserID)
}

func (s *MailingService) MailingAttempts(ctx context.Context, p auth.Principal, id int) ([]model.MailingAttempt, error) {
	if _, err := s.Get(ctx, p, id); err != nil {
		return nil, err
	}
	return s.AttemptRepo.ListByMailing(ctx, id)
}

// Statistics counts attempts per mailing.
func (s *MailingService) Statistics(ctx context.Context, p auth.Principal) ([]model.MailingStatistics, error) {
	if p.Can(auth.PermViewMailingList) {
		return s.AttemptRepo.Statistics(ctx, nil)
	}
	owner := p.UserID
	return s.AttemptRepo.Statistics(ctx, &owner)
}

func (s *MailingService) owned(ctx context.Context, p auth.Principal, id int) (*model.Mailing, error) {
	m, err := s.MailingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Owns(m.OwnerID) {
		return nil, appErrors.NewNotFound("mailing", id)
	}
	return m, nil
}

func (s *MailingService) validate(ctx context.Context, p auth.Principal, in MailingInput) error {
	if in.FirstSendTime.IsZero() {
		return appErrors.NewValidation("first_send_time", "is required")
	}
	if err := validateInput(in); err != nil {
		return err
	}

	msg, err := s.MessageRepo.GetByID(ctx, in.MessageID)
	if appErrors.IsNotFound(err) || (err == nil && !p.Owns(msg.OwnerID)) {
		return appErrors.NewValidation("message_id", "unknown message")
	}
	if err != nil {
		return err
	}

	for _, cid := range in.ClientIDs {
		c, err := s.ClientRepo.GetByID(ctx, cid)
		if appErrors.IsNotFound(err) || (err == nil && !p.Owns(c.OwnerID)) {
			return appErrors.NewValidation("client_ids", fmt.Sprintf("unknown client %d", cid))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func dedupe(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
