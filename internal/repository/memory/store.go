// Package memory is a mutex-guarded in-process entity store. It mirrors the
// Postgres repositories, including cascades and the unique email constraints.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	appErrors "github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/errors"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/model"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/repository"
)

type data struct {
	mu       sync.Mutex
	now      func() time.Time
	nextID   map[string]int
	users    map[int]model.User
	clients  map[int]model.Client
	messages map[int]model.Message
	mailings map[int]model.Mailing
	attempts []model.MailingAttempt
}

func (d *data) id(kind string) int {
	d.nextID[kind]++
	return d.nextID[kind]
}

// Store groups one repository per entity over shared data.
type Store struct {
	Users    *UserRepository
	Clients  *ClientRepository
	Messages *MessageRepository
	Mailings *MailingRepository
	Attempts *AttemptRepository
}

func NewStore() *Store {
	d := &data{
		now:      time.Now,
		nextID:   map[string]int{},
		users:    map[int]model.User{},
		clients:  map[int]model.Client{},
		messages: map[int]model.Message{},
		mailings: map[int]model.Mailing{},
	}
	return &Store{
		Users:    &UserRepository{d},
		Clients:  &ClientRepository{d},
		Messages: &MessageRepository{d},
		Mailings: &MailingRepository{d},
		Attempts: &AttemptRepository{d},
	}
}

// SetClock overrides the time source used for created_at and attempt_time.
func (s *Store) SetClock(now func() time.Time) {
	d := s.Clients.d
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// ====================== Users ======================

type UserRepository struct{ d *data }

func (r *UserRepository) Create(_ context.Context, u *model.User) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	u.Email = strings.ToLower(u.Email)
	for _, existing := range r.d.users {
		if existing.Email == u.Email {
			return appErrors.NewConflict("email", u.Email)
		}
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	u.ID = r.d.id("user")
	u.CreatedAt = r.d.now()
	r.d.users[u.ID] = *u
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id int) (*model.User, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	u, ok := r.d.users[id]
	if !ok {
		return nil, appErrors.NewNotFound("user", id)
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range r.d.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) UpdateProfile(_ context.Context, u *model.User) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	existing, ok := r.d.users[u.ID]
	if !ok {
		return appErrors.NewNotFound("user", u.ID)
	}
	existing.Username = u.Username
	existing.PhoneNumber = u.PhoneNumber
	existing.Country = u.Country
	r.d.users[u.ID] = existing
	return nil
}

func (r *UserRepository) UpdateRole(_ context.Context, id int, role string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	existing, ok := r.d.users[id]
	if !ok {
		return appErrors.NewNotFound("user", id)
	}
	existing.Role = role
	r.d.users[id] = existing
	return nil
}

// ====================== Clients ======================

type ClientRepository struct{ d *data }

func (r *ClientRepository) emailTaken(email string, exceptID int) bool {
	for id, c := range r.d.clients {
		if id != exceptID && c.Email == email {
			return true
		}
	}
	return false
}

func (r *ClientRepository) Create(_ context.Context, c *model.Client) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if r.emailTaken(c.Email, 0) {
		return appErrors.NewConflict("email", c.Email)
	}
	c.ID = r.d.id("client")
	r.d.clients[c.ID] = *c
	return nil
}

func (r *ClientRepository) Update(_ context.Context, c *model.Client) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	existing, ok := r.d.clients[c.ID]
	if !ok {
		return appErrors.NewNotFound("client", c.ID)
	}
	if r.emailTaken(c.Email, c.ID) {
		return appErrors.NewConflict("email", c.Email)
	}
	existing.Email = c.Email
	existing.FullName = c.FullName
	existing.Comment = c.Comment
	r.d.clients[c.ID] = existing
	return nil
}

func (r *ClientRepository) Delete(_ context.Context, id int) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if _, ok := r.d.clients[id]; !ok {
		return appErrors.NewNotFound("client", id)
	}
	delete(r.d.clients, id)

	for mid, m := range r.d.mailings {
		kept := m.ClientIDs[:0:0]
		for _, cid := range m.ClientIDs {
			if cid != id {
				kept = append(kept, cid)
			}
		}
		m.ClientIDs = kept
		r.d.mailings[mid] = m
	}
	return nil
}

func (r *ClientRepository) GetByID(_ context.Context, id int) (*model.Client, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	c, ok := r.d.clients[id]
	if !ok {
		return nil, appErrors.NewNotFound("client", id)
	}
	return &c, nil
}

func (r *ClientRepository) ListAll(_ context.Context) ([]model.Client, error) {
	return r.filter(func(model.Client) bool { return true }), nil
}

func (r *ClientRepository) ListOwnedBy(_ context.Context, ownerID int) ([]model.Client, error) {
	return r.filter(func(c model.Client) bool { return c.OwnerID == ownerID }), nil
}

func (r *ClientRepository) Count(_ context.Context) (int, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	return len(r.d.clients), nil
}

func (r *ClientRepository) filter(keep func(model.Client) bool) []model.Client {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	out := []model.Client{}
	for _, id := range sortedKeys(r.d.clients) {
		if c := r.d.clients[id]; keep(c) {
			out = append(out, c)
		}
	}
	return out
}

// ====================== Messages ======================

type MessageRepository struct{ d *data }

func (r *MessageRepository) Create(_ context.Context, m *model.Message) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	m.ID = r.d.id("message")
	r.d.messages[m.ID] = *m
	return nil
}

func (r *MessageRepository) Update(_ context.Context, m *model.Message) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	existing, ok := r.d.messages[m.ID]
	if !ok {
		return appErrors.NewNotFound("message", m.ID)
	}
	existing.Subject = m.Subject
	existing.Body = m.Body
	r.d.messages[m.ID] = existing
	return nil
}

// Delete cascades to mailings using the message, and to their attempts.
func (r *MessageRepository) Delete(_ context.Context, id int) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if _, ok := r.d.messages[id]; !ok {
		return appErrors.NewNotFound("message", id)
	}
	delete(r.d.messages, id)
	for mid, m := range r.d.mailings {
		if m.MessageID == id {
			r.d.deleteMailing(mid)
		}
	}
	return nil
}

func (r *MessageRepository) GetByID(_ context.Context, id int) (*model.Message, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	m, ok := r.d.messages[id]
	if !ok {
		return nil, appErrors.NewNotFound("message", id)
	}
	return &m, nil
}

func (r *MessageRepository) ListAll(_ context.Context) ([]model.Message, error) {
	return r.filter(func(model.Message) bool { return true }), nil
}

func (r *MessageRepository) ListOwnedBy(_ context.Context, ownerID int) ([]model.Message, error) {
	return r.filter(func(m model.Message) bool { return m.OwnerID == ownerID }), nil
}

func (r *MessageRepository) filter(keep func(model.Message) bool) []model.Message {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	out := []model.Message{}
	for _, id := range sortedKeys(r.d.messages) {
		if m := r.d.messages[id]; keep(m) {
			out = append(out, m)
		}
	}
	return out
}

// ====================== Mailings ======================

type MailingRepository struct{ d *data }

func (d *data) deleteMailing(id int) {
	delete(d.mailings, id)
	kept := d.attempts[:0]
	for _, a := range d.attempts {
		if a.MailingID != id {
			kept = append(kept, a)
		}
	}
	d.attempts = kept
}

func copyMailing(m model.Mailing) model.Mailing {
	m.ClientIDs = append([]int{}, m.ClientIDs...)
	return m
}

func (r *MailingRepository) Create(_ context.Context, m *model.Mailing) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if m.Status == "" {
		m.Status = model.MailingCreated
	}
	if m.ClientIDs == nil {
		m.ClientIDs = []int{}
	}
	m.ID = r.d.id("mailing")
	m.CreatedAt = r.d.now()
	r.d.mailings[m.ID] = copyMailing(*m)
	return nil
}

func (r *MailingRepository) Update(_ context.Context, m *model.Mailing) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	existing, ok := r.d.mailings[m.ID]
	if !ok {
		return appErrors.NewNotFound("mailing", m.ID)
	}
	existing.FirstSendTime = m.FirstSendTime
	existing.EndTime = m.EndTime
	existing.MessageID = m.MessageID
	existing.ClientIDs = append([]int{}, m.ClientIDs...)
	r.d.mailings[m.ID] = existing
	return nil
}

func (r *MailingRepository) UpdateStatus(_ context.Context, id int, status model.MailingStatus) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	existing, ok := r.d.mailings[id]
	if !ok {
		return appErrors.NewNotFound("mailing", id)
	}
	existing.Status = status
	r.d.mailings[id] = existing
	return nil
}

func (r *MailingRepository) Delete(_ context.Context, id int) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if _, ok := r.d.mailings[id]; !ok {
		return appErrors.NewNotFound("mailing", id)
	}
	r.d.deleteMailing(id)
	return nil
}

func (r *MailingRepository) GetByID(_ context.Context, id int) (*model.Mailing, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	m, ok := r.d.mailings[id]
	if !ok {
		return nil, appErrors.NewNotFound("mailing", id)
	}
	m = copyMailing(m)
	return &m, nil
}

func (r *MailingRepository) ListAll(_ context.Context) ([]model.Mailing, error) {
	return r.filter(func(model.Mailing) bool { return true }), nil
}

func (r *MailingRepository) ListOwnedBy(_ context.Context, ownerID int) ([]model.Mailing, error) {
	return r.filter(func(m model.Mailing) bool { return m.OwnerID == ownerID }), nil
}

func (r *MailingRepository) ListDue(_ context.Context, now time.Time, statuses []model.MailingStatus) ([]model.Mailing, error) {
	return r.filter(func(m model.Mailing) bool {
		for _, s := range statuses {
			if m.Status == s {
				return m.InWindow(now)
			}
		}
		return false
	}), nil
}

func (r *MailingRepository) ListRecipients(_ context.Context, mailingID int) ([]model.Client, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	out := []model.Client{}
	m, ok := r.d.mailings[mailingID]
	if !ok {
		return out, nil
	}
	for _, cid := range m.ClientIDs {
		if c, ok := r.d.clients[cid]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MailingRepository) CountByStatus(_ context.Context) (map[model.MailingStatus]int, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	counts := map[model.MailingStatus]int{
		model.MailingCreated:   0,
		model.MailingRunning:   0,
		model.MailingCompleted: 0,
	}
	for _, m := range r.d.mailings {
		counts[m.Status]++
	}
	return counts, nil
}

func (r *MailingRepository) filter(keep func(model.Mailing) bool) []model.Mailing {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	out := []model.Mailing{}
	for _, id := range sortedKeys(r.d.mailings) {
		if m := r.d.mailings[id]; keep(m) {
			out = append(out, copyMailing(m))
		}
	}
	return out
}

// ====================== Attempts ======================

type AttemptRepository struct{ d *data }

func (r *AttemptRepository) Create(_ context.Context, a *model.MailingAttempt) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if _, ok := r.d.mailings[a.MailingID]; !ok {
		return appErrors.NewNotFound("mailing", a.MailingID)
	}
	a.ID = r.d.id("attempt")
	a.AttemptTime = r.d.now()
	r.d.attempts = append(r.d.attempts, *a)
	return nil
}

func (r *AttemptRepository) ListAll(_ context.Context) ([]model.MailingAttempt, error) {
	return r.filter(func(model.MailingAttempt) bool { return true }), nil
}

func (r *AttemptRepository) ListByMailingOwner(_ context.Context, ownerID int) ([]model.MailingAttempt, error) {
	r.d.mu.Lock()
	owned := map[int]bool{}
	for id, m := range r.d.mailings {
		owned[id] = m.OwnerID == ownerID
	}
	r.d.mu.Unlock()

	return r.filter(func(a model.MailingAttempt) bool { return owned[a.MailingID] }), nil
}

func (r *AttemptRepository) ListByMailing(_ context.Context, mailingID int) ([]model.MailingAttempt, error) {
	return r.filter(func(a model.MailingAttempt) bool { return a.MailingID == mailingID }), nil
}

func (r *AttemptRepository) Statistics(_ context.Context, ownerID *int) ([]model.MailingStatistics, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	byMailing := map[int]*model.MailingStatistics{}
	ids := sortedKeys(r.d.mailings)
	out := []model.MailingStatistics{}
	for i := len(ids) - 1; i >= 0; i-- {
		m := r.d.mailings[ids[i]]
		if ownerID != nil && m.OwnerID != *ownerID {
			continue
		}
		out = append(out, model.MailingStatistics{MailingID: m.ID, Status: m.Status, OwnerID: m.OwnerID})
	}
	for i := range out {
		byMailing[out[i].MailingID] = &out[i]
	}

	for _, a := range r.d.attempts {
		s, ok := byMailing[a.MailingID]
		if !ok {
			continue
		}
		s.TotalAttempts++
		switch a.Status {
		case model.AttemptSuccess:
			s.SuccessfulAttempts++
		case model.AttemptFailed:
			s.FailedAttempts++
		}
	}
	return out, nil
}

// filter returns newest first, matching the Postgres ordering.
func (r *AttemptRepository) filter(keep func(model.MailingAttempt) bool) []model.MailingAttempt {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	out := []model.MailingAttempt{}
	for i := len(r.d.attempts) - 1; i >= 0; i-- {
		if a := r.d.attempts[i]; keep(a) {
			out = append(out, a)
		}
	}
	return out
}

var (
	_ repository.UserRepositoryInterface    = (*UserRepository)(nil)
	_ repository.ClientRepositoryInterface  = (*ClientRepository)(nil)
	_ repository.MessageRepositoryInterface = (*MessageRepository)(nil)
	_ repository.MailingRepositoryInterface = (*MailingRepository)(nil)
	_ repository.AttemptRepositoryInterface = (*AttemptRepository)(nil)
)
