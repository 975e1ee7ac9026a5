package db

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wuwenbin0122/lingolink/internal/models"
)

// MemoryUsers keeps users in process memory. It is used for local development
// and tests; records do not survive a restart.
type MemoryUsers struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]*models.User
	now     func() time.Time
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]*models.User),
		now:     utcNow,
	}
}

func (s *MemoryUsers) Create(ctx context.Context, user *models.User) error {
	_ = ctx

	now := s.now()
	created := *user
	created.ID = uuid.NewString()
	created.Email = models.NormalizeEmail(user.Email)
	created.Friends = []string{}
	created.CreatedAt = now
	created.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[created.Email]; exists {
		return ErrDuplicate
	}

	stored := created
	s.byID[stored.ID] = &stored
	s.byEmail[stored.Email] = &stored

	*user = created
	return nil
}

func (s *MemoryUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyOrNotFound(s.byEmail[models.NormalizeEmail(email)])
}

func (s *MemoryUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyOrNotFound(s.byID[id])
}

func (s *MemoryUsers) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (*models.User, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	update.Apply(user, s.now())
	return copyOrNotFound(user)
}

func copyOrNotFound(user *models.User) (*models.User, error) {
	if user == nil {
		return nil, ErrNotFound
	}
	out := *user
	out.Friends = append([]string{}, user.Friends...)
	return &out, nil
}
