package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cleanCity/internal/domain"
	"cleanCity/pkg/e"

	"github.com/google/uuid"
)

// AdminStore matches emails byte for byte. It does not enforce unique
// emails; callers check before creating.
type AdminStore struct {
	mu     sync.RWMutex
	admins map[uuid.UUID]*domain.Admin
	clock  clock
}

func NewAdminStore(now func() time.Time) *AdminStore {
	return &AdminStore{
		admins: make(map[uuid.UUID]*domain.Admin),
		clock:  now,
	}
}

func (s *AdminStore) GetAdminByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	const op = "memory.Admin.GetByEmail"

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.admins {
		if a.Email == email {
			c := *a
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
}

func (s *AdminStore) CreateAdmin(ctx context.Context, draft domain.AdminDraft) (*domain.Admin, error) {
	admin := &domain.Admin{
		ID:           uuid.New(),
		Email:        draft.Email,
		PasswordHash: draft.PasswordHash,
		CreatedAt:    s.clock.now(),
	}

	s.mu.Lock()
	s.admins[admin.ID] = admin
	s.mu.Unlock()

	c := *admin
	return &c, nil
}
