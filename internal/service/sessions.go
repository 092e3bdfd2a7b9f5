package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cleanCity/internal/domain"
	"cleanCity/internal/security"
	"cleanCity/pkg/e"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const DefaultSessionTTL = 24 * time.Hour

type SessionOptions struct {
	TTL      time.Duration
	HashCost int
	Now      func() time.Time
}

// SessionRegistry issues and checks admin bearer tokens. Each token lives for
// a fixed TTL from login and is never extended.
type SessionRegistry struct {
	admins AdminRepository
	store  SessionStore
	logger *slog.Logger
	ttl    time.Duration
	now    func() time.Time

	hashCost  int
	dummyOnce sync.Once
	dummyHash string
}

func NewSessionRegistry(admins AdminRepository, store SessionStore, logger *slog.Logger, opts SessionOptions) *SessionRegistry {
	if opts.TTL <= 0 {
		opts.TTL = DefaultSessionTTL
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SessionRegistry{
		admins:   admins,
		store:    store,
		logger:   logger,
		ttl:      opts.TTL,
		now:      opts.Now,
		hashCost: opts.HashCost,
	}
}

func (s *SessionRegistry) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	const op = "service.SessionRegistry.Login"

	if req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("%s: %w", op, e.ErrInvalidCredentials)
	}

	admin, err := s.admins.GetAdminByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		// Unknown emails pay for a comparison too.
		security.ComparePassword(s.dummy(), req.Password)
		s.logger.Info("login rejected")
		return nil, fmt.Errorf("%s: %w", op, e.ErrInvalidCredentials)
	}

	if !security.ComparePassword(admin.PasswordHash, req.Password) {
		s.logger.Info("login rejected")
		return nil, fmt.Errorf("%s: %w", op, e.ErrInvalidCredentials)
	}

	sess := domain.Session{
		Token:     uuid.NewString(),
		AdminID:   admin.ID,
		ExpiresAt: s.now().UTC().Add(s.ttl),
	}
	if err := s.store.Set(ctx, sess); err != nil {
		return nil, err
	}

	s.logger.Info("admin logged in", slog.String("admin_id", admin.ID.String()))
	return &domain.LoginResponse{
		SessionID: sess.Token,
		Admin:     domain.AdminSummary{ID: admin.ID, Email: admin.Email},
	}, nil
}

// Authenticate reports whether token names a live session. An expired
// session is removed on the way.
func (s *SessionRegistry) Authenticate(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	sess, err := s.store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if sess.Active(s.now()) {
		return true, nil
	}

	if err := s.store.Delete(ctx, token); err != nil {
		s.logger.Warn("evict expired session failed", slog.Any("error", err))
	}
	return false, nil
}

func (s *SessionRegistry) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.Delete(ctx, token)
}

func (s *SessionRegistry) SweepExpired(ctx context.Context) (int, error) {
	return s.store.DeleteExpired(ctx, s.now())
}

func (s *SessionRegistry) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := security.HashPassword(uuid.NewString(), s.hashCost)
		if err != nil {
			s.logger.Error("dummy hash failed", slog.Any("error", err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
