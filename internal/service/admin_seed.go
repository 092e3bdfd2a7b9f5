package service

import (
	"context"
	"errors"
	"log/slog"

	"cleanCity/internal/domain"
	"cleanCity/internal/security"
	"cleanCity/pkg/e"
)

// EnsureAdmin creates the admin with the given email unless one exists.
// It is safe to call on every start.
func EnsureAdmin(ctx context.Context, admins AdminRepository, email, password string, cost int, logger *slog.Logger) (*domain.Admin, error) {
	existing, err := admins.GetAdminByEmail(ctx, email)
	if err == nil {
		logger.Debug("default admin present", slog.String("email", email))
		return existing, nil
	}
	if !errors.Is(err, e.ErrNotFound) {
		return nil, err
	}

	hash, err := security.HashPassword(password, cost)
	if err != nil {
		return nil, e.Wrap("service.EnsureAdmin.HashPassword", err)
	}

	created, err := admins.CreateAdmin(ctx, domain.AdminDraft{Email: email, PasswordHash: hash})
	if err != nil {
		// Another instance seeded it first.
		if errors.Is(err, e.ErrConflict) {
			return admins.GetAdminByEmail(ctx, email)
		}
		return nil, err
	}

	logger.Info("default admin created", slog.String("email", email))
	return created, nil
}
