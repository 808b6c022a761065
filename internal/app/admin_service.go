package app

import (
	"context"
	"strings"

	"quiz-engine-service/internal/domain"
)

const (
	defaultAttemptPage = 50
	maxAttemptPage     = 200
)

// AdminService covers the administrative reads and user status changes.
type AdminService struct {
	store Store
}

func NewAdminService(store Store) *AdminService {
	return &AdminService{store: store}
}

// ListAttempts lists attempts across all users, newest first.
func (a *AdminService) ListAttempts(ctx context.Context, filter domain.AttemptFilter) ([]domain.AttemptHeader, error) {
	filter.Page = clampPage(filter.Page, defaultAttemptPage, maxAttemptPage)
	return a.store.ListAttempts(ctx, filter)
}

func (a *AdminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return a.store.ListUsers(ctx)
}

func (a *AdminService) User(ctx context.Context, userID int64) (domain.User, error) {
	return a.store.User(ctx, userID)
}

// SetUserStatus activates or suspends a user. Suspension keeps history.
func (a *AdminService) SetUserStatus(ctx context.Context, userID int64, status string) (domain.UserStatus, error) {
	var active bool
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active":
		active = true
	case "suspended":
		active = false
	default:
		return domain.UserStatus{}, domain.ErrInvalidStatus
	}

	var out domain.UserStatus
	err := a.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.SetUserActive(ctx, userID, active)
		return err
	})
	return out, err
}
