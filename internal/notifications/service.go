package notifications

import (
	"context"
	"errors"
	"strings"
)

// Service exposes the in-app inbox.
type Service struct {
	Repo Repo
}

// List returns notifications matching filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]LoanNotification, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("notification service not configured")
	}
	out, err := s.Repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []LoanNotification{}
	}
	return out, nil
}

// MarkRead flags a notification as read. borrowerID scopes the update to
// one borrower's inbox; staff pass "".
func (s *Service) MarkRead(ctx context.Context, id, borrowerID string) (LoanNotification, error) {
	if s == nil || s.Repo == nil {
		return LoanNotification{}, errors.New("notification service not configured")
	}
	if strings.TrimSpace(id) == "" {
		return LoanNotification{}, ErrInvalidInput
	}
	return s.Repo.MarkRead(ctx, id, borrowerID)
}

// UnreadCount counts unread notifications matching filter.
func (s *Service) UnreadCount(ctx context.Context, filter ListFilter) (int, error) {
	if s == nil || s.Repo == nil {
		return 0, errors.New("notification service not configured")
	}
	return s.Repo.CountUnread(ctx, filter)
}
