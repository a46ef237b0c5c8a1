package insights

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"loanmvp/internal/borrowers"
)

// Events older than this no longer move the engagement score.
const engagementWindow = 30 * 24 * time.Hour

// Service records engagement events and maintains behavioral insights.
type Service struct {
	Events    EventRepo
	Insights  InsightRepo
	Borrowers borrowers.Repo
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) ready() error {
	if s == nil || s.Events == nil || s.Insights == nil {
		return errors.New("insight service not configured")
	}
	return nil
}

func (s *Service) checkBorrower(ctx context.Context, borrowerID string) error {
	if s.Borrowers == nil {
		return nil
	}
	_, err := s.Borrowers.GetByID(ctx, borrowerID)
	return err
}

// RecordEvent stores a touchpoint for the borrower.
func (s *Service) RecordEvent(ctx context.Context, borrowerID, eventType string) (Event, error) {
	if err := s.ready(); err != nil {
		return Event{}, err
	}
	eventType = strings.ToLower(strings.TrimSpace(eventType))
	if eventType == "" {
		return Event{}, fmt.Errorf("%w: event_type is required", ErrInvalidInput)
	}
	if err := s.checkBorrower(ctx, borrowerID); err != nil {
		return Event{}, err
	}
	e := Event{
		ID:         uuid.NewString(),
		BorrowerID: borrowerID,
		EventType:  eventType,
		CreatedAt:  s.now(),
	}
	if err := s.Events.Create(ctx, e); err != nil {
		return Event{}, fmt.Errorf("store event: %w", err)
	}
	return e, nil
}

// Engagement scores the borrower's recent events.
func (s *Service) Engagement(ctx context.Context, borrowerID string) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	now := s.now()
	events, err := s.Events.ListSince(ctx, borrowerID, now.Add(-engagementWindow))
	if err != nil {
		return 0, err
	}
	return EngagementScore(events, now), nil
}

func (s *Service) Get(ctx context.Context, borrowerID string) (BehavioralInsight, error) {
	if err := s.ready(); err != nil {
		return BehavioralInsight{}, err
	}
	return s.Insights.Get(ctx, borrowerID)
}

// UpdateMetrics creates or refreshes the borrower's insight from m.
func (s *Service) UpdateMetrics(ctx context.Context, borrowerID string, m Metrics) (BehavioralInsight, error) {
	if err := s.ready(); err != nil {
		return BehavioralInsight{}, err
	}
	if err := m.validate(); err != nil {
		return BehavioralInsight{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	if err := s.checkBorrower(ctx, borrowerID); err != nil {
		return BehavioralInsight{}, err
	}

	now := s.now()
	b, err := s.Insights.Get(ctx, borrowerID)
	switch {
	case errors.Is(err, ErrNotFound):
		b = BehavioralInsight{ID: uuid.NewString(), BorrowerID: borrowerID, CreatedAt: now}
	case err != nil:
		return BehavioralInsight{}, err
	}
	if m.OfficerID != "" {
		b.OfficerID = m.OfficerID
	}
	if m.AISummary != "" {
		b.AISummary = m.AISummary
	}
	if m.AISuggestions != "" {
		b.AISuggestions = m.AISuggestions
	}
	b.UpdateMetrics(m)
	b.UpdatedAt = now
	if err := s.Insights.Upsert(ctx, b); err != nil {
		return BehavioralInsight{}, fmt.Errorf("store insight: %w", err)
	}
	return b, nil
}
