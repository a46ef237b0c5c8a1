package officers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"loanmvp/internal/borrowers"
	"loanmvp/internal/credit"
	"loanmvp/internal/crm"
	"loanmvp/internal/loans"
	"loanmvp/internal/notifications"
	"loanmvp/internal/shared/auth"
	"loanmvp/internal/shared/telemetry"
)

const (
	dashboardListLimit = 20
	refreshPageSize    = 100
)

// Service manages officer profiles and their analytics.
type Service struct {
	Repo          Repo
	Loans         loans.Repo
	Borrowers     borrowers.Repo
	Credit        credit.Repo
	Leads         crm.LeadRepo
	Tasks         crm.TaskRepo
	Notifications notifications.Repo
	Now           func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) ready() error {
	if s == nil || s.Repo == nil {
		return errors.New("officer service not configured")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, p LoanOfficerProfile) (LoanOfficerProfile, error) {
	if err := s.ready(); err != nil {
		return LoanOfficerProfile{}, err
	}
	p.Name = strings.TrimSpace(p.Name)
	p.UserID = strings.TrimSpace(p.UserID)
	p.Email = strings.TrimSpace(p.Email)
	switch {
	case p.Name == "":
		return LoanOfficerProfile{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	case p.UserID == "":
		return LoanOfficerProfile{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	case p.Email != "" && !auth.IsValidEmail(p.Email):
		return LoanOfficerProfile{}, fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	p.ID = uuid.NewString()
	p.JoinedAt = s.now()
	if err := s.Repo.Create(ctx, p); err != nil {
		return LoanOfficerProfile{}, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (LoanOfficerProfile, error) {
	if err := s.ready(); err != nil {
		return LoanOfficerProfile{}, err
	}
	return s.Repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]LoanOfficerProfile, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	out, err := s.Repo.List(ctx, limit, offset)
	if out == nil && err == nil {
		out = []LoanOfficerProfile{}
	}
	return out, err
}

// Refresh recomputes the officer's portfolio and this month's analytics from their loans.
func (s *Service) Refresh(ctx context.Context, officerID string) (RefreshResult, error) {
	if err := s.ready(); err != nil {
		return RefreshResult{}, err
	}
	if s.Loans == nil {
		return RefreshResult{}, errors.New("officer service not configured")
	}
	if _, err := s.Repo.GetByID(ctx, officerID); err != nil {
		return RefreshResult{}, err
	}
	book, err := s.Loans.ListAll(ctx, loans.ListFilter{OfficerID: officerID})
	if err != nil {
		return RefreshResult{}, fmt.Errorf("load loans: %w", err)
	}
	scores, err := s.clientScores(ctx, book)
	if err != nil {
		return RefreshResult{}, err
	}

	rating := defaultRating
	if prev, err := s.Repo.GetPortfolio(ctx, officerID); err == nil && prev.Rating > 0 {
		rating = prev.Rating
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return RefreshResult{}, err
	}

	now := s.now()
	res := RefreshResult{
		Portfolio: computePortfolio(officerID, book, scores, rating, now),
		Analytics: computeAnalytics(officerID, book, now),
	}
	if err := s.Repo.SavePortfolio(ctx, res.Portfolio); err != nil {
		return RefreshResult{}, fmt.Errorf("save portfolio: %w", err)
	}
	if err := s.Repo.SaveAnalytics(ctx, res.Analytics); err != nil {
		return RefreshResult{}, fmt.Errorf("save analytics: %w", err)
	}
	telemetry.Info("officer.refreshed", map[string]any{
		"officer_id":        officerID,
		"total_loans":       res.Analytics.TotalLoans,
		"performance_score": res.Analytics.PerformanceScore,
	})
	return res, nil
}

// clientScores prefers each client's latest credit pull over the self-reported score.
func (s *Service) clientScores(ctx context.Context, book []loans.LoanApplication) (map[string]int, error) {
	scores := make(map[string]int)
	for _, l := range book {
		id := l.BorrowerProfileID
		if _, seen := scores[id]; seen {
			continue
		}
		scores[id] = 0
		if s.Credit != nil {
			cp, err := s.Credit.Latest(ctx, id)
			switch {
			case err == nil:
				scores[id] = cp.CreditScore
				continue
			case !errors.Is(err, credit.ErrNotFound):
				return nil, err
			}
		}
		if s.Borrowers != nil {
			b, err := s.Borrowers.GetByID(ctx, id)
			switch {
			case err == nil:
				scores[id] = b.CreditScore
			case !errors.Is(err, borrowers.ErrNotFound):
				return nil, err
			}
		}
	}
	return scores, nil
}

// RefreshAll refreshes every officer and returns how many succeeded.
// A failing officer is logged and skipped.
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	done := 0
	for offset := 0; ; offset += refreshPageSize {
		page, err := s.Repo.List(ctx, refreshPageSize, offset)
		if err != nil {
			return done, err
		}
		for _, p := range page {
			if err := ctx.Err(); err != nil {
				return done, err
			}
			if _, err := s.Refresh(ctx, p.ID); err != nil {
				telemetry.Error("officer.refresh_failed", map[string]any{"officer_id": p.ID, "error": err.Error()})
				continue
			}
			done++
		}
		if len(page) < refreshPageSize {
			return done, nil
		}
	}
}

// Dashboard gathers the officer's landing data concurrently.
func (s *Service) Dashboard(ctx context.Context, officerID string) (Dashboard, error) {
	if err := s.ready(); err != nil {
		return Dashboard{}, err
	}
	profile, err := s.Repo.GetByID(ctx, officerID)
	if err != nil {
		return Dashboard{}, err
	}

	out := Dashboard{
		Profile:      profile,
		ActiveLoans:  []loans.LoanApplication{},
		OpenLeads:    []crm.Lead{},
		PendingTasks: []crm.Task{},
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := s.Repo.GetPortfolio(gctx, officerID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err == nil {
			out.Portfolio = &p
		}
		return err
	})
	g.Go(func() error {
		a, err := s.Repo.LatestAnalytics(gctx, officerID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err == nil {
			out.Analytics = &a
		}
		return err
	})
	if s.Loans != nil {
		g.Go(func() error {
			list, err := s.Loans.List(gctx, loans.ListFilter{OfficerID: officerID, ActiveOnly: true}, dashboardListLimit, 0)
			if err == nil && list != nil {
				out.ActiveLoans = list
			}
			return err
		})
	}
	if s.Leads != nil {
		g.Go(func() error {
			list, err := s.Leads.List(gctx, crm.LeadFilter{OfficerID: officerID, OpenOnly: true}, dashboardListLimit, 0)
			if err == nil && list != nil {
				out.OpenLeads = list
			}
			return err
		})
	}
	if s.Tasks != nil {
		g.Go(func() error {
			list, err := s.Tasks.List(gctx, crm.TaskFilter{AssignedTo: profile.UserID, PendingOnly: true}, dashboardListLimit, 0)
			if err == nil && list != nil {
				out.PendingTasks = list
			}
			return err
		})
	}
	if s.Notifications != nil {
		g.Go(func() error {
			n, err := s.Notifications.CountUnread(gctx, notifications.ListFilter{Role: auth.RoleLoanOfficer})
			out.UnreadNotifications = n
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("officer dashboard: %w", err)
	}
	return out, nil
}
