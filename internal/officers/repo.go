package officers

import "context"

// Repo persists officer profiles and their derived portfolio and analytics rows.
type Repo interface {
	Create(ctx context.Context, p LoanOfficerProfile) error
	GetByID(ctx context.Context, id string) (LoanOfficerProfile, error)
	GetByUserID(ctx context.Context, userID string) (LoanOfficerProfile, error)
	List(ctx context.Context, limit, offset int) ([]LoanOfficerProfile, error)

	GetPortfolio(ctx context.Context, officerID string) (Portfolio, error)
	SavePortfolio(ctx context.Context, p Portfolio) error
	LatestAnalytics(ctx context.Context, officerID string) (Analytics, error)
	SaveAnalytics(ctx context.Context, a Analytics) error
}
