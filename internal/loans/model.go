package loans

import (
	"errors"
	"strings"
	"time"
)

const (
	defaultTermMonths = 360
	defaultRiskLevel  = "Medium"
	defaultStage      = "Application Started"
)

// Loan statuses accepted by the status endpoint.
const (
	StatusPending      = "Pending"
	StatusInReview     = "In Review"
	StatusApproved     = "Approved"
	StatusDeclined     = "Declined"
	StatusClearToClose = "Clear To Close"
	StatusClosed       = "Closed"
)

var allowedStatuses = []string{StatusPending, StatusInReview, StatusApproved, StatusDeclined, StatusClearToClose, StatusClosed}

var (
	ErrNotFound      = errors.New("loan not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidStatus = errors.New("invalid status")
)

// CanonicalStatus matches raw case-insensitively against the allowed statuses.
func CanonicalStatus(raw string) (string, bool) {
	raw = strings.Join(strings.Fields(strings.ReplaceAll(raw, "_", " ")), " ")
	for _, s := range allowedStatuses {
		if strings.EqualFold(s, raw) {
			return s, true
		}
	}
	return "", false
}

// LoanApplication is a borrower's request for financing.
type LoanApplication struct {
	ID                    string     `json:"id"`
	BorrowerProfileID     string     `json:"borrower_profile_id"`
	LoanOfficerID         string     `json:"loan_officer_id,omitempty"`
	PropertyID            string     `json:"property_id,omitempty"`
	LenderName            string     `json:"lender_name,omitempty"`
	Amount                float64    `json:"amount"`
	LoanType              string     `json:"loan_type,omitempty"`
	TermMonths            int        `json:"term_months"`
	Rate                  float64    `json:"rate"`
	LTV                   *float64   `json:"ltv"`
	PropertyValue         float64    `json:"property_value"`
	PropertyAddress       string     `json:"property_address,omitempty"`
	Description           string     `json:"description,omitempty"`
	MonthlyRent           float64    `json:"monthly_rent"`
	EstimatedPayment      float64    `json:"estimated_payment"`
	AISummary             string     `json:"ai_summary,omitempty"`
	RiskScore             float64    `json:"risk_score"`
	RiskLevel             string     `json:"risk_level"`
	Status                string     `json:"status"`
	DecisionNotes         string     `json:"decision_notes,omitempty"`
	DecisionDate          *time.Time `json:"decision_date"`
	MonthlyHousingPayment float64    `json:"monthly_housing_payment"`
	FrontEndDTI           *float64   `json:"front_end_dti"`
	BackEndDTI            *float64   `json:"back_end_dti"`
	MonthlyDebtTotal      float64    `json:"monthly_debt_total"`
	ProgressPercent       int        `json:"progress_percent"`
	MilestoneStage        string     `json:"milestone_stage"`
	IsActive              bool       `json:"is_active"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// CreateRequest is the body of POST /loans.
type CreateRequest struct {
	BorrowerProfileID     string   `json:"borrower_profile_id"`
	LoanOfficerID         string   `json:"loan_officer_id"`
	PropertyID            string   `json:"property_id"`
	LenderName            string   `json:"lender_name"`
	Amount                float64  `json:"amount"`
	LoanType              string   `json:"loan_type"`
	TermMonths            int      `json:"term_months"`
	Rate                  float64  `json:"rate"`
	PropertyValue         float64  `json:"property_value"`
	PropertyAddress       string   `json:"property_address"`
	Description           string   `json:"description"`
	MonthlyRent           float64  `json:"monthly_rent"`
	MonthlyHousingPayment *float64 `json:"monthly_housing_payment"`
}

// Patch carries the mutable fields of a loan; nil means unchanged.
type Patch struct {
	LoanOfficerID         *string  `json:"loan_officer_id"`
	PropertyID            *string  `json:"property_id"`
	LenderName            *string  `json:"lender_name"`
	Amount                *float64 `json:"amount"`
	LoanType              *string  `json:"loan_type"`
	TermMonths            *int     `json:"term_months"`
	Rate                  *float64 `json:"rate"`
	PropertyValue         *float64 `json:"property_value"`
	PropertyAddress       *string  `json:"property_address"`
	Description           *string  `json:"description"`
	MonthlyRent           *float64 `json:"monthly_rent"`
	AISummary             *string  `json:"ai_summary"`
	RiskScore             *float64 `json:"risk_score"`
	RiskLevel             *string  `json:"risk_level"`
	MonthlyHousingPayment *float64 `json:"monthly_housing_payment"`
	IsActive              *bool    `json:"is_active"`
}

func (p Patch) apply(l *LoanApplication) {
	setString(&l.LoanOfficerID, p.LoanOfficerID)
	setString(&l.PropertyID, p.PropertyID)
	setString(&l.LenderName, p.LenderName)
	setFloat(&l.Amount, p.Amount)
	setString(&l.LoanType, p.LoanType)
	if p.TermMonths != nil {
		l.TermMonths = *p.TermMonths
	}
	setFloat(&l.Rate, p.Rate)
	setFloat(&l.PropertyValue, p.PropertyValue)
	setString(&l.PropertyAddress, p.PropertyAddress)
	setString(&l.Description, p.Description)
	setFloat(&l.MonthlyRent, p.MonthlyRent)
	setString(&l.AISummary, p.AISummary)
	setFloat(&l.RiskScore, p.RiskScore)
	setString(&l.RiskLevel, p.RiskLevel)
	setFloat(&l.MonthlyHousingPayment, p.MonthlyHousingPayment)
	if p.IsActive != nil {
		l.IsActive = *p.IsActive
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// StatusRequest is the body of POST /loans/:id/status.
type StatusRequest struct {
	Status        string `json:"status"`
	DecisionNotes string `json:"decision_notes"`
}
