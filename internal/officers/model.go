// Package officers manages loan officer profiles and their portfolio analytics.
package officers

import (
	"errors"
	"time"

	"loanmvp/internal/crm"
	"loanmvp/internal/loans"
)

const defaultRating = 5.0

var (
	ErrNotFound     = errors.New("officer not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDuplicate    = errors.New("officer already exists for user")
)

// LoanOfficerProfile is the staff record behind loan_officer_id.
type LoanOfficerProfile struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	NMLS           string    `json:"nmls,omitempty"`
	Region         string    `json:"region,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
	JoinedAt       time.Time `json:"joined_at"`
}

// Portfolio summarizes the officer's book of business.
type Portfolio struct {
	OfficerID      string    `json:"officer_id"`
	TotalClients   int       `json:"total_clients"`
	AvgLoanAmount  float64   `json:"avg_loan_amount"`
	AvgCreditScore float64   `json:"avg_credit_score"`
	AvgClosingTime float64   `json:"avg_closing_time"`
	Rating         float64   `json:"rating"`
	LastUpdated    time.Time `json:"last_updated"`
}

// Analytics is a monthly performance snapshot.
type Analytics struct {
	OfficerID             string    `json:"officer_id"`
	Month                 string    `json:"month"`
	TotalLoans            int       `json:"total_loans"`
	ApprovedLoans         int       `json:"approved_loans"`
	DeclinedLoans         int       `json:"declined_loans"`
	ActiveLoans           int       `json:"active_loans"`
	AverageProcessingTime float64   `json:"average_processing_time"`
	PerformanceScore      float64   `json:"performance_score"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Dashboard is the officer's landing view.
type Dashboard struct {
	Profile             LoanOfficerProfile      `json:"profile"`
	Portfolio           *Portfolio              `json:"portfolio"`
	Analytics           *Analytics              `json:"analytics"`
	ActiveLoans         []loans.LoanApplication `json:"active_loans"`
	OpenLeads           []crm.Lead              `json:"open_leads"`
	PendingTasks        []crm.Task              `json:"pending_tasks"`
	UnreadNotifications int                     `json:"unread_notifications"`
}

// RefreshResult is returned by a portfolio refresh.
type RefreshResult struct {
	Portfolio Portfolio `json:"portfolio"`
	Analytics Analytics `json:"analytics"`
}
