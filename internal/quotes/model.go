package quotes

import (
	"encoding/json"
	"errors"
	"time"
)

const (
	houseLender        = "CM Loan Services"
	quickQuoteLoanType = "Commercial"
	quickQuoteRate     = 6.5
	defaultAmount      = 250000
	defaultTermYears   = 30

	statusPending  = "pending"
	statusSelected = "selected"

	lenderStatusPending = "Pending"
)

var (
	ErrNotFound     = errors.New("quote not found")
	ErrInvalidInput = errors.New("invalid input")
)

// LoanQuote is a priced offer for a loan application.
type LoanQuote struct {
	ID                string    `json:"id"`
	BorrowerProfileID string    `json:"borrower_profile_id,omitempty"`
	LoanApplicationID string    `json:"loan_application_id,omitempty"`
	LenderName        string    `json:"lender_name"`
	Rate              float64   `json:"rate"`
	MaxLTV            float64   `json:"max_ltv"`
	TermMonths        int       `json:"term_months"`
	LoanAmount        float64   `json:"loan_amount"`
	MonthlyPayment    float64   `json:"monthly_payment"`
	LoanType          string    `json:"loan_type,omitempty"`
	PropertyAddress   string    `json:"property_address,omitempty"`
	PropertyType      string    `json:"property_type,omitempty"`
	PurchasePrice     float64   `json:"purchase_price"`
	AsIsValue         float64   `json:"as_is_value"`
	AfterRepairValue  float64   `json:"after_repair_value"`
	FicoScore         int       `json:"fico_score"`
	LoanCategory      string    `json:"loan_category,omitempty"`
	Status            string    `json:"status"`
	Selected          bool      `json:"selected"`
	AISuggestion      string    `json:"ai_suggestion,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// LenderQuote is an outside lender's offer recorded against a loan.
type LenderQuote struct {
	ID           string          `json:"id"`
	LoanID       string          `json:"loan_id"`
	PropertyID   string          `json:"property_id,omitempty"`
	LenderName   string          `json:"lender_name"`
	QuoteDetails json.RawMessage `json:"quote_details,omitempty"`
	Rate         float64         `json:"rate"`
	TermMonths   int             `json:"term_months"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// GenerateRequest is the body of the public quick quote endpoint.
type GenerateRequest struct {
	Amount *float64 `json:"amount"`
	Term   *int     `json:"term"`
}

// GenerateResponse is the quick quote.
type GenerateResponse struct {
	Lender         string  `json:"lender"`
	LoanType       string  `json:"loan_type"`
	Term           string  `json:"term"`
	Rate           float64 `json:"rate"`
	MonthlyPayment float64 `json:"monthly_payment"`
}

// PriceRequest is the body of POST /quotes/price.
type PriceRequest struct {
	LoanApplicationID string `json:"loan_application_id"`
}
