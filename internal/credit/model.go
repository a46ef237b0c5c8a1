package credit

import (
	"encoding/json"
	"time"
)

// CreditProfile is a recorded soft pull for a borrower.
type CreditProfile struct {
	ID                string          `json:"id"`
	BorrowerProfileID string          `json:"borrower_profile_id"`
	LoanAppID         string          `json:"loan_app_id,omitempty"`
	CreditScore       int             `json:"credit_score"`
	Bureau            string          `json:"bureau"`
	Report            json.RawMessage `json:"report,omitempty"`
	MonthlyDebtTotal  float64         `json:"monthly_debt_total"`
	PulledAt          time.Time       `json:"pulled_at"`
}
