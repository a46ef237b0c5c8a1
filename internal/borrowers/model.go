package borrowers

import "time"

// BorrowerProfile is the intake record for a loan applicant.
type BorrowerProfile struct {
	ID                     string    `json:"id"`
	UserID                 string    `json:"user_id,omitempty"`
	AssignedOfficerID      string    `json:"assigned_officer_id,omitempty"`
	LeadID                 string    `json:"lead_id,omitempty"`
	FullName               string    `json:"full_name"`
	Email                  string    `json:"email,omitempty"`
	Phone                  string    `json:"phone,omitempty"`
	Address                string    `json:"address,omitempty"`
	City                   string    `json:"city,omitempty"`
	State                  string    `json:"state,omitempty"`
	Zip                    string    `json:"zip,omitempty"`
	EmploymentStatus       string    `json:"employment_status,omitempty"`
	EmployerName           string    `json:"employer_name,omitempty"`
	JobTitle               string    `json:"job_title,omitempty"`
	YearsAtJob             float64   `json:"years_at_job"`
	AnnualIncome           float64   `json:"annual_income"`
	Income                 float64   `json:"income"`
	MonthlyIncomeSecondary float64   `json:"monthly_income_secondary"`
	BankBalance            float64   `json:"bank_balance"`
	HousingStatus          string    `json:"housing_status,omitempty"`
	MonthlyHousingPayment  float64   `json:"monthly_housing_payment"`
	Citizenship            string    `json:"citizenship,omitempty"`
	MaritalStatus          string    `json:"marital_status,omitempty"`
	Dependents             int       `json:"dependents"`
	Veteran                bool      `json:"veteran"`
	CreditScore            int       `json:"credit_score"`
	LoanType               string    `json:"loan_type,omitempty"`
	SubscriptionPlan       string    `json:"subscription_plan"`
	EmailNotifications     bool      `json:"email_notifications"`
	SMSNotifications       bool      `json:"sms_notifications"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// IntakeComplete reports whether the 1003 basics are filled in.
func (p BorrowerProfile) IntakeComplete() bool {
	return p.FullName != "" && p.Address != "" && p.Income > 0
}

// CreateRequest is the intake payload. The notification flags are pointers
// so an omitted field picks up the default instead of false.
type CreateRequest struct {
	BorrowerProfile
	EmailNotifications *bool `json:"email_notifications"`
	SMSNotifications   *bool `json:"sms_notifications"`
}

// Profile resolves the request into a profile with notification defaults
// applied: email on, SMS off.
func (r CreateRequest) Profile() BorrowerProfile {
	p := r.BorrowerProfile
	p.EmailNotifications = true
	if r.EmailNotifications != nil {
		p.EmailNotifications = *r.EmailNotifications
	}
	p.SMSNotifications = false
	if r.SMSNotifications != nil {
		p.SMSNotifications = *r.SMSNotifications
	}
	return p
}

// Patch carries the mutable fields of a profile; nil means unchanged.
type Patch struct {
	AssignedOfficerID      *string  `json:"assigned_officer_id"`
	FullName               *string  `json:"full_name"`
	Email                  *string  `json:"email"`
	Phone                  *string  `json:"phone"`
	Address                *string  `json:"address"`
	City                   *string  `json:"city"`
	State                  *string  `json:"state"`
	Zip                    *string  `json:"zip"`
	EmploymentStatus       *string  `json:"employment_status"`
	EmployerName           *string  `json:"employer_name"`
	JobTitle               *string  `json:"job_title"`
	YearsAtJob             *float64 `json:"years_at_job"`
	AnnualIncome           *float64 `json:"annual_income"`
	Income                 *float64 `json:"income"`
	MonthlyIncomeSecondary *float64 `json:"monthly_income_secondary"`
	BankBalance            *float64 `json:"bank_balance"`
	HousingStatus          *string  `json:"housing_status"`
	MonthlyHousingPayment  *float64 `json:"monthly_housing_payment"`
	Citizenship            *string  `json:"citizenship"`
	MaritalStatus          *string  `json:"marital_status"`
	Dependents             *int     `json:"dependents"`
	Veteran                *bool    `json:"veteran"`
	CreditScore            *int     `json:"credit_score"`
	LoanType               *string  `json:"loan_type"`
	SubscriptionPlan       *string  `json:"subscription_plan"`
	EmailNotifications     *bool    `json:"email_notifications"`
	SMSNotifications       *bool    `json:"sms_notifications"`
}

// BorrowerOnly drops the fields only staff may change.
func (patch Patch) BorrowerOnly() Patch {
	patch.AssignedOfficerID = nil
	patch.SubscriptionPlan = nil
	return patch
}

// Apply copies the set fields of the patch onto p.
func (patch Patch) Apply(p *BorrowerProfile) {
	setString(&p.AssignedOfficerID, patch.AssignedOfficerID)
	setString(&p.FullName, patch.FullName)
	setString(&p.Email, patch.Email)
	setString(&p.Phone, patch.Phone)
	setString(&p.Address, patch.Address)
	setString(&p.City, patch.City)
	setString(&p.State, patch.State)
	setString(&p.Zip, patch.Zip)
	setString(&p.EmploymentStatus, patch.EmploymentStatus)
	setString(&p.EmployerName, patch.EmployerName)
	setString(&p.JobTitle, patch.JobTitle)
	setFloat(&p.YearsAtJob, patch.YearsAtJob)
	setFloat(&p.AnnualIncome, patch.AnnualIncome)
	setFloat(&p.Income, patch.Income)
	setFloat(&p.MonthlyIncomeSecondary, patch.MonthlyIncomeSecondary)
	setFloat(&p.BankBalance, patch.BankBalance)
	setString(&p.HousingStatus, patch.HousingStatus)
	setFloat(&p.MonthlyHousingPayment, patch.MonthlyHousingPayment)
	setString(&p.Citizenship, patch.Citizenship)
	setString(&p.MaritalStatus, patch.MaritalStatus)
	if patch.Dependents != nil {
		p.Dependents = *patch.Dependents
	}
	if patch.Veteran != nil {
		p.Veteran = *patch.Veteran
	}
	if patch.CreditScore != nil {
		p.CreditScore = *patch.CreditScore
	}
	setString(&p.LoanType, patch.LoanType)
	setString(&p.SubscriptionPlan, patch.SubscriptionPlan)
	if patch.EmailNotifications != nil {
		p.EmailNotifications = *patch.EmailNotifications
	}
	if patch.SMSNotifications != nil {
		p.SMSNotifications = *patch.SMSNotifications
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
