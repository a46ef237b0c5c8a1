// Package pricing holds the pure loan math: rate estimates, amortization,
// affordability ratios, escrow breakdowns, preapproval screening, milestone
// progress and investor deal budgets.
package pricing

import (
	"math"
	"strings"
)

var baseRates = map[string]float64{
	"conventional": 6.25,
	"fha":          5.75,
	"va":           5.65,
	"usda":         5.60,
	"dscr":         7.50,
	"non_qm":       8.25,
}

const otherBaseRate = 6.99

// EstimateRate returns an indicative note rate in percent.
// A zero credit score or nil ltv skips the corresponding adjustment.
func EstimateRate(creditScore int, ltv *float64, loanType string) float64 {
	rate, ok := baseRates[normalizeLoanType(loanType)]
	if !ok {
		rate = otherBaseRate
	}

	if creditScore > 0 {
		switch {
		case creditScore < 620:
			rate += 1.00
		case creditScore < 660:
			rate += 0.50
		case creditScore < 700:
			rate += 0.25
		case creditScore > 760:
			rate -= 0.25
		}
	}

	if ltv != nil {
		switch {
		case *ltv > 0.90:
			rate += 1.00
		case *ltv > 0.80:
			rate += 0.50
		case *ltv < 0.70:
			rate -= 0.25
		}
	}

	return round(rate, 3)
}

var maxLTVs = map[string]float64{
	"conventional": 0.97,
	"fha":          0.965,
	"va":           1.00,
	"usda":         1.00,
	"dscr":         0.80,
	"non_qm":       0.85,
}

// MaxLTV returns the program LTV ceiling for a loan type; unknown types get 0.80.
func MaxLTV(loanType string) float64 {
	if v, ok := maxLTVs[normalizeLoanType(loanType)]; ok {
		return v
	}
	return 0.80
}

// AmortizedPayment returns the monthly principal and interest payment.
func AmortizedPayment(amount, ratePct float64, termYears int) float64 {
	return amortize(amount, ratePct, termYears*12)
}

func amortize(amount, ratePct float64, months int) float64 {
	if months <= 0 || amount <= 0 {
		return 0
	}
	r := ratePct / 100 / 12
	n := float64(months)
	if r == 0 {
		return round(amount/n, 2)
	}
	growth := math.Pow(1+r, n)
	return round(amount*r*growth/(growth-1), 2)
}

// DSCR returns rent/payment. The bool is false when payment is not positive.
func DSCR(rent, payment float64) (float64, bool) {
	if payment <= 0 {
		return 0, false
	}
	return round(rent/payment, 3), true
}

// RatioInput carries the monthly figures used for DTI and LTV.
type RatioInput struct {
	MonthlyIncome         float64
	SecondaryIncome       float64
	MonthlyHousingPayment float64
	MonthlyDebts          float64
	LoanAmount            float64
	PropertyValue         float64
}

// Ratios holds affordability ratios; nil means the inputs were insufficient.
type Ratios struct {
	TotalIncome float64  `json:"total_income"`
	FrontEndDTI *float64 `json:"front_end_dti"`
	BackEndDTI  *float64 `json:"back_end_dti"`
	LTV         *float64 `json:"ltv"`
}

// ComputeRatios derives front/back DTI and LTV.
func ComputeRatios(in RatioInput) Ratios {
	out := Ratios{TotalIncome: in.MonthlyIncome + in.SecondaryIncome}
	if out.TotalIncome > 0 {
		front := round(in.MonthlyHousingPayment/out.TotalIncome, 4)
		back := round((in.MonthlyHousingPayment+in.MonthlyDebts)/out.TotalIncome, 4)
		out.FrontEndDTI = &front
		out.BackEndDTI = &back
	}
	if in.LoanAmount > 0 && in.PropertyValue > 0 {
		ltv := round(in.LoanAmount/in.PropertyValue, 4)
		out.LTV = &ltv
	}
	return out
}

// PaymentBreakdown is the estimated monthly housing cost of a loan.
type PaymentBreakdown struct {
	PrincipalInterest float64 `json:"principal_interest"`
	Taxes             float64 `json:"taxes"`
	Insurance         float64 `json:"insurance"`
	PMI               float64 `json:"pmi"`
	Total             float64 `json:"total"`
	LTVPercent        float64 `json:"ltv_percent"`
}

const (
	annualTaxRate       = 0.012
	annualInsuranceRate = 0.0035
	annualPMIRate       = 0.0055
	pmiLTVThreshold     = 0.80
)

// Breakdown estimates P&I plus escrow. PMI applies only above 80% LTV.
func Breakdown(amount, ratePct float64, termMonths int, propertyValue float64) PaymentBreakdown {
	var out PaymentBreakdown
	out.PrincipalInterest = amortize(amount, ratePct, termMonths)
	if propertyValue > 0 {
		out.Taxes = round(propertyValue*annualTaxRate/12, 2)
		out.Insurance = round(propertyValue*annualInsuranceRate/12, 2)
		ltv := amount / propertyValue
		out.LTVPercent = round(ltv*100, 2)
		if ltv > pmiLTVThreshold && amount > 0 {
			out.PMI = round(amount*annualPMIRate/12, 2)
		}
	}
	out.Total = round(out.PrincipalInterest+out.Taxes+out.Insurance+out.PMI, 2)
	return out
}

func normalizeLoanType(loanType string) string {
	t := strings.ToLower(strings.TrimSpace(loanType))
	t = strings.NewReplacer("-", "_", " ", "_").Replace(t)
	if t == "nonqm" {
		t = "non_qm"
	}
	return t
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
