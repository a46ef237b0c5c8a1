package pricing

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// DefaultCreditScore is assumed when no credit profile exists.
const DefaultCreditScore = 660

// PreapprovalInput is the loan, borrower and credit snapshot being screened.
type PreapprovalInput struct {
	CreditScore     int
	HasCredit       bool
	LoanType        string
	LoanAmount      float64
	PropertyValue   float64
	TermMonths      int
	RatePct         float64
	MonthlyIncome   float64
	SecondaryIncome float64
	HousingPayment  float64
	MonthlyDebts    float64
	MonthlyRent     float64
	EmployerName    string
	Veteran         bool
}

// PreapprovalResult lists eligible programs and open issues.
type PreapprovalResult struct {
	Programs           []string `json:"programs"`
	RedFlags           []string `json:"red_flags"`
	RequiredConditions []string `json:"required_conditions"`
	CreditScoreUsed    int      `json:"credit_score_used"`
	FrontEndDTI        *float64 `json:"front_end_dti"`
	BackEndDTI         *float64 `json:"back_end_dti"`
	LTV                *float64 `json:"ltv"`
	EstimatedPayment   float64  `json:"estimated_payment"`
}

type programRule struct {
	name string
	expr string
}

// Evaluated in order; the result lists every matching program.
var programRules = []programRule{
	{name: "FHA", expr: `ltv_known && score >= 580 && ltv <= 0.965 && be_known && back_dti <= 0.50`},
	{name: "Conventional", expr: `ltv_known && score >= 620 && ltv <= 0.97 && be_known && back_dti <= 0.45`},
	{name: "VA", expr: `veteran && be_known && back_dti <= 0.55`},
	{name: "DSCR", expr: `loan_type == "dscr" && rent > 0 && payment > 0 && rent / payment >= 1.0`},
	{name: "Non-QM", expr: `score >= 500`},
}

type ruleEnv struct {
	Score    int     `expr:"score"`
	LTV      float64 `expr:"ltv"`
	LTVKnown bool    `expr:"ltv_known"`
	BackDTI  float64 `expr:"back_dti"`
	BEKnown  bool    `expr:"be_known"`
	Veteran  bool    `expr:"veteran"`
	LoanType string  `expr:"loan_type"`
	Rent     float64 `expr:"rent"`
	Payment  float64 `expr:"payment"`
}

var (
	rulesOnce    sync.Once
	rulePrograms []*vm.Program
	rulesErr     error
)

func compiledRules() ([]*vm.Program, error) {
	rulesOnce.Do(func() {
		programs := make([]*vm.Program, 0, len(programRules))
		for _, rule := range programRules {
			prog, err := expr.Compile(rule.expr, expr.Env(ruleEnv{}), expr.AsBool())
			if err != nil {
				rulesErr = fmt.Errorf("compile %s rule: %w", rule.name, err)
				return
			}
			programs = append(programs, prog)
		}
		rulePrograms = programs
	})
	return rulePrograms, rulesErr
}

// Preapproval screens a loan against the program rules.
func Preapproval(in PreapprovalInput) (PreapprovalResult, error) {
	score := in.CreditScore
	if !in.HasCredit || score <= 0 {
		score = DefaultCreditScore
	}

	ratios := ComputeRatios(RatioInput{
		MonthlyIncome:         in.MonthlyIncome,
		SecondaryIncome:       in.SecondaryIncome,
		MonthlyHousingPayment: in.HousingPayment,
		MonthlyDebts:          in.MonthlyDebts,
		LoanAmount:            in.LoanAmount,
		PropertyValue:         in.PropertyValue,
	})

	term := in.TermMonths
	if term <= 0 {
		term = 360
	}
	rate := in.RatePct
	if rate <= 0 {
		rate = EstimateRate(score, ratios.LTV, in.LoanType)
	}
	payment := amortize(in.LoanAmount, rate, term)

	env := ruleEnv{
		Score:    score,
		Veteran:  in.Veteran,
		LoanType: normalizeLoanType(in.LoanType),
		Rent:     in.MonthlyRent,
		Payment:  payment,
	}
	if ratios.LTV != nil {
		env.LTV, env.LTVKnown = *ratios.LTV, true
	}
	if ratios.BackEndDTI != nil {
		env.BackDTI, env.BEKnown = *ratios.BackEndDTI, true
	}

	programs, err := compiledRules()
	if err != nil {
		return PreapprovalResult{}, err
	}

	out := PreapprovalResult{
		Programs:           []string{},
		RedFlags:           []string{},
		RequiredConditions: []string{},
		CreditScoreUsed:    score,
		FrontEndDTI:        ratios.FrontEndDTI,
		BackEndDTI:         ratios.BackEndDTI,
		LTV:                ratios.LTV,
		EstimatedPayment:   payment,
	}
	for i, prog := range programs {
		res, err := expr.Run(prog, env)
		if err != nil {
			return PreapprovalResult{}, fmt.Errorf("run %s rule: %w", programRules[i].name, err)
		}
		if ok, _ := res.(bool); ok {
			out.Programs = append(out.Programs, programRules[i].name)
		}
	}

	totalIncome := in.MonthlyIncome + in.SecondaryIncome
	if score < 580 {
		out.RedFlags = append(out.RedFlags, "Low credit score")
	}
	if env.BEKnown && env.BackDTI > 0.55 {
		out.RedFlags = append(out.RedFlags, "High back-end DTI")
	}
	if env.LTVKnown && env.LTV > 0.97 {
		out.RedFlags = append(out.RedFlags, "LTV exceeds program limits")
	}
	if totalIncome <= 0 {
		out.RedFlags = append(out.RedFlags, "Missing income documentation")
	}
	if env.LoanType == "dscr" && in.MonthlyRent <= 0 {
		out.RedFlags = append(out.RedFlags, "Missing rent / DSCR calculation")
	}

	if totalIncome <= 0 {
		out.RequiredConditions = append(out.RequiredConditions, "Provide income documentation (paystubs, W-2s or tax returns)")
	}
	if in.EmployerName == "" {
		out.RequiredConditions = append(out.RequiredConditions, "Verification of employment")
	}
	if in.PropertyValue <= 0 {
		out.RequiredConditions = append(out.RequiredConditions, "Appraisal to establish property value")
	}
	if !in.HasCredit {
		out.RequiredConditions = append(out.RequiredConditions, "Credit report authorization")
	}

	return out, nil
}
