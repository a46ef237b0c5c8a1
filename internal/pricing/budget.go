package pricing

// FlipInput holds fix-and-flip assumptions. Zero values take the defaults.
type FlipInput struct {
	PurchasePrice      float64 `json:"purchase_price"`
	ARV                float64 `json:"arv"`
	RehabTotal         float64 `json:"rehab_total"`
	HoldingMonths      int     `json:"holding_months"`
	MonthlyHoldingCost float64 `json:"monthly_holding_cost"`
	SellingCostRate    float64 `json:"selling_cost_rate"`
	DownPaymentRate    float64 `json:"down_payment_rate"`
	InterestRate       float64 `json:"interest_rate"`
	PointsRate         float64 `json:"points_rate"`
}

// FlipBudget is the projected outcome of a flip.
type FlipBudget struct {
	Strategy        string  `json:"strategy"`
	PurchasePrice   float64 `json:"purchase_price"`
	ARV             float64 `json:"arv"`
	RehabTotal      float64 `json:"rehab_total"`
	HoldingMonths   int     `json:"holding_months"`
	HoldingCost     float64 `json:"holding_cost"`
	SellingCostRate float64 `json:"selling_cost_rate"`
	SellingCosts    float64 `json:"selling_costs"`
	LoanAmount      float64 `json:"loan_amount"`
	DownPayment     float64 `json:"down_payment"`
	InterestRate    float64 `json:"interest_rate"`
	InterestCost    float64 `json:"interest_cost"`
	PointsRate      float64 `json:"points_rate"`
	PointsCost      float64 `json:"points_cost"`
	TotalInvestment float64 `json:"total_investment"`
	Profit          float64 `json:"profit"`
	ROI             float64 `json:"roi"`
}

// CalculateFlip projects a flip budget.
func CalculateFlip(in FlipInput) FlipBudget {
	holding := in.HoldingMonths
	if holding <= 0 {
		holding = 6
	}
	selling := orDefault(in.SellingCostRate, 0.08)
	down := orDefault(in.DownPaymentRate, 0.20)
	interest := orDefault(in.InterestRate, 0.10)
	points := orDefault(in.PointsRate, 0.02)

	out := FlipBudget{
		Strategy:        "flip",
		PurchasePrice:   in.PurchasePrice,
		ARV:             in.ARV,
		RehabTotal:      in.RehabTotal,
		HoldingMonths:   holding,
		HoldingCost:     round(in.MonthlyHoldingCost*float64(holding), 2),
		SellingCostRate: selling,
		SellingCosts:    round(in.ARV*selling, 2),
		DownPayment:     round(in.PurchasePrice*down, 2),
		InterestRate:    interest,
		PointsRate:      points,
	}
	if loan := in.PurchasePrice - out.DownPayment; loan > 0 {
		out.LoanAmount = round(loan, 2)
	}
	out.PointsCost = round(out.LoanAmount*points, 2)
	out.InterestCost = round(out.LoanAmount*(interest/12)*float64(holding), 2)
	out.TotalInvestment = round(in.PurchasePrice+in.RehabTotal+out.HoldingCost+out.SellingCosts+out.PointsCost+out.InterestCost, 2)
	out.Profit = round(in.ARV-out.TotalInvestment, 2)
	if cash := out.DownPayment + in.RehabTotal + out.PointsCost; cash > 0 {
		out.ROI = round(out.Profit/cash, 4)
	}
	return out
}

// RentalInput holds buy-and-hold assumptions. Zero values take the defaults.
type RentalInput struct {
	PurchasePrice      float64  `json:"purchase_price"`
	RehabTotal         float64  `json:"rehab_total"`
	MonthlyRent        float64  `json:"monthly_rent"`
	MonthlyTaxes       float64  `json:"monthly_taxes"`
	MonthlyInsurance   float64  `json:"monthly_insurance"`
	MonthlyHOA         float64  `json:"monthly_hoa"`
	MonthlyMaintenance *float64 `json:"monthly_maintenance"`
	VacancyRate        float64  `json:"vacancy_rate"`
	ManagementRate     float64  `json:"management_rate"`
	DownPaymentRate    float64  `json:"down_payment_rate"`
	InterestRate       float64  `json:"interest_rate"`
	TermYears          int      `json:"term_years"`
}

// RentalBudget is the projected monthly and annual performance of a rental.
type RentalBudget struct {
	Strategy        string  `json:"strategy"`
	PurchasePrice   float64 `json:"purchase_price"`
	RehabTotal      float64 `json:"rehab_total"`
	MonthlyRent     float64 `json:"monthly_rent"`
	EffectiveRent   float64 `json:"effective_rent"`
	MonthlyExpenses float64 `json:"monthly_expenses"`
	MortgagePayment float64 `json:"mortgage_payment"`
	NetCashflow     float64 `json:"net_cashflow"`
	AnnualNOI       float64 `json:"annual_noi"`
	CapRate         float64 `json:"cap_rate"`
	DSCR            float64 `json:"dscr"`
	LoanAmount      float64 `json:"loan_amount"`
	DownPayment     float64 `json:"down_payment"`
}

// CalculateRental projects a rental budget.
func CalculateRental(in RentalInput) RentalBudget {
	vacancy := orDefault(in.VacancyRate, 0.05)
	management := orDefault(in.ManagementRate, 0.08)
	down := orDefault(in.DownPaymentRate, 0.25)
	rate := orDefault(in.InterestRate, 0.075)
	term := in.TermYears
	if term <= 0 {
		term = 30
	}
	maintenance := in.MonthlyRent * 0.05
	if in.MonthlyMaintenance != nil {
		maintenance = *in.MonthlyMaintenance
	}

	effective := in.MonthlyRent * (1 - vacancy)
	expenses := in.MonthlyTaxes + in.MonthlyInsurance + in.MonthlyHOA + maintenance + effective*management

	out := RentalBudget{
		Strategy:        "rental",
		PurchasePrice:   in.PurchasePrice,
		RehabTotal:      in.RehabTotal,
		MonthlyRent:     in.MonthlyRent,
		EffectiveRent:   round(effective, 2),
		MonthlyExpenses: round(expenses, 2),
		DownPayment:     round(in.PurchasePrice*down, 2),
	}
	if loan := in.PurchasePrice - out.DownPayment; loan > 0 {
		out.LoanAmount = round(loan, 2)
	}
	out.MortgagePayment = amortize(out.LoanAmount, rate*100, term*12)

	noiMonthly := effective - expenses
	out.NetCashflow = round(noiMonthly-out.MortgagePayment, 2)
	out.AnnualNOI = round(noiMonthly*12, 2)
	if in.PurchasePrice > 0 {
		out.CapRate = round(out.AnnualNOI/in.PurchasePrice, 4)
	}
	if dscr, ok := DSCR(noiMonthly, out.MortgagePayment); ok {
		out.DSCR = dscr
	}
	return out
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}
