package officers

import (
	"math"
	"time"

	"loanmvp/internal/loans"
)

// PerformanceScore blends approval rate (70 points) with processing speed
// (30 points, zero at 60 days or more). No loans scores 0.
func PerformanceScore(total, approved int, avgDays float64) float64 {
	if total <= 0 {
		return 0
	}
	speed := 1 - math.Min(avgDays, 60)/60
	return round2(float64(approved)/float64(total)*70 + speed*30)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// processingDays averages created-to-decision time over decided loans.
func processingDays(book []loans.LoanApplication) float64 {
	var (
		sum float64
		n   int
	)
	for _, l := range book {
		if l.DecisionDate == nil {
			continue
		}
		sum += l.DecisionDate.Sub(l.CreatedAt).Hours() / 24
		n++
	}
	if n == 0 {
		return 0
	}
	return round2(sum / float64(n))
}

func isActive(l loans.LoanApplication) bool {
	return l.IsActive && l.Status != loans.StatusDeclined && l.Status != loans.StatusClosed
}

func computeAnalytics(officerID string, book []loans.LoanApplication, now time.Time) Analytics {
	a := Analytics{
		OfficerID:  officerID,
		Month:      now.Format("2006-01"),
		TotalLoans: len(book),
		UpdatedAt:  now,
	}
	for _, l := range book {
		switch l.Status {
		case loans.StatusApproved, loans.StatusClearToClose, loans.StatusClosed:
			a.ApprovedLoans++
		case loans.StatusDeclined:
			a.DeclinedLoans++
		}
		if isActive(l) {
			a.ActiveLoans++
		}
	}
	a.AverageProcessingTime = processingDays(book)
	a.PerformanceScore = PerformanceScore(a.TotalLoans, a.ApprovedLoans, a.AverageProcessingTime)
	return a
}

// computePortfolio averages the book. scores holds the known credit score of each client.
func computePortfolio(officerID string, book []loans.LoanApplication, scores map[string]int, rating float64, now time.Time) Portfolio {
	p := Portfolio{OfficerID: officerID, Rating: rating, LastUpdated: now}
	clients := make(map[string]struct{})
	var amount float64
	for _, l := range book {
		clients[l.BorrowerProfileID] = struct{}{}
		amount += l.Amount
	}
	p.TotalClients = len(clients)
	if len(book) > 0 {
		p.AvgLoanAmount = round2(amount / float64(len(book)))
	}

	var (
		scoreSum int
		scored   int
	)
	for id := range clients {
		if s := scores[id]; s > 0 {
			scoreSum += s
			scored++
		}
	}
	if scored > 0 {
		p.AvgCreditScore = round2(float64(scoreSum) / float64(scored))
	}

	var closed []loans.LoanApplication
	for _, l := range book {
		if l.Status == loans.StatusClosed {
			closed = append(closed, l)
		}
	}
	p.AvgClosingTime = processingDays(closed)
	return p
}
