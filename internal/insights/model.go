package insights

import (
	"errors"
	"math"
	"time"
)

// Engagement levels derived from the success score.
const (
	LevelHigh     = "High"
	LevelModerate = "Moderate"
	LevelLow      = "Low"
)

var (
	ErrNotFound     = errors.New("insight not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Event is a single borrower touchpoint such as a document view or upload.
type Event struct {
	ID         string    `json:"id"`
	BorrowerID string    `json:"borrower_id"`
	EventType  string    `json:"event_type"`
	CreatedAt  time.Time `json:"created_at"`
}

// BehavioralInsight aggregates how a borrower interacts with their officer.
type BehavioralInsight struct {
	ID               string    `json:"id"`
	BorrowerID       string    `json:"borrower_id"`
	OfficerID        string    `json:"officer_id,omitempty"`
	TotalMessages    int       `json:"total_messages"`
	AvgResponseTime  float64   `json:"avg_response_time"`
	SentimentScore   float64   `json:"sentiment_score"`
	FollowUpRate     float64   `json:"follow_up_rate"`
	ConversionRate   float64   `json:"conversion_rate"`
	EngagementLevel  string    `json:"engagement_level"`
	LoanSuccessScore float64   `json:"loan_success_score"`
	AISummary        string    `json:"ai_summary,omitempty"`
	AISuggestions    string    `json:"ai_suggestions,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Metrics are the raw inputs to UpdateMetrics.
type Metrics struct {
	OfficerID       string  `json:"officer_id"`
	TotalMessages   int     `json:"total_messages"`
	AvgResponseTime float64 `json:"avg_response_time"`
	SentimentScore  float64 `json:"sentiment_score"`
	FollowUpRate    float64 `json:"follow_up_rate"`
	ConversionRate  float64 `json:"conversion_rate"`
	AISummary       string  `json:"ai_summary"`
	AISuggestions   string  `json:"ai_suggestions"`
}

func (m Metrics) validate() error {
	switch {
	case m.TotalMessages < 0, m.AvgResponseTime < 0:
		return errors.New("total_messages and avg_response_time must be non-negative")
	case m.SentimentScore < -1 || m.SentimentScore > 1:
		return errors.New("sentiment_score must be between -1 and 1")
	case m.FollowUpRate < 0 || m.FollowUpRate > 1, m.ConversionRate < 0 || m.ConversionRate > 1:
		return errors.New("rates must be between 0 and 1")
	}
	return nil
}

// UpdateMetrics stores m and recomputes the success score and engagement level.
func (b *BehavioralInsight) UpdateMetrics(m Metrics) {
	b.TotalMessages = m.TotalMessages
	b.AvgResponseTime = m.AvgResponseTime
	b.SentimentScore = m.SentimentScore
	b.FollowUpRate = m.FollowUpRate
	b.ConversionRate = m.ConversionRate

	score := m.FollowUpRate*0.3 +
		(1-m.AvgResponseTime/24)*0.2 +
		(m.SentimentScore+1)/2*0.2 +
		m.ConversionRate*0.3
	b.LoanSuccessScore = math.Round(score*100) / 100

	switch {
	case b.LoanSuccessScore >= 0.8:
		b.EngagementLevel = LevelHigh
	case b.LoanSuccessScore >= 0.5:
		b.EngagementLevel = LevelModerate
	default:
		b.EngagementLevel = LevelLow
	}
}
