package subscriptions

import (
	"errors"
	"time"
)

const (
	StatusActive    = "Active"
	StatusCancelled = "Cancelled"
)

var (
	ErrNotFound    = errors.New("subscription not found")
	ErrUnknownPlan = errors.New("unknown plan")
)

// SubscriptionPlan is one period of a borrower's plan history.
type SubscriptionPlan struct {
	ID                string     `json:"id"`
	BorrowerProfileID string     `json:"borrower_profile_id"`
	PlanName          string     `json:"plan_name"`
	Price             float64    `json:"price"`
	Features          []string   `json:"features"`
	Status            string     `json:"status"`
	StartDate         time.Time  `json:"start_date"`
	EndDate           *time.Time `json:"end_date"`
}

// SubscribeRequest is the body of POST /borrowers/:id/subscription.
type SubscribeRequest struct {
	Plan string `json:"plan"`
}
