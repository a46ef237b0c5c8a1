package notifications

import (
	"errors"
	"time"
)

// Delivery channels.
const (
	ChannelSocket = "socket"
	ChannelInApp  = "inapp"
	ChannelSMS    = "sms"
	ChannelEmail  = "email"
)

// EventNewNotification is the realtime event name for socket deliveries.
const EventNewNotification = "new_notification"

const signature = "Caughman Mason Loan Services"

var (
	ErrNotFound     = errors.New("notification not found")
	ErrInvalidInput = errors.New("invalid input")
)

// LoanNotification is a persisted in-app notification.
type LoanNotification struct {
	ID         string    `json:"id"`
	LoanID     string    `json:"loan_id,omitempty"`
	BorrowerID string    `json:"borrower_id,omitempty"`
	Role       string    `json:"role,omitempty"`
	Channel    string    `json:"channel"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// Recipient is the borrower contact a notification is addressed to.
type Recipient struct {
	BorrowerID string
	Phone      string
	Email      string
}

// Notification describes one fan-out request.
type Notification struct {
	Borrower *Recipient
	LoanID   string
	Role     string
	Title    string
	Message  string
	Channels []string
}

func (n Notification) channels() []string {
	if len(n.Channels) == 0 {
		return []string{ChannelSocket, ChannelInApp}
	}
	return n.Channels
}
