// Package crm tracks leads, notes, direct messages and follow-up tasks.
package crm

import (
	"errors"
	"time"
)

const (
	LeadStatusNew       = "New"
	LeadStatusConverted = "Converted"

	TaskStatusPending   = "Pending"
	TaskStatusCompleted = "Completed"
	defaultTaskPriority = "Normal"

	// EventNewMessage is published to the receiver's room when a message is sent.
	EventNewMessage = "new_message"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)

// Lead is a prospective borrower captured before intake.
type Lead struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	Message           string    `json:"message,omitempty"`
	Source            string    `json:"source,omitempty"`
	PropertyID        string    `json:"property_id,omitempty"`
	AssignedOfficerID string    `json:"assigned_officer_id,omitempty"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// LeadPatch is the body of PATCH /leads/:id.
type LeadPatch struct {
	Name              *string `json:"name"`
	Email             *string `json:"email"`
	Phone             *string `json:"phone"`
	Message           *string `json:"message"`
	Source            *string `json:"source"`
	PropertyID        *string `json:"property_id"`
	AssignedOfficerID *string `json:"assigned_officer_id"`
	Status            *string `json:"status"`
}

func (p LeadPatch) apply(l *Lead) {
	setString(&l.Name, p.Name)
	setString(&l.Email, p.Email)
	setString(&l.Phone, p.Phone)
	setString(&l.Message, p.Message)
	setString(&l.Source, p.Source)
	setString(&l.PropertyID, p.PropertyID)
	setString(&l.AssignedOfficerID, p.AssignedOfficerID)
	setString(&l.Status, p.Status)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Note is a free-form CRM note on a lead or borrower.
type Note struct {
	ID         string    `json:"id"`
	LeadID     string    `json:"lead_id,omitempty"`
	BorrowerID string    `json:"borrower_id,omitempty"`
	UserID     string    `json:"user_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// Message is a direct message between two users.
type Message struct {
	ID              string    `json:"id"`
	SenderID        string    `json:"sender_id"`
	ReceiverID      string    `json:"receiver_id"`
	Subject         string    `json:"subject,omitempty"`
	Content         string    `json:"content"`
	SenderRole      string    `json:"sender_role,omitempty"`
	ReceiverRole    string    `json:"receiver_role,omitempty"`
	SystemGenerated bool      `json:"system_generated"`
	IsRead          bool      `json:"is_read"`
	CreatedAt       time.Time `json:"created_at"`
}

// SentMessage is a stored message with the tone analysis of its content.
type SentMessage struct {
	Message
	Sentiment string `json:"sentiment"`
	Objection string `json:"objection,omitempty"`
}

// Task is a follow-up item for staff.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	Completed   bool       `json:"completed"`
	AssignedTo  string     `json:"assigned_to,omitempty"`
	BorrowerID  string     `json:"borrower_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
