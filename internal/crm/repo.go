package crm

import (
	"context"
	"time"
)

// LeadFilter narrows lead listings.
type LeadFilter struct {
	OfficerID string
	Status    string
	// OpenOnly excludes converted leads.
	OpenOnly bool
}

type LeadRepo interface {
	Create(ctx context.Context, l Lead) error
	GetByID(ctx context.Context, id string) (Lead, error)
	List(ctx context.Context, filter LeadFilter, limit, offset int) ([]Lead, error)
	Update(ctx context.Context, l Lead) error
	// MarkConverted moves a lead to Converted in one step. It returns
	// ErrConflict when the lead was already converted.
	MarkConverted(ctx context.Context, id string, at time.Time) (Lead, error)
}

// NoteFilter narrows note listings.
type NoteFilter struct {
	LeadID     string
	BorrowerID string
}

type NoteRepo interface {
	Create(ctx context.Context, n Note) error
	List(ctx context.Context, filter NoteFilter, limit, offset int) ([]Note, error)
}

type MessageRepo interface {
	Create(ctx context.Context, m Message) error
	// Inbox lists messages received by userID, newest first.
	Inbox(ctx context.Context, userID string, limit, offset int) ([]Message, error)
	// Thread lists messages exchanged between a and b, oldest first.
	Thread(ctx context.Context, a, b string, limit, offset int) ([]Message, error)
	// MarkRead flags a message read for its receiver; other callers get ErrNotFound.
	MarkRead(ctx context.Context, id, receiverID string) (Message, error)
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	AssignedTo  string
	BorrowerID  string
	PendingOnly bool
}

type TaskRepo interface {
	Create(ctx context.Context, t Task) error
	GetByID(ctx context.Context, id string) (Task, error)
	List(ctx context.Context, filter TaskFilter, limit, offset int) ([]Task, error)
	Update(ctx context.Context, t Task) error
	Delete(ctx context.Context, id string) error
}
