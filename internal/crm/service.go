package crm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"loanmvp/internal/borrowers"
	"loanmvp/internal/insights"
	"loanmvp/internal/realtime"
	"loanmvp/internal/shared/auth"
	"loanmvp/internal/shared/telemetry"
)

// Publisher pushes realtime events to a room.
type Publisher interface {
	PublishTo(room, event string, payload any)
}

// Service contains CRM business logic.
type Service struct {
	Leads     LeadRepo
	Notes     NoteRepo
	Messages  MessageRepo
	Tasks     TaskRepo
	Borrowers *borrowers.Service
	Publisher Publisher
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

var errNotConfigured = errors.New("crm service not configured")

func (s *Service) CreateLead(ctx context.Context, l Lead) (Lead, error) {
	if s == nil || s.Leads == nil {
		return Lead{}, errNotConfigured
	}
	l.Name = strings.TrimSpace(l.Name)
	l.Email = strings.TrimSpace(l.Email)
	if err := validateLead(l); err != nil {
		return Lead{}, err
	}
	now := s.now()
	l.ID = uuid.NewString()
	l.Status = LeadStatusNew
	l.CreatedAt = now
	l.UpdatedAt = now
	if err := s.Leads.Create(ctx, l); err != nil {
		return Lead{}, fmt.Errorf("create lead: %w", err)
	}
	telemetry.Info("lead.created", map[string]any{"lead_id": l.ID, "source": l.Source})
	return l, nil
}

func validateLead(l Lead) error {
	if l.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if l.Email != "" && !auth.IsValidEmail(l.Email) {
		return fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	return nil
}

func (s *Service) GetLead(ctx context.Context, id string) (Lead, error) {
	if s == nil || s.Leads == nil {
		return Lead{}, errNotConfigured
	}
	return s.Leads.GetByID(ctx, id)
}

func (s *Service) ListLeads(ctx context.Context, filter LeadFilter, limit, offset int) ([]Lead, error) {
	if s == nil || s.Leads == nil {
		return nil, errNotConfigured
	}
	out, err := s.Leads.List(ctx, filter, limit, offset)
	if out == nil && err == nil {
		out = []Lead{}
	}
	return out, err
}

func (s *Service) UpdateLead(ctx context.Context, id string, patch LeadPatch) (Lead, error) {
	l, err := s.GetLead(ctx, id)
	if err != nil {
		return Lead{}, err
	}
	patch.apply(&l)
	l.Name = strings.TrimSpace(l.Name)
	l.Email = strings.TrimSpace(l.Email)
	if err := validateLead(l); err != nil {
		return Lead{}, err
	}
	if l.Status == "" {
		l.Status = LeadStatusNew
	}
	l.UpdatedAt = s.now()
	if err := s.Leads.Update(ctx, l); err != nil {
		return Lead{}, err
	}
	return l, nil
}

// ConvertLead claims the lead as converted, then opens a borrower profile
// for it. The claim is a single conditional update, so concurrent converts
// yield one profile and ErrConflict for the rest. A failed profile insert
// puts the lead back.
func (s *Service) ConvertLead(ctx context.Context, id string) (borrowers.BorrowerProfile, error) {
	if s == nil || s.Borrowers == nil {
		return borrowers.BorrowerProfile{}, errNotConfigured
	}
	prev, err := s.GetLead(ctx, id)
	if err != nil {
		return borrowers.BorrowerProfile{}, err
	}
	l, err := s.Leads.MarkConverted(ctx, prev.ID, s.now())
	if errors.Is(err, ErrConflict) {
		return borrowers.BorrowerProfile{}, fmt.Errorf("%w: lead already converted", ErrConflict)
	}
	if err != nil {
		return borrowers.BorrowerProfile{}, fmt.Errorf("convert lead: %w", err)
	}
	p, err := s.Borrowers.Create(ctx, borrowers.CreateRequest{BorrowerProfile: borrowers.BorrowerProfile{
		LeadID:            l.ID,
		AssignedOfficerID: l.AssignedOfficerID,
		FullName:          l.Name,
		Email:             l.Email,
		Phone:             l.Phone,
	}})
	if err != nil {
		if rbErr := s.Leads.Update(ctx, prev); rbErr != nil {
			telemetry.Error("lead.convert_rollback_failed", map[string]any{"lead_id": l.ID, "error": rbErr.Error()})
		}
		return borrowers.BorrowerProfile{}, err
	}
	telemetry.Info("lead.converted", map[string]any{"lead_id": l.ID, "borrower_id": p.ID})
	return p, nil
}

func (s *Service) AddNote(ctx context.Context, n Note) (Note, error) {
	if s == nil || s.Notes == nil {
		return Note{}, errNotConfigured
	}
	n.Content = strings.TrimSpace(n.Content)
	switch {
	case n.Content == "":
		return Note{}, fmt.Errorf("%w: content is required", ErrInvalidInput)
	case n.UserID == "":
		return Note{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	case n.LeadID == "" && n.BorrowerID == "":
		return Note{}, fmt.Errorf("%w: lead_id or borrower_id is required", ErrInvalidInput)
	}
	n.ID = uuid.NewString()
	n.CreatedAt = s.now()
	if err := s.Notes.Create(ctx, n); err != nil {
		return Note{}, fmt.Errorf("create note: %w", err)
	}
	return n, nil
}

func (s *Service) ListNotes(ctx context.Context, filter NoteFilter, limit, offset int) ([]Note, error) {
	if s == nil || s.Notes == nil {
		return nil, errNotConfigured
	}
	out, err := s.Notes.List(ctx, filter, limit, offset)
	if out == nil && err == nil {
		out = []Note{}
	}
	return out, err
}

// SendMessage stores m, pushes it to the receiver's room and tags its tone.
func (s *Service) SendMessage(ctx context.Context, m Message) (SentMessage, error) {
	if s == nil || s.Messages == nil {
		return SentMessage{}, errNotConfigured
	}
	m.Content = strings.TrimSpace(m.Content)
	switch {
	case m.Content == "":
		return SentMessage{}, fmt.Errorf("%w: content is required", ErrInvalidInput)
	case m.SenderID == "" || m.ReceiverID == "":
		return SentMessage{}, fmt.Errorf("%w: sender_id and receiver_id are required", ErrInvalidInput)
	}
	m.ID = uuid.NewString()
	m.IsRead = false
	m.CreatedAt = s.now()
	if err := s.Messages.Create(ctx, m); err != nil {
		return SentMessage{}, fmt.Errorf("send message: %w", err)
	}

	out := SentMessage{
		Message:   m,
		Sentiment: insights.AnalyzeSentiment(m.Content),
		Objection: insights.DetectObjection(m.Content),
	}
	if s.Publisher != nil {
		s.Publisher.PublishTo(realtime.UserRoom(m.ReceiverID), EventNewMessage, out)
	}
	return out, nil
}

func (s *Service) Inbox(ctx context.Context, userID string, limit, offset int) ([]Message, error) {
	if s == nil || s.Messages == nil {
		return nil, errNotConfigured
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: user is required", ErrInvalidInput)
	}
	out, err := s.Messages.Inbox(ctx, userID, limit, offset)
	if out == nil && err == nil {
		out = []Message{}
	}
	return out, err
}

func (s *Service) Thread(ctx context.Context, userID, otherID string, limit, offset int) ([]Message, error) {
	if s == nil || s.Messages == nil {
		return nil, errNotConfigured
	}
	if userID == "" || otherID == "" {
		return nil, fmt.Errorf("%w: both users are required", ErrInvalidInput)
	}
	out, err := s.Messages.Thread(ctx, userID, otherID, limit, offset)
	if out == nil && err == nil {
		out = []Message{}
	}
	return out, err
}

// MarkMessageRead flags a message read. Only its receiver may do so.
func (s *Service) MarkMessageRead(ctx context.Context, id, userID string) (Message, error) {
	if s == nil || s.Messages == nil {
		return Message{}, errNotConfigured
	}
	if userID == "" {
		return Message{}, fmt.Errorf("%w: user is required", ErrInvalidInput)
	}
	return s.Messages.MarkRead(ctx, id, userID)
}

func (s *Service) CreateTask(ctx context.Context, t Task) (Task, error) {
	if s == nil || s.Tasks == nil {
		return Task{}, errNotConfigured
	}
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return Task{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if t.Priority == "" {
		t.Priority = defaultTaskPriority
	}
	t.ID = uuid.NewString()
	t.Completed = false
	t.Status = TaskStatusPending
	t.CreatedAt = s.now()
	if err := s.Tasks.Create(ctx, t); err != nil {
		return Task{}, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

func (s *Service) ListTasks(ctx context.Context, filter TaskFilter, limit, offset int) ([]Task, error) {
	if s == nil || s.Tasks == nil {
		return nil, errNotConfigured
	}
	out, err := s.Tasks.List(ctx, filter, limit, offset)
	if out == nil && err == nil {
		out = []Task{}
	}
	return out, err
}

// ToggleTask flips completion and keeps status in step.
func (s *Service) ToggleTask(ctx context.Context, id string) (Task, error) {
	if s == nil || s.Tasks == nil {
		return Task{}, errNotConfigured
	}
	t, err := s.Tasks.GetByID(ctx, id)
	if err != nil {
		return Task{}, err
	}
	t.Completed = !t.Completed
	t.Status = TaskStatusPending
	if t.Completed {
		t.Status = TaskStatusCompleted
	}
	if err := s.Tasks.Update(ctx, t); err != nil {
		return Task{}, err
	}
	return t, nil
}

func (s *Service) DeleteTask(ctx context.Context, id string) error {
	if s == nil || s.Tasks == nil {
		return errNotConfigured
	}
	return s.Tasks.Delete(ctx, id)
}
