package crm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanmvp/internal/borrowers"
)

type published struct {
	room    string
	event   string
	payload any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *fakePublisher) PublishTo(room, event string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{room: room, event: event, payload: payload})
}

type fixture struct {
	svc       *Service
	pub       *fakePublisher
	borrowers *borrowers.MemoryRepo
	clock     time.Time
}

func newFixture() *fixture {
	f := &fixture{
		pub:       &fakePublisher{},
		borrowers: borrowers.NewMemoryRepo(),
		clock:     time.Date(2026, time.August, 3, 14, 0, 0, 0, time.UTC),
	}
	now := func() time.Time { return f.clock }
	f.svc = &Service{
		Leads:     NewMemoryLeadRepo(),
		Notes:     NewMemoryNoteRepo(),
		Messages:  NewMemoryMessageRepo(),
		Tasks:     NewMemoryTaskRepo(),
		Borrowers: &borrowers.Service{Repo: f.borrowers, Now: now},
		Publisher: f.pub,
		Now:       now,
	}
	return f
}

func TestLeadLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.CreateLead(ctx, Lead{Name: " "})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	l, err := f.svc.CreateLead(ctx, Lead{Name: "Sam Ortiz", Email: "sam@example.com", Phone: "555-0100", AssignedOfficerID: "off-1"})
	require.NoError(t, err)
	assert.Equal(t, LeadStatusNew, l.Status)

	source := "web"
	l, err = f.svc.UpdateLead(ctx, l.ID, LeadPatch{Source: &source})
	require.NoError(t, err)
	assert.Equal(t, "web", l.Source)

	p, err := f.svc.ConvertLead(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.ID, p.LeadID)
	assert.Equal(t, "Sam Ortiz", p.FullName)
	assert.Equal(t, "off-1", p.AssignedOfficerID)

	stored, err := f.borrowers.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", stored.Email)

	l, err = f.svc.GetLead(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, LeadStatusConverted, l.Status)

	_, err = f.svc.ConvertLead(ctx, l.ID)
	assert.True(t, errors.Is(err, ErrConflict))

	open, err := f.svc.ListLeads(ctx, LeadFilter{OpenOnly: true}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestConvertLeadConcurrentCallsOpenOneProfile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	l, err := f.svc.CreateLead(ctx, Lead{Name: "Rae Kim"})
	require.NoError(t, err)

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		converted int
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ConvertLead(ctx, l.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				converted++
			case errors.Is(err, ErrConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, converted)
	assert.Equal(t, callers-1, conflicts)

	profiles, err := f.borrowers.List(ctx, borrowers.ListFilter{}, 50, 0)
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}

type failingBorrowerRepo struct {
	borrowers.Repo
}

func (failingBorrowerRepo) Create(context.Context, borrowers.BorrowerProfile) error {
	return errors.New("insert failed")
}

func TestConvertLeadRestoresLeadWhenProfileFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	l, err := f.svc.CreateLead(ctx, Lead{Name: "Rae Kim"})
	require.NoError(t, err)

	f.svc.Borrowers = &borrowers.Service{Repo: failingBorrowerRepo{Repo: f.borrowers}}
	_, err = f.svc.ConvertLead(ctx, l.ID)
	require.Error(t, err)

	again, err := f.svc.GetLead(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, LeadStatusNew, again.Status)
}

func TestNotesRequireTarget(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.AddNote(ctx, Note{UserID: "u-1", Content: "called"})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = f.svc.AddNote(ctx, Note{UserID: "u-1", BorrowerID: "b-1", Content: "called, left voicemail"})
	require.NoError(t, err)
	_, err = f.svc.AddNote(ctx, Note{UserID: "u-1", LeadID: "l-1", Content: "web lead"})
	require.NoError(t, err)

	out, err := f.svc.ListNotes(ctx, NoteFilter{BorrowerID: "b-1"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "called, left voicemail", out[0].Content)
}

func TestSendMessagePublishesAndTags(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sent, err := f.svc.SendMessage(ctx, Message{SenderID: "u-1", ReceiverID: "u-2", Content: "Honestly the rate too high, I'm worried"})
	require.NoError(t, err)
	assert.Equal(t, "negative", sent.Sentiment)
	assert.Equal(t, "rate_objection", sent.Objection)
	assert.False(t, sent.IsRead)

	require.Len(t, f.pub.events, 1)
	assert.Equal(t, "user:u-2", f.pub.events[0].room)
	assert.Equal(t, EventNewMessage, f.pub.events[0].event)

	f.clock = f.clock.Add(time.Minute)
	_, err = f.svc.SendMessage(ctx, Message{SenderID: "u-2", ReceiverID: "u-1", Content: "We can look at a buydown."})
	require.NoError(t, err)

	thread, err := f.svc.Thread(ctx, "u-1", "u-2", 10, 0)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "u-1", thread[0].SenderID)

	inbox, err := f.svc.Inbox(ctx, "u-2", 10, 0)
	require.NoError(t, err)
	require.Len(t, inbox, 1)

	_, err = f.svc.MarkMessageRead(ctx, inbox[0].ID, "u-1")
	assert.ErrorIs(t, err, ErrNotFound, "the sender cannot mark the receiver's copy read")

	read, err := f.svc.MarkMessageRead(ctx, inbox[0].ID, "u-2")
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	_, err = f.svc.SendMessage(ctx, Message{SenderID: "u-1", ReceiverID: "u-2", Content: "  "})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestTaskToggleAndDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	task, err := f.svc.CreateTask(ctx, Task{Title: "Order appraisal", AssignedTo: "off-1"})
	require.NoError(t, err)
	assert.Equal(t, "Normal", task.Priority)
	assert.Equal(t, TaskStatusPending, task.Status)

	task, err = f.svc.ToggleTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, task.Completed)
	assert.Equal(t, TaskStatusCompleted, task.Status)

	pending, err := f.svc.ListTasks(ctx, TaskFilter{AssignedTo: "off-1", PendingOnly: true}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)

	task, err = f.svc.ToggleTask(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, task.Completed)

	require.NoError(t, f.svc.DeleteTask(ctx, task.ID))
	assert.True(t, errors.Is(f.svc.DeleteTask(ctx, task.ID), ErrNotFound))
}
