package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanmvp/internal/notifications/sendgrid"
	"loanmvp/internal/queue"
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

type fakeSMS struct {
	mu    sync.Mutex
	to    []string
	body  []string
	fails bool
}

func (s *fakeSMS) Send(ctx context.Context, to, body string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fails {
		return "", errors.New("twilio down")
	}
	s.to = append(s.to, to)
	s.body = append(s.body, body)
	return "SM1", nil
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []sendgrid.Email
}

func (e *fakeEmail) Send(ctx context.Context, msg sendgrid.Email) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, msg)
	return nil
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []queue.Job
}

func (q *fakeQueue) Send(ctx context.Context, job queue.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func fixedNow() time.Time { return time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC) }

func TestNotifyDefaultChannels(t *testing.T) {
	repo := NewMemoryRepo()
	pub := &fakePublisher{}
	sms := &fakeSMS{}
	n := &Notifier{Repo: repo, Publisher: pub, SMS: sms, Now: fixedNow}

	n.Notify(context.Background(), Notification{
		Borrower: &Recipient{BorrowerID: "b-1", Phone: "+15550001"},
		LoanID:   "loan-1",
		Role:     "loan_officer",
		Title:    "Loan Approved",
		Message:  "Your loan was approved.",
	})

	rows, err := repo.List(context.Background(), ListFilter{BorrowerID: "b-1"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ChannelInApp, rows[0].Channel)
	assert.Equal(t, "loan-1", rows[0].LoanID)
	assert.False(t, rows[0].IsRead)

	require.Len(t, pub.events, 1)
	assert.Equal(t, EventNewNotification, pub.events[0].event)
	assert.Equal(t, "loan:loan-1", pub.events[0].room, "socket events stay in the loan room")
	payload := pub.events[0].payload.(map[string]any)
	assert.Equal(t, "Loan Approved", payload["title"])

	assert.Empty(t, sms.to, "sms is not a default channel")
}

func TestNotifyInlineSMSAndEmail(t *testing.T) {
	sms := &fakeSMS{}
	mail := &fakeEmail{}
	n := &Notifier{SMS: sms, Email: mail, Now: fixedNow}

	n.Notify(context.Background(), Notification{
		Borrower: &Recipient{BorrowerID: "b-1", Phone: "+15550001", Email: "b@example.com"},
		Title:    "Documents Needed",
		Message:  "Upload W-2s",
		Channels: []string{ChannelSMS, ChannelEmail},
	})

	require.Len(t, sms.body, 1)
	assert.Equal(t, "Documents Needed: Upload W-2s", sms.body[0])
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "Documents Needed", mail.sent[0].Subject)
	assert.Contains(t, mail.sent[0].HTML, "<h2>Documents Needed</h2>")
	assert.Contains(t, mail.sent[0].HTML, "Caughman Mason Loan Services")
}

func TestNotifyQueuesWhenConfigured(t *testing.T) {
	sms := &fakeSMS{}
	q := &fakeQueue{}
	n := &Notifier{SMS: sms, Queue: q, Now: fixedNow}

	n.Notify(context.Background(), Notification{
		Borrower: &Recipient{BorrowerID: "b-1", Phone: "+15550001", Email: "b@example.com"},
		LoanID:   "loan-9",
		Title:    "Status",
		Message:  "In Review",
		Channels: []string{ChannelSMS, ChannelEmail},
	})

	assert.Empty(t, sms.to)
	require.Len(t, q.jobs, 2)
	kinds := map[string]queue.Job{}
	for _, j := range q.jobs {
		kinds[j.Kind] = j
	}
	assert.Equal(t, "+15550001", kinds[queue.KindSMS].To)
	assert.Equal(t, "loan-9", kinds[queue.KindSMS].LoanID)
	assert.Equal(t, "Status", kinds[queue.KindEmail].Subject)
	assert.Equal(t, fixedNow().Format(time.RFC3339), kinds[queue.KindEmail].EnqueuedAt)
}

func TestNotifySwallowsChannelFailures(t *testing.T) {
	repo := NewMemoryRepo()
	n := &Notifier{Repo: repo, SMS: &fakeSMS{fails: true}, Now: fixedNow}

	n.Notify(context.Background(), Notification{
		Borrower: &Recipient{BorrowerID: "b-2", Phone: "+15550002"},
		Title:    "Hi",
		Message:  "there",
		Channels: []string{ChannelSMS, ChannelInApp, "pager"},
	})

	count, err := repo.CountUnread(context.Background(), ListFilter{BorrowerID: "b-2"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNotifySkipsMissingTargets(t *testing.T) {
	repo := NewMemoryRepo()
	pub := &fakePublisher{}
	n := &Notifier{Repo: repo, Publisher: pub}

	n.Notify(context.Background(), Notification{Title: "No target", Message: "x"})

	assert.Empty(t, pub.events, "socket needs a loan")
	count, err := repo.CountUnread(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, count, "inapp needs a borrower")
}

func TestEmailHTMLEscapes(t *testing.T) {
	out := EmailHTML("A & B", "<script>")
	assert.Contains(t, out, "<h2>A &amp; B</h2>")
	assert.Contains(t, out, "<p>&lt;script&gt;</p>")
}
