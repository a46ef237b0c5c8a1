package notifications

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"loanmvp/internal/notifications/sendgrid"
	"loanmvp/internal/queue"
	"loanmvp/internal/realtime"
	"loanmvp/internal/shared/metrics"
	"loanmvp/internal/shared/server/middleware"
	"loanmvp/internal/shared/telemetry"
)

// Publisher pushes realtime events to a room.
type Publisher interface {
	PublishTo(room, event string, payload any)
}

// SMSSender delivers a text message.
type SMSSender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// EmailSender delivers an email.
type EmailSender interface {
	Send(ctx context.Context, msg sendgrid.Email) error
}

// Notifier fans a notification out to its channels. Channel failures are
// logged and counted; Notify never fails the caller.
type Notifier struct {
	Repo      Repo
	Publisher Publisher
	SMS       SMSSender
	Email     EmailSender
	// Queue, when set, receives sms and email jobs instead of inline delivery.
	Queue queue.Client
	Now   func() time.Time
}

func (n *Notifier) now() time.Time {
	if n.Now != nil {
		return n.Now().UTC()
	}
	return time.Now().UTC()
}

// Notify delivers to every requested channel concurrently.
func (n *Notifier) Notify(ctx context.Context, msg Notification) {
	if n == nil {
		return
	}
	var g errgroup.Group
	for _, ch := range msg.channels() {
		ch := strings.ToLower(strings.TrimSpace(ch))
		g.Go(func() error {
			outcome, err := n.deliver(ctx, ch, msg)
			if err != nil {
				telemetry.Warn("notify.failed", map[string]any{
					"channel":    ch,
					"loan_id":    msg.LoanID,
					"request_id": middleware.RequestIDFrom(ctx),
					"error":      err.Error(),
				})
				outcome = "error"
			}
			metrics.IncNotification(ch, outcome)
			return nil
		})
	}
	_ = g.Wait()
}

func (n *Notifier) deliver(ctx context.Context, channel string, msg Notification) (string, error) {
	switch channel {
	case ChannelInApp:
		if msg.Borrower == nil || msg.Borrower.BorrowerID == "" || n.Repo == nil {
			return "skipped", nil
		}
		return "sent", n.Repo.Create(ctx, LoanNotification{
			ID:         uuid.NewString(),
			LoanID:     msg.LoanID,
			BorrowerID: msg.Borrower.BorrowerID,
			Role:       msg.Role,
			Channel:    ChannelInApp,
			Title:      msg.Title,
			Message:    msg.Message,
			CreatedAt:  n.now(),
		})
	case ChannelSocket:
		if msg.LoanID == "" || n.Publisher == nil {
			return "skipped", nil
		}
		n.Publisher.PublishTo(realtime.LoanRoom(msg.LoanID), EventNewNotification, map[string]any{
			"loan_id": msg.LoanID,
			"role":    msg.Role,
			"title":   msg.Title,
			"message": msg.Message,
		})
		return "sent", nil
	case ChannelSMS:
		if msg.Borrower == nil || strings.TrimSpace(msg.Borrower.Phone) == "" {
			return "skipped", nil
		}
		body := fmt.Sprintf("%s: %s", msg.Title, msg.Message)
		if n.Queue != nil {
			return "queued", n.enqueue(ctx, queue.Job{Kind: queue.KindSMS, To: msg.Borrower.Phone, Body: body}, msg)
		}
		if n.SMS == nil {
			return "skipped", nil
		}
		_, err := n.SMS.Send(ctx, msg.Borrower.Phone, body)
		return "sent", err
	case ChannelEmail:
		if msg.Borrower == nil || strings.TrimSpace(msg.Borrower.Email) == "" {
			return "skipped", nil
		}
		htmlBody := EmailHTML(msg.Title, msg.Message)
		if n.Queue != nil {
			return "queued", n.enqueue(ctx, queue.Job{Kind: queue.KindEmail, To: msg.Borrower.Email, Subject: msg.Title, Body: msg.Message, HTML: htmlBody}, msg)
		}
		if n.Email == nil {
			return "skipped", nil
		}
		return "sent", n.Email.Send(ctx, sendgrid.Email{To: msg.Borrower.Email, Subject: msg.Title, HTML: htmlBody, Text: msg.Message})
	default:
		return "skipped", fmt.Errorf("%w: unknown channel %q", ErrInvalidInput, channel)
	}
}

func (n *Notifier) enqueue(ctx context.Context, job queue.Job, msg Notification) error {
	job.LoanID = msg.LoanID
	if msg.Borrower != nil {
		job.BorrowerID = msg.Borrower.BorrowerID
	}
	job.RequestID = middleware.RequestIDFrom(ctx)
	job.EnqueuedAt = n.now().Format(time.RFC3339)
	return n.Queue.Send(ctx, job)
}

// EmailHTML renders the notification email body.
func EmailHTML(title, message string) string {
	return fmt.Sprintf("<h2>%s</h2>\n<p>%s</p>\n<br><br>\n<small style='color:#555'>%s</small>",
		html.EscapeString(title), html.EscapeString(message), signature)
}
