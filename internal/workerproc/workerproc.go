package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"loanmvp/internal/notifications"
	"loanmvp/internal/notifications/sendgrid"
	"loanmvp/internal/queue"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a payload that is not a valid job.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode job"
	}
	return "decode job: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrDeliver indicates the provider rejected or could not take the job.
type ErrDeliver struct {
	Kind      string
	RequestID string
	Err       error
}

func (e ErrDeliver) Error() string {
	if e.Err == nil {
		return "deliver " + e.Kind
	}
	return "deliver " + e.Kind + ": " + e.Err.Error()
}

func (e ErrDeliver) Unwrap() error { return e.Err }

// Unrecoverable reports whether retrying the payload can never succeed.
func Unrecoverable(err error) bool {
	var empty ErrEmptyBody
	var decode ErrDecode
	return errors.As(err, &empty) || errors.As(err, &decode)
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Job, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Job{}, meta, ErrEmptyBody{Meta: meta}
	}
	job, err := queue.DecodeJob([]byte(body))
	if err != nil {
		return queue.Job{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	return job, meta, nil
}

// Deliverer sends decoded jobs through the configured providers.
type Deliverer struct {
	SMS   notifications.SMSSender
	Email notifications.EmailSender
}

// Deliver sends one job. Missing providers are delivery failures so the
// message stays on the queue until one is configured.
func (d Deliverer) Deliver(ctx context.Context, job queue.Job) error {
	switch job.Kind {
	case queue.KindSMS:
		if d.SMS == nil {
			return ErrDeliver{Kind: job.Kind, RequestID: job.RequestID, Err: errors.New("sms provider not configured")}
		}
		if _, err := d.SMS.Send(ctx, job.To, job.Body); err != nil {
			return ErrDeliver{Kind: job.Kind, RequestID: job.RequestID, Err: err}
		}
	case queue.KindEmail:
		if d.Email == nil {
			return ErrDeliver{Kind: job.Kind, RequestID: job.RequestID, Err: errors.New("email provider not configured")}
		}
		html := job.HTML
		if html == "" {
			html = notifications.EmailHTML(job.Subject, job.Body)
		}
		err := d.Email.Send(ctx, sendgrid.Email{To: job.To, Subject: job.Subject, HTML: html, Text: job.Body})
		if err != nil {
			return ErrDeliver{Kind: job.Kind, RequestID: job.RequestID, Err: err}
		}
	default:
		return ErrDecode{Err: fmt.Errorf("%w: unknown kind %q", queue.ErrInvalidJob, job.Kind)}
	}
	return nil
}

// HandleMessage parses and delivers a payload.
func HandleMessage(ctx context.Context, d Deliverer, body string) (queue.Job, error) {
	job, _, err := ParseMessage(body)
	if err != nil {
		return queue.Job{}, err
	}
	return job, d.Deliver(ctx, job)
}
