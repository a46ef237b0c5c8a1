package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Job kinds delivered by the worker.
const (
	KindSMS   = "sms"
	KindEmail = "email"
)

const currentVersion = 1

// Job is a deferred SMS or email delivery.
type Job struct {
	Kind       string `json:"kind"`
	To         string `json:"to"`
	Subject    string `json:"subject,omitempty"`
	Body       string `json:"body"`
	HTML       string `json:"html,omitempty"`
	LoanID     string `json:"loan_id,omitempty"`
	BorrowerID string `json:"borrower_id,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	EnqueuedAt string `json:"enqueued_at"`
	Version    int    `json:"version"`
}

var ErrInvalidJob = errors.New("invalid job")

// Validate checks the fields the worker needs to deliver a job.
func (j Job) Validate() error {
	switch j.Kind {
	case KindSMS:
	case KindEmail:
		if strings.TrimSpace(j.Subject) == "" {
			return fmt.Errorf("%w: email subject is required", ErrInvalidJob)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidJob, j.Kind)
	}
	if strings.TrimSpace(j.To) == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidJob)
	}
	if strings.TrimSpace(j.Body) == "" && strings.TrimSpace(j.HTML) == "" {
		return fmt.Errorf("%w: body is required", ErrInvalidJob)
	}
	return nil
}

// EncodeJob returns the JSON representation of a job, stamping the version.
func EncodeJob(job Job) ([]byte, error) {
	if job.Version == 0 {
		job.Version = currentVersion
	}
	return json.Marshal(job)
}

// DecodeJob parses and validates a JSON payload.
func DecodeJob(payload []byte) (Job, error) {
	var job Job
	if err := json.Unmarshal(payload, &job); err != nil {
		return Job{}, err
	}
	if err := job.Validate(); err != nil {
		return Job{}, err
	}
	return job, nil
}
