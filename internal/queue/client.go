package queue

import "context"

// Client sends notification jobs to a queue backend.
type Client interface {
	Send(ctx context.Context, job Job) error
}
