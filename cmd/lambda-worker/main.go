package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"log"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"loanmvp/internal/bootstrap"
	"loanmvp/internal/shared/config"
	"loanmvp/internal/shared/metrics"
	"loanmvp/internal/shared/telemetry"
	"loanmvp/internal/workerproc"
)

var (
	initOnce  sync.Once
	initErr   error
	deliverer workerproc.Deliverer
)

func initApp() {
	app, err := bootstrap.Build(config.Load())
	if err != nil {
		initErr = err
		return
	}
	deliverer = workerproc.Deliverer{SMS: app.SMS, Email: app.Email}
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		log.Printf("bootstrap error: %v", initErr)
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}
	return processBatch(ctx, deliverer, event), nil
}

// processBatch reports only retryable delivery failures back to SQS.
// Payloads that can never decode are dropped.
func processBatch(ctx context.Context, d workerproc.Deliverer, event events.SQSEvent) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		job, err := workerproc.HandleMessage(ctx, d, record.Body)
		switch {
		case err == nil:
			metrics.IncWorkerJob(job.Kind, "completed")
		case workerproc.Unrecoverable(err):
			metrics.IncWorkerJob("unknown", "discarded")
			telemetry.Error("worker.job.decode_failed", map[string]any{
				"sqs_message_id": record.MessageId,
				"error":          err.Error(),
			})
		default:
			metrics.IncWorkerJob(job.Kind, "failed")
			telemetry.Error("worker.job.failed", map[string]any{
				"sqs_message_id": record.MessageId,
				"kind":           job.Kind,
				"error":          err.Error(),
			})
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func main() {
	lambda.Start(handler)
}
