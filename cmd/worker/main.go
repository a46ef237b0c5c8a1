package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/robfig/cron/v3"

	"loanmvp/internal/bootstrap"
	"loanmvp/internal/shared/config"
	"loanmvp/internal/shared/metrics"
	"loanmvp/internal/shared/storage/db"
	"loanmvp/internal/shared/telemetry"
	"loanmvp/internal/workerproc"
)

const (
	sqsRegion                 = "us-east-1"
	defaultVisibilitySeconds  = 120
	defaultWorkerConcurrency  = 4
	defaultShutdownTimeoutSec = 30
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildWithPool(cfg, db.DefaultWorkerOptions())
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	scheduler, err := startScheduler(ctx, cfg.AnalyticsCron, app.OfficersService)
	if err != nil {
		log.Fatalf("analytics schedule: %v", err)
	}
	defer func() { <-scheduler.Stop().Done() }()

	queueURL := strings.TrimSpace(cfg.NotifyQueueURL)
	if queueURL == "" {
		log.Printf("NOTIFY_SQS_QUEUE_URL not set; running analytics schedule only")
		<-ctx.Done()
		return
	}

	region := cfg.AWSRegion
	if region == "" {
		region = sqsRegion
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	var sqsClient sqsAPI = sqs.NewFromConfig(awsCfg)

	deliverer := workerproc.Deliverer{SMS: app.SMS, Email: app.Email}
	poll(ctx, sqsClient, queueURL, deliverer, pollOptions{
		visibilitySeconds: envInt("WORKER_SQS_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilitySeconds),
		concurrency:       envInt("WORKER_CONCURRENCY", defaultWorkerConcurrency),
		shutdownTimeout:   time.Duration(envInt("WORKER_SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second,
	})
}

type refresher interface {
	RefreshAll(ctx context.Context) (int, error)
}

func startScheduler(ctx context.Context, spec string, svc refresher) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { runAnalytics(ctx, svc) }); err != nil {
		return nil, err
	}
	c.Start()
	log.Printf("analytics refresh scheduled spec=%q", spec)
	return c, nil
}

func runAnalytics(ctx context.Context, svc refresher) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	n, err := svc.RefreshAll(ctx)
	if err != nil {
		metrics.IncWorkerJob("analytics", "failed")
		telemetry.Error("worker.analytics.failed", map[string]any{"error": err.Error()})
		return
	}
	metrics.IncWorkerJob("analytics", "completed")
	telemetry.Info("worker.analytics.completed", map[string]any{
		"officers":    n,
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

type pollOptions struct {
	visibilitySeconds int
	concurrency       int
	shutdownTimeout   time.Duration
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

func poll(ctx context.Context, sqsClient sqsAPI, queueURL string, d workerproc.Deliverer, opts pollOptions) {
	sem := make(chan struct{}, max(1, opts.concurrency))
	var wg sync.WaitGroup

	log.Printf("worker started queue=%s concurrency=%d visibility=%ds", queueURL, opts.concurrency, opts.visibilitySeconds)

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(opts.visibilitySeconds),
			AttributeNames:      []sqstypes.QueueAttributeName{sqstypes.QueueAttributeName("ApproximateReceiveCount")},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			log.Printf("receive message: %v", err)
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				handleMessage(ctx, sqsClient, queueURL, d, m)
			}(msg)
		}
	}

	log.Printf("shutdown requested, waiting up to %s for in-flight jobs", opts.shutdownTimeout)
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(opts.shutdownTimeout):
		log.Printf("shutdown timeout reached; exiting with in-flight jobs")
	}
}

func handleMessage(ctx context.Context, client sqsAPI, queueURL string, d workerproc.Deliverer, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)
	job, err := workerproc.HandleMessage(ctx, d, body)
	if err != nil {
		if workerproc.Unrecoverable(err) {
			meta := workerproc.ComputeMeta(body)
			fields := baseFields(msg, job.Kind, job.RequestID)
			fields["body_len"] = meta.BodyLen
			if meta.BodySHA != "" {
				fields["body_sha256"] = meta.BodySHA
			}
			fields["error"] = err.Error()
			telemetry.Error("worker.job.decode_failed", fields)
			if deleteMessage(ctx, client, queueURL, msg, job.Kind, job.RequestID) {
				metrics.IncWorkerJob("unknown", "discarded")
			}
			return
		}

		fields := baseFields(msg, job.Kind, job.RequestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.job.failed", fields)
		metrics.IncWorkerJob(job.Kind, "failed")
		return
	}

	if deleteMessage(ctx, client, queueURL, msg, job.Kind, job.RequestID) {
		telemetry.Info("worker.job.completed", baseFields(msg, job.Kind, job.RequestID))
		metrics.IncWorkerJob(job.Kind, "completed")
	}
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message, kind, requestID string) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, kind, requestID)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.job.delete_failed", fields)
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, kind, requestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.job.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, kind, requestID string) map[string]any {
	fields := map[string]any{
		"kind":           kind,
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if strings.TrimSpace(requestID) != "" {
		fields["request_id"] = requestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	if msg.Attributes == nil {
		return 0
	}
	raw := msg.Attributes["ApproximateReceiveCount"]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}
