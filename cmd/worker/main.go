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

	"box3-backend/internal/bootstrap"
	"box3-backend/internal/shared/config"
	"box3-backend/internal/shared/metrics"
	"box3-backend/internal/shared/telemetry"
	"box3-backend/internal/workerproc"
)

const (
	defaultVisibilitySeconds  = 600
	defaultWorkerConcurrency  = 4
	defaultShutdownTimeoutSec = 30
)

func main() {
	cfg := config.Load()

	queueURL := strings.TrimSpace(cfg.FeedbackQueueURL)
	if queueURL == "" {
		log.Fatal("FEEDBACK_QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	visibilitySeconds := envInt("SQS_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilitySeconds)
	concurrency := envInt("WORKER_CONCURRENCY", defaultWorkerConcurrency)
	shutdownTimeout := time.Duration(envInt("SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	var sqsClient sqsAPI = sqs.NewFromConfig(awsCfg)

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	sem := make(chan struct{}, max(1, concurrency))
	var wg sync.WaitGroup

	log.Printf("worker started queue=%s concurrency=%d visibility=%ds", queueURL, concurrency, visibilitySeconds)

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:                    aws.String(queueURL),
			MaxNumberOfMessages:         10,
			WaitTimeSeconds:             20,
			VisibilityTimeout:           int32(visibilitySeconds),
			MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{sqstypes.MessageSystemAttributeNameApproximateReceiveCount},
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
			metrics.IncApplyJobsReceived()
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				// Jobs finish on their own context so a shutdown signal does not
				// leave reviews stuck in applying.
				handleMessage(context.WithoutCancel(ctx), sqsClient, queueURL, app.Reviews, m)
			}(msg)
		}
	}

	log.Printf("shutdown requested, waiting up to %s for in-flight jobs", shutdownTimeout)
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		log.Printf("shutdown timeout reached; exiting with in-flight jobs")
	}
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

func handleMessage(ctx context.Context, client sqsAPI, queueURL string, processor workerproc.Processor, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)

	decoded, meta, err := workerproc.ParseMessage(body)
	if err != nil {
		fields := baseFields(msg, "", decoded.RequestID)
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		fields["error"] = err.Error()
		event := "worker.apply.decode_failed"
		var missing workerproc.ErrMissingReviewID
		if errors.As(err, &missing) {
			event = "worker.apply.missing_id"
		}
		telemetry.Error(event, fields)
		if deleteMessage(ctx, client, queueURL, msg, "", decoded.RequestID) {
			metrics.IncApplyJobsDeletedUnrecoverable()
		}
		return
	}

	telemetry.Info("worker.apply.received", baseFields(msg, decoded.ReviewID, decoded.RequestID))

	ctxWithParsed := workerproc.WithParsedMessage(ctx, decoded)
	if err := workerproc.HandleMessage(ctxWithParsed, processor, body); err != nil {
		fields := baseFields(msg, decoded.ReviewID, decoded.RequestID)
		fields["error"] = err.Error()
		if workerproc.Unrecoverable(err) {
			telemetry.Error("worker.apply.dropped", fields)
			if deleteMessage(ctx, client, queueURL, msg, decoded.ReviewID, decoded.RequestID) {
				metrics.IncApplyJobsDeletedUnrecoverable()
			}
			return
		}
		telemetry.Error("worker.apply.failed", fields)
		metrics.IncApplyJobsFailed()
		return
	}

	if deleteMessage(ctx, client, queueURL, msg, decoded.ReviewID, decoded.RequestID) {
		telemetry.Info("worker.apply.completed", baseFields(msg, decoded.ReviewID, decoded.RequestID))
		metrics.IncApplyJobsCompleted()
	}
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message, reviewID, requestID string) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, reviewID, requestID)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.apply.delete_failed", fields)
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, reviewID, requestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.apply.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, reviewID, requestID string) map[string]any {
	fields := map[string]any{
		"review_id":      reviewID,
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
	raw := msg.Attributes[string(sqstypes.MessageSystemAttributeNameApproximateReceiveCount)]
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
	if err != nil || val <= 0 {
		return def
	}
	return val
}
