package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"log"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"box3-backend/internal/bootstrap"
	"box3-backend/internal/shared/config"
	"box3-backend/internal/shared/metrics"
	"box3-backend/internal/shared/telemetry"
	"box3-backend/internal/workerproc"
)

var (
	initOnce  sync.Once
	initErr   error
	processor workerproc.Processor
)

func initApp() {
	cfg := config.Load()
	built, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = err
		return
	}
	processor = built.Reviews
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
	return processBatch(ctx, processor, event), nil
}

// processBatch reports retryable failures back to SQS; malformed messages are
// logged and dropped.
func processBatch(ctx context.Context, proc workerproc.Processor, event events.SQSEvent) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		metrics.IncApplyJobsReceived()
		err := workerproc.HandleMessage(ctx, proc, record.Body)
		switch {
		case err == nil:
			metrics.IncApplyJobsCompleted()
		case workerproc.Unrecoverable(err):
			telemetry.Error("worker.apply.dropped", map[string]any{
				"sqs_message_id": record.MessageId,
				"error":          err.Error(),
			})
			metrics.IncApplyJobsDeletedUnrecoverable()
		default:
			telemetry.Error("worker.apply.failed", map[string]any{
				"sqs_message_id": record.MessageId,
				"error":          err.Error(),
			})
			metrics.IncApplyJobsFailed()
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func main() {
	lambda.Start(handler)
}
