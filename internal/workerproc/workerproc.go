package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"box3-backend/internal/queue"
	"box3-backend/internal/reviews"
)

// Processor runs one queued apply job.
type Processor interface {
	ProcessApply(ctx context.Context, reviewID string) error
}

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrMissingReviewID indicates a message without a review id.
type ErrMissingReviewID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingReviewID) Error() string { return "missing review id" }

// ErrProcess indicates processing failed after successful parsing.
type ErrProcess struct {
	ReviewID  string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process apply"
	}
	return "process apply: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// Unrecoverable reports whether err means the message can never succeed and
// should be dropped instead of redelivered.
func Unrecoverable(err error) bool {
	var (
		empty   ErrEmptyBody
		decode  ErrDecode
		missing ErrMissingReviewID
	)
	if errors.As(err, &empty) || errors.As(err, &decode) || errors.As(err, &missing) {
		return true
	}
	// A review deleted after enqueueing will never be found.
	return errors.Is(err, reviews.ErrNotFound)
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.ReviewID) == "" {
		return msg, meta, ErrMissingReviewID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

type parsedMessageKey struct{}

// WithParsedMessage stores a decoded message in the context for reuse.
func WithParsedMessage(ctx context.Context, msg queue.Message) context.Context {
	return context.WithValue(ctx, parsedMessageKey{}, msg)
}

func parsedMessageFromContext(ctx context.Context) (queue.Message, bool) {
	if ctx == nil {
		return queue.Message{}, false
	}
	msg, ok := ctx.Value(parsedMessageKey{}).(queue.Message)
	return msg, ok
}

// HandleMessage parses, validates, and processes a message payload.
func HandleMessage(ctx context.Context, processor Processor, body string) error {
	if processor == nil {
		return errors.New("apply processor not configured")
	}

	msg, ok := parsedMessageFromContext(ctx)
	if !ok {
		var err error
		msg, _, err = ParseMessage(body)
		if err != nil {
			return err
		}
	}

	if strings.TrimSpace(msg.ReviewID) == "" {
		return ErrMissingReviewID{Meta: ComputeMeta(body), RequestID: msg.RequestID}
	}

	ctxWithRequest := reviews.WithRequestID(ctx, msg.RequestID)
	if err := processor.ProcessApply(ctxWithRequest, msg.ReviewID); err != nil {
		return ErrProcess{ReviewID: msg.ReviewID, RequestID: msg.RequestID, Err: err}
	}
	return nil
}
