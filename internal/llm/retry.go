package llm

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"box3-backend/internal/shared/telemetry"
)

const retryBaseDelay = 300 * time.Millisecond

type retryingClient struct {
	base  Client
	delay time.Duration
}

// WithRetry wraps base so that one transient failure is retried after a short delay.
func WithRetry(base Client) Client {
	if base == nil {
		return nil
	}
	return retryingClient{base: base, delay: retryBaseDelay}
}

func (r retryingClient) Complete(ctx context.Context, prompt Prompt) (string, error) {
	out, err := r.base.Complete(ctx, prompt)
	if err == nil || !ShouldRetry(err) {
		return out, err
	}

	telemetry.Warn("llm.retry", map[string]any{
		"attempt": 1,
		"prompt":  prompt.Name,
		"err":     err,
	})
	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return r.base.Complete(ctx, prompt)
}

// ShouldRetry reports whether err looks like a transient provider or network failure.
func ShouldRetry(err error) bool {
	if err == nil || errors.Is(err, ErrNotImplemented) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"http status 5",
		"http status 429",
		"server_error",
		"rate_limit",
		"connection reset",
		"connection refused",
		"connection closed",
		"broken pipe",
		"tls handshake timeout",
		"unexpected eof",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return strings.Contains(msg, "timeout") && (strings.Contains(msg, "openai") || strings.Contains(msg, "client.timeout"))
}
