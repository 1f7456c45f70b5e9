package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestWriteEmitsJSONLine(t *testing.T) {
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	defer SetOutput(prev)

	Warn("review.apply.retry", map[string]any{"review_id": "r1", "err": errors.New("boom"), "msg": "override"})

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("expected json line, got %q: %v", buf.String(), err)
	}
	if got["level"] != "warn" {
		t.Fatalf("expected warn level, got %v", got["level"])
	}
	if got["msg"] != "review.apply.retry" {
		t.Fatalf("fields must not override msg, got %v", got["msg"])
	}
	if got["err"] != "boom" {
		t.Fatalf("expected error rendered as string, got %v", got["err"])
	}
	if got["review_id"] != "r1" {
		t.Fatalf("expected review_id field, got %v", got["review_id"])
	}
}
