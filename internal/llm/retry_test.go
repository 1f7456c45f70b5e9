package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestRetryingClientRetriesTransientOnce(t *testing.T) {
	calls := 0
	base := ClientFunc(func(ctx context.Context, prompt Prompt) (string, error) {
		calls++
		if calls == 1 {
			return "", fmt.Errorf("openai http status 503: busy")
		}
		return "ok", nil
	})

	out, err := retryingClient{base: base}.Complete(context.Background(), Prompt{Name: "t"})
	if err != nil || out != "ok" {
		t.Fatalf("expected retry success, got %q %v", out, err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestRetryingClientSkipsPermanentErrors(t *testing.T) {
	calls := 0
	base := ClientFunc(func(ctx context.Context, prompt Prompt) (string, error) {
		calls++
		return "", errors.New("openai http status 400: bad request")
	})

	if _, err := (retryingClient{base: base}).Complete(context.Background(), Prompt{}); err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected no retry, got %d calls", calls)
	}
}

func TestShouldRetry(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{ErrNotImplemented, false},
		{context.Canceled, false},
		{context.DeadlineExceeded, true},
		{errors.New("openai http status 429: rate_limit_exceeded"), true},
		{errors.New("read: connection reset by peer"), true},
		{errors.New("openai request timeout: Client.Timeout exceeded"), true},
		{errors.New("openai response missing choices"), false},
	}
	for _, tc := range cases {
		if got := ShouldRetry(tc.err); got != tc.want {
			t.Fatalf("ShouldRetry(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestPromptsFillPlaceholders(t *testing.T) {
	p := ReviewerPrompt("fiscalist", "stage-2", "Het rapport.")
	if !p.JSON || p.Name != "reviewer_v1" {
		t.Fatalf("unexpected reviewer prompt meta: %+v", p)
	}
	for _, want := range []string{"Rol: fiscalist", "Fase: stage-2", "Het rapport."} {
		if !strings.Contains(p.User, want) {
			t.Fatalf("reviewer prompt missing %q", want)
		}
	}

	a := ApplyPrompt("Rapport", "GEACCEPTEERDE WIJZIGINGEN:\n1. [X] ADD")
	if a.JSON || strings.Contains(a.User, "{{") {
		t.Fatalf("apply prompt not filled: %+v", a)
	}
}
