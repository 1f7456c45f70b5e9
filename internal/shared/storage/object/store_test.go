package object

import (
	"strings"
	"testing"
)

func TestReportKey(t *testing.T) {
	key, err := ReportKey("guest:abc", "dossier/2024", "v1", ".md")
	if err != nil {
		t.Fatalf("ReportKey: %v", err)
	}
	parts := strings.Split(key, "/")
	if len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %q", key)
	}
	if len(parts[0]) != 64 {
		t.Fatalf("expected hashed user segment, got %q", parts[0])
	}
	if parts[1] != "dossier_2024" || parts[2] != "v1.md" {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestReportKeyRejectsInvalidInput(t *testing.T) {
	if _, err := ReportKey("", "d", "v", ".md"); err == nil {
		t.Fatalf("expected error for empty user")
	}
	if _, err := ReportKey("u", "../etc", "v", ".md"); err == nil {
		t.Fatalf("expected error for traversal dossier")
	}
}

func TestValidKey(t *testing.T) {
	cases := map[string]bool{
		"a/b/c.md": true,
		"":         false,
		"/abs/key": false,
		"a/../b":   false,
		"..":       false,
		"a/b..c/d": true,
	}
	for key, want := range cases {
		if got := ValidKey(key); got != want {
			t.Fatalf("ValidKey(%q) = %v, want %v", key, got, want)
		}
	}
}
