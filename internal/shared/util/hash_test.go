package util

import "testing"

func TestOwnerKey(t *testing.T) {
	id := "guest:3f2a"
	got := OwnerKey(id)
	if got != OwnerKey(" "+id+" ") {
		t.Fatalf("expected surrounding space to be ignored, got %s", got)
	}
	if got == OwnerKey("guest:3f2b") {
		t.Fatalf("expected distinct keys for distinct owners")
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("key contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
}
