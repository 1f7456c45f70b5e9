package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"box3-backend/internal/feedback"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseFromStdinAsJSON(t *testing.T) {
	out, err := run(t, "1. Vermeld de peildatum\n2. Verwijder bijlage B\n", "parse", "--specialist", "fiscalist", "--stage", "s2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var proposals []feedback.ChangeProposal
	if err := json.Unmarshal([]byte(out), &proposals); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if len(proposals) != 2 || proposals[0].ID != "s2-0" || proposals[1].Specialist != "fiscalist" {
		t.Fatalf("unexpected proposals: %+v", proposals)
	}
}

func TestParseFileAsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.txt")
	if err := os.WriteFile(path, []byte("Algemene opmerking zonder structuur"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := run(t, "", "parse", "--format", "yaml", path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var proposals []feedback.ChangeProposal
	if err := yaml.Unmarshal([]byte(out), &proposals); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if len(proposals) != 1 || proposals[0].Reasoning != feedback.FallbackReasoning {
		t.Fatalf("unexpected proposals: %+v", proposals)
	}
}

func TestParseRejectsUnknownFormat(t *testing.T) {
	if _, err := run(t, "iets", "parse", "--format", "xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestSerializeDecidedProposals(t *testing.T) {
	input := `[
  {"id": "s-0", "changeType": "add", "section": "Inleiding", "proposed": "Noem de peildatum", "severity": "critical", "userDecision": "accept"},
  {"id": "s-1", "changeType": "delete", "section": "Bijlagen", "proposed": "Verwijder bijlage B", "severity": "suggestion", "userDecision": "reject"},
  {"id": "s-2", "changeType": "modify", "proposed": "Onbeslist", "severity": "suggestion"}
]`
	out, err := run(t, input, "serialize")
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if !strings.Contains(out, "GEACCEPTEERDE WIJZIGINGEN") || !strings.Contains(out, "AFGEWEZEN WIJZIGINGEN") {
		t.Fatalf("missing buckets in %q", out)
	}
	if strings.Contains(out, "Onbeslist") {
		t.Fatalf("undecided proposal rendered: %q", out)
	}
}

func TestSerializeMissingFile(t *testing.T) {
	if _, err := run(t, "", "serialize", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
