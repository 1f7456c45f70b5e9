package feedback

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Accepted keys per proposal field, in precedence order.
var (
	proposedKeys   = []string{"proposed", "new", "suggestion"}
	originalKeys   = []string{"original", "old"}
	reasoningKeys  = []string{"reasoning", "reason", "rationale"}
	severityKeys   = []string{"severity", "priority"}
	changeTypeKeys = []string{"changeType", "type", "change_type"}
	sectionKeys    = []string{"section", "location"}
)

// parseStructured decodes JSON feedback. ok is false when the input is not
// JSON of an accepted shape; the caller then falls back to line scanning.
func parseStructured(rawFeedback, specialist, stageID string) ([]ChangeProposal, bool) {
	payload := stripCodeFence(strings.TrimSpace(rawFeedback))
	if !strings.HasPrefix(payload, "{") && !strings.HasPrefix(payload, "[") {
		return nil, false
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, false
	}

	var items []any
	switch v := decoded.(type) {
	case []any:
		items = v
	case map[string]any:
		list, ok := v["proposals"].([]any)
		if !ok {
			return nil, false
		}
		items = list
	default:
		return nil, false
	}

	out := make([]ChangeProposal, 0, len(items))
	for i, item := range items {
		p, ok := normalizeItem(item, specialist, stageID, i)
		if !ok {
			continue
		}
		out = append(out, p)
	}
	return out, true
}

func normalizeItem(item any, specialist, stageID string, index int) (ChangeProposal, bool) {
	var fields map[string]any
	switch v := item.(type) {
	case map[string]any:
		fields = v
	case string:
		if strings.TrimSpace(v) == "" {
			return ChangeProposal{}, false
		}
		fields = map[string]any{"proposed": v}
	default:
		return ChangeProposal{}, false
	}

	p := ChangeProposal{
		ID:         firstString(fields, "id"),
		Specialist: firstString(fields, "specialist"),
		Section:    firstString(fields, sectionKeys...),
		Original:   firstString(fields, originalKeys...),
		Proposed:   firstString(fields, proposedKeys...),
		Reasoning:  firstString(fields, reasoningKeys...),
		UserNote:   firstString(fields, "userNote"),
		UserEdit:   firstString(fields, "userEdit"),
	}
	if p.ID == "" {
		p.ID = proposalID(stageID, index)
	}
	if p.Specialist == "" {
		p.Specialist = specialist
	}
	if ct, ok := ParseChangeType(firstString(fields, changeTypeKeys...)); ok {
		p.ChangeType = ct
	}
	if sev, ok := ParseSeverity(firstString(fields, severityKeys...)); ok {
		p.Severity = sev
	}
	if d, ok := ParseDecision(firstString(fields, "userDecision")); ok {
		p.UserDecision = d
	}
	p.finalize()
	return p, true
}

// firstString returns the first non-empty string value among keys.
func firstString(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := fields[key].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return v
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}
