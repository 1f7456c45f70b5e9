// Package feedback turns free-form AI reviewer output into structured change
// proposals and renders human-reviewed proposals back into instruction text.
//
// Both directions are pure: no I/O, no shared state, safe for concurrent use.
package feedback

import (
	"fmt"
	"strings"
)

// Parse converts raw reviewer feedback into an ordered list of proposals.
//
// JSON input (an array of proposal objects or {"proposals": [...]}) is tried
// first; anything else is scanned line by line. Parse never fails: when no
// structure is recognized the whole input becomes a single proposal.
func Parse(rawFeedback, specialist, stageID string) []ChangeProposal {
	if proposals, ok := parseStructured(rawFeedback, specialist, stageID); ok && len(proposals) > 0 {
		return proposals
	}
	if proposals := parseLines(rawFeedback, specialist, stageID); len(proposals) > 0 {
		return proposals
	}
	return []ChangeProposal{fallbackProposal(rawFeedback, specialist, stageID)}
}

func fallbackProposal(rawFeedback, specialist, stageID string) ChangeProposal {
	return ChangeProposal{
		ID:         proposalID(stageID, 0),
		Specialist: specialist,
		ChangeType: ChangeModify,
		Section:    DefaultSection,
		Proposed:   rawFeedback,
		Reasoning:  FallbackReasoning,
		Severity:   SeveritySuggestion,
	}
}

func proposalID(stageID string, index int) string {
	return fmt.Sprintf("%s-%d", stageID, index)
}

// stripCodeFence unwraps a markdown code block around the payload, if any.
func stripCodeFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return content
	}
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.TrimSpace(strings.Join(lines[1:end], "\n"))
}
