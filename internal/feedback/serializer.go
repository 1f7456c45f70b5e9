package feedback

import (
	"fmt"
	"strings"
)

const (
	headerAccepted = "GEACCEPTEERDE WIJZIGINGEN"
	headerModified = "AANGEPASTE WIJZIGINGEN"
	headerRejected = "AFGEWEZEN WIJZIGINGEN"

	rejectedPreviewRunes = 100
)

// Serialize renders reviewed proposals as an instruction block for the
// apply step. Proposals are grouped into accepted, modified and rejected
// buckets; undecided proposals and empty buckets are left out.
func Serialize(proposals []ChangeProposal) string {
	var accepted, modified, rejected []ChangeProposal
	for _, p := range proposals {
		switch p.UserDecision {
		case DecisionAccept:
			accepted = append(accepted, p)
		case DecisionModify:
			modified = append(modified, p)
		case DecisionReject:
			rejected = append(rejected, p)
		}
	}

	var blocks []string
	if len(accepted) > 0 {
		blocks = append(blocks, renderBucket(headerAccepted, accepted, writeFullEntry))
	}
	if len(modified) > 0 {
		blocks = append(blocks, renderBucket(headerModified, modified, writeFullEntry))
	}
	if len(rejected) > 0 {
		blocks = append(blocks, renderBucket(headerRejected, rejected, writeRejectedEntry))
	}
	return strings.Join(blocks, "\n")
}

func renderBucket(header string, proposals []ChangeProposal, write func(*strings.Builder, int, ChangeProposal)) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString(":\n")
	for i, p := range proposals {
		write(&b, i+1, p)
	}
	return b.String()
}

func writeFullEntry(b *strings.Builder, n int, p ChangeProposal) {
	fmt.Fprintf(b, "%d. [%s] %s\n", n, displaySection(p.Section), strings.ToUpper(string(displayChangeType(p.ChangeType))))
	if p.Original != "" {
		fmt.Fprintf(b, "   Origineel: %s\n", p.Original)
	}
	proposed := p.Proposed
	if p.UserDecision == DecisionModify && strings.TrimSpace(p.UserEdit) != "" {
		proposed = p.UserEdit
	}
	fmt.Fprintf(b, "   Voorstel: %s\n", proposed)
	fmt.Fprintf(b, "   Reden: %s\n", displayReasoning(p.Reasoning))
	if p.UserDecision == DecisionModify && strings.TrimSpace(p.UserNote) != "" {
		fmt.Fprintf(b, "   Opmerking gebruiker: %s\n", p.UserNote)
	}
	b.WriteString("\n")
}

func writeRejectedEntry(b *strings.Builder, n int, p ChangeProposal) {
	fmt.Fprintf(b, "%d. [%s] %s...\n", n, displaySection(p.Section), truncateRunes(p.Proposed, rejectedPreviewRunes))
}

func displaySection(section string) string {
	if strings.TrimSpace(section) == "" {
		return DefaultSection
	}
	return section
}

func displayChangeType(ct ChangeType) ChangeType {
	if ct == "" {
		return ChangeModify
	}
	return ct
}

func displayReasoning(reasoning string) string {
	if strings.TrimSpace(reasoning) == "" {
		return DefaultReasoning
	}
	return reasoning
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
