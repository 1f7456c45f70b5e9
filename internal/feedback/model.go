package feedback

import "strings"

// ChangeType describes what kind of edit a proposal asks for.
type ChangeType string

const (
	ChangeAdd         ChangeType = "add"
	ChangeModify      ChangeType = "modify"
	ChangeDelete      ChangeType = "delete"
	ChangeRestructure ChangeType = "restructure"
)

// Severity ranks how urgent a proposal is.
type Severity string

const (
	SeverityCritical   Severity = "critical"
	SeverityImportant  Severity = "important"
	SeveritySuggestion Severity = "suggestion"
)

// Decision is the human verdict on a proposal.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
	DecisionModify Decision = "modify"
)

const (
	// DefaultSection labels proposals that do not name a report section.
	DefaultSection = "Algemeen"
	// DefaultReasoning is used when the reviewer gave no justification.
	DefaultReasoning = "Geen specifieke reden opgegeven"
	// FallbackReasoning accompanies the single proposal built from unstructured feedback.
	FallbackReasoning = "Algemene feedback van de specialist; geen gestructureerde voorstellen herkend"
)

// ChangeProposal is a single structured change suggested by an AI reviewer.
type ChangeProposal struct {
	ID           string     `json:"id" yaml:"id"`
	Specialist   string     `json:"specialist" yaml:"specialist"`
	ChangeType   ChangeType `json:"changeType" yaml:"changeType"`
	Section      string     `json:"section" yaml:"section"`
	Original     string     `json:"original" yaml:"original"`
	Proposed     string     `json:"proposed" yaml:"proposed"`
	Reasoning    string     `json:"reasoning" yaml:"reasoning"`
	Severity     Severity   `json:"severity" yaml:"severity"`
	UserDecision Decision   `json:"userDecision,omitempty" yaml:"userDecision,omitempty"`
	UserNote     string     `json:"userNote,omitempty" yaml:"userNote,omitempty"`
	UserEdit     string     `json:"userEdit,omitempty" yaml:"userEdit,omitempty"`
}

// ParseChangeType maps English and Dutch labels onto a ChangeType.
func ParseChangeType(raw string) (ChangeType, bool) {
	switch normalizeLabel(raw) {
	case "add", "toevoegen", "toevoeging", "insert", "nieuw":
		return ChangeAdd, true
	case "modify", "wijzig", "wijzigen", "wijziging", "change", "update", "aanpassen":
		return ChangeModify, true
	case "delete", "verwijder", "verwijderen", "remove", "schrappen":
		return ChangeDelete, true
	case "restructure", "herstructureer", "herstructureren", "herstructurering", "reorder":
		return ChangeRestructure, true
	}
	return "", false
}

// ParseSeverity maps English and Dutch labels (and common priority words) onto a Severity.
func ParseSeverity(raw string) (Severity, bool) {
	switch normalizeLabel(raw) {
	case "critical", "kritiek", "kritisch", "high", "hoog", "blocker":
		return SeverityCritical, true
	case "important", "belangrijk", "medium", "middel", "major":
		return SeverityImportant, true
	case "suggestion", "suggestie", "low", "laag", "minor", "optional":
		return SeveritySuggestion, true
	}
	return "", false
}

// ParseDecision maps a decision label onto a Decision. Empty input is not a decision.
func ParseDecision(raw string) (Decision, bool) {
	switch normalizeLabel(raw) {
	case "accept", "accepted", "accepteer", "geaccepteerd":
		return DecisionAccept, true
	case "reject", "rejected", "afwijzen", "afgewezen":
		return DecisionReject, true
	case "modify", "modified", "aanpassen", "aangepast":
		return DecisionModify, true
	}
	return "", false
}

func normalizeLabel(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// finalize fills unset fields with their defaults.
func (p *ChangeProposal) finalize() {
	if strings.TrimSpace(p.Section) == "" {
		p.Section = DefaultSection
	}
	if strings.TrimSpace(p.Reasoning) == "" {
		p.Reasoning = DefaultReasoning
	}
	if p.ChangeType == "" {
		p.ChangeType = ChangeModify
	}
	if p.Severity == "" {
		p.Severity = SeveritySuggestion
	}
}
