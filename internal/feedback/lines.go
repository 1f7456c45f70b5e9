package feedback

import (
	"regexp"
	"strings"
)

var (
	numberedRe    = regexp.MustCompile(`^\d+\.\s+(.+)$`)
	bulletRe      = regexp.MustCompile(`^[-*•]\s+(.+)$`)
	sectionRe     = regexp.MustCompile(`(?i)^(?:section|sectie|paragraaf|hoofdstuk)\s*:\s*(.*)$`)
	changeTypeRe  = regexp.MustCompile(`(?i)^(add|toevoegen|modify|wijzig(?:en|ing)?|delete|verwijder(?:en)?|restructure|herstructureer(?:en)?)\s*:\s*(.*)$`)
	severityRe    = regexp.MustCompile(`(?i)^(?:\[\s*(critical|kritiek|important|belangrijk|suggestion|suggestie)\s*\]\s*:?|(critical|kritiek|important|belangrijk|suggestion|suggestie)(?:\s*:|\s+|$))\s*(.*)$`)
	reasoningRe   = regexp.MustCompile(`(?i)^(?:reden|reason|rationale)\s*:\s*(.*)$`)
	beforeAfterRe = regexp.MustCompile(`(?i)^(?:old|oud|before)\s*:\s*(.*?)\s*(?:→|->)\s*(?:new|nieuw|after)\s*:\s*(.*)$`)
)

// lineRule classifies one line. Rules are tried in order and the first match
// wins; later rules never see a line an earlier rule claimed.
type lineRule struct {
	name  string
	match func(line string) ([]string, bool)
	apply func(s *lineScanner, groups []string)
}

var lineRules = []lineRule{
	{name: "numbered", match: regexMatcher(numberedRe), apply: startListItem},
	{name: "bullet", match: regexMatcher(bulletRe), apply: startListItem},
	{name: "section", match: regexMatcher(sectionRe), apply: setSection},
	{name: "change_type", match: regexMatcher(changeTypeRe), apply: startChangeType},
	{name: "severity", match: regexMatcher(severityRe), apply: applySeverity},
	{name: "reasoning", match: regexMatcher(reasoningRe), apply: appendReasoning},
	{name: "before_after", match: regexMatcher(beforeAfterRe), apply: setBeforeAfter},
	{name: "continuation", match: func(line string) ([]string, bool) { return []string{line}, true }, apply: continueProposal},
}

func regexMatcher(re *regexp.Regexp) func(string) ([]string, bool) {
	return func(line string) ([]string, bool) {
		m := re.FindStringSubmatch(line)
		if m == nil {
			return nil, false
		}
		return m[1:], true
	}
}

// lineScanner carries the single open proposal through the line fold.
type lineScanner struct {
	specialist string
	stageID    string
	current    *ChangeProposal
	out        []ChangeProposal
}

func parseLines(rawFeedback, specialist, stageID string) []ChangeProposal {
	s := &lineScanner{specialist: specialist, stageID: stageID}
	for _, raw := range strings.Split(rawFeedback, "\n") {
		s.scan(raw)
	}
	s.flush()
	return s.out
}

func (s *lineScanner) scan(raw string) {
	line := cleanLine(raw)
	if line == "" {
		s.flush()
		return
	}
	for _, rule := range lineRules {
		if groups, ok := rule.match(line); ok {
			rule.apply(s, groups)
			return
		}
	}
}

// cleanLine trims whitespace and markdown emphasis markers.
func cleanLine(raw string) string {
	line := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))
	line = strings.ReplaceAll(line, "**", "")
	return strings.TrimSpace(line)
}

func (s *lineScanner) open(p ChangeProposal) {
	s.flush()
	p.Specialist = s.specialist
	s.current = &p
}

// flush emits the open proposal. Proposals that never received any proposed
// text are dropped.
func (s *lineScanner) flush() {
	if s.current == nil {
		return
	}
	p := *s.current
	s.current = nil
	if strings.TrimSpace(p.Proposed) == "" {
		return
	}
	p.finalize()
	p.ID = proposalID(s.stageID, len(s.out))
	s.out = append(s.out, p)
}

func startListItem(s *lineScanner, groups []string) {
	s.open(ChangeProposal{
		ChangeType: ChangeModify,
		Severity:   SeveritySuggestion,
		Section:    DefaultSection,
		Proposed:   strings.TrimSpace(groups[0]),
	})
}

func setSection(s *lineScanner, groups []string) {
	if s.current == nil {
		return
	}
	if section := strings.TrimSpace(groups[0]); section != "" {
		s.current.Section = section
	}
}

func startChangeType(s *lineScanner, groups []string) {
	ct, _ := ParseChangeType(groups[0])
	s.open(ChangeProposal{
		ChangeType: ct,
		Proposed:   strings.TrimSpace(groups[1]),
	})
}

func applySeverity(s *lineScanner, groups []string) {
	label := groups[0]
	if label == "" {
		label = groups[1]
	}
	sev, _ := ParseSeverity(label)
	if s.current != nil {
		s.current.Severity = sev
		return
	}
	s.open(ChangeProposal{
		Severity: sev,
		Proposed: strings.TrimSpace(groups[2]),
	})
}

func appendReasoning(s *lineScanner, groups []string) {
	if s.current == nil {
		return
	}
	s.current.Reasoning = joinSpace(s.current.Reasoning, strings.TrimSpace(groups[0]))
}

func setBeforeAfter(s *lineScanner, groups []string) {
	if s.current == nil {
		return
	}
	s.current.Original = strings.TrimSpace(groups[0])
	s.current.Proposed = strings.TrimSpace(groups[1])
}

func continueProposal(s *lineScanner, groups []string) {
	if s.current == nil {
		return
	}
	line := groups[0]
	switch {
	case s.current.Proposed == "":
		s.current.Proposed = line
	case s.current.Reasoning == "":
		s.current.Reasoning = line
	default:
		s.current.Reasoning = joinSpace(s.current.Reasoning, line)
	}
}

func joinSpace(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}
