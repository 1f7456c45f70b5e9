package llm

import (
	_ "embed"
	"strings"
)

var (
	//go:embed prompts/reviewer_v1.txt
	reviewerPromptV1 string
	//go:embed prompts/apply_v1.txt
	applyPromptV1 string
)

const (
	reviewerSystem = "Je bent een ervaren specialist in Nederlandse box 3 bezwaar- en bewijsrapporten. Je geeft uitsluitend concrete, toetsbare wijzigingsvoorstellen."
	applySystem    = "Je bent een nauwkeurige redacteur. Je past uitsluitend de opgegeven wijzigingen toe en laat de rest van het rapport ongewijzigd."
)

// ReviewerPrompt asks a specialist persona for change proposals on a report.
func ReviewerPrompt(specialist, stageID, report string) Prompt {
	r := strings.NewReplacer(
		"{{SPECIALIST}}", strings.TrimSpace(specialist),
		"{{STAGE}}", strings.TrimSpace(stageID),
		"{{REPORT}}", strings.TrimSpace(report),
	)
	return Prompt{
		Name:   "reviewer_v1",
		System: reviewerSystem,
		User:   r.Replace(reviewerPromptV1),
		JSON:   true,
	}
}

// ApplyPrompt asks the model to rewrite report according to instructions.
func ApplyPrompt(report, instructions string) Prompt {
	r := strings.NewReplacer(
		"{{REPORT}}", strings.TrimSpace(report),
		"{{INSTRUCTIONS}}", strings.TrimSpace(instructions),
	)
	return Prompt{
		Name:   "apply_v1",
		System: applySystem,
		User:   r.Replace(applyPromptV1),
	}
}
