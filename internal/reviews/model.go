package reviews

import (
	"time"

	"box3-backend/internal/feedback"
)

const (
	StatusOpen     = "open"
	StatusApplying = "applying"
	StatusApplied  = "applied"
	StatusFailed   = "failed"
)

// Review is one specialist's feedback on a report stage together with the
// human decisions taken on its proposals.
type Review struct {
	ID              string
	UserID          string
	DossierID       string
	StageID         string
	Specialist      string
	RawFeedback     string
	Proposals       []feedback.ChangeProposal
	Status          string
	Instructions    string
	ReportText      string
	ReportVersionID string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Editable reports whether decisions may still change.
func (r Review) Editable() bool {
	return r.Status == StatusOpen || r.Status == StatusFailed
}

// DecidedCount returns how many proposals carry a decision.
func (r Review) DecidedCount() int {
	n := 0
	for _, p := range r.Proposals {
		if p.UserDecision != "" {
			n++
		}
	}
	return n
}

func (r Review) proposalIndex(proposalID string) int {
	for i, p := range r.Proposals {
		if p.ID == proposalID {
			return i
		}
	}
	return -1
}
