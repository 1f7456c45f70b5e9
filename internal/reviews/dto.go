package reviews

import (
	"time"

	"box3-backend/internal/feedback"
)

// ReviewResponse is the full representation of a review.
type ReviewResponse struct {
	ReviewID        string                    `json:"reviewId"`
	DossierID       string                    `json:"dossierId"`
	StageID         string                    `json:"stageId"`
	Specialist      string                    `json:"specialist"`
	Status          string                    `json:"status"`
	RawFeedback     string                    `json:"rawFeedback"`
	Proposals       []feedback.ChangeProposal `json:"proposals"`
	DecidedCount    int                       `json:"decidedCount"`
	ReportVersionID string                    `json:"reportVersionId,omitempty"`
	ErrorMessage    string                    `json:"errorMessage,omitempty"`
	CreatedAt       time.Time                 `json:"createdAt"`
	UpdatedAt       time.Time                 `json:"updatedAt"`
}

// ReviewSummary is the list representation of a review.
type ReviewSummary struct {
	ReviewID        string    `json:"reviewId"`
	DossierID       string    `json:"dossierId"`
	StageID         string    `json:"stageId"`
	Specialist      string    `json:"specialist"`
	Status          string    `json:"status"`
	ProposalCount   int       `json:"proposalCount"`
	DecidedCount    int       `json:"decidedCount"`
	ReportVersionID string    `json:"reportVersionId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ToResponse maps a review onto its response body.
func ToResponse(review Review) ReviewResponse {
	proposals := review.Proposals
	if proposals == nil {
		proposals = []feedback.ChangeProposal{}
	}
	return ReviewResponse{
		ReviewID:        review.ID,
		DossierID:       review.DossierID,
		StageID:         review.StageID,
		Specialist:      review.Specialist,
		Status:          review.Status,
		RawFeedback:     review.RawFeedback,
		Proposals:       proposals,
		DecidedCount:    review.DecidedCount(),
		ReportVersionID: review.ReportVersionID,
		ErrorMessage:    review.ErrorMessage,
		CreatedAt:       review.CreatedAt,
		UpdatedAt:       review.UpdatedAt,
	}
}

func toSummary(review Review) ReviewSummary {
	return ReviewSummary{
		ReviewID:        review.ID,
		DossierID:       review.DossierID,
		StageID:         review.StageID,
		Specialist:      review.Specialist,
		Status:          review.Status,
		ProposalCount:   len(review.Proposals),
		DecidedCount:    review.DecidedCount(),
		ReportVersionID: review.ReportVersionID,
		CreatedAt:       review.CreatedAt,
	}
}
