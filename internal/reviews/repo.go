package reviews

import (
	"context"
	"time"
)

// Repo defines persistence operations for reviews.
type Repo interface {
	Create(ctx context.Context, review Review) error
	GetByID(ctx context.Context, reviewID string) (Review, error)
	List(ctx context.Context, userID, dossierID string, limit, offset int) ([]Review, error)
	// UpdateProposals runs mutate on the current review while holding it and
	// stores the resulting proposals. Reviews that are no longer editable yield
	// ErrAlreadyApplied without calling mutate.
	UpdateProposals(ctx context.Context, reviewID string, at time.Time, mutate func(*Review) error) (Review, error)
	// FinishApply records the outcome of an apply (status, report version,
	// error message). Only reviews still in applying are changed.
	FinishApply(ctx context.Context, review Review) error
	// MarkApplying moves an open or failed review to applying, storing the
	// instructions and report text. Any other status yields ErrAlreadyApplied.
	MarkApplying(ctx context.Context, reviewID, instructions, reportText string, at time.Time) error
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
