package reviews

import (
	"context"
	"sort"
	"sync"
	"time"

	"box3-backend/internal/feedback"
)

// MemoryRepo stores reviews in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Review
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Review)}
}

// Create stores the review.
func (r *MemoryRepo) Create(ctx context.Context, review Review) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[review.ID] = cloneReview(review)
	return nil
}

// GetByID returns a review by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, reviewID string) (Review, error) {
	if err := ctx.Err(); err != nil {
		return Review{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	review, ok := r.byID[reviewID]
	if !ok {
		return Review{}, ErrNotFound
	}
	return cloneReview(review), nil
}

// List returns a user's reviews newest first, optionally limited to one dossier.
func (r *MemoryRepo) List(ctx context.Context, userID, dossierID string, limit, offset int) ([]Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)

	r.mu.RLock()
	matches := make([]Review, 0)
	for _, review := range r.byID {
		if review.UserID != userID {
			continue
		}
		if dossierID != "" && review.DossierID != dossierID {
			continue
		}
		matches = append(matches, cloneReview(review))
	}
	r.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID > matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	if offset >= len(matches) {
		return []Review{}, nil
	}
	end := offset + limit
	if end > len(matches) {
		end = len(matches)
	}
	return matches[offset:end], nil
}

// UpdateProposals applies mutate to an editable review under the write lock.
func (r *MemoryRepo) UpdateProposals(ctx context.Context, reviewID string, at time.Time, mutate func(*Review) error) (Review, error) {
	if err := ctx.Err(); err != nil {
		return Review{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[reviewID]
	if !ok {
		return Review{}, ErrNotFound
	}
	if !stored.Editable() {
		return Review{}, ErrAlreadyApplied
	}
	review := cloneReview(stored)
	if err := mutate(&review); err != nil {
		return Review{}, err
	}
	stored.Proposals = review.Proposals
	stored.UpdatedAt = at
	r.byID[reviewID] = cloneReview(stored)
	return cloneReview(stored), nil
}

// FinishApply stores the apply outcome of a review that is still applying.
func (r *MemoryRepo) FinishApply(ctx context.Context, review Review) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[review.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Status != StatusApplying {
		return ErrAlreadyApplied
	}
	stored.Status = review.Status
	stored.ReportVersionID = review.ReportVersionID
	stored.ErrorMessage = review.ErrorMessage
	stored.UpdatedAt = review.UpdatedAt
	r.byID[review.ID] = stored
	return nil
}

// MarkApplying moves an editable review to applying.
func (r *MemoryRepo) MarkApplying(ctx context.Context, reviewID, instructions, reportText string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	review, ok := r.byID[reviewID]
	if !ok {
		return ErrNotFound
	}
	if !review.Editable() {
		return ErrAlreadyApplied
	}
	review.Status = StatusApplying
	review.Instructions = instructions
	review.ReportText = reportText
	review.ErrorMessage = ""
	review.UpdatedAt = at
	r.byID[reviewID] = review
	return nil
}

func cloneReview(review Review) Review {
	if review.Proposals != nil {
		review.Proposals = append([]feedback.ChangeProposal(nil), review.Proposals...)
	}
	return review
}

var _ Repo = (*MemoryRepo)(nil)
