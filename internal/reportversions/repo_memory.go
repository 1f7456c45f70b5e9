package reportversions

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores report versions in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]ReportVersion
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]ReportVersion)}
}

// Create stores the version.
func (r *MemoryRepo) Create(ctx context.Context, version ReportVersion) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[version.ID] = version
	return nil
}

// GetByID returns a version by ID; another user's version yields ErrForbidden.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, versionID string) (ReportVersion, error) {
	if err := ctx.Err(); err != nil {
		return ReportVersion{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	version, ok := r.byID[versionID]
	if !ok {
		return ReportVersion{}, ErrNotFound
	}
	if version.UserID != userID {
		return ReportVersion{}, ErrForbidden
	}
	return version, nil
}

// ListByDossier returns a user's versions for a dossier, newest first.
func (r *MemoryRepo) ListByDossier(ctx context.Context, userID, dossierID string, limit, offset int) ([]ReportVersion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)

	r.mu.RLock()
	matches := make([]ReportVersion, 0)
	for _, v := range r.byID {
		if v.UserID == userID && v.DossierID == dossierID {
			matches = append(matches, v)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID > matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	if offset >= len(matches) {
		return []ReportVersion{}, nil
	}
	end := offset + limit
	if end > len(matches) {
		end = len(matches)
	}
	return matches[offset:end], nil
}

var _ Repo = (*MemoryRepo)(nil)
