package reportversions

import "context"

// Repo defines persistence operations for report versions.
type Repo interface {
	Create(ctx context.Context, version ReportVersion) error
	GetByID(ctx context.Context, userID, versionID string) (ReportVersion, error)
	ListByDossier(ctx context.Context, userID, dossierID string, limit, offset int) ([]ReportVersion, error)
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
