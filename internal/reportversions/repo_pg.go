package reportversions

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const versionColumns = `id, user_id, dossier_id, review_id, storage_key, mime_type, size_bytes, created_at`

// Create inserts a report version.
func (r *PGRepo) Create(ctx context.Context, version ReportVersion) error {
	const query = `
INSERT INTO report_versions (
    id, user_id, dossier_id, review_id, storage_key, mime_type, size_bytes, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.DB.ExecContext(ctx, query,
		version.ID,
		version.UserID,
		version.DossierID,
		version.ReviewID,
		version.StorageKey,
		version.MimeType,
		version.SizeBytes,
		version.CreatedAt,
	)
	return err
}

// GetByID returns a version by ID; another user's version yields ErrForbidden.
func (r *PGRepo) GetByID(ctx context.Context, userID, versionID string) (ReportVersion, error) {
	const query = `SELECT ` + versionColumns + `
FROM report_versions
WHERE id = $1
LIMIT 1`
	version, err := scanVersion(r.DB.QueryRowContext(ctx, query, versionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ReportVersion{}, ErrNotFound
		}
		return ReportVersion{}, err
	}
	if version.UserID != userID {
		return ReportVersion{}, ErrForbidden
	}
	return version, nil
}

// ListByDossier lists a user's versions for a dossier ordered newest-first.
func (r *PGRepo) ListByDossier(ctx context.Context, userID, dossierID string, limit, offset int) ([]ReportVersion, error) {
	limit, offset = clampPage(limit, offset)
	const query = `SELECT ` + versionColumns + `
FROM report_versions
WHERE user_id = $1 AND dossier_id = $2
ORDER BY created_at DESC, id DESC
LIMIT $3 OFFSET $4`

	rows, err := r.DB.QueryContext(ctx, query, userID, dossierID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ReportVersion{}
	for rows.Next() {
		version, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, version)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (ReportVersion, error) {
	var version ReportVersion
	err := row.Scan(
		&version.ID,
		&version.UserID,
		&version.DossierID,
		&version.ReviewID,
		&version.StorageKey,
		&version.MimeType,
		&version.SizeBytes,
		&version.CreatedAt,
	)
	return version, err
}

var _ Repo = (*PGRepo)(nil)
