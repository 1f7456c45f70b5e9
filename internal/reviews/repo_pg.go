package reviews

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"box3-backend/internal/feedback"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const reviewColumns = `id, user_id, dossier_id, stage_id, specialist, raw_feedback, proposals, status,
    instructions, report_text, report_version_id, error_message, created_at, updated_at`

// Create inserts a review.
func (r *PGRepo) Create(ctx context.Context, review Review) error {
	const query = `
INSERT INTO reviews (
    id, user_id, dossier_id, stage_id, specialist, raw_feedback, proposals, status,
    instructions, report_text, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9, $10, $11, $12)`
	proposals, err := marshalProposals(review.Proposals)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		review.ID,
		review.UserID,
		review.DossierID,
		review.StageID,
		review.Specialist,
		review.RawFeedback,
		proposals,
		review.Status,
		review.Instructions,
		review.ReportText,
		review.CreatedAt,
		review.UpdatedAt,
	)
	return err
}

// GetByID returns a review by ID.
func (r *PGRepo) GetByID(ctx context.Context, reviewID string) (Review, error) {
	const query = `SELECT ` + reviewColumns + `
FROM reviews
WHERE id = $1
LIMIT 1`
	review, err := scanReview(r.DB.QueryRowContext(ctx, query, reviewID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Review{}, ErrNotFound
		}
		return Review{}, err
	}
	return review, nil
}

// List returns a user's reviews newest first; an empty dossierID matches all dossiers.
func (r *PGRepo) List(ctx context.Context, userID, dossierID string, limit, offset int) ([]Review, error) {
	limit, offset = clampPage(limit, offset)
	const query = `SELECT ` + reviewColumns + `
FROM reviews
WHERE user_id = $1 AND ($2 = '' OR dossier_id = $2)
ORDER BY created_at DESC, id DESC
LIMIT $3 OFFSET $4`

	rows, err := r.DB.QueryContext(ctx, query, userID, dossierID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, review)
	}
	return out, rows.Err()
}

// UpdateProposals locks the review row, applies mutate and writes the
// proposals back in the same transaction. The status guard on the UPDATE keeps
// it from racing MarkApplying.
func (r *PGRepo) UpdateProposals(ctx context.Context, reviewID string, at time.Time, mutate func(*Review) error) (Review, error) {
	const selectQuery = `SELECT ` + reviewColumns + `
FROM reviews
WHERE id = $1
FOR UPDATE`
	const updateQuery = `
UPDATE reviews
SET proposals = $2::jsonb,
    updated_at = $3
WHERE id = $1 AND status IN ('open', 'failed')`

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Review{}, err
	}
	defer tx.Rollback()

	review, err := scanReview(tx.QueryRowContext(ctx, selectQuery, reviewID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Review{}, ErrNotFound
		}
		return Review{}, err
	}
	if !review.Editable() {
		return Review{}, ErrAlreadyApplied
	}
	if err := mutate(&review); err != nil {
		return Review{}, err
	}
	review.UpdatedAt = at

	proposals, err := marshalProposals(review.Proposals)
	if err != nil {
		return Review{}, err
	}
	res, err := tx.ExecContext(ctx, updateQuery, reviewID, proposals, at)
	if err != nil {
		return Review{}, err
	}
	if err := expectOneRow(res, ErrAlreadyApplied); err != nil {
		return Review{}, err
	}
	if err := tx.Commit(); err != nil {
		return Review{}, err
	}
	return review, nil
}

// FinishApply stores the apply outcome; reviews no longer applying are left alone.
func (r *PGRepo) FinishApply(ctx context.Context, review Review) error {
	const query = `
UPDATE reviews
SET status = $2,
    report_version_id = $3,
    error_message = $4,
    updated_at = $5
WHERE id = $1 AND status = 'applying'`
	res, err := r.DB.ExecContext(ctx, query,
		review.ID,
		review.Status,
		nullString(review.ReportVersionID),
		nullString(review.ErrorMessage),
		review.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if err := expectOneRow(res, ErrAlreadyApplied); err != nil {
		if _, getErr := r.GetByID(ctx, review.ID); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// MarkApplying moves an open or failed review to applying in one statement.
func (r *PGRepo) MarkApplying(ctx context.Context, reviewID, instructions, reportText string, at time.Time) error {
	const query = `
UPDATE reviews
SET status = 'applying',
    instructions = $2,
    report_text = $3,
    error_message = NULL,
    updated_at = $4
WHERE id = $1 AND status IN ('open', 'failed')`
	res, err := r.DB.ExecContext(ctx, query, reviewID, instructions, reportText, at)
	if err != nil {
		return err
	}
	if err := expectOneRow(res, ErrAlreadyApplied); err != nil {
		if _, getErr := r.GetByID(ctx, reviewID); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReview(row rowScanner) (Review, error) {
	var (
		review          Review
		proposals       []byte
		reportVersionID sql.NullString
		errorMessage    sql.NullString
	)
	err := row.Scan(
		&review.ID,
		&review.UserID,
		&review.DossierID,
		&review.StageID,
		&review.Specialist,
		&review.RawFeedback,
		&proposals,
		&review.Status,
		&review.Instructions,
		&review.ReportText,
		&reportVersionID,
		&errorMessage,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return Review{}, err
	}
	if len(proposals) > 0 {
		if err := json.Unmarshal(proposals, &review.Proposals); err != nil {
			return Review{}, fmt.Errorf("decode proposals for review %s: %w", review.ID, err)
		}
	}
	review.ReportVersionID = reportVersionID.String
	review.ErrorMessage = errorMessage.String
	return review, nil
}

func marshalProposals(proposals []feedback.ChangeProposal) (string, error) {
	if proposals == nil {
		return "[]", nil
	}
	payload, err := json.Marshal(proposals)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func expectOneRow(res sql.Result, notMatched error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notMatched
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
