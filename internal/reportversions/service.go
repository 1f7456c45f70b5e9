package reportversions

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"box3-backend/internal/shared/storage/object"
)

// Service stores adjusted reports and their metadata.
type Service struct {
	Repo  Repo
	Store object.ObjectStore
	Now   func() time.Time
}

// Create writes content to the object store and records the new version.
func (s *Service) Create(ctx context.Context, userID, dossierID, reviewID, content string) (ReportVersion, error) {
	if userID == "" || dossierID == "" || reviewID == "" {
		return ReportVersion{}, ErrInvalidInput
	}
	if s.Repo == nil || s.Store == nil {
		return ReportVersion{}, errors.New("missing dependencies")
	}

	id := uuid.NewString()
	key, err := object.ReportKey(userID, dossierID, id, reportExtension)
	if err != nil {
		return ReportVersion{}, ErrInvalidInput
	}
	size, err := s.Store.Put(ctx, key, reportMimeType, strings.NewReader(content))
	if err != nil {
		return ReportVersion{}, err
	}

	version := ReportVersion{
		ID:         id,
		UserID:     userID,
		DossierID:  dossierID,
		ReviewID:   reviewID,
		StorageKey: key,
		MimeType:   reportMimeType,
		SizeBytes:  size,
		CreatedAt:  s.now(),
	}
	if err := s.Repo.Create(ctx, version); err != nil {
		return ReportVersion{}, err
	}
	return version, nil
}

// Get returns a version owned by userID.
func (s *Service) Get(ctx context.Context, userID, versionID string) (ReportVersion, error) {
	if userID == "" || versionID == "" {
		return ReportVersion{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, userID, versionID)
}

// List returns a user's versions of one dossier, newest first.
func (s *Service) List(ctx context.Context, userID, dossierID string, limit, offset int) ([]ReportVersion, error) {
	if userID == "" || dossierID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByDossier(ctx, userID, dossierID, limit, offset)
}

// Open returns the version metadata and a reader over its content.
func (s *Service) Open(ctx context.Context, userID, versionID string) (ReportVersion, io.ReadCloser, error) {
	version, err := s.Get(ctx, userID, versionID)
	if err != nil {
		return ReportVersion{}, nil, err
	}
	rc, err := s.Store.Open(ctx, version.StorageKey)
	if err != nil {
		return ReportVersion{}, nil, err
	}
	return version, rc, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
