package object

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"box3-backend/internal/shared/util"
)

// ObjectStore persists report bodies under caller-chosen keys.
type ObjectStore interface {
	Put(ctx context.Context, storageKey string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}

// ReportKey builds the storage key of a report version:
// <hashed user>/<dossier>/<version id><ext>.
func ReportKey(userID, dossierID, versionID, ext string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("user id is required")
	}
	dossier, err := util.SanitizeFileName(dossierID)
	if err != nil {
		return "", fmt.Errorf("dossier id: %w", err)
	}
	name, err := util.SanitizeFileName(versionID + ext)
	if err != nil {
		return "", fmt.Errorf("version id: %w", err)
	}
	return path.Join(util.OwnerKey(userID), dossier, name), nil
}

// ValidKey reports whether key is a relative, non-traversing object key.
func ValidKey(key string) bool {
	if strings.TrimSpace(key) == "" || strings.HasPrefix(key, "/") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
