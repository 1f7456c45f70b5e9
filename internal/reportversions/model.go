package reportversions

import "time"

// ReportVersion is an adjusted report produced by applying a review.
type ReportVersion struct {
	ID         string
	UserID     string
	DossierID  string
	ReviewID   string
	StorageKey string
	MimeType   string
	SizeBytes  int64
	CreatedAt  time.Time
}

const (
	reportMimeType  = "text/markdown; charset=utf-8"
	reportExtension = ".md"
)
