package reportversions

import "time"

// ReportVersionResponse is the outward-facing representation of a report version.
type ReportVersionResponse struct {
	ReportVersionID string    `json:"reportVersionId"`
	DossierID       string    `json:"dossierId"`
	ReviewID        string    `json:"reviewId"`
	MimeType        string    `json:"mimeType"`
	SizeBytes       int64     `json:"sizeBytes"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ToResponse maps a version onto its response body.
func ToResponse(version ReportVersion) ReportVersionResponse {
	return ReportVersionResponse{
		ReportVersionID: version.ID,
		DossierID:       version.DossierID,
		ReviewID:        version.ReviewID,
		MimeType:        version.MimeType,
		SizeBytes:       version.SizeBytes,
		CreatedAt:       version.CreatedAt,
	}
}
