package reviews

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"box3-backend/internal/extract"
	"box3-backend/internal/llm"
	"box3-backend/internal/shared/server/middleware"
	"box3-backend/internal/shared/server/respond"
	"box3-backend/internal/shared/util"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the review service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches review routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reviews", h.create)
	rg.POST("/reviews/ai", h.requestFeedback)
	rg.GET("/reviews", h.list)
	rg.GET("/reviews/:id", h.get)
	rg.PATCH("/reviews/:id/proposals/:proposalId", h.decide)
	rg.GET("/reviews/:id/instructions", h.instructions)
	rg.POST("/reviews/:id/apply", h.apply)
}

type createRequest struct {
	DossierID   string `json:"dossierId"`
	StageID     string `json:"stageId"`
	Specialist  string `json:"specialist"`
	RawFeedback string `json:"rawFeedback"`
	ReportText  string `json:"reportText"`
}

func (r createRequest) input(userID string) CreateInput {
	return CreateInput{
		UserID:      userID,
		DossierID:   strings.TrimSpace(r.DossierID),
		StageID:     strings.TrimSpace(r.StageID),
		Specialist:  strings.TrimSpace(r.Specialist),
		RawFeedback: r.RawFeedback,
		ReportText:  r.ReportText,
	}
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.RawFeedback) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "rawFeedback is required", nil)
		return
	}
	c.Set(middleware.DossierIDKey, strings.TrimSpace(req.DossierID))

	review, err := h.Svc.CreateFromFeedback(requestContext(c), req.input(middleware.UserIDFromContext(c)))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.ReviewIDKey, review.ID)
	respond.Created(c, ToResponse(review))
}

func (h *Handler) requestFeedback(c *gin.Context) {
	var req createRequest
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		var ok bool
		req, ok = readUpload(c)
		if !ok {
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	c.Set(middleware.DossierIDKey, strings.TrimSpace(req.DossierID))

	review, err := h.Svc.RequestFeedback(requestContext(c), req.input(middleware.UserIDFromContext(c)))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.ReviewIDKey, review.ID)
	respond.Created(c, ToResponse(review))
}

// readUpload turns a multipart report upload into a request. It writes the
// error response itself and reports false when the upload is unusable.
func readUpload(c *gin.Context) (createRequest, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return createRequest{}, false
	}
	fileName, err := util.SanitizeFileName(fileHeader.Filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file name", nil)
		return createRequest{}, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return createRequest{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return createRequest{}, false
	}

	text, err := extract.TextFromBytes(c.Request.Context(), data, fileHeader.Header.Get("Content-Type"), fileName)
	if err != nil {
		switch {
		case errors.Is(err, extract.ErrUnsupported):
			respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "only pdf, docx, markdown and text reports are supported", nil)
		case errors.Is(err, extract.ErrEmpty):
			respond.Error(c, http.StatusUnprocessableEntity, "empty_document", "no text found in report", nil)
		default:
			respond.Error(c, http.StatusUnprocessableEntity, "extraction_failed", "failed to read report", nil)
		}
		return createRequest{}, false
	}

	return createRequest{
		DossierID:  c.PostForm("dossierId"),
		StageID:    c.PostForm("stageId"),
		Specialist: c.PostForm("specialist"),
		ReportText: text,
	}, true
}

func (h *Handler) list(c *gin.Context) {
	dossierID := strings.TrimSpace(c.Query("dossierId"))
	if dossierID != "" {
		c.Set(middleware.DossierIDKey, dossierID)
	}
	limit := queryInt(c, "limit", defaultListLimit)
	offset := queryInt(c, "offset", 0)

	reviews, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), dossierID, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]ReviewSummary, 0, len(reviews))
	for _, review := range reviews {
		resp = append(resp, toSummary(review))
	}
	respond.OK(c, resp)
}

func (h *Handler) get(c *gin.Context) {
	reviewID := c.Param("id")
	c.Set(middleware.ReviewIDKey, reviewID)

	review, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), reviewID)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, ToResponse(review))
}

type decideRequest struct {
	Decision string `json:"decision"`
	Note     string `json:"note"`
	Edit     string `json:"edit"`
}

func (h *Handler) decide(c *gin.Context) {
	reviewID := c.Param("id")
	c.Set(middleware.ReviewIDKey, reviewID)

	var req decideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	review, err := h.Svc.Decide(requestContext(c), DecisionInput{
		UserID:     middleware.UserIDFromContext(c),
		ReviewID:   reviewID,
		ProposalID: c.Param("proposalId"),
		Decision:   req.Decision,
		Note:       req.Note,
		Edit:       req.Edit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, ToResponse(review))
}

func (h *Handler) instructions(c *gin.Context) {
	reviewID := c.Param("id")
	c.Set(middleware.ReviewIDKey, reviewID)

	text, err := h.Svc.Instructions(c.Request.Context(), middleware.UserIDFromContext(c), reviewID)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{
		"reviewId":     reviewID,
		"instructions": text,
	})
}

type applyRequest struct {
	ReportText string `json:"reportText"`
}

func (h *Handler) apply(c *gin.Context) {
	reviewID := c.Param("id")
	c.Set(middleware.ReviewIDKey, reviewID)

	req := applyRequest{}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}

	review, err := h.Svc.Apply(requestContext(c), middleware.UserIDFromContext(c), reviewID, req.ReportText)
	if err != nil {
		if review.Status == StatusFailed {
			c.Set(middleware.StatusChangeKey, "applying->failed")
		}
		writeError(c, err)
		return
	}

	if review.Status == StatusApplying {
		c.Set(middleware.StatusChangeKey, "open->applying")
		respond.Accepted(c, ToResponse(review))
		return
	}
	c.Set(middleware.StatusChangeKey, "applying->applied")
	respond.OK(c, ToResponse(review))
}

func requestContext(c *gin.Context) context.Context {
	return WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid input", nil)
	case errors.Is(err, ErrMissingReport):
		respond.Error(c, http.StatusBadRequest, "validation_error", "reportText is required", []map[string]string{
			{"field": "reportText", "issue": "required"},
		})
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "access denied", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "review not found", nil)
	case errors.Is(err, ErrProposalNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "proposal not found", nil)
	case errors.Is(err, ErrNothingDecided):
		respond.Error(c, http.StatusConflict, "nothing_decided", "decide at least one proposal before applying", nil)
	case errors.Is(err, ErrAlreadyApplied):
		respond.Error(c, http.StatusConflict, "review_locked", "review is already applied or applying", nil)
	case errors.Is(err, ErrInvalidLLMOutput):
		respond.Error(c, http.StatusBadGateway, "invalid_llm_output", "invalid model output", nil)
	case errors.Is(err, llm.ErrNotImplemented):
		respond.Error(c, http.StatusServiceUnavailable, "llm_unavailable", "no language model configured", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "review request failed", nil)
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
