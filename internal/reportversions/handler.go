package reportversions

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"box3-backend/internal/shared/server/middleware"
	"box3-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the report version service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches report version routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/report-versions", h.list)
	rg.GET("/report-versions/:id", h.get)
	rg.GET("/report-versions/:id/download", h.download)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	dossierID := c.Query("dossierId")
	if dossierID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "dossierId is required", nil)
		return
	}
	c.Set(middleware.DossierIDKey, dossierID)

	limit := queryInt(c, "limit", defaultListLimit)
	offset := queryInt(c, "offset", 0)

	versions, err := h.Svc.List(c.Request.Context(), userID, dossierID, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]ReportVersionResponse, 0, len(versions))
	for _, v := range versions {
		resp = append(resp, ToResponse(v))
	}
	respond.OK(c, resp)
}

func (h *Handler) get(c *gin.Context) {
	version, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, ToResponse(version))
}

func (h *Handler) download(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	version, reader, err := h.Svc.Open(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Type", version.MimeType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"rapport_%s%s\"", version.ID, reportExtension))
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid input", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "access denied", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "report version not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load report version", nil)
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
