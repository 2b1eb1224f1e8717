// Package api exposes the catalog over HTTP. The handlers stay thin: query
// parsing and response shaping only, everything else lives in the service.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mantonx/mediacat/internal/docstore"
	catalogerrors "github.com/mantonx/mediacat/internal/errors"
	"github.com/mantonx/mediacat/internal/models"
	"github.com/mantonx/mediacat/internal/modules/mediamodule"
)

// Handler provides HTTP handlers for catalog operations.
type Handler struct {
	service *mediamodule.Service
}

// NewHandler creates a new API handler.
func NewHandler(service *mediamodule.Service) *Handler {
	return &Handler{service: service}
}

// GetMedia handles GET /api/media
//
// Query parameters:
//   - state, type, user: exact-match filters
//   - search: free-text search over title and description
//   - limit, page: pagination (page starts at 1)
//   - sort_by, sort_order: sort field and direction (asc, desc)
func (h *Handler) GetMedia(c *gin.Context) {
	filter := parseMediaFilter(c)
	sortSpec := docstore.Sort{Field: c.DefaultQuery("sort_by", "date"), Desc: c.DefaultQuery("sort_order", "desc") == "desc"}
	limit := intQuery(c, "limit", 50)
	page := intQuery(c, "page", 1)

	records, total, err := h.service.Get(c.Request.Context(), filter, sortSpec, limit, page)
	if err != nil {
		catalogerrors.ToGinResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"media": records, "total": total, "page": page})
}

// GetMediaByID handles GET /api/media/:id, the full read path: platform
// refresh, unit conversion, hydration and URL resolution.
func (h *Handler) GetMediaByID(c *gin.Context) {
	view, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		catalogerrors.ToGinResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CreateMedia handles POST /api/media. The body is either a single record
// object or an array of records.
func (h *Handler) CreateMedia(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		catalogerrors.HandleValidationError(c, "failed to read request body")
		return
	}

	var records []*models.Media
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(body, &records); err != nil {
			catalogerrors.HandleValidationError(c, "invalid media array: "+err.Error())
			return
		}
	} else {
		var one models.Media
		if err := json.Unmarshal(body, &one); err != nil {
			catalogerrors.HandleValidationError(c, "invalid media record: "+err.Error())
			return
		}
		records = []*models.Media{&one}
	}
	if len(records) == 0 {
		catalogerrors.HandleValidationError(c, "no media records in request")
		return
	}

	count, created, err := h.service.Add(c.Request.Context(), records)
	if err != nil {
		catalogerrors.ToGinResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"count": count, "media": created})
}

// UpdateMedia handles PATCH /api/media/:id with a sparse changeset body.
func (h *Handler) UpdateMedia(c *gin.Context) {
	var changes models.MediaUpdate
	if err := c.ShouldBindJSON(&changes); err != nil {
		catalogerrors.HandleValidationError(c, "invalid changeset: "+err.Error())
		return
	}

	updated, err := h.service.UpdateOne(c.Request.Context(), docstore.Equal("id", c.Param("id")), &changes)
	if err != nil {
		catalogerrors.ToGinResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteMedia handles DELETE /api/media/:id. keep_remote=true skips the
// platform-side removal.
func (h *Handler) DeleteMedia(c *gin.Context) {
	keepRemote := c.Query("keep_remote") == "true"
	removed, err := h.service.RemoveByIDs(c.Request.Context(), []string{c.Param("id")}, keepRemote)
	if err != nil {
		catalogerrors.ToGinResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// DeleteMediaBulk handles POST /api/media/remove with {"ids": [...]}.
func (h *Handler) DeleteMediaBulk(c *gin.Context) {
	var req struct {
		IDs        []string `json:"ids"`
		KeepRemote bool     `json:"keepRemote"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
		catalogerrors.HandleValidationError(c, "request must carry a non-empty ids list")
		return
	}

	removed, err := h.service.RemoveByIDs(c.Request.Context(), req.IDs, req.KeepRemote)
	if err != nil {
		catalogerrors.ToGinResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// PublishMedia handles POST /api/media/:id/publish and /unpublish. A guard
// miss reports transitioned=false with status 200.
func (h *Handler) PublishMedia(publish bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		transitioned, err := h.service.SetPublished(c.Request.Context(), c.Param("id"), publish)
		if err != nil {
			catalogerrors.ToGinResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"transitioned": transitioned})
	}
}

// PublishMediaBulk handles POST /api/media/publish and /unpublish with
// {"ids": [...]}.
func (h *Handler) PublishMediaBulk(publish bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			IDs []string `json:"ids"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
			catalogerrors.HandleValidationError(c, "request must carry a non-empty ids list")
			return
		}

		count, err := h.service.SetPublishedMany(c.Request.Context(), req.IDs, publish)
		if err != nil {
			catalogerrors.ToGinResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"transitioned": count})
	}
}

// IncrementViews handles POST /api/media/:id/views.
func (h *Handler) IncrementViews(c *gin.Context) {
	views, err := h.service.IncrementViews(c.Request.Context(), c.Param("id"))
	if err != nil {
		catalogerrors.ToGinResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"views": views})
}

// SearchMedia handles GET /api/media/search?q=term.
func (h *Handler) SearchMedia(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		catalogerrors.HandleValidationError(c, "missing search term")
		return
	}

	records, total, err := h.service.Search(c.Request.Context(), term, intQuery(c, "limit", 50), intQuery(c, "page", 1))
	if err != nil {
		catalogerrors.ToGinResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"media": records, "total": total})
}

func parseMediaFilter(c *gin.Context) docstore.Filter {
	var filters []docstore.Filter
	if state := c.Query("state"); state != "" {
		filters = append(filters, docstore.Equal("state", state))
	}
	if platformType := c.Query("type"); platformType != "" {
		filters = append(filters, docstore.Equal("type", platformType))
	}
	if user := c.Query("user"); user != "" {
		filters = append(filters, docstore.Equal("metadata.user", user))
	}
	if search := c.Query("search"); search != "" {
		filters = append(filters, docstore.Search(search, "title", "descriptionText"))
	}

	switch len(filters) {
	case 0:
		return docstore.All()
	case 1:
		return filters[0]
	default:
		return docstore.And(filters...)
	}
}

func intQuery(c *gin.Context, name string, fallback int) int {
	if raw := c.Query(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}
