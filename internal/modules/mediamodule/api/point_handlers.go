package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mantonx/mediacat/internal/docstore"
	catalogerrors "github.com/mantonx/mediacat/internal/errors"
	"github.com/mantonx/mediacat/internal/models"
	"github.com/mantonx/mediacat/internal/modules/poimodule"
)

// GetPoints handles GET /api/points?ids=a,b,c and returns the hydrated
// points in display order.
func (h *Handler) GetPoints(c *gin.Context) {
	ids := c.QueryArray("ids")
	if len(ids) == 0 {
		catalogerrors.HandleValidationError(c, "missing ids")
		return
	}

	points, err := h.service.Points().GetByIDs(c.Request.Context(), ids)
	if err != nil {
		catalogerrors.ToGinResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": points})
}

// CreatePoints handles POST /api/points with an array of points. An
// attachment body gets its storage path stamped from the owning media id.
func (h *Handler) CreatePoints(c *gin.Context) {
	var req struct {
		MediaID string                    `json:"mediaId"`
		Points  []*models.PointOfInterest `json:"points"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Points) == 0 {
		catalogerrors.HandleValidationError(c, "request must carry a non-empty points list")
		return
	}
	for _, p := range req.Points {
		if p.File != nil && req.MediaID != "" {
			poimodule.StampAttachment(req.MediaID, p.File)
		}
	}

	count, created, err := h.service.Points().Add(c.Request.Context(), req.Points)
	if err != nil {
		catalogerrors.ToGinResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"count": count, "points": created})
}

// UpdatePoint handles PATCH /api/points/:id with a sparse changeset.
func (h *Handler) UpdatePoint(c *gin.Context) {
	var changes models.PointUpdate
	if err := c.ShouldBindJSON(&changes); err != nil {
		catalogerrors.HandleValidationError(c, "invalid changeset: "+err.Error())
		return
	}
	if changes.File != nil {
		if mediaID := c.Query("media_id"); mediaID != "" {
			poimodule.StampAttachment(mediaID, changes.File)
		}
	}

	updated, err := h.service.Points().UpdateOne(c.Request.Context(), docstore.Equal("id", c.Param("id")), &changes)
	if err != nil {
		catalogerrors.ToGinResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeletePoint handles DELETE /api/points/:id.
func (h *Handler) DeletePoint(c *gin.Context) {
	removed, err := h.service.Points().Remove(c.Request.Context(), docstore.Equal("id", c.Param("id")))
	if err != nil {
		catalogerrors.ToGinResponse(c, err)
		return
	}
	if removed == 0 {
		catalogerrors.ToGinResponse(c, catalogerrors.New(catalogerrors.ErrorTypeNotFound, "poi.remove", catalogerrors.ErrPointNotFound))
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
