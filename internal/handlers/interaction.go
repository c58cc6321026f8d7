package handlers

import (
	"strconv"
	"time"

	"github.com/feedbackforge/backend/internal/services"
	"github.com/feedbackforge/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type InteractionHandler struct {
	store *services.RecordStore
}

func NewInteractionHandler(db *gorm.DB) *InteractionHandler {
	return &InteractionHandler{store: services.NewRecordStore(db)}
}

// Create handles POST /api/interactions with one call per completed chat turn.
func (h *InteractionHandler) Create(c *gin.Context) {
	var req services.AppendInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	rec, err := h.store.Append(req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, rec)
}

// AttachFeedback handles POST /api/interactions/:id/feedback with one optional
// call per user rating action. Duplicate submissions get 409.
func (h *InteractionHandler) AttachFeedback(c *gin.Context) {
	var req services.FeedbackInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.store.AttachFeedback(c.Param("id"), req); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id")})
}

// Get handles GET /api/interactions/:id
func (h *InteractionHandler) Get(c *gin.Context) {
	rec, err := h.store.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, rec)
}

// List handles GET /api/interactions with filter query params.
func (h *InteractionHandler) List(c *gin.Context) {
	filter := services.QueryFilter{
		Category: c.Query("category"),
	}

	if v := c.Query("min_rating"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.MinRating = n
		}
	}
	if v := c.Query("max_rating"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.MaxRating = n
		}
	}
	if c.Query("rated_only") == "true" {
		filter.RatedOnly = true
	}
	if v := c.Query("approved"); v != "" {
		approved := v == "true"
		filter.Approved = &approved
	}
	if v := c.Query("since"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.Since = t
		}
	}
	if v := c.Query("until"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.Until = t
		}
	}
	if c.Query("order") == "desc" {
		filter.Descending = true
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}

	records, err := h.store.Query(filter)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"total": len(records),
		"items": records,
	})
}

// Approve handles POST /api/interactions/:id/approve as the external moderation
// action gating approved-only exports.
func (h *InteractionHandler) Approve(c *gin.Context) {
	if err := h.store.Approve(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id"), "approved": true})
}

// Delete handles DELETE /api/interactions/:id as the external retention/GDPR
// path.
func (h *InteractionHandler) Delete(c *gin.Context) {
	if err := h.store.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id"), "deleted": true})
}
