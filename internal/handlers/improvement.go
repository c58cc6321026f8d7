package handlers

import (
	"strconv"

	"github.com/feedbackforge/backend/internal/services"
	"github.com/feedbackforge/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

type ImprovementHandler struct {
	orchestrator *services.Orchestrator
	store        *services.RecordStore
	exporter     *services.Exporter
	windowDays   int
}

func NewImprovementHandler(orchestrator *services.Orchestrator, store *services.RecordStore, exporter *services.Exporter, windowDays int) *ImprovementHandler {
	return &ImprovementHandler{
		orchestrator: orchestrator,
		store:        store,
		exporter:     exporter,
		windowDays:   windowDays,
	}
}

type RunRequest struct {
	WindowDays int      `json:"window_days"`
	Formats    []string `json:"formats"`
}

// Run handles POST /api/improvement/run and triggers one improvement cycle.
// Returns 409 while a cycle is already in flight.
func (h *ImprovementHandler) Run(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, err.Error())
		return
	}

	windowDays := req.WindowDays
	if windowDays <= 0 {
		windowDays = h.windowDays
	}

	var formats []services.ExportFormat
	for _, name := range req.Formats {
		format, err := services.ParseFormat(name)
		if err != nil {
			respondError(c, err)
			return
		}
		formats = append(formats, format)
	}

	report, err := h.orchestrator.Run(windowDays, formats...)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, report)
}

// Status handles GET /api/improvement/status
func (h *ImprovementHandler) Status(c *gin.Context) {
	response.Success(c, gin.H{"state": h.orchestrator.State()})
}

// ListRuns handles GET /api/improvement/runs and returns cycle history, newest first.
func (h *ImprovementHandler) ListRuns(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := h.orchestrator.ListRuns(limit)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, runs)
}

type ExportRequest struct {
	Format       string `json:"format" binding:"required"`
	Category     string `json:"category"`
	MinRating    int    `json:"min_rating"`
	RatedOnly    bool   `json:"rated_only"`
	ApprovedOnly bool   `json:"approved_only"`
}

// Export handles POST /api/export for an on-demand dataset export outside a
// full improvement cycle.
func (h *ImprovementHandler) Export(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	format, err := services.ParseFormat(req.Format)
	if err != nil {
		respondError(c, err)
		return
	}

	filter := services.QueryFilter{
		Category:  req.Category,
		MinRating: req.MinRating,
		RatedOnly: req.RatedOnly,
	}
	if req.ApprovedOnly {
		approved := true
		filter.Approved = &approved
	}

	records, err := h.store.Query(filter)
	if err != nil {
		respondError(c, err)
		return
	}

	path, count, err := h.exporter.Export(records, format)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"file_path":     path,
		"example_count": count,
		"format":        format,
	})
}
