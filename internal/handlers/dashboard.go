package handlers

import (
	"strconv"

	"github.com/feedbackforge/backend/internal/services"
	"github.com/feedbackforge/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type DashboardHandler struct {
	analytics *services.AnalyticsService
	store     *services.RecordStore
	aggOpts   services.AggregatorOptions
}

func NewDashboardHandler(db *gorm.DB, aggOpts services.AggregatorOptions) *DashboardHandler {
	return &DashboardHandler{
		analytics: services.NewAnalyticsService(db),
		store:     services.NewRecordStore(db),
		aggOpts:   aggOpts,
	}
}

// GetStats handles GET /api/dashboard/stats
func (h *DashboardHandler) GetStats(c *gin.Context) {
	trendDays := 7
	if v := c.Query("trend_days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			trendDays = n
		}
	}

	stats, err := h.analytics.GetAnalytics(trendDays)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, stats)
}

// GetCategoryStats handles GET /api/categories/stats returning derived per-category
// performance, recomputed from the store on every request.
func (h *DashboardHandler) GetCategoryStats(c *gin.Context) {
	filter := services.QueryFilter{Category: c.Query("category")}
	records, err := h.store.Query(filter)
	if err != nil {
		respondError(c, err)
		return
	}

	stats, skipped := services.ComputeStats(records, h.aggOpts)
	response.Success(c, gin.H{
		"categories": stats,
		"skipped":    skipped,
	})
}

// ListSnapshots handles GET /api/dashboard/snapshots
func (h *DashboardHandler) ListSnapshots(c *gin.Context) {
	limit := 30
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	snaps, err := h.analytics.ListSnapshots(limit)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, snaps)
}
