package handlers

import (
	"math"

	"github.com/gin-gonic/gin"
	"github.com/smartvinesa/smartview/internal/models"
	"github.com/smartvinesa/smartview/internal/services"
	"github.com/smartvinesa/smartview/pkg/response"
	"gorm.io/gorm"
)

// DashboardHandler serves the admin overview.
type DashboardHandler struct {
	db  *gorm.DB
	agg *services.AggregationService
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{
		db:  db,
		agg: services.NewAggregationService(db),
	}
}

type dashboardSummary struct {
	TotalMetrics      int64          `json:"total_metrics"`
	ActiveMetrics     int64          `json:"active_metrics"`
	TotalDataPoints   int64          `json:"total_data_points"`
	AveragePercentage float64        `json:"average_percentage"`
	BelowTarget       int            `json:"below_target"`
	StatusCounts      map[string]int `json:"status_counts"`
	LastDataUpdate    interface{}    `json:"last_data_update"`
}

// Summary returns counts and a status breakdown across active metrics
// GET /api/dashboard/summary
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary := dashboardSummary{
		StatusCounts: map[string]int{
			services.StatusGood:     0,
			services.StatusWarning:  0,
			services.StatusCritical: 0,
			services.StatusNoData:   0,
		},
	}

	h.db.Model(&models.MetricConfig{}).Count(&summary.TotalMetrics)
	h.db.Model(&models.MetricConfig{}).Where("is_active = ?", true).Count(&summary.ActiveMetrics)
	h.db.Model(&models.DataPoint{}).Count(&summary.TotalDataPoints)

	var latest models.DataPoint
	if err := h.db.Order("updated_at DESC").First(&latest).Error; err == nil {
		summary.LastDataUpdate = latest.UpdatedAt
	}

	var metrics []models.MetricConfig
	if err := h.db.Where("is_active = ?", true).Find(&metrics).Error; err != nil {
		response.ServerError(c, err.Error())
		return
	}

	var sum float64
	var withData int
	for i := range metrics {
		snap, err := h.agg.BuildSnapshot(&metrics[i])
		if err != nil {
			// One unreadable series degrades to no_data, not a failed summary.
			snap = services.SnapshotFromPoints(&metrics[i], nil)
		}
		summary.StatusCounts[snap.Status]++
		if snap.Status == services.StatusNoData {
			continue
		}
		sum += snap.Percentage
		withData++
		if snap.Percentage < 80 {
			summary.BelowTarget++
		}
	}
	if withData > 0 {
		summary.AveragePercentage = math.Round(sum / float64(withData))
	}

	response.Success(c, summary)
}
