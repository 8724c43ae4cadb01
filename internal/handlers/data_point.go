package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smartvinesa/smartview/internal/services"
	"github.com/smartvinesa/smartview/pkg/logger"
	"github.com/smartvinesa/smartview/pkg/response"
	"gorm.io/gorm"
)

type DataPointHandler struct {
	dataPointService *services.DataPointService
	display          *services.DisplayService
}

func NewDataPointHandler(db *gorm.DB, display *services.DisplayService) *DataPointHandler {
	return &DataPointHandler{
		dataPointService: services.NewDataPointService(db),
		display:          display,
	}
}

// Upsert writes one quarter's value for a metric
// POST /api/data-points
func (h *DataPointHandler) Upsert(c *gin.Context) {
	var req services.UpsertDataPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	point, err := h.dataPointService.Upsert(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.refreshMetric(point.MetricID)

	response.Success(c, point)
}

// List returns data points with optional filters
// GET /api/data-points
func (h *DataPointHandler) List(c *gin.Context) {
	var req services.ListDataPointsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	points, err := h.dataPointService.List(&req)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, points)
}

// Update changes an existing data point's values
// PUT /api/data-points/:id
func (h *DataPointHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid data point id")
		return
	}

	var req services.UpdateDataPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	point, err := h.dataPointService.Update(uint(id), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.refreshMetric(point.MetricID)

	response.Success(c, point)
}

// Delete removes a data point
// DELETE /api/data-points/:id
func (h *DataPointHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid data point id")
		return
	}

	point, err := h.dataPointService.Delete(uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.refreshMetric(point.MetricID)

	response.Success(c, gin.H{"message": "data point deleted successfully"})
}

// refreshMetric invalidates the cached snapshot and queues a
// re-aggregation so the display catches up without waiting for the TTL.
func (h *DataPointHandler) refreshMetric(metricID uint) {
	h.display.InvalidateMetric(metricID)

	if queue := services.GetTaskQueue(); queue != nil {
		if err := queue.Enqueue(services.NewRefreshTask(metricID, "data_write")); err != nil {
			logger.Warnf("[DataPoint] Failed to enqueue refresh for metric %d: %v", metricID, err)
		}
	}
}
