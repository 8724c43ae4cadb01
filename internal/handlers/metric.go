package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smartvinesa/smartview/internal/services"
	"github.com/smartvinesa/smartview/pkg/response"
	"gorm.io/gorm"
)

type MetricHandler struct {
	metricService *services.MetricService
	display       *services.DisplayService
}

func NewMetricHandler(db *gorm.DB, display *services.DisplayService) *MetricHandler {
	return &MetricHandler{
		metricService: services.NewMetricService(db),
		display:       display,
	}
}

// List returns metric configs
// GET /api/metrics
func (h *MetricHandler) List(c *gin.Context) {
	var req services.ListMetricsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	metrics, err := h.metricService.List(&req)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, metrics)
}

// GetByID returns one metric config
// GET /api/metrics/:id
func (h *MetricHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid metric id")
		return
	}

	metric, err := h.metricService.Get(uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, metric)
}

// Create adds a metric config
// POST /api/metrics
func (h *MetricHandler) Create(c *gin.Context) {
	var req services.CreateMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	metric, err := h.metricService.Create(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, metric)
}

// Update modifies a metric config
// PUT /api/metrics/:id
func (h *MetricHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid metric id")
		return
	}

	var req services.UpdateMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	metric, err := h.metricService.Update(uint(id), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Config changes (max_value, page, active flag) change what the
	// display shows, so drop the stale snapshot.
	h.display.InvalidateMetric(uint(id))

	response.Success(c, metric)
}

// Delete deactivates a metric config. The row and its quarterly
// history are kept; it just stops appearing on the display.
// DELETE /api/metrics/:id
func (h *MetricHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid metric id")
		return
	}

	metric, err := h.metricService.Deactivate(uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.display.InvalidateMetric(uint(id))

	response.Success(c, metric)
}
