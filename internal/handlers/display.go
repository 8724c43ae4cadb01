package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smartvinesa/smartview/internal/services"
	"github.com/smartvinesa/smartview/pkg/response"
	"gorm.io/gorm"
)

// DisplayHandler serves the public dashboard endpoints. These carry no
// auth so a kiosk browser can poll them; they sit behind the public
// rate limiter instead.
type DisplayHandler struct {
	db            *gorm.DB
	display       *services.DisplayService
	metricService *services.MetricService
}

func NewDisplayHandler(db *gorm.DB, display *services.DisplayService) *DisplayHandler {
	return &DisplayHandler{
		db:            db,
		display:       display,
		metricService: services.NewMetricService(db),
	}
}

// Dashboard returns the full state for the page currently showing
// GET /api/display/dashboard
func (h *DisplayHandler) Dashboard(c *gin.Context) {
	state, err := h.display.Dashboard()
	if err != nil {
		response.ServiceUnavailable(c, "dashboard data unavailable")
		return
	}

	response.Success(c, state)
}

// State returns just the rotation position, cheap enough to poll at the
// progress-bar frame rate
// GET /api/display/state
func (h *DisplayHandler) State(c *gin.Context) {
	response.Success(c, gin.H{
		"page":     h.display.CurrentPage(),
		"progress": h.display.Progress(),
	})
}

// Page returns the snapshots for an explicit page
// GET /api/display/pages/:page
func (h *DisplayHandler) Page(c *gin.Context) {
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil || (page != 1 && page != 2) {
		response.BadRequest(c, "page must be 1 or 2")
		return
	}

	snapshots, err := h.display.PageSnapshots(page)
	if err != nil {
		response.ServiceUnavailable(c, "dashboard data unavailable")
		return
	}

	response.Success(c, snapshots)
}

type setPageRequest struct {
	Page int `json:"page" binding:"required"`
}

// SetPage forces the rotation to a page
// POST /api/display/page
func (h *DisplayHandler) SetPage(c *gin.Context) {
	var req setPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.display.SetPage(req.Page); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, gin.H{"page": req.Page})
}

// Chart returns render-ready chart coordinates for a metric's series
// GET /api/display/metrics/:id/chart
func (h *DisplayHandler) Chart(c *gin.Context) {
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

	snap, err := h.display.Snapshot(metric)
	if err != nil {
		response.ServiceUnavailable(c, "dashboard data unavailable")
		return
	}

	response.Success(c, services.BuildChartSeries(metric.ID, snap.Series))
}
