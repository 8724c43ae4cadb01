package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/smartvinesa/smartview/internal/services"
	"github.com/smartvinesa/smartview/pkg/response"
	"gorm.io/gorm"
)

type SettingsHandler struct {
	settingsService *services.SettingsService
	display         *services.DisplayService
}

func NewSettingsHandler(db *gorm.DB, display *services.DisplayService) *SettingsHandler {
	return &SettingsHandler{
		settingsService: services.NewSettingsService(db),
		display:         display,
	}
}

// List returns all settings with their raw values and type tags
// GET /api/settings
func (h *SettingsHandler) List(c *gin.Context) {
	settings, err := h.settingsService.List()
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, settings)
}

// GetResolved returns every setting coerced to its typed value
// GET /api/settings/resolved
func (h *SettingsHandler) GetResolved(c *gin.Context) {
	resolved, err := h.settingsService.ResolveAll()
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, resolved)
}

type updateSettingRequest struct {
	Value interface{} `json:"value"`
}

// Update changes one setting's value. The value arrives as its natural
// JSON type and is stringified server-side.
// PUT /api/settings/:key
func (h *SettingsHandler) Update(c *gin.Context) {
	var req updateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	value, err := services.StringifySettingValue(req.Value)
	if err != nil {
		response.Error(c, err)
		return
	}

	setting, err := h.settingsService.Update(c.Param("key"), value)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Timing settings may have changed; restart the display timers.
	h.display.ApplySettings()

	response.Success(c, setting)
}

type updateSettingsRequest struct {
	Values map[string]interface{} `json:"values" binding:"required"`
}

// UpdateMany changes a batch of settings atomically. Values keep their
// JSON types on the wire and are stringified server-side.
// PUT /api/settings
func (h *SettingsHandler) UpdateMany(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if len(req.Values) == 0 {
		response.BadRequest(c, "no settings provided")
		return
	}

	values := make(map[string]string, len(req.Values))
	for key, raw := range req.Values {
		value, err := services.StringifySettingValue(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		values[key] = value
	}

	if err := h.settingsService.UpdateMany(values); err != nil {
		response.Error(c, err)
		return
	}

	h.display.ApplySettings()

	settings, err := h.settingsService.List()
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, settings)
}
