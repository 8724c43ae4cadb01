package services

import (
	"errors"
	"math"

	"github.com/smartvinesa/smartview/internal/models"
	"github.com/smartvinesa/smartview/pkg/response"
	"gorm.io/gorm"
)

// MetricService manages metric configurations.
type MetricService struct {
	db *gorm.DB
}

func NewMetricService(db *gorm.DB) *MetricService {
	return &MetricService{db: db}
}

type CreateMetricRequest struct {
	Name         string  `json:"name" binding:"required,max=200"`
	Description  string  `json:"description" binding:"max=500"`
	MaxValue     float64 `json:"max_value" binding:"required"`
	Unit         string  `json:"unit" binding:"max=50"`
	Icon         string  `json:"icon" binding:"max=50"`
	PageNumber   int     `json:"page_number"`
	DisplayOrder int     `json:"display_order"`
	IsActive     *bool   `json:"is_active"`
	IsRealtime   *bool   `json:"is_realtime"`
}

type UpdateMetricRequest struct {
	Name         *string  `json:"name" binding:"omitempty,max=200"`
	Description  *string  `json:"description" binding:"omitempty,max=500"`
	MaxValue     *float64 `json:"max_value"`
	Unit         *string  `json:"unit" binding:"omitempty,max=50"`
	Icon         *string  `json:"icon" binding:"omitempty,max=50"`
	PageNumber   *int     `json:"page_number"`
	DisplayOrder *int     `json:"display_order"`
	IsActive     *bool    `json:"is_active"`
	IsRealtime   *bool    `json:"is_realtime"`
}

type ListMetricsRequest struct {
	Page       *int `form:"page" binding:"omitempty,min=1,max=2"`
	ActiveOnly bool `form:"active_only"`
}

func validMaxValue(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validPageNumber(p int) bool {
	return p == 1 || p == 2
}

// List returns metric configs ordered by page then display order.
func (s *MetricService) List(req *ListMetricsRequest) ([]models.MetricConfig, error) {
	query := s.db.Model(&models.MetricConfig{})
	if req.Page != nil {
		query = query.Where("page_number = ?", *req.Page)
	}
	if req.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var metrics []models.MetricConfig
	if err := query.Order("page_number ASC, display_order ASC, id ASC").Find(&metrics).Error; err != nil {
		return nil, err
	}
	return metrics, nil
}

func (s *MetricService) Get(id uint) (*models.MetricConfig, error) {
	var metric models.MetricConfig
	if err := s.db.First(&metric, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("metric not found")
		}
		return nil, err
	}
	return &metric, nil
}

func (s *MetricService) Create(req *CreateMetricRequest) (*models.MetricConfig, error) {
	if !validMaxValue(req.MaxValue) {
		return nil, response.NewBadRequest("max_value must be a positive finite number")
	}
	if req.PageNumber == 0 {
		req.PageNumber = 1
	}
	if !validPageNumber(req.PageNumber) {
		return nil, response.NewBadRequest("page_number must be 1 or 2")
	}

	metric := models.MetricConfig{
		Name:         req.Name,
		Description:  req.Description,
		MaxValue:     req.MaxValue,
		Unit:         req.Unit,
		Icon:         req.Icon,
		PageNumber:   req.PageNumber,
		DisplayOrder: req.DisplayOrder,
		IsActive:     true,
		IsRealtime:   true,
	}
	if req.IsActive != nil {
		metric.IsActive = *req.IsActive
	}
	if req.IsRealtime != nil {
		metric.IsRealtime = *req.IsRealtime
	}

	if err := s.db.Create(&metric).Error; err != nil {
		return nil, err
	}
	return &metric, nil
}

func (s *MetricService) Update(id uint, req *UpdateMetricRequest) (*models.MetricConfig, error) {
	metric, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.MaxValue != nil {
		if !validMaxValue(*req.MaxValue) {
			return nil, response.NewBadRequest("max_value must be a positive finite number")
		}
		updates["max_value"] = *req.MaxValue
	}
	if req.Unit != nil {
		updates["unit"] = *req.Unit
	}
	if req.Icon != nil {
		updates["icon"] = *req.Icon
	}
	if req.PageNumber != nil {
		if !validPageNumber(*req.PageNumber) {
			return nil, response.NewBadRequest("page_number must be 1 or 2")
		}
		updates["page_number"] = *req.PageNumber
	}
	if req.DisplayOrder != nil {
		updates["display_order"] = *req.DisplayOrder
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.IsRealtime != nil {
		updates["is_realtime"] = *req.IsRealtime
	}

	if len(updates) == 0 {
		return metric, nil
	}

	if err := s.db.Model(metric).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Deactivate soft-deletes a metric config. Rows are never removed, so
// the quarterly history stays queryable; the display and the active
// listings simply stop showing the metric.
func (s *MetricService) Deactivate(id uint) (*models.MetricConfig, error) {
	metric, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(metric).Update("is_active", false).Error; err != nil {
		return nil, err
	}
	return s.Get(id)
}
