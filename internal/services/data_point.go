package services

import (
	"math"

	"github.com/smartvinesa/smartview/internal/models"
	"github.com/smartvinesa/smartview/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DataPointService manages quarterly data points.
type DataPointService struct {
	db *gorm.DB
}

func NewDataPointService(db *gorm.DB) *DataPointService {
	return &DataPointService{db: db}
}

type UpsertDataPointRequest struct {
	MetricID     uint     `json:"metric_id" binding:"required"`
	Year         int      `json:"year" binding:"required"`
	Quarter      int      `json:"quarter" binding:"required"`
	CurrentValue float64  `json:"current_value"`
	TargetValue  *float64 `json:"target_value"`
}

type UpdateDataPointRequest struct {
	CurrentValue *float64 `json:"current_value"`
	TargetValue  *float64 `json:"target_value"`
}

type ListDataPointsRequest struct {
	MetricID uint `form:"metric_id"`
	Year     int  `form:"year"`
	Quarter  int  `form:"quarter"`
}

func finiteNonNegative(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Upsert writes one quarter's value for a metric. The (metric, year,
// quarter) key is unique; an existing row is overwritten and its
// percentage recomputed. The percentage is stored raw, without clamping.
func (s *DataPointService) Upsert(req *UpsertDataPointRequest) (*models.DataPoint, error) {
	if req.Quarter < 1 || req.Quarter > 4 {
		return nil, response.NewBadRequest("quarter must be between 1 and 4")
	}
	if req.Year < 2000 || req.Year > 2100 {
		return nil, response.NewBadRequest("year must be between 2000 and 2100")
	}
	if !finiteNonNegative(req.CurrentValue) {
		return nil, response.NewBadRequest("current_value must be a non-negative finite number")
	}

	var metric models.MetricConfig
	if err := s.db.First(&metric, req.MetricID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NewNotFound("metric not found")
		}
		return nil, err
	}

	target := metric.MaxValue
	if req.TargetValue != nil {
		if !finiteNonNegative(*req.TargetValue) {
			return nil, response.NewBadRequest("target_value must be a non-negative finite number")
		}
		target = *req.TargetValue
	}
	if req.CurrentValue > metric.MaxValue {
		return nil, response.NewBadRequest("current_value exceeds the metric's configured maximum")
	}

	point := models.DataPoint{
		MetricID:     req.MetricID,
		Year:         req.Year,
		Quarter:      req.Quarter,
		CurrentValue: req.CurrentValue,
		TargetValue:  target,
		Percentage:   ComputePercentage(req.CurrentValue, target),
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "metric_id"}, {Name: "year"}, {Name: "quarter"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"current_value", "target_value", "percentage", "updated_at",
		}),
	}).Create(&point).Error; err != nil {
		return nil, err
	}

	// Re-read so the caller sees the row ID after a conflict update.
	var stored models.DataPoint
	if err := s.db.Where("metric_id = ? AND year = ? AND quarter = ?",
		req.MetricID, req.Year, req.Quarter).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// List returns data points, newest first, optionally filtered by
// metric, year, and quarter.
func (s *DataPointService) List(req *ListDataPointsRequest) ([]models.DataPoint, error) {
	query := s.db.Model(&models.DataPoint{}).Preload("Metric")
	if req.MetricID != 0 {
		query = query.Where("metric_id = ?", req.MetricID)
	}
	if req.Year != 0 {
		query = query.Where("year = ?", req.Year)
	}
	if req.Quarter != 0 {
		query = query.Where("quarter = ?", req.Quarter)
	}

	var points []models.DataPoint
	if err := query.Order("year DESC, quarter DESC, metric_id ASC").Find(&points).Error; err != nil {
		return nil, err
	}
	return points, nil
}

// Series returns a metric's full series in chronological order.
func (s *DataPointService) Series(metricID uint) ([]models.DataPoint, error) {
	var points []models.DataPoint
	if err := s.db.Where("metric_id = ?", metricID).
		Order("year ASC, quarter ASC").
		Find(&points).Error; err != nil {
		return nil, err
	}
	return points, nil
}

// Update changes an existing data point's values in place and
// recomputes its percentage. The (metric, year, quarter) key is fixed;
// moving a point to another period goes through Upsert instead.
func (s *DataPointService) Update(id uint, req *UpdateDataPointRequest) (*models.DataPoint, error) {
	point, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	current := point.CurrentValue
	target := point.TargetValue
	if req.CurrentValue != nil {
		if !finiteNonNegative(*req.CurrentValue) {
			return nil, response.NewBadRequest("current_value must be a non-negative finite number")
		}
		current = *req.CurrentValue
	}
	if req.TargetValue != nil {
		if !finiteNonNegative(*req.TargetValue) {
			return nil, response.NewBadRequest("target_value must be a non-negative finite number")
		}
		target = *req.TargetValue
	}
	if point.Metric != nil && current > point.Metric.MaxValue {
		return nil, response.NewBadRequest("current_value exceeds the metric's configured maximum")
	}

	updates := map[string]interface{}{
		"current_value": current,
		"target_value":  target,
		"percentage":    ComputePercentage(current, target),
	}
	if err := s.db.Model(point).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(id)
}

func (s *DataPointService) Get(id uint) (*models.DataPoint, error) {
	var point models.DataPoint
	if err := s.db.Preload("Metric").First(&point, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NewNotFound("data point not found")
		}
		return nil, err
	}
	return &point, nil
}

func (s *DataPointService) Delete(id uint) (*models.DataPoint, error) {
	point, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Delete(&models.DataPoint{}, id).Error; err != nil {
		return nil, err
	}
	return point, nil
}
