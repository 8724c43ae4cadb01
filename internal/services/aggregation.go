package services

import (
	"sort"
	"time"

	"github.com/smartvinesa/smartview/internal/models"
	"gorm.io/gorm"
)

// Achievement status of a metric, derived from its latest percentage.
const (
	StatusGood     = "good"
	StatusWarning  = "warning"
	StatusCritical = "critical"
	StatusNoData   = "no_data"
)

// Trend direction across the two most recent quarters.
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

const (
	statusGoodThreshold    = 80.0
	statusWarningThreshold = 50.0
	trendTolerance         = 2.0
)

// ComputePercentage returns the raw achievement percentage. A
// non-positive target yields 0 rather than a division error; values
// above 100 are preserved so over-achievement stays visible to callers
// that want it.
func ComputePercentage(current, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return current / target * 100
}

// StatusFor maps a percentage to an achievement status.
func StatusFor(percentage float64) string {
	switch {
	case percentage >= statusGoodThreshold:
		return StatusGood
	case percentage >= statusWarningThreshold:
		return StatusWarning
	default:
		return StatusCritical
	}
}

// SortDataPoints orders points chronologically by (year, quarter).
func SortDataPoints(points []models.DataPoint) {
	sort.Slice(points, func(i, j int) bool {
		if points[i].Year != points[j].Year {
			return points[i].Year < points[j].Year
		}
		return points[i].Quarter < points[j].Quarter
	})
}

// TrendFor compares the stored percentages of the two most recent
// quarters. Differences within the tolerance band count as stable, so
// noise around a flat line does not flap between up and down. Fewer
// than two points is always stable. points must already be sorted.
func TrendFor(points []models.DataPoint) string {
	if len(points) < 2 {
		return TrendStable
	}
	prev := points[len(points)-2].Percentage
	last := points[len(points)-1].Percentage
	diff := last - prev
	switch {
	case diff > trendTolerance:
		return TrendUp
	case diff < -trendTolerance:
		return TrendDown
	default:
		return TrendStable
	}
}

// QuarterValue is one quarter of a metric's series as exposed to the
// dashboard and the chart renderer.
type QuarterValue struct {
	Year         int     `json:"year"`
	Quarter      int     `json:"quarter"`
	CurrentValue float64 `json:"current_value"`
	TargetValue  float64 `json:"target_value"`
	Percentage   float64 `json:"percentage"`
}

// MetricSnapshot is the fully aggregated view of one metric: its config,
// its chronological series, and the derived percentage/status/trend of
// the latest quarter. Snapshots are what the display cache stores.
type MetricSnapshot struct {
	MetricID     uint           `json:"metric_id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Unit         string         `json:"unit"`
	Icon         string         `json:"icon"`
	PageNumber   int            `json:"page_number"`
	DisplayOrder int            `json:"display_order"`
	IsRealtime   bool           `json:"is_realtime"`
	MaxValue     float64        `json:"max_value"`
	Latest       *QuarterValue  `json:"latest,omitempty"`
	Percentage   float64        `json:"percentage"`
	Status       string         `json:"status"`
	Trend        string         `json:"trend"`
	Series       []QuarterValue `json:"series"`
	GeneratedAt  time.Time      `json:"generated_at"`
}

// AggregationService builds metric snapshots from stored data points.
type AggregationService struct {
	db *gorm.DB
}

func NewAggregationService(db *gorm.DB) *AggregationService {
	return &AggregationService{db: db}
}

// BuildSnapshot aggregates a single metric. A metric with no data points
// gets an explicit no_data status instead of a zeroed-out critical one,
// so the dashboard can distinguish "failing" from "never reported".
func (s *AggregationService) BuildSnapshot(metric *models.MetricConfig) (*MetricSnapshot, error) {
	var points []models.DataPoint
	if err := s.db.Where("metric_id = ?", metric.ID).
		Order("year ASC, quarter ASC").
		Find(&points).Error; err != nil {
		return nil, err
	}
	return SnapshotFromPoints(metric, points), nil
}

// SnapshotFromPoints derives a snapshot from an already-loaded series.
// Split out from BuildSnapshot so the computation is testable without a
// database.
func SnapshotFromPoints(metric *models.MetricConfig, points []models.DataPoint) *MetricSnapshot {
	SortDataPoints(points)

	snapshot := &MetricSnapshot{
		MetricID:     metric.ID,
		Name:         metric.Name,
		Description:  metric.Description,
		Unit:         metric.Unit,
		Icon:         metric.Icon,
		PageNumber:   metric.PageNumber,
		DisplayOrder: metric.DisplayOrder,
		IsRealtime:   metric.IsRealtime,
		MaxValue:     metric.MaxValue,
		Series:       make([]QuarterValue, 0, len(points)),
		GeneratedAt:  time.Now(),
	}

	for _, p := range points {
		snapshot.Series = append(snapshot.Series, QuarterValue{
			Year:         p.Year,
			Quarter:      p.Quarter,
			CurrentValue: p.CurrentValue,
			TargetValue:  p.TargetValue,
			Percentage:   p.Percentage,
		})
	}

	if len(points) == 0 {
		snapshot.Status = StatusNoData
		snapshot.Trend = TrendStable
		return snapshot
	}

	latest := snapshot.Series[len(snapshot.Series)-1]
	snapshot.Latest = &latest
	snapshot.Percentage = latest.Percentage
	snapshot.Status = StatusFor(latest.Percentage)
	snapshot.Trend = TrendFor(points)
	return snapshot
}
