package services

import (
	"testing"

	"github.com/smartvinesa/smartview/internal/models"
)

func TestComputePercentage(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		target   float64
		expected float64
	}{
		{"half of target", 50, 100, 50},
		{"full target", 100, 100, 100},
		{"over target stays raw", 150, 100, 150},
		{"zero target", 50, 0, 0},
		{"negative target", 50, -10, 0},
		{"zero current", 0, 100, 0},
		{"fractional", 1, 3, 100.0 / 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputePercentage(tt.current, tt.target)
			if got != tt.expected {
				t.Errorf("ComputePercentage(%v, %v) = %v, expected %v",
					tt.current, tt.target, got, tt.expected)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		percentage float64
		expected   string
	}{
		{100, StatusGood},
		{80, StatusGood},
		{79.99, StatusWarning},
		{50, StatusWarning},
		{49.99, StatusCritical},
		{0, StatusCritical},
		{150, StatusGood},
	}

	for _, tt := range tests {
		got := StatusFor(tt.percentage)
		if got != tt.expected {
			t.Errorf("StatusFor(%v) = %q, expected %q", tt.percentage, got, tt.expected)
		}
	}
}

func TestTrendFor(t *testing.T) {
	points := func(percentages ...float64) []models.DataPoint {
		out := make([]models.DataPoint, len(percentages))
		for i, p := range percentages {
			out[i] = models.DataPoint{Year: 2025, Quarter: i + 1, Percentage: p}
		}
		return out
	}

	tests := []struct {
		name     string
		points   []models.DataPoint
		expected string
	}{
		{"no points", nil, TrendStable},
		{"one point", points(80), TrendStable},
		{"clear rise", points(50, 60), TrendUp},
		{"clear drop", points(60, 50), TrendDown},
		{"within tolerance up", points(50, 51.5), TrendStable},
		{"within tolerance down", points(51.5, 50), TrendStable},
		{"exactly at tolerance", points(50, 52), TrendStable},
		{"just past tolerance", points(50, 52.1), TrendUp},
		{"only last two quarters count", points(90, 50, 60), TrendUp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrendFor(tt.points)
			if got != tt.expected {
				t.Errorf("TrendFor = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestSortDataPoints(t *testing.T) {
	points := []models.DataPoint{
		{Year: 2025, Quarter: 2},
		{Year: 2024, Quarter: 4},
		{Year: 2025, Quarter: 1},
		{Year: 2024, Quarter: 1},
	}

	SortDataPoints(points)

	expected := []struct{ year, quarter int }{
		{2024, 1}, {2024, 4}, {2025, 1}, {2025, 2},
	}
	for i, e := range expected {
		if points[i].Year != e.year || points[i].Quarter != e.quarter {
			t.Errorf("position %d = %d Q%d, expected %d Q%d",
				i, points[i].Year, points[i].Quarter, e.year, e.quarter)
		}
	}
}

func TestSnapshotFromPoints_NoData(t *testing.T) {
	metric := &models.MetricConfig{ID: 1, Name: "Graduation Rate", MaxValue: 100}

	snap := SnapshotFromPoints(metric, nil)

	if snap.Status != StatusNoData {
		t.Errorf("Status = %q, expected %q", snap.Status, StatusNoData)
	}
	if snap.Trend != TrendStable {
		t.Errorf("Trend = %q, expected %q", snap.Trend, TrendStable)
	}
	if snap.Latest != nil {
		t.Error("Latest should be nil with no data")
	}
	if snap.Percentage != 0 {
		t.Errorf("Percentage = %v, expected 0", snap.Percentage)
	}
	if len(snap.Series) != 0 {
		t.Errorf("Series length = %d, expected 0", len(snap.Series))
	}
}

func TestSnapshotFromPoints_LatestQuarterWins(t *testing.T) {
	metric := &models.MetricConfig{ID: 3, Name: "Research Output", MaxValue: 200, PageNumber: 2}

	// Deliberately out of order; the snapshot must sort before deriving.
	points := []models.DataPoint{
		{MetricID: 3, Year: 2025, Quarter: 2, CurrentValue: 170, TargetValue: 200, Percentage: 85},
		{MetricID: 3, Year: 2024, Quarter: 4, CurrentValue: 100, TargetValue: 200, Percentage: 50},
		{MetricID: 3, Year: 2025, Quarter: 1, CurrentValue: 120, TargetValue: 200, Percentage: 60},
	}

	snap := SnapshotFromPoints(metric, points)

	if snap.Latest == nil {
		t.Fatal("Latest should be set")
	}
	if snap.Latest.Year != 2025 || snap.Latest.Quarter != 2 {
		t.Errorf("Latest = %d Q%d, expected 2025 Q2", snap.Latest.Year, snap.Latest.Quarter)
	}
	if snap.Percentage != 85 {
		t.Errorf("Percentage = %v, expected 85", snap.Percentage)
	}
	if snap.Status != StatusGood {
		t.Errorf("Status = %q, expected %q", snap.Status, StatusGood)
	}
	if snap.Trend != TrendUp {
		t.Errorf("Trend = %q, expected %q", snap.Trend, TrendUp)
	}
	if len(snap.Series) != 3 {
		t.Fatalf("Series length = %d, expected 3", len(snap.Series))
	}
	if snap.Series[0].Year != 2024 || snap.Series[0].Quarter != 4 {
		t.Errorf("Series[0] = %d Q%d, expected 2024 Q4", snap.Series[0].Year, snap.Series[0].Quarter)
	}
	if snap.PageNumber != 2 {
		t.Errorf("PageNumber = %d, expected 2", snap.PageNumber)
	}
}

func TestSnapshotFromPoints_CriticalMetric(t *testing.T) {
	metric := &models.MetricConfig{ID: 5, Name: "Accreditation Score", MaxValue: 100}
	points := []models.DataPoint{
		{MetricID: 5, Year: 2025, Quarter: 1, CurrentValue: 45, TargetValue: 100, Percentage: 45},
	}

	snap := SnapshotFromPoints(metric, points)

	if snap.Status != StatusCritical {
		t.Errorf("Status = %q, expected %q", snap.Status, StatusCritical)
	}
	if snap.Trend != TrendStable {
		t.Errorf("Trend = %q, expected %q with a single point", snap.Trend, TrendStable)
	}
}
