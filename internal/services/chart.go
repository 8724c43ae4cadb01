package services

import (
	"fmt"
	"strings"
)

// Chart geometry for the quarterly trend line rendered by the display.
// The plot area maps 0-100% onto a fixed 200-unit vertical span with a
// top margin, and spreads points evenly across the horizontal span.
const (
	chartLeftMargin = 50.0
	chartTopMargin  = 20.0
	chartPlotWidth  = 400.0
	chartYScale     = 2.0
)

// ChartPoint is one plotted quarter: final coordinates plus the label
// and the clamped percentage the tooltip shows.
type ChartPoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Label      string  `json:"label"`
	Percentage float64 `json:"percentage"`
}

// ChartSeries is the render-ready form of a metric's quarterly series.
type ChartSeries struct {
	MetricID  uint         `json:"metric_id"`
	Points    []ChartPoint `json:"points"`
	Polyline  string       `json:"polyline"`
	Gridlines []Gridline   `json:"gridlines"`
}

// Gridline is one horizontal reference line of the plot.
type Gridline struct {
	Percentage float64 `json:"percentage"`
	Y          float64 `json:"y"`
}

// chartGridlines returns the reference lines at 0/25/50/75/100%.
func chartGridlines() []Gridline {
	levels := []float64{0, 25, 50, 75, 100}
	lines := make([]Gridline, 0, len(levels))
	for _, p := range levels {
		lines = append(lines, Gridline{
			Percentage: p,
			Y:          chartTopMargin + (100-p)*chartYScale,
		})
	}
	return lines
}

// clampPercent bounds a raw percentage to the plottable 0-100 range.
// Stored percentages are raw (over-achievement exceeds 100), clamping
// happens only here at render time.
func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// BuildChartSeries maps a chronological series of quarter values to
// plot coordinates. A single point sits at the left margin; two or more
// points divide the plot width evenly.
func BuildChartSeries(metricID uint, series []QuarterValue) *ChartSeries {
	chart := &ChartSeries{
		MetricID:  metricID,
		Points:    make([]ChartPoint, 0, len(series)),
		Gridlines: chartGridlines(),
	}

	if len(series) == 0 {
		return chart
	}

	step := chartPlotWidth
	if len(series) > 1 {
		step = chartPlotWidth / float64(len(series)-1)
	}

	var polyline strings.Builder
	for i, qv := range series {
		p := clampPercent(qv.Percentage)
		point := ChartPoint{
			X:          chartLeftMargin + float64(i)*step,
			Y:          chartTopMargin + (100-p)*chartYScale,
			Label:      fmt.Sprintf("%d Q%d", qv.Year, qv.Quarter),
			Percentage: p,
		}
		chart.Points = append(chart.Points, point)

		if i > 0 {
			polyline.WriteByte(' ')
		}
		fmt.Fprintf(&polyline, "%.1f,%.1f", point.X, point.Y)
	}
	chart.Polyline = polyline.String()
	return chart
}
