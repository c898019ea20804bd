package charts

import (
	"fmt"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"

	"airbnb-eda/models"
)

const (
	barWidth   = 40
	barSpacing = 80
)

// MeanBar draws one bar per group with the group's mean kpi.
func MeanBar(stats []models.GroupStat, kpi, col string) (Figure, error) {
	if len(stats) == 0 {
		return nil, fmt.Errorf("mean bar %s by %s: %w", kpi, col, ErrNotEnoughData)
	}

	bars := make([]chart.Value, len(stats))
	top := 0.0
	for i, s := range stats {
		bars[i] = chart.Value{Value: s.Mean, Label: s.Group}
		top = math.Max(top, s.Mean)
	}
	if top == 0 {
		top = 1
	}

	return goChartFigure{r: chart.BarChart{
		Title:      fmt.Sprintf("mean %s by %s", kpi, col),
		Background: padding(),
		Width:      max(640, (barWidth+barSpacing)*len(bars)),
		Height:     512,
		BarWidth:   barWidth,
		YAxis: chart.YAxis{
			Name:  kpi,
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		UseBaseValue: true,
		Bars:         bars,
	}}, nil
}
