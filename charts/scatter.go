package charts

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	chart "github.com/wcharczuk/go-chart/v2"
)

// Scatter plots kpi (y-axis) against column (x-axis). Rows missing either
// value are skipped.
func Scatter(df dataframe.DataFrame, kpi, col string) (Figure, error) {
	xs, err := column(df, col)
	if err != nil {
		return nil, fmt.Errorf("scatter: %w", err)
	}
	ys, err := column(df, kpi)
	if err != nil {
		return nil, fmt.Errorf("scatter: %w", err)
	}

	var px, py []float64
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		px = append(px, xs[i])
		py = append(py, ys[i])
	}
	if len(px) < 2 {
		return nil, fmt.Errorf("scatter %s vs %s: %w", kpi, col, ErrNotEnoughData)
	}

	return goChartFigure{r: chart.Chart{
		Title:      fmt.Sprintf("%s vs %s", kpi, col),
		Background: padding(),
		XAxis:      chart.XAxis{Name: col, Range: flatRange(px)},
		YAxis:      chart.YAxis{Name: kpi, Range: flatRange(py)},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: kpi, XValues: px, YValues: py, Style: pointStyle(chart.ColorBlue)},
		},
	}}, nil
}

// flatRange widens an axis whose values are all equal, which go-chart cannot
// scale on its own. It returns nil when the values already have a spread.
func flatRange(vals []float64) chart.Range {
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if hi > lo {
		return nil
	}
	pad := math.Max(1, math.Abs(lo)*0.1)
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}
