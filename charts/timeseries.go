package charts

import (
	"fmt"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"airbnb-eda/models"
)

// TimeSeries draws points as a line over their dates.
func TimeSeries(points []models.TimePoint, title, yLabel string) (Figure, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("time series %q: %w", title, ErrNotEnoughData)
	}

	xs := make([]time.Time, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p.Date, p.Value
	}

	return goChartFigure{r: chart.Chart{
		Title:      title,
		Background: padding(),
		XAxis:      chart.XAxis{Name: "date", ValueFormatter: dateFormatter},
		YAxis:      chart.YAxis{Name: yLabel},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    yLabel,
				XValues: xs,
				YValues: ys,
				Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 1.5},
			},
		},
	}}, nil
}

func dateFormatter(v interface{}) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format(models.DateLayout)
	case float64:
		return chart.TimeFromFloat64(t).Format(models.DateLayout)
	default:
		return ""
	}
}
