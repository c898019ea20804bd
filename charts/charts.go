// Package charts builds the exploratory plots of the listings, calendar and
// reviews frames. Every constructor returns a Figure that renders to PNG.
package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	ErrNotEnoughData = errors.New("not enough data to plot")
	ErrMissingColumn = errors.New("missing column")
)

// Figure is a chart ready to be encoded.
type Figure interface {
	WritePNG(w io.Writer) error
}

// renderable is satisfied by go-chart's Chart and BarChart.
type renderable interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

type goChartFigure struct {
	r renderable
}

func (f goChartFigure) WritePNG(w io.Writer) error {
	return f.r.Render(chart.PNG, w)
}

// pointStyle returns a style that renders points only (no connecting line)
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    3,
		DotColor:    col,
	}
}

func padding() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}}
}

func column(df dataframe.DataFrame, name string) ([]float64, error) {
	for _, n := range df.Names() {
		if n == name {
			s := df.Col(name)
			out := make([]float64, s.Len())
			for i := range out {
				if el := s.Elem(i); el.IsNA() {
					out[i] = math.NaN()
				} else {
					out[i] = el.Float()
				}
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
}

func labels(df dataframe.DataFrame, name string) ([]string, error) {
	for _, n := range df.Names() {
		if n == name {
			s := df.Col(name)
			out := make([]string, s.Len())
			for i := range out {
				if el := s.Elem(i); !el.IsNA() {
					out[i] = el.String()
				}
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
}

// sortCategories orders numerically when every category is a number.
func sortCategories(cats []string) {
	numeric := true
	for _, c := range cats {
		if _, err := strconv.ParseFloat(c, 64); err != nil {
			numeric = false
			break
		}
	}
	sort.Slice(cats, func(i, j int) bool {
		if numeric {
			a, _ := strconv.ParseFloat(cats[i], 64)
			b, _ := strconv.ParseFloat(cats[j], 64)
			return a < b
		}
		return cats[i] < cats[j]
	})
}
