package charts

import (
	"fmt"
	"io"
	"math"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

type gonumFigure struct {
	p             *plot.Plot
	width, height vg.Length
}

func (f gonumFigure) WritePNG(w io.Writer) error {
	wt, err := f.p.WriterTo(f.width, f.height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// BoxPlot draws the distribution of kpi for each category of col,
// categories ascending along the x-axis.
func BoxPlot(df dataframe.DataFrame, kpi, col string) (Figure, error) {
	cats, err := labels(df, col)
	if err != nil {
		return nil, fmt.Errorf("box plot: %w", err)
	}
	ys, err := column(df, kpi)
	if err != nil {
		return nil, fmt.Errorf("box plot: %w", err)
	}

	groups := make(map[string]plotter.Values)
	for i, c := range cats {
		if c == "" || math.IsNaN(ys[i]) {
			continue
		}
		groups[c] = append(groups[c], ys[i])
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("box plot %s by %s: %w", kpi, col, ErrNotEnoughData)
	}

	names := make([]string, 0, len(groups))
	for c := range groups {
		names = append(names, c)
	}
	sortCategories(names)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s by %s", kpi, col)
	p.X.Label.Text = col
	p.Y.Label.Text = kpi

	for i, name := range names {
		box, err := plotter.NewBoxPlot(vg.Points(20), float64(i), groups[name])
		if err != nil {
			return nil, fmt.Errorf("box plot %q: %w", name, err)
		}
		p.Add(box)
	}
	p.NominalX(names...)

	width := vg.Length(math.Max(6, 0.8*float64(len(names)))) * vg.Inch
	return gonumFigure{p: p, width: width, height: 5 * vg.Inch}, nil
}
