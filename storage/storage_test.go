package storage

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const listingsCSV = `id,name,price,weekly_price
241032,Stylish Queen Anne Apartment,$85.00,
953595,Bright & Airy Queen Anne,"$1,200.00","$7,000.00"
`

func TestReadCSVKeepsStrings(t *testing.T) {
	df, err := ReadCSV(strings.NewReader(listingsCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "price", "weekly_price"}, df.Names())
	assert.Equal(t, 2, df.Nrow())
	for _, n := range df.Names() {
		assert.Equal(t, series.String, df.Col(n).Type(), n)
	}
	assert.Equal(t, "$1,200.00", df.Col("price").Elem(1).String())
	assert.True(t, df.Col("weekly_price").Elem(0).IsNA(), "empty cell is missing")
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCSVWriterRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w, err := NewCSVWriter(dir)
	require.NoError(t, err)

	df := dataframe.New(
		series.New([]string{"1", "2"}, series.String, "listing_id"),
		series.New([]float64{0.5, 0.25}, series.Float, "occupancy_rate"),
		series.New([]float64{1000 * 4.34524, math.NaN()}, series.Float, "monthly_price"),
	)
	require.NoError(t, w.WriteFrame("occupancy", df))
	require.NoError(t, w.Close())

	back, err := LoadCSV(w.Path("occupancy"))
	require.NoError(t, err)
	assert.Equal(t, []string{"listing_id", "occupancy_rate", "monthly_price"}, back.Names())
	assert.Equal(t, []string{"0.5", "0.25"}, back.Col("occupancy_rate").Records())

	monthly := back.Col("monthly_price")
	assert.Equal(t, strconv.FormatFloat(1000*4.34524, 'f', -1, 64), monthly.Elem(0).String())
	assert.Equal(t, 1000*4.34524, monthly.Elem(0).Float())
	assert.True(t, monthly.Elem(1).IsNA())
	assert.Equal(t, series.Float, df.Col("monthly_price").Type(), "input frame untouched")
}

func TestXLSXWriterSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book", "summary.xlsx")
	w, err := NewXLSXWriter(path)
	require.NoError(t, err)

	occ := dataframe.New(
		series.New([]string{"1", "2"}, series.String, "listing_id"),
		series.New([]float64{0.5, math.NaN()}, series.Float, "occupancy_rate"),
		series.New([]int{10, 4}, series.Int, "days"),
	)
	require.NoError(t, w.WriteFrame("occupancy", occ))
	require.NoError(t, w.WriteFrame("a-very-long-sheet-name-that-excel-rejects", occ))
	require.NoError(t, w.WriteFrame("a-very-long-sheet-name-that-excel-rejects-again", occ))
	require.NoError(t, w.WriteFrame("OCCUPANCY", occ))
	require.NoError(t, w.WriteFrame("prix moyen par quartier résidentiel", occ))
	require.NoError(t, w.WriteFrame("price/night [usd]", occ))
	require.NoError(t, w.Close())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		"occupancy",
		"a-very-long-sheet-name-that-exc",
		"a-very-long-sheet-name-that-e~2",
		"OCCUPANCY~2",
		"prix moyen par quartier résiden",
		"price_night _usd_",
	}, f.GetSheetList())
	for _, name := range f.GetSheetList() {
		assert.True(t, utf8.ValidString(name), name)
		assert.LessOrEqual(t, utf8.RuneCountInString(name), maxSheetName, name)
	}

	rows, err := f.GetRows("occupancy")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"listing_id", "occupancy_rate", "days"}, rows[0])
	assert.Equal(t, []string{"1", "0.5", "10"}, rows[1])
	assert.Equal(t, []string{"2", "", "4"}, rows[2])
}

type fakeFigure struct {
	payload []byte
	err     error
}

func (f fakeFigure) WritePNG(w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := w.Write(f.payload)
	return err
}

func TestSavePNG(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")

	path, err := SavePNG(dir, "scatter_price", fakeFigure{payload: []byte("\x89PNG")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "scatter_price.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestSavePNGRenderError(t *testing.T) {
	boom := errors.New("boom")
	_, err := SavePNG(t.TempDir(), "broken.png", fakeFigure{err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "($1,$2,$3)", placeholders(0, 3))
	assert.Equal(t, "($9,$10)", placeholders(8, 2))
}

func TestNullFloat(t *testing.T) {
	assert.False(t, nullFloat(math.NaN()).Valid)
	v := nullFloat(85)
	assert.True(t, v.Valid)
	assert.Equal(t, 85.0, v.Float64)
	assert.True(t, math.IsNaN(floatOrNaN(nullFloat(math.NaN()))))
}
