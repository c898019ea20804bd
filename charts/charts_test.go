package charts

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbnb-eda/models"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func listings() dataframe.DataFrame {
	return dataframe.New(
		series.New([]string{"Entire home/apt", "Entire home/apt", "Private room", "Private room", "Shared room", "NaN"}, series.String, "room_type"),
		series.New([]string{"2", "4", "1", "2", "1", "3"}, series.String, "accommodates"),
		series.New([]float64{150, 300, 60, 75, 30, 500}, series.Float, "price"),
	)
}

func render(t *testing.T, fig Figure) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, fig.WritePNG(&buf))
	require.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic), "output is a PNG")
	return buf.Bytes()
}

func TestScatter(t *testing.T) {
	fig, err := Scatter(listings(), "price", "accommodates")
	require.NoError(t, err)
	render(t, fig)
}

func TestScatterSkipsMissingPairs(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"1", "NaN", "3"}, series.String, "x"),
		series.New([]float64{10, 20, 30}, series.Float, "y"),
	)
	fig, err := Scatter(df, "y", "x")
	require.NoError(t, err)
	render(t, fig)

	single := dataframe.New(
		series.New([]string{"1", "NaN"}, series.String, "x"),
		series.New([]float64{10, 20}, series.Float, "y"),
	)
	_, err = Scatter(single, "y", "x")
	assert.ErrorIs(t, err, ErrNotEnoughData)
}

func TestScatterConstantAxis(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"2", "2", "2"}, series.String, "accommodates"),
		series.New([]float64{10, 20, 30}, series.Float, "price"),
	)
	fig, err := Scatter(df, "price", "accommodates")
	require.NoError(t, err)
	render(t, fig)

	flat := dataframe.New(
		series.New([]string{"1", "2", "3"}, series.String, "accommodates"),
		series.New([]float64{0, 0, 0}, series.Float, "price"),
	)
	fig, err = Scatter(flat, "price", "accommodates")
	require.NoError(t, err)
	render(t, fig)
}

func TestFlatRange(t *testing.T) {
	assert.Nil(t, flatRange([]float64{1, 2}))

	r := flatRange([]float64{50, 50})
	require.NotNil(t, r)
	assert.Equal(t, 45.0, r.GetMin())
	assert.Equal(t, 55.0, r.GetMax())
}

func TestScatterMissingColumn(t *testing.T) {
	_, err := Scatter(listings(), "price", "bedrooms")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.True(t, strings.Contains(err.Error(), "bedrooms"))
}

func TestBoxPlot(t *testing.T) {
	fig, err := BoxPlot(listings(), "price", "room_type")
	require.NoError(t, err)
	render(t, fig)

	_, err = BoxPlot(dataframe.New(
		series.New([]string{"NaN"}, series.String, "room_type"),
		series.New([]float64{1}, series.Float, "price"),
	), "price", "room_type")
	assert.ErrorIs(t, err, ErrNotEnoughData)
}

func TestSortCategories(t *testing.T) {
	nums := []string{"10", "2", "1"}
	sortCategories(nums)
	assert.Equal(t, []string{"1", "2", "10"}, nums)

	words := []string{"Shared room", "Entire home/apt", "Private room"}
	sortCategories(words)
	assert.Equal(t, []string{"Entire home/apt", "Private room", "Shared room"}, words)
}

func TestMeanBar(t *testing.T) {
	fig, err := MeanBar([]models.GroupStat{
		{Group: "Entire home/apt", Count: 2, Mean: 225},
		{Group: "Private room", Count: 2, Mean: 67.5},
	}, "price", "room_type")
	require.NoError(t, err)
	render(t, fig)

	single, err := MeanBar([]models.GroupStat{{Group: "only", Count: 1, Mean: 10}}, "price", "room_type")
	require.NoError(t, err)
	render(t, single)

	_, err = MeanBar(nil, "price", "room_type")
	assert.ErrorIs(t, err, ErrNotEnoughData)
}

func TestTimeSeries(t *testing.T) {
	start := time.Date(2016, 1, 4, 0, 0, 0, 0, time.UTC)
	var points []models.TimePoint
	for i := 0; i < 30; i++ {
		points = append(points, models.TimePoint{Date: start.AddDate(0, 0, i), Value: float64(i%7) / 7})
	}

	fig, err := TimeSeries(points, "daily occupancy", "occupancy rate")
	require.NoError(t, err)
	render(t, fig)

	_, err = TimeSeries(points[:1], "daily occupancy", "occupancy rate")
	assert.ErrorIs(t, err, ErrNotEnoughData)
}

func TestDateFormatter(t *testing.T) {
	d := time.Date(2016, 3, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2016-03-09", dateFormatter(d))
	assert.Equal(t, "", dateFormatter("x"))
}
