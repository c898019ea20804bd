package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"airbnb-eda/config"
	"airbnb-eda/models"
	"airbnb-eda/storage"
	"airbnb-eda/utils"
)

const listingsCSV = `id,listing_url,name,neighbourhood_cleansed,room_type,accommodates,price,weekly_price,monthly_price
241032,https://www.airbnb.com/rooms/241032,Stylish Queen Anne Apartment,West Queen Anne,Entire home/apt,4,$85.00,,
953595,https://www.airbnb.com/rooms/953595,Bright & Airy Queen Anne Chalet,West Queen Anne,Entire home/apt,4,$150.00,"$1,000.00","$3,000.00"
3308979,https://www.airbnb.com/rooms/3308979,New Modern House,Fremont,Entire home/apt,11,$975.00,,
7421966,https://www.airbnb.com/rooms/7421966,Queen Anne Chateau,Fremont,Private room,2,$100.00,,
`

const calendarCSV = `listing_id,date,available,price
241032,2016-01-04,t,$85.00
241032,2016-01-05,f,
953595,2016-01-04,f,
953595,2016-01-05,f,
`

const reviewsCSV = `listing_id,id,date,reviewer_id,comments
241032,1,2015-07-19,100,great
241032,2,2015-08-01,101,nice
953595,3,2015-08-20,102,ok
`

func testApp(t *testing.T, withCalendar bool) (*app, *config.Config, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}

	out := filepath.Join(dir, "output")
	cfg := &config.Config{
		ListingsCSV:    write("listings.csv", listingsCSV),
		CalendarCSV:    filepath.Join(dir, "missing_calendar.csv"),
		ReviewsCSV:     write("reviews.csv", reviewsCSV),
		OutputDir:      out,
		ChartOutputDir: filepath.Join(out, "charts"),
		XLSXOutputPath: filepath.Join(out, "summary.xlsx"),
		DropColumns:    []string{"listing_url"},
		MaxConcurrency: 2,
		MaxRetries:     1,
	}
	if withCalendar {
		cfg.CalendarCSV = write("calendar.csv", calendarCSV)
	}

	a := newApp(cfg, utils.NewLoggerTo(io.Discard, utils.LevelError))
	var buf bytes.Buffer
	a.out = &buf
	return a, cfg, &buf
}

func TestLoadMergesOccupancy(t *testing.T) {
	a, _, _ := testApp(t, true)

	ds, err := a.load()
	require.NoError(t, err)

	assert.True(t, ds.hasCalendar)
	assert.True(t, ds.hasReviews)
	assert.Len(t, ds.occupancy, 2)
	assert.Contains(t, ds.listings.Names(), "occupancy_rate")
	assert.NotContains(t, ds.listings.Names(), "listing_url")
}

func TestLoadWithoutCalendar(t *testing.T) {
	a, _, _ := testApp(t, false)

	ds, err := a.load()
	require.NoError(t, err)
	assert.False(t, ds.hasCalendar)
	assert.Empty(t, ds.occupancy)

	_, err = a.figure(ds, "occupancy", "", "", "")
	assert.Error(t, err)
}

func TestRunPlotWritesPNG(t *testing.T) {
	a, cfg, _ := testApp(t, true)

	require.NoError(t, a.runPlot([]string{"-kind", "box", "-kpi", "price", "-column", "room_type"}))
	assert.FileExists(t, filepath.Join(cfg.ChartOutputDir, "box_price_by_room_type.png"))

	require.NoError(t, a.runPlot([]string{"-kind", "bar", "-column", "neighbourhood_cleansed", "-name", "hoods"}))
	assert.FileExists(t, filepath.Join(cfg.ChartOutputDir, "hoods.png"))

	assert.Error(t, a.runPlot([]string{"-kind", "pie"}))
}

func TestRunOccupancy(t *testing.T) {
	a, cfg, _ := testApp(t, true)

	require.NoError(t, a.runOccupancy(nil))
	body, err := os.ReadFile(filepath.Join(cfg.OutputDir, "occupancy.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "953595,2,2,")
}

func TestReport(t *testing.T) {
	a, cfg, printed := testApp(t, true)

	require.NoError(t, a.runReport(context.Background(), nil))

	for _, name := range []string{"listings_clean.csv", "calendar_clean.csv", "reviews_clean.csv", "occupancy.csv"} {
		assert.FileExists(t, filepath.Join(cfg.OutputDir, name))
	}
	for _, name := range []string{
		"scatter_price_by_accommodates.png",
		"box_price_by_room_type.png",
		"bar_price_by_room_type.png",
		"occupancy_by_date.png",
		"reviews_per_month.png",
	} {
		assert.FileExists(t, filepath.Join(cfg.ChartOutputDir, name))
	}

	wb, err := excelize.OpenFile(cfg.XLSXOutputPath)
	require.NoError(t, err)
	defer wb.Close()
	assert.Contains(t, wb.GetSheetList(), "listings")
	assert.Contains(t, wb.GetSheetList(), "occupancy")

	assert.Contains(t, printed.String(), "LISTINGS EXPLORATORY SUMMARY")
	assert.Contains(t, printed.String(), "New Modern House")
}

func TestChartName(t *testing.T) {
	assert.Equal(t, "scatter_price_by_accommodates", chartName("scatter", "price", "accommodates", "month"))
	assert.Equal(t, "reviews_per_day", chartName("reviews", "", "", "day"))
	assert.Equal(t, "price_by_date", chartName("price", "", "", "month"))
}

type recordingFrameWriter struct {
	names  []string
	closed bool
	fail   error
}

func (w *recordingFrameWriter) WriteFrame(name string, _ dataframe.DataFrame) error {
	if w.fail != nil {
		return w.fail
	}
	w.names = append(w.names, name)
	return nil
}

func (w *recordingFrameWriter) Close() error {
	w.closed = true
	return nil
}

func TestWriteTablesSkipsFailedBuilds(t *testing.T) {
	a, _, _ := testApp(t, false)
	df := dataframe.New(series.New([]string{"1"}, series.String, "id"))

	w := &recordingFrameWriter{}
	err := a.writeTables(w, []table{
		frameTable("listings", df),
		{"broken", func() (dataframe.DataFrame, error) { return dataframe.DataFrame{}, errors.New("no such column") }},
		frameTable("counts", df),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"listings", "counts"}, w.names)
	assert.True(t, w.closed)

	boom := errors.New("disk full")
	failing := &recordingFrameWriter{fail: boom}
	err = a.writeTables(failing, []table{frameTable("listings", df)})
	assert.ErrorIs(t, err, boom)
	assert.True(t, failing.closed, "writer closed on error")
}

type memoryStore struct {
	stored []*models.ListingSummary
	occ    []models.Occupancy
	closed bool
}

func (m *memoryStore) Write(listings []*models.ListingSummary, occ []models.Occupancy) error {
	m.stored, m.occ = listings, occ
	return nil
}

func (m *memoryStore) FetchAll() ([]*models.ListingSummary, error) { return m.stored, nil }

func (m *memoryStore) Close() error {
	m.closed = true
	return nil
}

func TestPersistUsesListingStore(t *testing.T) {
	a, cfg, _ := testApp(t, true)
	store := &memoryStore{}
	opened := 0
	a.openStore = func(context.Context) (storage.ListingWriter, error) {
		opened++
		return store, nil
	}

	listings := []*models.ListingSummary{{ID: "241032", Price: 85}}
	occ := []models.Occupancy{{ListingID: "241032", Days: 2, BookedDays: 1, Rate: 0.5}}

	got, err := a.persist(context.Background(), listings, occ)
	require.NoError(t, err)
	assert.Nil(t, got, "disabled store is never opened")
	assert.Zero(t, opened)

	cfg.PostgresEnabled = true
	got, err = a.persist(context.Background(), listings, occ)
	require.NoError(t, err)
	assert.Equal(t, listings, got)
	assert.Equal(t, occ, store.occ)
	assert.True(t, store.closed)

	a.openStore = func(context.Context) (storage.ListingWriter, error) {
		return nil, errors.New("connection refused")
	}
	_, err = a.persist(context.Background(), listings, occ)
	assert.Error(t, err)
}
