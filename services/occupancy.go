package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"airbnb-eda/models"
)

// Occupancy computes, per listing, the fraction of calendar days marked
// unavailable. calendar must come from CleanCalendar.
func Occupancy(calendar dataframe.DataFrame) ([]models.Occupancy, error) {
	if err := requireColumns(calendar, models.ColListingID, models.ColBooked); err != nil {
		return nil, fmt.Errorf("occupancy: %w", err)
	}

	ids := keys(calendar.Col(models.ColListingID))
	booked, err := calendar.Col(models.ColBooked).Int()
	if err != nil {
		return nil, fmt.Errorf("occupancy: booked column: %w", err)
	}

	byID := make(map[string]*models.Occupancy)
	for i, id := range ids {
		o, ok := byID[id]
		if !ok {
			o = &models.Occupancy{ListingID: id}
			byID[id] = o
		}
		o.Days++
		o.BookedDays += booked[i]
	}

	out := make([]models.Occupancy, 0, len(byID))
	for _, o := range byID {
		o.Rate = float64(o.BookedDays) / float64(o.Days)
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[i].ListingID, out[j].ListingID) })
	return out, nil
}

// OccupancyFrame lays occupancy out as a frame for writing.
func OccupancyFrame(occ []models.Occupancy) dataframe.DataFrame {
	ids := make([]string, len(occ))
	days := make([]int, len(occ))
	booked := make([]int, len(occ))
	rates := make([]float64, len(occ))
	for i, o := range occ {
		ids[i], days[i], booked[i], rates[i] = o.ListingID, o.Days, o.BookedDays, o.Rate
	}
	return dataframe.New(
		series.New(ids, series.String, models.ColListingID),
		series.New(days, series.Int, "days"),
		series.New(booked, series.Int, "booked_days"),
		series.New(rates, series.Float, models.ColOccupancyRate),
	)
}

// MergeOccupancy adds an occupancy_rate column to listings keyed on id.
// Listings without calendar rows get NaN.
func MergeOccupancy(listings dataframe.DataFrame, occ []models.Occupancy) (dataframe.DataFrame, error) {
	if err := requireColumns(listings, models.ColID); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("merge occupancy: %w", err)
	}

	rates := make(map[string]float64, len(occ))
	for _, o := range occ {
		rates[o.ListingID] = o.Rate
	}

	ids := keys(listings.Col(models.ColID))
	col := make([]float64, len(ids))
	for i, id := range ids {
		if r, ok := rates[id]; ok {
			col[i] = r
		} else {
			col[i] = math.NaN()
		}
	}
	return listings.Mutate(series.New(col, series.Float, models.ColOccupancyRate)), nil
}

// DailyOccupancy returns, per calendar date, the fraction of listings booked.
func DailyOccupancy(calendar dataframe.DataFrame) ([]models.TimePoint, error) {
	if err := requireColumns(calendar, models.ColDate, models.ColBooked); err != nil {
		return nil, fmt.Errorf("daily occupancy: %w", err)
	}
	booked := floats(calendar.Col(models.ColBooked))
	return meanByDate(calendar.Col(models.ColDate), booked)
}

// AveragePriceByDate returns, per calendar date, the mean of the prices that
// are present. Dates with no price at all are left out.
func AveragePriceByDate(calendar dataframe.DataFrame) ([]models.TimePoint, error) {
	if err := requireColumns(calendar, models.ColDate, models.ColPrice); err != nil {
		return nil, fmt.Errorf("average price: %w", err)
	}
	return meanByDate(calendar.Col(models.ColDate), floats(calendar.Col(models.ColPrice)))
}

func meanByDate(dates series.Series, values []float64) ([]models.TimePoint, error) {
	type acc struct {
		sum float64
		n   int
	}
	byDay := make(map[time.Time]*acc)

	for i := 0; i < dates.Len(); i++ {
		if math.IsNaN(values[i]) {
			continue
		}
		d, err := time.Parse(models.DateLayout, dates.Elem(i).String())
		if err != nil {
			return nil, fmt.Errorf("row %d: %w %q", i+1, ErrInvalidDate, dates.Elem(i).String())
		}
		a, ok := byDay[d]
		if !ok {
			a = &acc{}
			byDay[d] = a
		}
		a.sum += values[i]
		a.n++
	}

	out := make([]models.TimePoint, 0, len(byDay))
	for d, a := range byDay {
		out = append(out, models.TimePoint{Date: d, Value: a.sum / float64(a.n)})
	}
	sortPoints(out)
	return out, nil
}

func sortPoints(points []models.TimePoint) {
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
}

// PointsFrame turns a time series into a two-column frame (date, valueName)
// for export.
func PointsFrame(points []models.TimePoint, valueName string) dataframe.DataFrame {
	dates := make([]string, len(points))
	values := make([]float64, len(points))
	for i, p := range points {
		dates[i] = p.Date.Format(models.DateLayout)
		values[i] = p.Value
	}
	return dataframe.New(
		series.New(dates, series.String, models.ColDate),
		series.New(values, series.Float, valueName),
	)
}
