package services

import (
	"fmt"
	"math"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"airbnb-eda/models"
	"airbnb-eda/utils"
)

// Cleaner turns raw exports into typed, analysis-ready frames.
// Every method returns a new frame and leaves its input untouched.
type Cleaner struct {
	logger      *utils.Logger
	dropColumns []string
}

// NewCleaner creates a Cleaner that removes dropColumns from listings.
func NewCleaner(logger *utils.Logger, dropColumns []string) *Cleaner {
	return &Cleaner{logger: logger, dropColumns: dropColumns}
}

// CleanListings drops unused columns, casts currency, percent and flag
// columns, fills missing weekly and monthly prices, and removes duplicate ids.
func (c *Cleaner) CleanListings(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if err := requireColumns(df, models.ColID, models.ColPrice); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("clean listings: %w", err)
	}
	rawRows := df.Nrow()

	df = c.dedupe(df, models.ColID)

	var drop []string
	for _, col := range c.dropColumns {
		if hasColumn(df, col) {
			drop = append(drop, col)
		}
	}
	if len(drop) > 0 {
		df = df.Drop(drop)
		c.logger.Debug("[cleaner] Dropped %d columns: %v", len(drop), drop)
	}

	for _, col := range models.CurrencyColumns {
		if !hasColumn(df, col) {
			continue
		}
		vals, bad := mapFloat(df.Col(col), parseCurrency)
		if bad > 0 {
			c.logger.Warn("[cleaner] %s: %d malformed amounts set to missing", col, bad)
		}
		df = df.Mutate(series.New(vals, series.Float, col))
	}

	for _, col := range models.PercentColumns {
		if !hasColumn(df, col) {
			continue
		}
		vals, _ := mapFloat(df.Col(col), parsePercent)
		df = df.Mutate(series.New(vals, series.Float, col))
	}

	for _, col := range models.FlagColumns {
		if !hasColumn(df, col) {
			continue
		}
		vals, bad := flagColumn(df.Col(col))
		if bad > 0 {
			c.logger.Warn("[cleaner] %s: %d unexpected flag values set to missing", col, bad)
		}
		df = df.Mutate(series.New(vals, series.Bool, col))
	}

	df = fillPrices(df)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("clean listings: %w", df.Err)
	}

	c.logger.Info("[cleaner] Listings cleaned %d → %d rows, %d columns",
		rawRows, df.Nrow(), df.Ncol())
	return df, nil
}

// fillPrices applies weekly = price × 7 and monthly = weekly × 4.34524 where
// the export has no value, creating the columns when absent.
func fillPrices(df dataframe.DataFrame) dataframe.DataFrame {
	price := floats(df.Col(models.ColPrice))

	weekly := make([]float64, len(price))
	if hasColumn(df, models.ColWeeklyPrice) {
		weekly = floats(df.Col(models.ColWeeklyPrice))
	} else {
		for i := range weekly {
			weekly[i] = math.NaN()
		}
	}
	for i, w := range weekly {
		if math.IsNaN(w) {
			weekly[i] = price[i] * models.DaysPerWeek
		}
	}

	monthly := make([]float64, len(price))
	if hasColumn(df, models.ColMonthlyPrice) {
		monthly = floats(df.Col(models.ColMonthlyPrice))
	} else {
		for i := range monthly {
			monthly[i] = math.NaN()
		}
	}
	for i, m := range monthly {
		if math.IsNaN(m) {
			monthly[i] = weekly[i] * models.WeeksPerMonth
		}
	}

	return df.
		Mutate(series.New(weekly, series.Float, models.ColWeeklyPrice)).
		Mutate(series.New(monthly, series.Float, models.ColMonthlyPrice))
}

// flagColumn maps t/f strings to "true"/"false", anything else to missing.
func flagColumn(s series.Series) ([]string, int) {
	out := make([]string, s.Len())
	bad := 0
	for i := range out {
		el := s.Elem(i)
		if el.IsNA() {
			out[i] = "NaN"
			continue
		}
		b, ok := parseFlag(el.String())
		switch {
		case !ok:
			bad++
			out[i] = "NaN"
		case b:
			out[i] = "true"
		default:
			out[i] = "false"
		}
	}
	return out, bad
}

// CleanCalendar casts availability to bool, price to float, validates dates
// and adds a 0/1 booked column. An availability value other than t/f is an
// error.
func (c *Cleaner) CleanCalendar(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if err := requireColumns(df, models.ColListingID, models.ColDate, models.ColAvailable); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("clean calendar: %w", err)
	}

	if err := validateDates(df.Col(models.ColDate)); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("clean calendar: %w", err)
	}

	avail := df.Col(models.ColAvailable)
	flags := make([]bool, avail.Len())
	booked := make([]int, avail.Len())
	for i := range flags {
		el := avail.Elem(i)
		raw := ""
		if !el.IsNA() {
			raw = el.String()
		}
		b, ok := parseFlag(raw)
		if !ok {
			return dataframe.DataFrame{}, fmt.Errorf("clean calendar: row %d: %w %q", i+1, ErrInvalidFlag, raw)
		}
		flags[i] = b
		if !b {
			booked[i] = 1
		}
	}

	df = df.
		Mutate(series.New(flags, series.Bool, models.ColAvailable)).
		Mutate(series.New(booked, series.Int, models.ColBooked))

	if hasColumn(df, models.ColPrice) {
		vals, bad := mapFloat(df.Col(models.ColPrice), parseCurrency)
		if bad > 0 {
			c.logger.Warn("[cleaner] calendar price: %d malformed amounts set to missing", bad)
		}
		df = df.Mutate(series.New(vals, series.Float, models.ColPrice))
	}
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("clean calendar: %w", df.Err)
	}

	c.logger.Info("[cleaner] Calendar cleaned: %d rows", df.Nrow())
	return df, nil
}

// CleanReviews validates review dates and drops duplicate review ids.
func (c *Cleaner) CleanReviews(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if err := requireColumns(df, models.ColListingID, models.ColDate); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("clean reviews: %w", err)
	}
	if err := validateDates(df.Col(models.ColDate)); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("clean reviews: %w", err)
	}

	rawRows := df.Nrow()
	if hasColumn(df, models.ColReviewID) {
		df = c.dedupe(df, models.ColReviewID)
	}

	c.logger.Info("[cleaner] Reviews cleaned %d → %d rows", rawRows, df.Nrow())
	return df, nil
}

// dedupe keeps the first row for every value of col. Rows with a missing
// key are kept.
func (c *Cleaner) dedupe(df dataframe.DataFrame, col string) dataframe.DataFrame {
	seen := utils.NewKeySet()
	ids := df.Col(col)
	keep := make([]int, 0, ids.Len())

	for i := 0; i < ids.Len(); i++ {
		el := ids.Elem(i)
		if el.IsNA() || seen.Add(el.String()) {
			keep = append(keep, i)
			continue
		}
		c.logger.Debug("[cleaner] Duplicate %s skipped: %s", col, el.String())
	}

	if len(keep) == ids.Len() {
		return df
	}
	c.logger.Info("[cleaner] %s: %d duplicate rows dropped, %d unique keys kept",
		col, ids.Len()-len(keep), seen.Size())
	return df.Subset(keep)
}

func validateDates(s series.Series) error {
	for i := 0; i < s.Len(); i++ {
		el := s.Elem(i)
		if el.IsNA() {
			return fmt.Errorf("row %d: %w: empty", i+1, ErrInvalidDate)
		}
		if _, err := time.Parse(models.DateLayout, el.String()); err != nil {
			return fmt.Errorf("row %d: %w %q", i+1, ErrInvalidDate, el.String())
		}
	}
	return nil
}
