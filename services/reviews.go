package services

import (
	"fmt"
	"time"

	"github.com/go-gota/gota/dataframe"

	"airbnb-eda/models"
)

// Review count buckets.
const (
	PeriodDay   = "day"
	PeriodMonth = "month"
)

// ReviewCounts counts reviews per day or per calendar month (bucketed on the
// first of the month), ascending by date.
func ReviewCounts(reviews dataframe.DataFrame, period string) ([]models.TimePoint, error) {
	if period != PeriodDay && period != PeriodMonth {
		return nil, fmt.Errorf("review counts: %w %q", ErrInvalidPeriod, period)
	}
	if err := requireColumns(reviews, models.ColDate); err != nil {
		return nil, fmt.Errorf("review counts: %w", err)
	}

	dates := reviews.Col(models.ColDate)
	counts := make(map[time.Time]int)
	for i := 0; i < dates.Len(); i++ {
		d, err := time.Parse(models.DateLayout, dates.Elem(i).String())
		if err != nil {
			return nil, fmt.Errorf("review counts: row %d: %w %q", i+1, ErrInvalidDate, dates.Elem(i).String())
		}
		if period == PeriodMonth {
			d = time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		}
		counts[d]++
	}

	out := make([]models.TimePoint, 0, len(counts))
	for d, n := range counts {
		out = append(out, models.TimePoint{Date: d, Value: float64(n)})
	}
	sortPoints(out)
	return out, nil
}
