package services

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"airbnb-eda/models"
	"airbnb-eda/utils"
)

const topN = 5

// Summaries extracts the report fields from a cleaned listings frame.
// Optional columns that are absent read as empty strings or NaN.
func Summaries(df dataframe.DataFrame) ([]*models.ListingSummary, error) {
	if err := requireColumns(df, models.ColID, models.ColPrice); err != nil {
		return nil, fmt.Errorf("summaries: %w", err)
	}

	n := df.Nrow()
	text := func(col string) []string {
		if !hasColumn(df, col) {
			return make([]string, n)
		}
		return keys(df.Col(col))
	}
	number := func(col string) []float64 {
		if !hasColumn(df, col) {
			out := make([]float64, n)
			for i := range out {
				out[i] = math.NaN()
			}
			return out
		}
		return floats(df.Col(col))
	}

	neighbourhood := text(models.ColNeighbourhood)
	if !hasColumn(df, models.ColNeighbourhood) {
		neighbourhood = text("neighbourhood")
	}

	ids, names, rooms := text(models.ColID), text(models.ColName), text(models.ColRoomType)
	price, weekly, monthly := number(models.ColPrice), number(models.ColWeeklyPrice), number(models.ColMonthlyPrice)
	occ := number(models.ColOccupancyRate)

	out := make([]*models.ListingSummary, n)
	for i := range out {
		out[i] = &models.ListingSummary{
			ID:            ids[i],
			Name:          names[i],
			Neighbourhood: neighbourhood[i],
			RoomType:      rooms[i],
			Price:         price[i],
			WeeklyPrice:   weekly[i],
			MonthlyPrice:  monthly[i],
			OccupancyRate: occ[i],
		}
	}
	return out, nil
}

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes the headline statistics of the cleaned dataset.
func (s *InsightService) Generate(listings []*models.ListingSummary, occupancy []models.Occupancy) *models.InsightReport {
	report := &models.InsightReport{
		ListingsByNeighbourhood: make(map[string]int),
	}

	report.CalendarListings = len(occupancy)
	if len(occupancy) > 0 {
		var total float64
		for _, o := range occupancy {
			total += o.Rate
		}
		report.AverageOccupancy = round2(total / float64(len(occupancy)))
	}

	if len(listings) == 0 {
		return report
	}
	report.TotalListings = len(listings)

	var prices []float64
	var withOccupancy []*models.ListingSummary
	for _, l := range listings {
		if l.Price > 0 {
			prices = append(prices, l.Price)
			if report.MostExpensive == nil || l.Price > report.MostExpensive.Price {
				report.MostExpensive = l
			}
		}
		if !math.IsNaN(l.OccupancyRate) {
			withOccupancy = append(withOccupancy, l)
		}
		if l.Neighbourhood != "" {
			report.ListingsByNeighbourhood[l.Neighbourhood]++
		}
	}

	// Price stats (only listings with price > 0)
	if len(prices) > 0 {
		report.PricedListings = len(prices)
		sort.Float64s(prices)
		var total float64
		for _, p := range prices {
			total += p
		}
		report.AveragePrice = round2(total / float64(len(prices)))
		report.MinPrice = round2(prices[0])
		report.MaxPrice = round2(prices[len(prices)-1])
		report.MedianPrice = round2(median(prices))
	}

	sort.SliceStable(withOccupancy, func(i, j int) bool {
		return withOccupancy[i].OccupancyRate > withOccupancy[j].OccupancyRate
	})
	if len(withOccupancy) > topN {
		withOccupancy = withOccupancy[:topN]
	}
	report.BusiestListings = withOccupancy

	s.logger.Debug("[insights] %d listings, %d priced, %d with occupancy",
		report.TotalListings, report.PricedListings, report.CalendarListings)
	return report
}

// median expects sorted input.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Print renders r for a terminal.
func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	p := message.NewPrinter(language.English)
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	p.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	p.Fprintf(w, "\033[1;35m  📊 LISTINGS EXPLORATORY SUMMARY\033[0m\n")
	p.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	p.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	p.Fprintf(w, "  %s\n", thin)
	p.Fprintf(w, "  Listings               : \033[1m%d\033[0m\n", r.TotalListings)
	p.Fprintf(w, "  Listings with a price  : \033[1m%d\033[0m\n", r.PricedListings)
	p.Fprintf(w, "  Listings in calendar   : \033[1m%d\033[0m\n", r.CalendarListings)
	fmt.Fprintln(w)

	// Price Stats
	p.Fprintf(w, "\033[1;33m  Price Statistics (per night)\033[0m\n")
	p.Fprintf(w, "  %s\n", thin)
	if r.PricedListings > 0 {
		p.Fprintf(w, "  Average price : \033[1;32m$%.2f\033[0m\n", r.AveragePrice)
		p.Fprintf(w, "  Median price  : \033[1;32m$%.2f\033[0m\n", r.MedianPrice)
		p.Fprintf(w, "  Minimum price : \033[1;32m$%.2f\033[0m\n", r.MinPrice)
		p.Fprintf(w, "  Maximum price : \033[1;32m$%.2f\033[0m\n", r.MaxPrice)
	} else {
		p.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	if r.MostExpensive != nil {
		p.Fprintf(w, "\033[1;33m  Most Expensive Listing\033[0m\n")
		p.Fprintf(w, "  %s\n", thin)
		p.Fprintf(w, "  %s\n", truncate(r.MostExpensive.Name, 50))
		p.Fprintf(w, "  Neighbourhood : %s\n", r.MostExpensive.Neighbourhood)
		p.Fprintf(w, "  Price         : \033[1;31m$%.2f/night\033[0m\n", r.MostExpensive.Price)
		fmt.Fprintln(w)
	}

	p.Fprintf(w, "\033[1;33m  Occupancy\033[0m\n")
	p.Fprintf(w, "  %s\n", thin)
	if r.CalendarListings == 0 {
		p.Fprintf(w, "  No calendar data\n")
	} else {
		p.Fprintf(w, "  Average occupancy rate : \033[1m%.0f%%\033[0m\n", r.AverageOccupancy*100)
		for i, l := range r.BusiestListings {
			p.Fprintf(w, "  \033[1m%d.\033[0m %-40s \033[1;32m%5.1f%%\033[0m\n",
				i+1, truncate(l.Name, 38), l.OccupancyRate*100)
		}
	}
	fmt.Fprintln(w)

	p.Fprintf(w, "\033[1;33m  Listings by Neighbourhood (top %d)\033[0m\n", topN)
	p.Fprintf(w, "  %s\n", thin)
	if len(r.ListingsByNeighbourhood) == 0 {
		p.Fprintf(w, "  No neighbourhood data\n")
	} else {
		for _, nc := range topNeighbourhoods(r.ListingsByNeighbourhood, topN) {
			bar := strings.Repeat("█", scaleBar(nc.Count, r.TotalListings, 20))
			p.Fprintf(w, "  %-30s %s (%d)\n", truncate(nc.Group, 28), bar, nc.Count)
		}
	}

	p.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

// topNeighbourhoods sorts by count descending, then name.
func topNeighbourhoods(counts map[string]int, n int) []models.GroupStat {
	out := make([]models.GroupStat, 0, len(counts))
	for g, c := range counts {
		out = append(out, models.GroupStat{Group: g, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Group < out[j].Group
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func scaleBar(count, total, width int) int {
	if total == 0 {
		return 0
	}
	if w := count * width / total; w > 0 {
		return w
	}
	return 1
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
