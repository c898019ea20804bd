package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"airbnb-eda/models"
)

// GroupMean groups df by column and aggregates kpi per group, ignoring
// missing values. Rows with a missing group key are left out, as are groups
// with no kpi value. Result is ordered by mean descending, then group name.
func GroupMean(df dataframe.DataFrame, kpi, column string) ([]models.GroupStat, error) {
	if err := requireColumns(df, kpi, column); err != nil {
		return nil, fmt.Errorf("group mean: %w", err)
	}

	groups := keys(df.Col(column))
	values := floats(df.Col(kpi))

	byGroup := make(map[string]*models.GroupStat)
	sums := make(map[string]float64)
	for i, g := range groups {
		v := values[i]
		if g == "" || math.IsNaN(v) {
			continue
		}
		st, ok := byGroup[g]
		if !ok {
			st = &models.GroupStat{Group: g, Min: v, Max: v}
			byGroup[g] = st
		}
		st.Count++
		sums[g] += v
		st.Min = math.Min(st.Min, v)
		st.Max = math.Max(st.Max, v)
	}

	out := make([]models.GroupStat, 0, len(byGroup))
	for g, st := range byGroup {
		st.Mean = sums[g] / float64(st.Count)
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Mean != out[j].Mean {
			return out[i].Mean > out[j].Mean
		}
		return out[i].Group < out[j].Group
	})
	return out, nil
}

// GroupCount counts rows per value of column, most common first.
func GroupCount(df dataframe.DataFrame, column string) ([]models.GroupStat, error) {
	if err := requireColumns(df, column); err != nil {
		return nil, fmt.Errorf("group count: %w", err)
	}

	counts := make(map[string]int)
	for _, g := range keys(df.Col(column)) {
		if g != "" {
			counts[g]++
		}
	}

	out := make([]models.GroupStat, 0, len(counts))
	for g, n := range counts {
		out = append(out, models.GroupStat{Group: g, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Group < out[j].Group
	})
	return out, nil
}

// GroupFrame lays group statistics out as a frame for writing.
func GroupFrame(stats []models.GroupStat, column string) dataframe.DataFrame {
	groups := make([]string, len(stats))
	counts := make([]int, len(stats))
	means := make([]float64, len(stats))
	mins := make([]float64, len(stats))
	maxs := make([]float64, len(stats))
	for i, s := range stats {
		groups[i], counts[i], means[i], mins[i], maxs[i] = s.Group, s.Count, s.Mean, s.Min, s.Max
	}
	return dataframe.New(
		series.New(groups, series.String, column),
		series.New(counts, series.Int, "count"),
		series.New(means, series.Float, "mean"),
		series.New(mins, series.Float, "min"),
		series.New(maxs, series.Float, "max"),
	)
}
