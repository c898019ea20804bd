package services

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var (
	// amountRegexp matches a whole amount once symbols and separators are gone
	amountRegexp = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)

	currencyStripper = strings.NewReplacer("$", "", ",", "", " ", "", "\t", "")
)

// parseAmount reads s as a plain decimal number. Anything else, including
// trailing text or a second decimal point, is rejected.
func parseAmount(s string) (float64, bool) {
	if !amountRegexp.MatchString(s) {
		return 0, false
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return val, true
}

// parseCurrency turns "$1,200.00" into 1200 and "-$5.00" into -5. ok is
// false for empty or malformed input.
func parseCurrency(raw string) (float64, bool) {
	return parseAmount(currencyStripper.Replace(strings.TrimSpace(raw)))
}

// parsePercent turns "96%" into 0.96.
func parsePercent(raw string) (float64, bool) {
	cleaned := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	val, ok := parseAmount(cleaned)
	if !ok {
		return 0, false
	}
	return val / 100, true
}

// parseFlag reads the exports' "t"/"f" booleans.
func parseFlag(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "t", "true":
		return true, true
	case "f", "false":
		return false, true
	default:
		return false, false
	}
}

func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

func requireColumns(df dataframe.DataFrame, names ...string) error {
	for _, n := range names {
		if !hasColumn(df, n) {
			return fmt.Errorf("%w: %q", ErrMissingColumn, n)
		}
	}
	return nil
}

// mapFloat converts every element of s with parse; missing or unparsable
// elements become NaN. It returns the number of unparsable non-missing values.
func mapFloat(s series.Series, parse func(string) (float64, bool)) ([]float64, int) {
	out := make([]float64, s.Len())
	bad := 0
	for i := range out {
		el := s.Elem(i)
		if el.IsNA() {
			out[i] = math.NaN()
			continue
		}
		v, ok := parse(el.String())
		if !ok {
			bad++
			v = math.NaN()
		}
		out[i] = v
	}
	return out, bad
}

// floats returns s as float64 values; anything that does not read as a
// number is NaN.
func floats(s series.Series) []float64 {
	out := make([]float64, s.Len())
	for i := range out {
		el := s.Elem(i)
		if el.IsNA() {
			out[i] = math.NaN()
			continue
		}
		out[i] = el.Float()
	}
	return out
}

// keys returns s as strings with missing elements as "".
func keys(s series.Series) []string {
	out := make([]string, s.Len())
	for i := range out {
		if el := s.Elem(i); !el.IsNA() {
			out[i] = el.String()
		}
	}
	return out
}

// lessID orders listing ids numerically when both are integers.
func lessID(a, b string) bool {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
