package storage

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// nanValues are read as missing. The exports leave missing cells empty.
var nanValues = []string{"", "NA", "NaN", "<nil>"}

// LoadCSV reads an export into a frame whose columns are all strings, so the
// cleaning pipeline decides every cast itself.
func LoadCSV(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	df, err := ReadCSV(f)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("csv: %q: %w", path, err)
	}
	return df, nil
}

// ReadCSV is LoadCSV over an arbitrary reader.
func ReadCSV(r io.Reader) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nanValues),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("parse: %w", df.Err)
	}
	return df, nil
}

// CSVWriter writes derived frames as <dir>/<name>.csv.
// It is safe for concurrent use.
type CSVWriter struct {
	mu  sync.Mutex
	dir string
}

// NewCSVWriter creates the output directory if needed.
func NewCSVWriter(dir string) (*CSVWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	return &CSVWriter{dir: dir}, nil
}

// Path returns the file a frame called name is written to.
func (c *CSVWriter) Path(name string) string {
	return filepath.Join(c.dir, name+".csv")
}

// WriteFrame creates (or truncates) the file for name and writes df to it,
// header first.
func (c *CSVWriter) WriteFrame(name string, df dataframe.DataFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.Path(name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}

	if err := exactFloats(df).WriteCSV(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: write %q: %w", path, err)
	}
	return f.Close()
}

// exactFloats rewrites float columns as the shortest decimal that reads back
// to the same value. gota would otherwise print six fixed decimals. Missing
// values are written as "NaN", which LoadCSV reads as missing.
func exactFloats(df dataframe.DataFrame) dataframe.DataFrame {
	for _, name := range df.Names() {
		s := df.Col(name)
		if s.Type() != series.Float {
			continue
		}
		vals := s.Float()
		out := make([]string, len(vals))
		for i, v := range vals {
			if math.IsNaN(v) {
				out[i] = "NaN"
				continue
			}
			out[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		df = df.Mutate(series.New(out, series.String, name))
	}
	return df
}

// Close is a no-op; every frame is flushed as it is written.
func (c *CSVWriter) Close() error {
	return nil
}
