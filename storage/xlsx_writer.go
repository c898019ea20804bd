package storage

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// maxSheetName is Excel's limit on sheet name length.
const maxSheetName = 31

// XLSXWriter collects frames as sheets of one workbook, saved on Close.
type XLSXWriter struct {
	mu     sync.Mutex
	path   string
	file   *excelize.File
	sheets int
	used   map[string]struct{}
}

// NewXLSXWriter starts an empty workbook that will be saved to path.
func NewXLSXWriter(path string) (*XLSXWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("xlsx: create output dir: %w", err)
	}
	return &XLSXWriter{path: path, file: excelize.NewFile(), used: make(map[string]struct{})}, nil
}

// WriteFrame adds df as a sheet called name. Numeric, integer and boolean
// columns keep their cell types; missing values are left blank.
func (x *XLSXWriter) WriteFrame(name string, df dataframe.DataFrame) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	name = x.sheetName(name)

	if x.sheets == 0 {
		if err := x.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("xlsx: rename first sheet: %w", err)
		}
	} else if _, err := x.file.NewSheet(name); err != nil {
		return fmt.Errorf("xlsx: new sheet %q: %w", name, err)
	}
	x.sheets++

	header := make([]interface{}, 0, df.Ncol())
	for _, n := range df.Names() {
		header = append(header, n)
	}
	if err := x.file.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("xlsx: write header: %w", err)
	}

	cols := make([]series.Series, df.Ncol())
	for j := range cols {
		cols[j] = df.Col(df.Names()[j])
	}

	for i := 0; i < df.Nrow(); i++ {
		row := make([]interface{}, len(cols))
		for j, s := range cols {
			row[j] = cellValue(s.Elem(i), s.Type())
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("xlsx: cell name: %w", err)
		}
		if err := x.file.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("xlsx: write row %d: %w", i+1, err)
		}
	}
	return nil
}

// sheetName makes name a valid, unused sheet name: forbidden characters
// become "_", the name is cut to maxSheetName runes, and a clash with an
// earlier sheet (Excel compares case-insensitively) gets a "~N" suffix.
func (x *XLSXWriter) sheetName(name string) string {
	base := []rune(sheetNameReplacer.Replace(strings.TrimSpace(name)))
	if len(base) == 0 {
		base = []rune("Sheet")
	}

	candidate := string(base[:min(len(base), maxSheetName)])
	for n := 2; ; n++ {
		if _, taken := x.used[strings.ToLower(candidate)]; !taken {
			break
		}
		suffix := fmt.Sprintf("~%d", n)
		keep := min(len(base), maxSheetName-len(suffix))
		candidate = string(base[:keep]) + suffix
	}
	x.used[strings.ToLower(candidate)] = struct{}{}
	return candidate
}

var sheetNameReplacer = strings.NewReplacer(
	":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_",
)

func cellValue(el series.Element, t series.Type) interface{} {
	if el.IsNA() {
		return nil
	}
	switch t {
	case series.Float:
		f := el.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	case series.Int:
		if n, err := el.Int(); err == nil {
			return n
		}
	case series.Bool:
		if b, err := el.Bool(); err == nil {
			return b
		}
	}
	return el.String()
}

// Close saves the workbook and releases it.
func (x *XLSXWriter) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.file.SaveAs(x.path); err != nil {
		_ = x.file.Close()
		return fmt.Errorf("xlsx: save %q: %w", x.path, err)
	}
	return x.file.Close()
}
