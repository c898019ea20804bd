package storage

import (
	"io"

	"github.com/go-gota/gota/dataframe"

	"airbnb-eda/models"
)

// FrameWriter is the interface any tabular output backend must satisfy.
// CSVWriter and XLSXWriter implement it.
type FrameWriter interface {
	WriteFrame(name string, df dataframe.DataFrame) error
	Close() error
}

// ListingWriter is the interface for persisting cleaned listings and their
// occupancy, and reading the stored listings back.
type ListingWriter interface {
	Write(listings []*models.ListingSummary, occupancy []models.Occupancy) error
	FetchAll() ([]*models.ListingSummary, error)
	Close() error
}

// PNGEncoder is anything that renders itself as a PNG image.
type PNGEncoder interface {
	WritePNG(w io.Writer) error
}

var (
	_ FrameWriter   = (*CSVWriter)(nil)
	_ FrameWriter   = (*XLSXWriter)(nil)
	_ ListingWriter = (*PostgresWriter)(nil)
)
