package export

import (
	"encoding/csv"
	"io"

	"github.com/xavierca1/rwa-leads/internal/entity"
)

const CSVFilename = "rwa_leads.csv"

// utf8BOM lets spreadsheet tools detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter streams leads as CSV. Nothing reaches the underlying writer until the
// first row or Flush, so a caller can still fail the response cleanly before that.
type CSVWriter struct {
	dst     io.Writer
	w       *csv.Writer
	started bool
}

func NewCSVWriter(dst io.Writer) *CSVWriter {
	return &CSVWriter{dst: dst, w: csv.NewWriter(dst)}
}

func (c *CSVWriter) start() error {
	if c.started {
		return nil
	}
	c.started = true
	if _, err := c.dst.Write(utf8BOM); err != nil {
		return err
	}
	return c.w.Write(Header)
}

func (c *CSVWriter) Write(l *entity.Lead) error {
	if err := c.start(); err != nil {
		return err
	}
	return c.w.Write(Record(l))
}

func (c *CSVWriter) Flush() error {
	if err := c.start(); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}
