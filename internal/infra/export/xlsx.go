package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/xavierca1/rwa-leads/internal/entity"
)

const (
	XLSXFilename = "rwa_leads.xlsx"
	sheetName    = "Leads"
)

// XLSXWriter buffers rows in an excelize stream writer and serializes the
// workbook on Flush.
type XLSXWriter struct {
	dst  io.Writer
	f    *excelize.File
	sw   *excelize.StreamWriter
	row  int
	done bool
}

func NewXLSXWriter(dst io.Writer) (*XLSXWriter, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open stream writer: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := sw.SetColWidth(1, len(Header), 18); err != nil {
		f.Close()
		return nil, err
	}

	cells := make([]interface{}, len(Header))
	for i, h := range Header {
		cells[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", cells); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	return &XLSXWriter{dst: dst, f: f, sw: sw, row: 1}, nil
}

func (x *XLSXWriter) Write(l *entity.Lead) error {
	x.row++
	cell, err := excelize.CoordinatesToCellName(1, x.row)
	if err != nil {
		return err
	}

	rec := Record(l)
	values := make([]interface{}, len(rec))
	for i, v := range rec {
		values[i] = v
	}
	// numeric columns stay numeric in the sheet
	values[0] = l.ID
	if l.Age != nil {
		values[9] = *l.Age
	}
	return x.sw.SetRow(cell, values)
}

func (x *XLSXWriter) Flush() error {
	if x.done {
		return nil
	}
	defer x.Close()

	if err := x.sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := x.f.Write(x.dst); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Close releases the workbook and its stream temp files without writing
// anything. It is safe after Flush and on an abandoned export.
func (x *XLSXWriter) Close() error {
	if x.done {
		return nil
	}
	x.done = true
	return x.f.Close()
}
