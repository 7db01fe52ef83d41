// Package export writes the visitor log as CSV or Excel.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/evcraddock/frontdesk/internal/visitor"
)

// Format is an export file type.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// ParseFormat accepts csv or xlsx; "" means csv.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", CSV:
		return CSV, nil
	case XLSX:
		return XLSX, nil
	}
	return "", fmt.Errorf("unknown export format %q (use csv or xlsx)", s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Header is the column order of every export.
var Header = []string{"Name", "Surname", "Company", "Host", "Date", "Time In", "Time Out"}

const sheetName = "Visitor Log"

// Filename returns visitor_log_YYYY-MM-DD.<ext> for the day of now.
func Filename(f Format, now time.Time) string {
	return fmt.Sprintf("visitor_log_%s.%s", now.Format("2006-01-02"), f)
}

// Row returns the export cells of v. A missing time-out is written as N/A.
// Cells that a spreadsheet would read as a formula are prefixed with a quote.
func Row(v *visitor.Visitor) []string {
	timeOut := visitor.Text(v.TimeOut)
	if strings.TrimSpace(timeOut) == "" {
		timeOut = "N/A"
	}
	row := []string{v.Name, v.Surname, v.Company, v.Host, v.Date, visitor.Text(v.TimeIn), timeOut}
	for i, cell := range row {
		row[i] = literal(cell)
	}
	return row
}

func literal(cell string) string {
	if cell != "" && strings.ContainsRune("=+-@\t\r", rune(cell[0])) {
		return "'" + cell
	}
	return cell
}

// Write encodes records to w in format f.
func Write(w io.Writer, f Format, records []*visitor.Visitor) error {
	if f == XLSX {
		return WriteXLSX(w, records)
	}
	return WriteCSV(w, records)
}

// WriteCSV writes a header row then one row per record.
func WriteCSV(w io.Writer, records []*visitor.Visitor) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, v := range records {
		if err := cw.Write(Row(v)); err != nil {
			return fmt.Errorf("writing csv row %d: %w", v.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// WriteXLSX writes a single-sheet workbook with a styled header row.
func WriteXLSX(w io.Writer, records []*visitor.Visitor) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing workbook: %w", cerr)
		}
	}()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	if err := setRow(f, 1, Header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(Header), 1)
	if err != nil {
		return fmt.Errorf("converting coordinates: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("setting header style: %w", err)
	}

	for i, v := range records {
		if err := setRow(f, i+2, Row(v)); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(Header))
	if err != nil {
		return fmt.Errorf("converting column number: %w", err)
	}
	if err := f.SetColWidth(sheetName, "A", lastCol, 18); err != nil {
		return fmt.Errorf("setting column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("converting coordinates: %w", err)
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
		return fmt.Errorf("setting row %d: %w", row, err)
	}
	return nil
}
