package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Students"

// ContentType is the media type of an xlsx workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Header is the first row written on export and skipped on import
var Header = []string{"Name", "Email", "Course"}

// Row is one student line of a roster workbook
type Row struct {
	Name   string
	Email  string
	Course string
}

// ReadResult holds the usable rows of an imported workbook
type ReadResult struct {
	Rows       []Row
	Incomplete int // rows skipped because a column was blank
}

// Read parses the first sheet of an xlsx workbook. The first row is treated
// as a header. Rows missing any of name, email or course are counted and
// skipped.
func Read(r io.Reader) (*ReadResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Debug().Err(err).Msg("Failed to close excel file")
		}
	}()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("excel file does not contain any sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheet, err)
	}

	result := &ReadResult{}
	for i, cols := range rows {
		if i == 0 {
			continue
		}

		var row Row
		if len(cols) > 0 {
			row.Name = strings.TrimSpace(cols[0])
		}
		if len(cols) > 1 {
			row.Email = strings.TrimSpace(cols[1])
		}
		if len(cols) > 2 {
			row.Course = strings.TrimSpace(cols[2])
		}

		if row.Name == "" && row.Email == "" && row.Course == "" {
			continue
		}
		if row.Name == "" || row.Email == "" || row.Course == "" {
			log.Debug().Int("row", i+1).Msg("Skipping incomplete spreadsheet row")
			result.Incomplete++
			continue
		}
		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

// Write renders rows as an xlsx workbook with a header line
func Write(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{row.Name, row.Email, row.Course}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(sheetName, "A", "C", 30); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
