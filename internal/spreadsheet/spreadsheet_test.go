package spreadsheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestWriteThenRead(t *testing.T) {
	rows := []Row{
		{Name: "Alice Johnson", Email: "alice@student.com", Course: "Python Basics"},
		{Name: "Bob Smith", Email: "bob@student.com", Course: "Web Development"},
	}

	var buf bytes.Buffer
	if err := Write(&buf, rows); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	result, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if len(result.Rows) != 2 || result.Incomplete != 0 {
		t.Fatalf("expected 2 complete rows, got %+v", result)
	}
	if result.Rows[1] != rows[1] {
		t.Fatalf("expected %+v, got %+v", rows[1], result.Rows[1])
	}
}

func TestRead_SkipsIncompleteAndBlankRows(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	data := [][]any{
		{"Name", "Email", "Course"},
		{" Diana Prince ", "diana@student.com", "Data Science"},
		{"No Email", "", "Data Science"},
		{},
		{"Ethan Hunt", "ethan@student.com"},
		{"Fiona", "fiona@student.com", "ML"},
	}
	for i, values := range data {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			t.Fatalf("failed to build sheet: %v", err)
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("failed to write workbook: %v", err)
	}

	result, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(result.Rows), result.Rows)
	}
	if result.Rows[0].Name != "Diana Prince" {
		t.Errorf("expected trimmed name, got %q", result.Rows[0].Name)
	}
	if result.Incomplete != 2 {
		t.Errorf("expected 2 incomplete rows, got %d", result.Incomplete)
	}
}

func TestRead_NotAWorkbook(t *testing.T) {
	if _, err := Read(strings.NewReader("name,email,course\n")); err == nil {
		t.Fatal("expected an error for non-xlsx input")
	}
}
