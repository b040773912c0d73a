package decode

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ukgov/org-registry/internal/errs"
)

// ExcelWorkbook wraps an opened workbook, exposing sheet enumeration and
// header-mapped row reading. Grounded on spec §4.C's Excel capability
// requirement (multi-sheet, header-mapped rows); github.com/xuri/excelize/v2
// is the one spreadsheet library present in the retrieval pack
// (other_examples/bbiangul-go-reason), adopted here since no core example
// repo needs to read spreadsheets itself.
type ExcelWorkbook struct {
	file *excelize.File
}

// OpenExcel opens a workbook from raw bytes (as fetched over HTTP, never
// from a path — this system has no local spreadsheet files).
func OpenExcel(raw []byte) (*ExcelWorkbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, &errs.Decode{Format: "excel", Detail: err.Error()}
	}
	return &ExcelWorkbook{file: f}, nil
}

// Close releases the workbook's underlying resources.
func (w *ExcelWorkbook) Close() error {
	return w.file.Close()
}

// SheetNames returns every sheet name in the workbook.
func (w *ExcelWorkbook) SheetNames() []string {
	return w.file.GetSheetList()
}

// HasSheet reports whether name is present (exact match).
func (w *ExcelWorkbook) HasSheet(name string) bool {
	for _, s := range w.SheetNames() {
		if s == name {
			return true
		}
	}
	return false
}

// SheetRows reads sheet's rows into header-keyed maps, treating row 1 as
// the header. Fails with errs.StructureChanged if the sheet is absent —
// the ONS driver category's "missing sheets or columns is a Driver
// failure before any row emission" rule (spec §4.D category 2).
func (w *ExcelWorkbook) SheetRows(source, sheet string, requiredCols ...string) ([]map[string]string, error) {
	if !w.HasSheet(sheet) {
		return nil, &errs.StructureChanged{Source: source, Detail: fmt.Sprintf("missing sheet %q", sheet)}
	}
	rows, err := w.file.GetRows(sheet)
	if err != nil {
		return nil, &errs.Decode{Format: "excel", Detail: err.Error()}
	}
	if len(rows) == 0 {
		return nil, &errs.StructureChanged{Source: source, Detail: fmt.Sprintf("sheet %q is empty", sheet)}
	}

	header := rows[0]
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	for _, want := range requiredCols {
		if !have[want] {
			return nil, &errs.StructureChanged{Source: source, Detail: fmt.Sprintf("sheet %q missing required column %q", sheet, want)}
		}
	}

	out := make([]map[string]string, 0, len(rows)-1)
	for _, record := range rows[1:] {
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(record) {
				row[h] = record[i]
			}
		}
		out = append(out, row)
	}
	return out, nil
}
