package decode

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ukgov/org-registry/internal/errs"
)

// CSVReader streams rows from a CSV payload, mapping each row to its
// header. No third-party CSV library appears anywhere in the retrieval
// pack, so stdlib encoding/csv is the correct tool here (see DESIGN.md).
type CSVReader struct {
	reader  *csv.Reader
	header  []string
	lineNum int
}

// NewCSVReader builds a streaming reader over r, reading and validating
// the header row immediately.
func NewCSVReader(r io.Reader) (*CSVReader, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, &errs.Decode{Format: "csv", Detail: fmt.Sprintf("reading header: %v", err)}
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}
	return &CSVReader{reader: cr, header: header}, nil
}

// Header returns the detected column names.
func (c *CSVReader) Header() []string { return c.header }

// RequireColumns fails with errs.StructureChanged if any of cols is
// absent from the detected header — the fail-fast check a tabular driver
// must run before emitting any row (spec §4.D category 2).
func (c *CSVReader) RequireColumns(source string, cols ...string) error {
	have := make(map[string]bool, len(c.header))
	for _, h := range c.header {
		have[h] = true
	}
	for _, want := range cols {
		if !have[want] {
			return &errs.StructureChanged{Source: source, Detail: fmt.Sprintf("missing required column %q", want)}
		}
	}
	return nil
}

// Next reads the next row as a header-keyed map, or (nil, io.EOF) once
// exhausted.
func (c *CSVReader) Next() (map[string]string, error) {
	record, err := c.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, &errs.Decode{Format: "csv", Detail: fmt.Sprintf("row %d: %v", c.lineNum, err)}
	}
	c.lineNum++

	row := make(map[string]string, len(c.header))
	for i, h := range c.header {
		if i < len(record) {
			row[h] = strings.TrimSpace(record[i])
		}
	}
	return row, nil
}

// RowMapper validates that row has non-empty values for every name in
// required, returning an error naming the first missing field — used by
// drivers to reject rows that fail a required-field check rather than
// halting the whole stream (spec §4.D category 2: "stream rows, reject
// rows failing required-field check").
func RowMapper(row map[string]string, required []string) error {
	for _, name := range required {
		if strings.TrimSpace(row[name]) == "" {
			return &errs.Validation{Field: name, Rule: "required CSV column must be non-empty"}
		}
	}
	return nil
}
