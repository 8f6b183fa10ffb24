// Package export renders appointment data into downloadable documents.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Dataset is tabular export content. Rows are keyed by header.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// CSVExporter writes a Dataset as CSV for spreadsheet tools.
type CSVExporter struct {
	// NeutralizeFormulas prefixes cells that a spreadsheet would evaluate
	// with a single quote. Talent notes are free text.
	NeutralizeFormulas bool
}

// NewCSVExporter builds an exporter with formula neutralization on.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{NeutralizeFormulas: true}
}

// Render returns the encoded dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Write(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write emits the header line then one record per row. Missing cells are empty.
func (e *CSVExporter) Write(dst io.Writer, data Dataset) error {
	if len(data.Headers) == 0 {
		return fmt.Errorf("csv requires at least one header")
	}
	w := csv.NewWriter(dst)
	if err := w.Write(data.Headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}
	record := make([]string, len(data.Headers))
	for n, row := range data.Rows {
		for i, header := range data.Headers {
			record[i] = e.cell(row[header])
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", n+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func (e *CSVExporter) cell(v string) string {
	if !e.NeutralizeFormulas || v == "" {
		return v
	}
	if strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}
