package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is the tabular form a timetable takes on its way out: a fixed
// column order plus one map per lesson row keyed by column name.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// CSVExporter renders a Dataset as CSV bytes.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render writes the header row followed by every lesson row. Columns a
// row does not fill come out as empty cells, keeping record width stable.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv export requires at least one column")
	}
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write header row: %w", err)
	}
	record := make([]string, len(data.Headers))
	for _, row := range data.Rows {
		for i, column := range data.Headers {
			record[i] = row[column]
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write lesson row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
