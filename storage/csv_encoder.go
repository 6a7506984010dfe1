package storage

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"vastai-scraper/models"
)

// EncodeCSV renders rows as comma-separated text in schema column order,
// whatever order a row keeps its cells in. The header, when requested, goes
// through the same quoting as data rows.
func EncodeCSV(rows []models.Row, includeHeader bool) ([]byte, error) {
	columns := models.Columns()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if includeHeader {
		if err := w.Write(columns); err != nil {
			return nil, fmt.Errorf("csv: write header: %w", err)
		}
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = row.Get(col)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("csv: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv: flush: %w", err)
	}
	return buf.Bytes(), nil
}
