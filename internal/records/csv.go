package records

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// readCSV loads every column of a headered CSV file as float64 series.
// Non-numeric columns are skipped rather than failing the whole file;
// the caller errors only if a requested column is missing.
func readCSV(path string) (map[string][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("CSV has no data rows")
	}

	header := rows[0]
	columns := make(map[string][]float64, len(header))
	numeric := make([]bool, len(header))
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
		numeric[i] = true
	}

	values := make([][]float64, len(header))
	for i := range values {
		values[i] = make([]float64, 0, len(rows)-1)
	}

	for _, row := range rows[1:] {
		for i := range header {
			if i >= len(row) || !numeric[i] {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
			if err != nil {
				numeric[i] = false
				continue
			}
			values[i] = append(values[i], v)
		}
	}

	for i, name := range header {
		if numeric[i] && len(values[i]) == len(rows)-1 {
			columns[name] = values[i]
		}
	}
	return columns, nil
}
