package records

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// readParquet loads the requested columns of a Parquet file as float64
// series. Only the named columns are materialized; wide capture files
// stay cheap to open.
func readParquet(path string, wanted ...string) (map[string][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		return nil, fmt.Errorf("parse parquet: %w", err)
	}

	columns := make(map[string][]float64)
	for _, name := range wanted {
		if name == "" {
			continue
		}
		idx, actual, ok := findLeafColumn(pf, name)
		if !ok {
			continue // missing columns are reported by the caller
		}
		series, err := readColumn(pf, idx)
		if err != nil {
			return nil, fmt.Errorf("read parquet column %q: %w", actual, err)
		}
		columns[actual] = series
	}
	return columns, nil
}

// findLeafColumn resolves a column name to its leaf index, trying an
// exact match first and a case-insensitive match second.
func findLeafColumn(pf *parquet.File, name string) (int, string, bool) {
	schema := pf.Schema()
	if col, ok := schema.Lookup(name); ok {
		return col.ColumnIndex, name, true
	}
	for _, field := range schema.Fields() {
		if strings.EqualFold(field.Name(), name) {
			if col, ok := schema.Lookup(field.Name()); ok {
				return col.ColumnIndex, field.Name(), true
			}
		}
	}
	return 0, "", false
}

// readColumn materializes one leaf column across all row groups.
func readColumn(pf *parquet.File, columnIndex int) ([]float64, error) {
	var series []float64
	buf := make([]parquet.Value, 1024)

	for _, rg := range pf.RowGroups() {
		pages := rg.ColumnChunks()[columnIndex].Pages()
		for {
			page, err := pages.ReadPage()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				pages.Close()
				return nil, err
			}

			values := page.Values()
			for {
				n, err := values.ReadValues(buf)
				for _, v := range buf[:n] {
					fv, convErr := valueToFloat(v)
					if convErr != nil {
						pages.Close()
						return nil, convErr
					}
					series = append(series, fv)
				}
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					pages.Close()
					return nil, err
				}
			}
		}
		if err := pages.Close(); err != nil {
			return nil, err
		}
	}
	return series, nil
}

func valueToFloat(v parquet.Value) (float64, error) {
	switch v.Kind() {
	case parquet.Double:
		return v.Double(), nil
	case parquet.Float:
		return float64(v.Float()), nil
	case parquet.Int32:
		return float64(v.Int32()), nil
	case parquet.Int64:
		return float64(v.Int64()), nil
	default:
		return 0, fmt.Errorf("column holds non-numeric values (kind %s)", v.Kind())
	}
}
