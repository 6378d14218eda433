// Package records locates and loads experimental record files. Candidate
// files are those whose name contains both the data-source keyword and
// the condition keyword, in a recognized tabular format (CSV or Parquet).
package records

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kinelab/cyclescan/internal/signal"
)

// LoadError reports a matched file that could not be parsed or lacks the
// requested column. The record is skipped; the batch continues.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cannot load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Scan returns the paths under dir whose filename contains both keywords
// (case-insensitive) and has a recognized extension, sorted by name.
func Scan(dir, source, condition string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan data directory: %w", err)
	}

	source = strings.ToLower(source)
	condition = strings.ToLower(condition)

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		ext := filepath.Ext(name)
		if ext != ".csv" && ext != ".parquet" {
			continue
		}
		if !strings.Contains(name, source) || !strings.Contains(name, condition) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// RecordName derives the record identifier from a file path: the base
// name without its extension.
func RecordName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load reads one record file and prepares its Signal. velocityCol may be
// empty, in which case velocity is derived from position.
func Load(path, positionCol, velocityCol string, fs float64) (*signal.Signal, error) {
	if positionCol == "" {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("position column name is required")}
	}

	var (
		columns map[string][]float64
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		columns, err = readCSV(path)
	case ".parquet":
		columns, err = readParquet(path, positionCol, velocityCol)
	default:
		err = fmt.Errorf("unsupported file format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	position, ok := lookupColumn(columns, positionCol)
	if !ok {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("position column %q not found", positionCol)}
	}

	var velocity []float64
	if velocityCol != "" {
		velocity, ok = lookupColumn(columns, velocityCol)
		if !ok {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("velocity column %q not found", velocityCol)}
		}
	}

	sig, err := signal.New(RecordName(path), position, velocity, fs)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return sig, nil
}

// lookupColumn finds a column by name, falling back to a case-insensitive
// match so column headers like "Position" and "position" both work.
func lookupColumn(columns map[string][]float64, name string) ([]float64, bool) {
	if col, ok := columns[name]; ok {
		return col, true
	}
	for k, col := range columns {
		if strings.EqualFold(k, name) {
			return col, true
		}
	}
	return nil, false
}
