// Package results persists accepted detections: one JSON document per
// record plus an append-only processing log in sqlite. A record is only
// logged after its result file is safely on disk, so every log entry has
// a corresponding result file.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kinelab/cyclescan/internal/detect"
	"github.com/kinelab/cyclescan/internal/timeutil"
)

// Result is the immutable record of one accepted detection.
type Result struct {
	RecordName   string            `json:"record_name"`
	Parameters   detect.Parameters `json:"detection_parameters"`
	CycleIndices []int             `json:"cycle_indices"`
	Timestamp    string            `json:"timestamp"` // ISO-8601
}

// PersistenceError wraps a failed result or log write. It is fatal for
// the record it concerns but not for the batch.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// FileName returns the result document name for a record.
func FileName(recordName string) string {
	return recordName + "_cycles.json"
}

// Writer serializes results into an output directory and appends to the
// processing log.
type Writer struct {
	dir   string
	log   *LogDB
	clock timeutil.Clock
}

// NewWriter returns a writer rooted at dir, logging to log. A nil clock
// defaults to the wall clock.
func NewWriter(dir string, log *LogDB, clock timeutil.Clock) *Writer {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Writer{dir: dir, log: log, clock: clock}
}

// NewResult builds a timestamped Result from an accepted boundary set.
func (w *Writer) NewResult(recordName string, p detect.Parameters, bounds detect.BoundarySet) Result {
	return Result{
		RecordName:   recordName,
		Parameters:   p,
		CycleIndices: []int(bounds),
		Timestamp:    w.clock.Now().Format(time.RFC3339),
	}
}

// HasResult reports whether a result file for the record already exists.
func (w *Writer) HasResult(recordName string) bool {
	_, err := os.Stat(filepath.Join(w.dir, FileName(recordName)))
	return err == nil
}

// Path returns the result file location for a record.
func (w *Writer) Path(recordName string) string {
	return filepath.Join(w.dir, FileName(recordName))
}

// Write serializes the result and then appends its log entry. If the
// result file cannot be written, no log entry is appended.
func (w *Writer) Write(res Result) error {
	data, err := json.MarshalIndent(res, "", "    ")
	if err != nil {
		return &PersistenceError{Op: "result encoding", Err: err}
	}
	if err := os.WriteFile(w.Path(res.RecordName), data, 0644); err != nil {
		return &PersistenceError{Op: "result write", Err: err}
	}

	entry := LogEntry{
		RecordName: res.RecordName,
		Timestamp:  res.Timestamp,
		ResultFile: FileName(res.RecordName),
		Parameters: res.Parameters,
	}
	if err := w.log.Append(entry); err != nil {
		return &PersistenceError{Op: "log append", Err: err}
	}
	return nil
}
