package results

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kinelab/cyclescan/internal/detect"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// LogDB is the append-only processing log. Entries are inserted once per
// completed record and never updated or deleted.
type LogDB struct {
	*sql.DB
}

// LogEntry is one completed record: who, when, where the result lives,
// and the parameters that produced it.
type LogEntry struct {
	RunID      string
	RecordName string
	Timestamp  string
	ResultFile string
	Parameters detect.Parameters
}

// OpenLog opens (creating if needed) the processing log database and
// applies any pending schema migrations.
func OpenLog(path string) (*LogDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open processing log: %w", err)
	}

	ldb := &LogDB{db}
	if err := ldb.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return ldb, nil
}

// migrateUp brings the log schema to the latest version using the
// migrations embedded in the binary.
func (db *LogDB) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	drv, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("prepare migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("prepare migrations: %w", err)
	}
	// Note: we don't close m because it would close the underlying DB
	// connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate processing log: %w", err)
	}
	return nil
}

// Append inserts one entry. A missing RunID is filled with a fresh UUID.
func (db *LogDB) Append(entry LogEntry) error {
	if entry.RunID == "" {
		entry.RunID = uuid.NewString()
	}
	paramsJSON, err := json.Marshal(entry.Parameters)
	if err != nil {
		return fmt.Errorf("encode log parameters: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO processed_records (run_id, record_name, timestamp, result_file, parameters)
		VALUES (?, ?, ?, ?, ?)`,
		entry.RunID, entry.RecordName, entry.Timestamp, entry.ResultFile, string(paramsJSON))
	if err != nil {
		return fmt.Errorf("append to processing log: %w", err)
	}
	return nil
}

// Entries returns all log entries in insertion order.
func (db *LogDB) Entries() ([]LogEntry, error) {
	rows, err := db.Query(`
		SELECT run_id, record_name, timestamp, result_file, parameters
		FROM processed_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("read processing log: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		var paramsJSON string
		if err := rows.Scan(&e.RunID, &e.RecordName, &e.Timestamp, &e.ResultFile, &paramsJSON); err != nil {
			return nil, fmt.Errorf("scan processing log row: %w", err)
		}
		if err := json.Unmarshal([]byte(paramsJSON), &e.Parameters); err != nil {
			return nil, fmt.Errorf("decode log parameters for %q: %w", e.RecordName, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of logged records.
func (db *LogDB) Count() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM processed_records`).Scan(&n)
	return n, err
}
