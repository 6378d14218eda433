// Package params persists the last accepted detection parameters between
// runs, so the next session starts from the previous operator's tuning.
package params

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/kinelab/cyclescan/internal/detect"
)

// FileName is the parameter store document inside the output directory.
const FileName = "last_parameters.json"

// Store reads and writes the single process-wide parameter document.
// Lifecycle is load-once at session start, save-once at acceptance; there
// are no concurrent writers to guard against.
type Store struct {
	dir string
}

// NewStore returns a store rooted at the output directory.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the location of the store document.
func (s *Store) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Load returns the stored parameters, or the built-in defaults when no
// store exists yet. A corrupt or invalid document also falls back to
// defaults: a stale store must never block processing.
func (s *Store) Load() detect.Parameters {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("parameter store unreadable, using defaults: %v", err)
		}
		return detect.DefaultParameters()
	}

	var p detect.Parameters
	if err := json.Unmarshal(data, &p); err != nil {
		log.Printf("parameter store corrupt, using defaults: %v", err)
		return detect.DefaultParameters()
	}
	if err := p.Validate(); err != nil {
		log.Printf("stored parameters invalid, using defaults: %v", err)
		return detect.DefaultParameters()
	}
	return p
}

// Save overwrites the store with the given snapshot. No history is kept.
func (s *Store) Save(p detect.Parameters) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("refusing to store invalid parameters: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "    ")
	if err != nil {
		return fmt.Errorf("encode parameters: %w", err)
	}
	if err := os.WriteFile(s.Path(), data, 0644); err != nil {
		return fmt.Errorf("write parameter store: %w", err)
	}
	return nil
}
