package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/charlesoliviercouture01-cpu/boat-analyzerV3.5/pkg/analyzer"
	"github.com/charlesoliviercouture01-cpu/boat-analyzerV3.5/pkg/telemetry"
)

// Store persists annotated result files under a single directory and hands
// out opaque ids for later download. Ids are UUIDs; anything else is
// rejected so a crafted id can never escape the results directory.
type Store struct {
	dir string
}

// NewStore creates the results directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating results dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the results directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the annotated CSV for one analysis and returns its id.
func (s *Store) Save(t *telemetry.Table, res *analyzer.Result) (string, error) {
	id := uuid.NewString()

	f, err := os.Create(s.filename(id))
	if err != nil {
		return "", fmt.Errorf("creating result file: %w", err)
	}

	if err := WriteAnnotatedCSV(f, t, res); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}

	if err := f.Close(); err != nil {
		return "", err
	}
	return id, nil
}

// Path resolves an id to the stored file, validating the id first.
func (s *Store) Path(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("invalid result id %q", id)
	}
	path := s.filename(id)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("result %s not found", id)
	}
	return path, nil
}

func (s *Store) filename(id string) string {
	return filepath.Join(s.dir, "result_"+id+".csv")
}
