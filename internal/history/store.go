// Package history persists finished training runs as JSON artifacts.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/digit-ml/digit/internal/trainer"
)

// Run is the artifact written for one completed training run.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Seed      int64   `json:"seed"`
	BatchSize int     `json:"batch_size"`
	Optimizer string  `json:"optimizer"`
	LR        float32 `json:"learning_rate"`
	Patience  int     `json:"patience"`

	Epochs      []trainer.EpochRecord `json:"epochs"`
	BestEpoch   int                   `json:"best_epoch"`
	BestValLoss float32               `json:"best_val_loss"`
	StopReason  string                `json:"stop_reason"`
}

// Store writes and reads run artifacts under a directory, one file per
// run, named <timestamp>_<id>.json.
type Store struct {
	dir string
	now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// NewRun stamps a fresh run with an ID and start time.
func (s *Store) NewRun() *Run {
	return &Run{ID: uuid.NewString(), StartedAt: s.now().UTC()}
}

// Save finishes the run and writes it atomically (tmp then rename).
// It returns the path of the written file.
func (s *Store) Save(run *Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = s.now().UTC()
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("history: create runs dir: %w", err)
	}

	ts := run.StartedAt
	if ts.IsZero() {
		ts = run.FinishedAt
	}
	filename := fmt.Sprintf("%s_%s.json", ts.UTC().Format("20060102T150405Z"), run.ID)
	path := filepath.Join(s.dir, filename)

	b, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("history: marshal run: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return "", fmt.Errorf("history: write run: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("history: rename run: %w", err)
	}
	return path, nil
}

// Load reads one run artifact by file path.
func Load(path string) (*Run, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("history: read run: %w", err)
	}
	var run Run
	if err := json.Unmarshal(b, &run); err != nil {
		return nil, fmt.Errorf("history: decode run %s: %w", path, err)
	}
	return &run, nil
}

// List returns the run files in the store directory, oldest first.
// A missing directory is an empty store, not an error.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("history: list runs: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Latest returns the most recent run artifact, or nil when the store
// is empty.
func (s *Store) Latest() (*Run, error) {
	paths, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, nil
	}
	return Load(paths[len(paths)-1])
}
