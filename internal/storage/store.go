package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/pneumostab/internal/config"
	"github.com/san-kum/pneumostab/internal/sim"
)

const (
	metadataFile  = "metadata.json"
	scenarioFile  = "scenario.yaml"
	snapshotsFile = "snapshots.csv"
	logFile       = "run.log"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scenario  string             `json:"scenario"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Mode      string             `json:"mode"`
	Profile   string             `json:"profile"`
	Steps     int                `json:"steps"`
	Error     string             `json:"error,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes a run directory holding the metadata, the scenario that
// produced it and, when the result kept history, the snapshot series.
func (s *Store) Save(sc *config.Scenario, result *sim.Result) (string, error) {
	now := time.Now().UTC()
	runID := fmt.Sprintf("%s_%s_%s", sc.Name, now.Format("20060102T150405"), uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Scenario:  sc.Name,
		Timestamp: now,
		Seed:      sc.Seed,
		Dt:        sc.Dt,
		Duration:  sc.Duration,
		Mode:      sc.Gas.Mode,
		Profile:   sc.Road.Profile,
		Steps:     result.StepsTaken,
		Metrics:   result.Metrics,
	}
	if result.Err != nil {
		meta.Error = result.Err.Error()
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, scenarioFile), sc); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, snapshotsFile))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := WriteCSV(f, result.Snapshots); err != nil {
		return "", err
	}
	return runID, f.Close()
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

// List returns every stored run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// SaveLog stores the log lines written while runID was produced.
func (s *Store) SaveLog(runID string, data []byte) error {
	runDir := filepath.Join(s.baseDir, runID)
	if _, err := os.Stat(runDir); err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}
	return os.WriteFile(filepath.Join(runDir, logFile), data, 0644)
}

// LoadScenario returns the scenario a run was produced from.
func (s *Store) LoadScenario(runID string) (*config.Scenario, error) {
	return config.Load(filepath.Join(s.baseDir, runID, scenarioFile))
}

func (s *Store) LoadSnapshots(runID string) ([]sim.StateSnapshot, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, snapshotsFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	snaps, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return snaps, nil
}
