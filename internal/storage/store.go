package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/nanosim/internal/dynamo"
	"github.com/san-kum/nanosim/internal/sim"
	"github.com/san-kum/nanosim/internal/timeline"
)

const (
	metadataFile = "metadata.json"
	timelineFile = "timeline.json"
	csvFile      = "timeline.csv"
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
	ID            string                     `json:"id"`
	Preset        string                     `json:"preset,omitempty"`
	Timestamp     time.Time                  `json:"timestamp"`
	Seed          int64                      `json:"seed"`
	Iterations    int                        `json:"iterations"`
	MinStep       float64                    `json:"min_step"`
	MaxStep       float64                    `json:"max_step"`
	Epsilon       float64                    `json:"epsilon"`
	Integrator    string                     `json:"integrator"`
	Agents        []dynamo.AgentID           `json:"agents"`
	Records       int                        `json:"records"`
	Commits       int                        `json:"commits"`
	Skips         int                        `json:"skips"`
	Singularities int                        `json:"singularities"`
	Clocks        map[dynamo.AgentID]float64 `json:"clocks"`
	Metrics       map[string]float64         `json:"metrics"`
}

// RunInfo describes how a result was produced.
type RunInfo struct {
	Preset     string
	Integrator string
	Agents     []dynamo.AgentID
	Config     sim.Config
}

// Save writes a completed run. Only complete results reach this point; a
// failed run never produces a *sim.Result.
func (s *Store) Save(info RunInfo, result *sim.Result) (string, error) {
	runID := uuid.NewString()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:            runID,
		Preset:        info.Preset,
		Timestamp:     time.Now(),
		Seed:          info.Config.Seed,
		Iterations:    info.Config.Iterations,
		MinStep:       info.Config.MinStep,
		MaxStep:       info.Config.MaxStep,
		Epsilon:       info.Config.Epsilon,
		Integrator:    info.Integrator,
		Agents:        info.Agents,
		Records:       len(result.Records),
		Commits:       result.Commits,
		Skips:         result.Skips,
		Singularities: result.Singularities,
		Clocks:        result.Clocks,
		Metrics:       result.Metrics,
	}

	if err := writeFile(filepath.Join(runDir, timelineFile), func(f *os.File) error {
		return ExportJSON(f, result.Records)
	}); err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(runDir, csvFile), func(f *os.File) error {
		return ExportCSV(f, result.Records)
	}); err != nil {
		return "", err
	}
	// metadata goes last: a run directory without it is incomplete and
	// ignored by List.
	if err := writeFile(filepath.Join(runDir, metadataFile), func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return "", err
	}

	return runID, nil
}

func writeFile(path string, fn func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// List returns every complete run, oldest first.
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

// LoadRecords reads a run's timeline back in store order.
func (s *Store) LoadRecords(runID string) ([]timeline.Record, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, timelineFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	recs, err := ImportJSON(f)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return recs, nil
}

// LoadTimeline rebuilds a queryable store from a saved run.
func (s *Store) LoadTimeline(runID string) (*timeline.Store, error) {
	recs, err := s.LoadRecords(runID)
	if err != nil {
		return nil, err
	}
	return timeline.Rebuild(recs)
}
