// Package storage keeps run diagnostics on disk: one directory per run with a
// JSON metadata file and a CSV of periodic field samples.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
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

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID           string             `json:"id"`
	Preset       string             `json:"preset"`
	Timestamp    time.Time          `json:"timestamp"`
	GridW        int                `json:"grid_w"`
	GridH        int                `json:"grid_h"`
	Resolution   int                `json:"resolution"`
	Feed         float32            `json:"feed"`
	Kill         float32            `json:"kill"`
	DiffU        float32            `json:"diffusion_u"`
	DiffV        float32            `json:"diffusion_v"`
	Dt           float32            `json:"dt"`
	StepsPerTick int                `json:"steps_per_tick"`
	Backend      string             `json:"backend"`
	Seed         string             `json:"seed"`
	Ticks        int                `json:"ticks"`
	ElapsedSec   float64            `json:"elapsed_sec"`
	Summary      map[string]float64 `json:"summary,omitempty"`
}

// Sample is one row of samples.csv.
type Sample struct {
	Tick     int     `csv:"tick"`
	MeanU    float64 `csv:"mean_u"`
	MeanV    float64 `csv:"mean_v"`
	MaxV     float64 `csv:"max_v"`
	Coverage float64 `csv:"coverage"`
	TickMs   float64 `csv:"tick_ms"`
}

// Save writes a new run directory named <preset>_<unix> and returns its id.
// meta.ID and meta.Timestamp are filled in. Non-finite summary values are
// dropped since JSON cannot hold them. A failed save leaves no directory.
func (s *Store) Save(meta RunMetadata, samples []Sample) (runID string, err error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.Summary = finite(meta.Summary)
	name := strings.ToLower(meta.Preset)
	if name == "" {
		name = "custom"
	}

	// encoded once without the id to fail before anything touches disk
	if _, err := json.Marshal(meta); err != nil {
		return "", fmt.Errorf("encoding metadata: %w", err)
	}

	runID, runDir, err := s.makeRunDir(fmt.Sprintf("%s_%d", name, meta.Timestamp.Unix()))
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(runDir)
			runID = ""
		}
	}()
	meta.ID = runID

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(runDir, metadataFile), append(data, '\n'), 0644); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, samplesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if samples == nil {
		samples = []Sample{}
	}
	if err := gocsv.MarshalFile(&samples, csvFile); err != nil {
		return "", fmt.Errorf("writing samples: %w", err)
	}
	return runID, nil
}

func finite(summary map[string]float64) map[string]float64 {
	if summary == nil {
		return nil
	}
	out := make(map[string]float64, len(summary))
	for k, v := range summary {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

// makeRunDir creates base, or base-2, base-3... when a run of the same second
// already exists.
func (s *Store) makeRunDir(base string) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	id := base
	for i := 2; ; i++ {
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return id, dir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", err
		}
		id = fmt.Sprintf("%s-%d", base, i)
	}
}

// List returns every readable run, oldest first.
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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
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

func (s *Store) LoadSamples(runID string) ([]Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	samples := []Sample{}
	if err := gocsv.UnmarshalFile(file, &samples); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return samples, nil
		}
		return nil, err
	}
	return samples, nil
}
