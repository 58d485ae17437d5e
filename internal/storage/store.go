package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/san-kum/verletsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
	framesFile   = "frames.msgpack"
)

var samplesHeader = []string{"time", "objects", "kinetic_energy", "contacts", "max_overlap"}

// Store writes run reports, one directory per run. Reports are for
// listing, plotting and export only; nothing rebuilds a solver from them.
type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Preset    string             `json:"preset"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	StepDt    float64            `json:"step_dt"`
	SubSteps  int                `json:"sub_steps"`
	Width     int                `json:"width"`
	Height    int                `json:"height"`
	Frames    int                `json:"frames"`
	Objects   int                `json:"objects"`
	Overflow  int                `json:"overflow"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes meta plus the result's samples and frames. ID and Timestamp
// are filled in and the run id is returned.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	now := s.now()
	meta.ID = fmt.Sprintf("%s_%d", meta.Preset, now.UnixNano())
	meta.Timestamp = now
	meta.Frames = result.Steps
	meta.Overflow = result.Overflow
	meta.Metrics = result.Metrics

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeMetadata(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeSamples(filepath.Join(runDir, samplesFile), result.Samples); err != nil {
		return "", err
	}
	if len(result.Frames) > 0 {
		if err := writeFrames(filepath.Join(runDir, framesFile), result.Frames); err != nil {
			return "", err
		}
	}

	return meta.ID, nil
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func writeSamples(path string, samples []sim.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(samplesHeader); err != nil {
		return err
	}
	for _, smp := range samples {
		row := []string{
			strconv.FormatFloat(smp.Time, 'f', 6, 64),
			strconv.Itoa(smp.Objects),
			strconv.FormatFloat(smp.KineticEnergy, 'f', 6, 64),
			strconv.Itoa(smp.Contacts),
			strconv.FormatFloat(smp.MaxOverlap, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeFrames(path string, frames []sim.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return msgpack.NewEncoder(f).Encode(frames)
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

// LoadSamples reads the time series of a run. Malformed rows are skipped.
func (s *Store) LoadSamples(runID string) ([]sim.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	samples := make([]sim.Sample, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) != len(samplesHeader) {
			continue
		}
		smp, err := parseSample(record)
		if err != nil {
			continue
		}
		samples = append(samples, smp)
	}

	return samples, nil
}

func parseSample(record []string) (sim.Sample, error) {
	var (
		smp sim.Sample
		err error
	)
	if smp.Time, err = strconv.ParseFloat(record[0], 64); err != nil {
		return smp, err
	}
	if smp.Objects, err = strconv.Atoi(record[1]); err != nil {
		return smp, err
	}
	if smp.KineticEnergy, err = strconv.ParseFloat(record[2], 64); err != nil {
		return smp, err
	}
	if smp.Contacts, err = strconv.Atoi(record[3]); err != nil {
		return smp, err
	}
	if smp.MaxOverlap, err = strconv.ParseFloat(record[4], 64); err != nil {
		return smp, err
	}
	return smp, nil
}

// LoadFrames reads the particle snapshots of a run. A run saved without
// snapshots yields an empty slice.
func (s *Store) LoadFrames(runID string) ([]sim.Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []sim.Frame{}, nil
		}
		return nil, err
	}
	defer file.Close()

	var frames []sim.Frame
	if err := msgpack.NewDecoder(file).Decode(&frames); err != nil {
		return nil, fmt.Errorf("decode frames: %w", err)
	}
	return frames, nil
}

// SamplesPath is the location of a run's CSV time series.
func (s *Store) SamplesPath(runID string) string {
	return filepath.Join(s.baseDir, runID, samplesFile)
}
