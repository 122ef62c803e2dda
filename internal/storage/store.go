package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/mpcdrive/internal/dynamo"
	"github.com/san-kum/mpcdrive/internal/path"
	"go.uber.org/multierr"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
	pathFile     = "path.csv"
)

var sampleHeader = []string{"tick", "time", "target_x", "target_y", "x", "y", "v", "psi", "acc", "steer"}

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
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Wheelbase  float64            `json:"wheelbase"`
	Horizon    int                `json:"horizon"`
	Integrator string             `json:"integrator"`
	Controller string             `json:"controller"`
	Ticks      int                `json:"ticks"`
	Failures   int                `json:"failures"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes a run directory holding metadata.json, samples.csv and the
// tracked path. ID, Timestamp, Ticks, Failures and Metrics are filled in
// from the result.
func (s *Store) Save(meta RunMetadata, p path.Path, result *dynamo.Result) (runID string, err error) {
	now := time.Now()
	runID = fmt.Sprintf("%s_%d", meta.Scenario, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Ticks = result.StepsTaken
	meta.Failures = len(result.Failures)
	meta.Metrics = result.Metrics

	err = multierr.Combine(
		writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(meta)
		}),
		writeFile(filepath.Join(runDir, samplesFile), func(w io.Writer) error {
			return WriteSamplesCSV(w, result.Samples)
		}),
		writeFile(filepath.Join(runDir, pathFile), func(w io.Writer) error {
			return path.WriteCSV(w, p)
		}),
	)
	if err != nil {
		return "", err
	}
	return runID, nil
}

func writeFile(name string, write func(io.Writer) error) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	return write(f)
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

func (s *Store) LoadSamples(runID string) (samples []dynamo.Sample, err error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, file.Close()) }()

	return ReadSamplesCSV(file)
}

func (s *Store) LoadPath(runID string) (path.Path, error) {
	return path.Load(filepath.Join(s.baseDir, runID, pathFile))
}

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

func WriteSamplesCSV(w io.Writer, samples []dynamo.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(sampleHeader); err != nil {
		return err
	}

	for _, s := range samples {
		row := make([]string, 0, len(sampleHeader))
		row = append(row, strconv.Itoa(s.Tick))
		row = append(row, format(s.Time, s.Target.X, s.Target.Y)...)
		row = append(row, format(s.State...)...)
		row = append(row, format(s.Control.Accel(), s.Control.Steer())...)
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func ReadSamplesCSV(r io.Reader) ([]dynamo.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(sampleHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []dynamo.Sample{}, nil
	}

	samples := make([]dynamo.Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		tick, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}

		vals := make([]float64, len(record)-1)
		for j, field := range record[1:] {
			vals[j], err = strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %s: %w", i+2, sampleHeader[j+1], err)
			}
		}

		samples = append(samples, dynamo.Sample{
			Tick:    tick,
			Time:    vals[0],
			Target:  dynamo.Point{X: vals[1], Y: vals[2]},
			State:   dynamo.State(vals[3:7]),
			Control: dynamo.Control(vals[7:9]),
		})
	}
	return samples, nil
}

func format(vals ...float64) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strconv.FormatFloat(v, 'f', 6, 64)
	}
	return out
}
