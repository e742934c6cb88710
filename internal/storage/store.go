package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
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
	ID             string             `json:"id"`
	Initial        string             `json:"initial"`
	Timestamp      time.Time          `json:"timestamp"`
	StartTime      time.Time          `json:"start_time"`
	Truncation     int                `json:"truncation"`
	NLat           int                `json:"nlat"`
	NLon           int                `json:"nlon"`
	Dt             float64            `json:"dt"`
	RunTime        float64            `json:"run_time"`
	Steps          int                `json:"steps"`
	Integrator     string             `json:"integrator"`
	Diffusion      float64            `json:"diffusion"`
	DiffusionOrder int                `json:"diffusion_order"`
	Robert         float64            `json:"robert"`
	Output         string             `json:"output,omitempty"`
	Error          string             `json:"error,omitempty"`
	Metrics        Values             `json:"metrics"`
}

// Values holds named scalars. JSON has no representation for NaN or
// infinities, so those are encoded as the strings "NaN", "+Inf" and "-Inf".
type Values map[string]float64

func (v Values) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	out := make(map[string]any, len(v))
	for k, x := range v {
		out[k] = jsonFloat(x)
	}
	return json.Marshal(out)
}

func (v *Values) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*v = nil
		return nil
	}
	out := make(Values, len(raw))
	for k, msg := range raw {
		x, err := parseJSONFloat(msg)
		if err != nil {
			return fmt.Errorf("metric %s: %w", k, err)
		}
		out[k] = x
	}
	*v = out
	return nil
}

func jsonFloat(x float64) any {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	return x
}

func parseJSONFloat(msg json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return strconv.ParseFloat(s, 64)
	}
	var x float64
	err := json.Unmarshal(msg, &x)
	return x, err
}

// Diagnostics is a time series of named scalar diagnostics.
type Diagnostics struct {
	Names  []string    `json:"names"`
	Times  []float64   `json:"times"`
	Values [][]float64 `json:"values"`
}

func (d Diagnostics) MarshalJSON() ([]byte, error) {
	rows := make([][]any, len(d.Values))
	for i, row := range d.Values {
		rows[i] = make([]any, len(row))
		for j, x := range row {
			rows[i][j] = jsonFloat(x)
		}
	}
	return json.Marshal(struct {
		Names  []string  `json:"names"`
		Times  []float64 `json:"times"`
		Values [][]any   `json:"values"`
	}{d.Names, d.Times, rows})
}

// Append adds one row. The column set is fixed by the first call; later
// values missing from metrics are recorded as NaN.
func (d *Diagnostics) Append(t float64, metrics map[string]float64) {
	if d.Names == nil {
		d.Names = make([]string, 0, len(metrics))
		for name := range metrics {
			d.Names = append(d.Names, name)
		}
		sort.Strings(d.Names)
	}
	row := make([]float64, len(d.Names))
	for i, name := range d.Names {
		v, ok := metrics[name]
		if !ok {
			v = math.NaN()
		}
		row[i] = v
	}
	d.Times = append(d.Times, t)
	d.Values = append(d.Values, row)
}

// Column returns the series of one diagnostic, or nil if it is unknown.
func (d *Diagnostics) Column(name string) []float64 {
	for i, n := range d.Names {
		if n != name {
			continue
		}
		out := make([]float64, len(d.Values))
		for j, row := range d.Values {
			out[j] = row[i]
		}
		return out
	}
	return nil
}

// Save writes metadata.json and diagnostics.csv into a new run directory
// and returns the run id. Nothing is left behind when Save fails.
func (s *Store) Save(meta RunMetadata, diag *Diagnostics) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Initial, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()

	if err := writeRun(runDir, meta, diag); err != nil {
		os.RemoveAll(runDir)
		return "", fmt.Errorf("storage: save %s: %w", runID, err)
	}
	return runID, nil
}

func writeRun(runDir string, meta RunMetadata, diag *Diagnostics) error {
	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		metaFile.Close()
		return err
	}
	if err := metaFile.Close(); err != nil {
		return err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "diagnostics.csv"))
	if err != nil {
		return err
	}
	if err := writeDiagnostics(csvFile, diag); err != nil {
		csvFile.Close()
		return err
	}
	return csvFile.Close()
}

func writeDiagnostics(f *os.File, diag *Diagnostics) error {
	if diag == nil || len(diag.Times) == 0 {
		return nil
	}

	w := csv.NewWriter(f)
	header := append([]string{"time"}, diag.Names...)
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range diag.Times {
		row := []string{strconv.FormatFloat(diag.Times[i], 'f', 1, 64)}
		for _, val := range diag.Values[i] {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

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

	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadDiagnostics(runID string) (*Diagnostics, error) {
	csvPath := filepath.Join(s.baseDir, runID, "diagnostics.csv")
	file, err := os.Open(csvPath)
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

	diag := &Diagnostics{}
	if len(records) < 1 {
		return diag, nil
	}
	diag.Names = append([]string(nil), records[0][1:]...)

	for _, record := range records[1:] {
		if len(record) != len(diag.Names)+1 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}

		row := make([]float64, len(diag.Names))
		for j := range row {
			row[j], err = strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("storage: %s row %d: %w", runID, len(diag.Times)+1, err)
			}
		}
		diag.Times = append(diag.Times, t)
		diag.Values = append(diag.Values, row)
	}

	return diag, nil
}
