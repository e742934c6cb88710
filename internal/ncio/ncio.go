// Package ncio writes model snapshots to NetCDF classic files and reads
// them back.
package ncio

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/ctessum/cdf"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/barosim/internal/dynamo"
	"github.com/san-kum/barosim/internal/sphere"
)

// FormatVersion is stored in every file and checked by Open.
const FormatVersion = "barosim-1"

// Fields are the gridded variables stored for every snapshot.
var Fields = []struct {
	Name, Units, Description string
}{
	{"vorticity", "s-1", "relative vorticity"},
	{"psi", "m2 s-1", "streamfunction"},
	{"u", "m s-1", "eastward wind"},
	{"v", "m s-1", "northward wind"},
}

// Meta describes the run a file belongs to.
type Meta struct {
	Start time.Time
	Dt    float64
}

// SnapshotWriter stores a fixed number of snapshots. Its Write method has
// the signature of a sim.Hook.
type SnapshotWriter struct {
	f       *os.File
	cf      *cdf.File
	eng     *sphere.Engine
	records int
	next    int
}

// Create makes a file at path with room for records snapshots on eng's grid.
func Create(path string, eng *sphere.Engine, records int, meta Meta) (*SnapshotWriter, error) {
	if records < 1 {
		return nil, fmt.Errorf("ncio: need at least one record, got %d", records)
	}
	nlat, nlon := eng.Shape()

	h := cdf.NewHeader([]string{"time", "lat", "lon"}, []int{records, nlat, nlon})
	h.AddAttribute("", "comment", "barotropic vorticity model output")
	h.AddAttribute("", "format_version", FormatVersion)
	h.AddAttribute("", "truncation", []int32{int32(eng.Truncation())})
	h.AddAttribute("", "radius", []float64{eng.Radius()})
	h.AddAttribute("", "dt", []float64{meta.Dt})
	h.AddAttribute("", "start_time", meta.Start.UTC().Format(time.RFC3339))

	h.AddVariable("lat", []string{"lat"}, []float64{0})
	h.AddAttribute("lat", "units", "degrees_north")
	h.AddVariable("lon", []string{"lon"}, []float64{0})
	h.AddAttribute("lon", "units", "degrees_east")
	h.AddVariable("time", []string{"time"}, []float64{0})
	h.AddAttribute("time", "units", "seconds since "+meta.Start.UTC().Format("2006-01-02 15:04:05"))
	for _, fd := range Fields {
		h.AddVariable(fd.Name, []string{"time", "lat", "lon"}, []float32{0})
		h.AddAttribute(fd.Name, "units", fd.Units)
		h.AddAttribute(fd.Name, "description", fd.Description)
	}
	h.Define()

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	cf, err := cdf.Create(f, h)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ncio: create %s: %w", path, err)
	}

	w := &SnapshotWriter{f: f, cf: cf, eng: eng, records: records}
	if err := w.write64("lat", nil, nil, degrees(eng.Latitudes())); err != nil {
		f.Close()
		return nil, err
	}
	if err := w.write64("lon", nil, nil, degrees(eng.Longitudes())); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func degrees(rad []float64) []float64 {
	out := make([]float64, len(rad))
	for i, r := range rad {
		out[i] = r * 180 / math.Pi
	}
	return out
}

// Write appends the snapshot of st.
func (w *SnapshotWriter) Write(st *dynamo.State) error {
	if w.next >= w.records {
		return fmt.Errorf("ncio: file holds %d records, all written", w.records)
	}

	vrt, err := w.eng.ToGrid(st.Current)
	if err != nil {
		return err
	}
	psi, err := sphere.InvertLaplacian(st.Current, w.eng.Eigenvalues())
	if err != nil {
		return err
	}
	psiGrid, err := w.eng.ToGrid(psi)
	if err != nil {
		return err
	}
	u, v, err := w.eng.StreamToVelocity(psi)
	if err != nil {
		return err
	}

	rec := w.next
	if err := w.write64("time", []int{rec}, []int{rec}, []float64{st.Time}); err != nil {
		return err
	}
	for i, g := range []*mat.Dense{vrt, psiGrid, u, v} {
		if err := w.writeField(Fields[i].Name, rec, g); err != nil {
			return err
		}
	}
	w.next++
	return nil
}

// Written is the number of snapshots stored so far.
func (w *SnapshotWriter) Written() int { return w.next }

// Close finalizes the header and closes the file.
func (w *SnapshotWriter) Close() error {
	if err := cdf.UpdateNumRecs(w.f); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// cdf corners are inclusive, and a reader or writer that fills its range
// exactly reports io.EOF together with the full count.
func complete(n, want int, err error) error {
	if err == io.EOF && n == want {
		return nil
	}
	if err == nil && n != want {
		return io.ErrShortWrite
	}
	return err
}

func (w *SnapshotWriter) write64(name string, start, end []int, data []float64) error {
	n, err := w.cf.Writer(name, start, end).Write(data)
	if err := complete(n, len(data), err); err != nil {
		return fmt.Errorf("ncio: writing %s: %w", name, err)
	}
	return nil
}

func (w *SnapshotWriter) writeField(name string, rec int, g *mat.Dense) error {
	nlat, nlon := g.Dims()
	data := make([]float32, 0, nlat*nlon)
	for j := 0; j < nlat; j++ {
		for _, x := range g.RawRowView(j) {
			data = append(data, float32(x))
		}
	}
	start := []int{rec, 0, 0}
	end := []int{rec, nlat - 1, nlon - 1}
	n, err := w.cf.Writer(name, start, end).Write(data)
	if err := complete(n, len(data), err); err != nil {
		return fmt.Errorf("ncio: writing %s record %d: %w", name, rec, err)
	}
	return nil
}

// Reader gives access to a snapshot file.
type Reader struct {
	f  *os.File
	cf *cdf.File

	Truncation int
	Radius     float64
	Dt         float64
	Start      time.Time
}

// Open reads the header of a file written by SnapshotWriter.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	cf, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ncio: open %s: %w", path, err)
	}

	r := &Reader{f: f, cf: cf}
	if err := r.readMeta(); err != nil {
		f.Close()
		return nil, fmt.Errorf("ncio: %s: %w", path, err)
	}
	return r, nil
}

func (r *Reader) readMeta() error {
	h := r.cf.Header
	version, _ := h.GetAttribute("", "format_version").(string)
	if version != FormatVersion {
		return fmt.Errorf("format version %q is not %q", version, FormatVersion)
	}
	trunc, ok := h.GetAttribute("", "truncation").([]int32)
	if !ok || len(trunc) != 1 {
		return fmt.Errorf("missing truncation attribute")
	}
	radius, ok := h.GetAttribute("", "radius").([]float64)
	if !ok || len(radius) != 1 {
		return fmt.Errorf("missing radius attribute")
	}
	dt, ok := h.GetAttribute("", "dt").([]float64)
	if !ok || len(dt) != 1 {
		return fmt.Errorf("missing dt attribute")
	}
	start, err := time.Parse(time.RFC3339, fmt.Sprint(h.GetAttribute("", "start_time")))
	if err != nil {
		return fmt.Errorf("start_time: %w", err)
	}
	r.Truncation = int(trunc[0])
	r.Radius = radius[0]
	r.Dt = dt[0]
	r.Start = start
	return nil
}

// Shape returns the grid dimensions.
func (r *Reader) Shape() (nlat, nlon int) {
	l := r.cf.Header.Lengths("vorticity")
	return l[1], l[2]
}

// Records returns the number of snapshot slots in the file.
func (r *Reader) Records() int { return r.cf.Header.Lengths("time")[0] }

func (r *Reader) Lats() ([]float64, error)  { return r.read64("lat") }
func (r *Reader) Lons() ([]float64, error)  { return r.read64("lon") }
func (r *Reader) Times() ([]float64, error) { return r.read64("time") }

func (r *Reader) read64(name string) ([]float64, error) {
	rd := r.cf.Reader(name, nil, nil)
	buf := rd.Zero(-1)
	n, err := rd.Read(buf)
	if err := complete(n, len(buf.([]float64)), err); err != nil {
		return nil, fmt.Errorf("ncio: reading %s: %w", name, err)
	}
	return buf.([]float64), nil
}

// Field reads variable name at record rec.
func (r *Reader) Field(name string, rec int) (*mat.Dense, error) {
	dims := r.cf.Header.Lengths(name)
	if len(dims) != 3 {
		return nil, fmt.Errorf("ncio: %s is not a gridded field", name)
	}
	if rec < 0 || rec >= dims[0] {
		return nil, fmt.Errorf("ncio: record %d out of range [0, %d)", rec, dims[0])
	}
	nlat, nlon := dims[1], dims[2]

	rd := r.cf.Reader(name, []int{rec, 0, 0}, []int{rec, nlat - 1, nlon - 1})
	buf := rd.Zero(nlat * nlon)
	n, err := rd.Read(buf)
	if err := complete(n, nlat*nlon, err); err != nil {
		return nil, fmt.Errorf("ncio: reading %s record %d: %w", name, rec, err)
	}
	out := mat.NewDense(nlat, nlon, nil)
	raw := out.RawMatrix().Data
	for i, x := range buf.([]float32) {
		raw[i] = float64(x)
	}
	return out, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error { return r.f.Close() }

// ReadField opens path, reads one record of a gridded variable and closes
// the file. It is the entry point for initial conditions taken from an
// earlier run.
func ReadField(path, name string, rec int) (*mat.Dense, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Field(name, rec)
}
