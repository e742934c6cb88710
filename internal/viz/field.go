package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/barosim/internal/dynamo"
	"github.com/san-kum/barosim/internal/metrics"
	"github.com/san-kum/barosim/internal/sphere"
)

// Field selects the quantity shown on the map.
type Field int

const (
	FieldVorticity Field = iota
	FieldStream
	FieldZonalWind
	numFields
)

func (f Field) String() string {
	switch f {
	case FieldVorticity:
		return "vorticity"
	case FieldStream:
		return "streamfunction"
	case FieldZonalWind:
		return "zonal wind"
	default:
		return "unknown"
	}
}

func (f Field) Next() Field { return (f + 1) % numFields }

// Grid evaluates the field for a spectral vorticity state.
func (f Field) Grid(eng *sphere.Engine, vrt dynamo.Spectral) (*mat.Dense, error) {
	switch f {
	case FieldStream:
		psi, err := sphere.InvertLaplacian(vrt, eng.Eigenvalues())
		if err != nil {
			return nil, err
		}
		return eng.ToGrid(psi)
	case FieldZonalWind:
		u, _, err := eng.VorticityToVelocity(vrt)
		return u, err
	default:
		return eng.ToGrid(vrt)
	}
}

// ramp runs from weak to strong magnitude.
const ramp = " .:-=+*#%@"

// RenderField draws g as cols x rows characters. Each cell shows the mean
// of the grid block under it: the character encodes |value| relative to
// the field's largest magnitude and the color its sign.
func RenderField(g *mat.Dense, cols, rows int, th Theme) string {
	nlat, nlon := g.Dims()
	if cols > nlon {
		cols = nlon
	}
	if rows > nlat {
		rows = nlat
	}
	if cols < 1 || rows < 1 {
		return ""
	}

	cells := make([][]float64, rows)
	for r := range cells {
		cells[r] = make([]float64, cols)
		j0, j1 := r*nlat/rows, (r+1)*nlat/rows
		for c := range cells[r] {
			i0, i1 := c*nlon/cols, (c+1)*nlon/cols
			var sum float64
			for j := j0; j < j1; j++ {
				for i := i0; i < i1; i++ {
					sum += g.At(j, i)
				}
			}
			cells[r][c] = sum / float64((j1-j0)*(i1-i0))
		}
	}

	peak := metrics.MaxAbs(g)
	pos := lipgloss.NewStyle().Foreground(th.Positive)
	neg := lipgloss.NewStyle().Foreground(th.Negative)

	lines := make([]string, rows)
	for r, row := range cells {
		var b, run strings.Builder
		sign := 0
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if sign < 0 {
				b.WriteString(neg.Render(run.String()))
			} else {
				b.WriteString(pos.Render(run.String()))
			}
			run.Reset()
		}
		for _, v := range row {
			s := 1
			if v < 0 {
				s = -1
			}
			if s != sign {
				flush()
				sign = s
			}
			run.WriteByte(rampChar(v, peak))
		}
		flush()
		lines[r] = b.String()
	}
	return strings.Join(lines, "\n")
}

func rampChar(v, peak float64) byte {
	if !(peak > 0) {
		return ramp[0]
	}
	k := int(math.Abs(v) / peak * float64(len(ramp)))
	if k >= len(ramp) {
		k = len(ramp) - 1
	}
	return ramp[k]
}

// palette is a diverging blue-white-red scale; index 0 is transparent
// black for non-finite values.
var palette = func() color.Palette {
	p := color.Palette{color.Black}
	const half = 32
	for k := -half; k <= half; k++ {
		f := float64(k) / half
		var r, g, b uint8
		if f < 0 {
			r, g, b = uint8(255*(1+f)), uint8(255*(1+f)), 255
		} else {
			r, g, b = 255, uint8(255*(1-f)), uint8(255*(1-f))
		}
		p = append(p, color.RGBA{r, g, b, 255})
	}
	return p
}()

// Frame converts g to a paletted image, scale pixels per grid point.
func Frame(g *mat.Dense, scale int) *image.Paletted {
	if scale < 1 {
		scale = 1
	}
	nlat, nlon := g.Dims()
	img := image.NewPaletted(image.Rect(0, 0, nlon*scale, nlat*scale), palette)
	peak := metrics.MaxAbs(g)
	mid := (len(palette) - 1) / 2
	for j := 0; j < nlat; j++ {
		for i := 0; i < nlon; i++ {
			v := g.At(j, i)
			idx := uint8(0)
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				f := 0.0
				if peak > 0 {
					f = v / peak
				}
				idx = uint8(1 + mid + int(math.Round(f*float64(mid))))
			}
			for y := j * scale; y < (j+1)*scale; y++ {
				for x := i * scale; x < (i+1)*scale; x++ {
					img.SetColorIndex(x, y, idx)
				}
			}
		}
	}
	return img
}

// SaveGIF writes frames as an animation with delay hundredths of a second
// between them.
func SaveGIF(path string, frames []*image.Paletted, delay int) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to save")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	anim := &gif.GIF{Image: frames, Delay: make([]int, len(frames))}
	for i := range anim.Delay {
		anim.Delay[i] = delay
	}
	return gif.EncodeAll(f, anim)
}
