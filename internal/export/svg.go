package export

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/barosim/internal/metrics"
)

// FieldToSVG draws a grid field as a heat map, scale pixels per grid point,
// on a diverging blue-white-red scale centred on zero. Row 0 is drawn at the
// top (north).
func FieldToSVG(g *mat.Dense, scale float64, title string) string {
	nlat, nlon := g.Dims()
	width := float64(nlon) * scale
	height := float64(nlat) * scale
	peak := metrics.MaxAbs(g)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<title>%s</title>
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g shape-rendering="crispEdges">
`, width, height, width, height, escape(title))

	for j := 0; j < nlat; j++ {
		for i := 0; i < nlon; i++ {
			v := g.At(j, i)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			f := 0.0
			if peak > 0 {
				f = v / peak
			}
			fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>
`, float64(i)*scale, float64(j)*scale, scale, scale, diverging(f))
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

func diverging(f float64) string {
	f = math.Max(-1, math.Min(1, f))
	if f < 0 {
		c := int(255 * (1 + f))
		return fmt.Sprintf("#%02x%02xff", c, c)
	}
	c := int(255 * (1 - f))
	return fmt.Sprintf("#ff%02x%02x", c, c)
}

// SeriesToSVG creates a line chart of values against times. Non-finite
// values break the line.
func SeriesToSVG(times, values []float64, width, height int, strokeColor, title string) string {
	if len(times) < 2 || len(times) != len(values) {
		return ""
	}

	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return ""
	}

	minX, maxX := floats.Min(times), floats.Max(times)
	minY, maxY := floats.Min(finite), floats.Max(finite)

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = math.Max(math.Abs(maxY), 1)
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<title>%s</title>
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="`,
		width, height, width, height, escape(title), strokeColor)

	pen := false
	for i := range times {
		v := values[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			pen = false
			continue
		}
		x := (times[i] - minX) / rangeX * float64(width)
		y := float64(height) - (v-minY)/rangeY*float64(height)

		if !pen {
			fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
			pen = true
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
