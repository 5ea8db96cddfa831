// Package render draws the planar faces of a mesh as flat outlines.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	svg "github.com/ajstarks/svgo/float"

	"github.com/Faultbox/modelconv/pkg/math"
	"github.com/Faultbox/modelconv/pkg/mesh"
	"github.com/Faultbox/modelconv/pkg/stl"
)

// ErrInvalidScale is returned when SVGOptions.Scale is not positive.
var ErrInvalidScale = errors.New("svg scale must be positive")

// SVGOptions controls the face sheet layout.
type SVGOptions struct {
	Scale     float64 // pixels per model unit
	Margin    float64 // gap around and between faces
	PageWidth float64 // shelves wrap at this width
	Stroke    string
	Fill      string
	Labels    bool // write the face index at each face's center
}

// DefaultSVGOptions returns the options used by the CLI when nothing is configured.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Scale:     20,
		Margin:    10,
		PageWidth: 1000,
		Stroke:    "black",
		Fill:      "none",
	}
}

// flatFace is a face projected into its own plane, in model units.
type flatFace struct {
	index    int
	loops    [][]math.Vec2
	min, max math.Vec2
}

// placed is a flat face positioned on the page, in pixels.
type placed struct {
	*flatFace
	x, y float64
}

func flatten(m *mesh.Mesh, index int) *flatFace {
	f := &m.Faces[index]
	view := math.PlaneView(f.PlaneNormal())
	ff := &flatFace{index: index}

	first := true
	for _, loop := range f.Loops() {
		pts := make([]math.Vec2, 0, len(loop))
		for _, p := range loop.Points(m.Graph.Vertices) {
			q := view.TransformVec3(p).XY()
			if first {
				ff.min, ff.max = q, q
				first = false
			}
			ff.min = ff.min.Min(q)
			ff.max = ff.max.Max(q)
			pts = append(pts, q)
		}
		ff.loops = append(ff.loops, pts)
	}
	return ff
}

func (f *flatFace) size(scale float64) (w, h float64) {
	d := f.max.Sub(f.min)
	return float64(d.X) * scale, float64(d.Y) * scale
}

// labelAt returns the page position of the face's bounding-box center.
func (p placed) labelAt(scale float64) math.Vec2 {
	size := p.max.Sub(p.min).Scale(float32(scale))
	return math.Vec2{X: float32(p.x), Y: float32(p.y)}.Add(size.Scale(0.5))
}

// layout packs faces left to right into shelves no wider than the page.
func layout(faces []*flatFace, opts SVGOptions) ([]placed, float64, float64) {
	out := make([]placed, 0, len(faces))
	x, y := opts.Margin, opts.Margin
	shelf := 0.0
	width := opts.PageWidth

	for _, f := range faces {
		w, h := f.size(opts.Scale)
		if x > opts.Margin && x+w+opts.Margin > opts.PageWidth {
			x = opts.Margin
			y += shelf + opts.Margin
			shelf = 0
		}
		out = append(out, placed{flatFace: f, x: x, y: y})
		x += w + opts.Margin
		if h > shelf {
			shelf = h
		}
		if x > width {
			width = x
		}
	}
	return out, width, y + shelf + opts.Margin
}

// pathData builds one subpath per loop. Y is flipped so the page shows the
// face as seen from outside.
func (p placed) pathData(scale float64) string {
	var sb strings.Builder
	for _, loop := range p.loops {
		for i, q := range loop {
			cmd := "L"
			if i == 0 {
				cmd = "M"
			}
			px := p.x + float64(q.X-p.min.X)*scale
			py := p.y + float64(p.max.Y-q.Y)*scale
			fmt.Fprintf(&sb, "%s%.2f %.2f ", cmd, px, py)
		}
		sb.WriteString("Z ")
	}
	return strings.TrimSpace(sb.String())
}

// errWriter keeps the first write error, since svgo discards them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}

// WriteSVG draws every face of m, flattened into its own plane, as a filled
// path with the even-odd rule so holes stay open.
func WriteSVG(w io.Writer, m *mesh.Mesh, opts SVGOptions) error {
	if opts.Scale <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidScale, opts.Scale)
	}

	flat := make([]*flatFace, len(m.Faces))
	for i := range m.Faces {
		flat[i] = flatten(m, i)
	}
	faces, width, height := layout(flat, opts)

	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(width, height)
	if title := (&stl.STL{Header: m.Header}).HeaderText(); title != "" {
		canvas.Title(title)
	}

	style := fmt.Sprintf("fill:%s;fill-rule:evenodd;stroke:%s;stroke-width:1", opts.Fill, opts.Stroke)
	canvas.Group(style)
	for _, f := range faces {
		canvas.Path(f.pathData(opts.Scale), fmt.Sprintf(`id="face-%d"`, f.index))
	}
	canvas.Gend()

	if opts.Labels {
		canvas.Group("font-family:sans-serif;font-size:10px;text-anchor:middle;fill:" + opts.Stroke)
		for _, f := range faces {
			c := f.labelAt(opts.Scale)
			canvas.Text(float64(c.X), float64(c.Y), fmt.Sprintf("%d", f.index))
		}
		canvas.Gend()
	}

	canvas.End()
	return ew.err
}
