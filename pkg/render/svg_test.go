package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/modelconv/pkg/math"
	"github.com/Faultbox/modelconv/pkg/mesh"
	"github.com/Faultbox/modelconv/pkg/stl"
)

func v(x, y, z float32) math.Vec3 {
	return math.Vec3{X: x, Y: y, Z: z}
}

func quad(n, a, b, c, d math.Vec3) []stl.Triangle {
	return []stl.Triangle{
		{Normal: n, Vertices: [3]math.Vec3{a, b, c}},
		{Normal: n, Vertices: [3]math.Vec3{a, c, d}},
	}
}

func importMesh(t *testing.T, header string, tris ...[]stl.Triangle) *mesh.Mesh {
	t.Helper()
	s := &stl.STL{}
	s.SetHeaderText(header)
	for _, q := range tris {
		s.Triangles = append(s.Triangles, q...)
	}
	m, err := mesh.Import(s, mesh.DefaultOptions())
	require.NoError(t, err)
	return m
}

func cube(t *testing.T) *mesh.Mesh {
	return importMesh(t, "cube",
		quad(v(0, 0, 1), v(0, 0, 1), v(1, 0, 1), v(1, 1, 1), v(0, 1, 1)),
		quad(v(0, 0, -1), v(0, 0, 0), v(0, 1, 0), v(1, 1, 0), v(1, 0, 0)),
		quad(v(1, 0, 0), v(1, 0, 0), v(1, 1, 0), v(1, 1, 1), v(1, 0, 1)),
		quad(v(-1, 0, 0), v(0, 0, 0), v(0, 0, 1), v(0, 1, 1), v(0, 1, 0)),
		quad(v(0, -1, 0), v(0, 0, 0), v(1, 0, 0), v(1, 0, 1), v(0, 0, 1)),
		quad(v(0, 1, 0), v(0, 1, 0), v(0, 1, 1), v(1, 1, 1), v(1, 1, 0)),
	)
}

func render(t *testing.T, m *mesh.Mesh, opts SVGOptions) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, m, opts))
	return buf.String()
}

func TestWriteSVG_OnePathPerFace(t *testing.T) {
	out := render(t, cube(t), DefaultSVGOptions())

	assert.Equal(t, 6, strings.Count(out, "<path"))
	for i := 0; i < 6; i++ {
		assert.Contains(t, out, `id="face-`+string(rune('0'+i))+`"`)
	}
	assert.Contains(t, out, "fill-rule:evenodd")
	assert.Contains(t, out, "<title>cube</title>")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "</svg>"))
	assert.NotContains(t, out, "<text")
}

func TestWriteSVG_SingleTrianglePageSize(t *testing.T) {
	m := importMesh(t, "", []stl.Triangle{
		{Normal: v(0, 0, 1), Vertices: [3]math.Vec3{v(0, 0, 0), v(1, 0, 0), v(0, 1, 0)}},
	})

	out := render(t, m, DefaultSVGOptions())
	assert.Contains(t, out, `width="1000.00" height="40.00"`)
	assert.Contains(t, out, `d="M10.00 30.00 L30.00 30.00 L10.00 10.00 Z"`)
	assert.NotContains(t, out, "<title>")
}

func TestWriteSVG_HoleIsASubpath(t *testing.T) {
	up := v(0, 0, 1)
	o0, o1, o2, o3 := v(0, 0, 0), v(3, 0, 0), v(3, 3, 0), v(0, 3, 0)
	i0, i1, i2, i3 := v(1, 1, 0), v(2, 1, 0), v(2, 2, 0), v(1, 2, 0)
	m := importMesh(t, "ring",
		quad(up, o0, o1, i1, i0),
		quad(up, o1, o2, i2, i1),
		quad(up, o2, o3, i3, i2),
		quad(up, o3, o0, i0, i3),
	)
	require.Len(t, m.Faces, 1)

	out := render(t, m, DefaultSVGOptions())
	require.Equal(t, 1, strings.Count(out, "<path"))
	assert.Equal(t, 2, strings.Count(out, "M"), "outer loop and hole")
	assert.Equal(t, 2, strings.Count(out, "Z"))
}

func TestWriteSVG_Labels(t *testing.T) {
	opts := DefaultSVGOptions()
	opts.Labels = true
	opts.Stroke = "red"

	out := render(t, cube(t), opts)
	assert.Equal(t, 6, strings.Count(out, "<text"))
	assert.Contains(t, out, "stroke:red")
}

func TestWriteSVG_InvalidScale(t *testing.T) {
	opts := DefaultSVGOptions()
	opts.Scale = 0

	var buf bytes.Buffer
	err := WriteSVG(&buf, cube(t), opts)
	require.ErrorIs(t, err, ErrInvalidScale)
	assert.Zero(t, buf.Len())
}

type failingWriter struct{}

var errDiskFull = errors.New("disk full")

func (failingWriter) Write([]byte) (int, error) { return 0, errDiskFull }

func TestWriteSVG_WriteError(t *testing.T) {
	err := WriteSVG(failingWriter{}, cube(t), DefaultSVGOptions())
	require.ErrorIs(t, err, errDiskFull)
}

func TestLayout_WrapsShelves(t *testing.T) {
	square := func(i int) *flatFace {
		return &flatFace{index: i, max: math.Vec2{X: 1, Y: 1}}
	}
	faces := []*flatFace{square(0), square(1), square(2)}
	opts := SVGOptions{Scale: 20, Margin: 10, PageWidth: 70}

	placedFaces, width, height := layout(faces, opts)
	require.Len(t, placedFaces, 3)

	assert.Equal(t, 10.0, placedFaces[0].x)
	assert.Equal(t, 40.0, placedFaces[1].x)
	assert.Equal(t, 10.0, placedFaces[1].y)

	// The third square does not fit after two on a 70px page.
	assert.Equal(t, 10.0, placedFaces[2].x)
	assert.Equal(t, 40.0, placedFaces[2].y)

	assert.Equal(t, 70.0, width)
	assert.Equal(t, 70.0, height)
}

func TestLayout_WideFaceGrowsPage(t *testing.T) {
	wide := &flatFace{max: math.Vec2{X: 10, Y: 1}}
	_, width, _ := layout([]*flatFace{wide}, SVGOptions{Scale: 20, Margin: 10, PageWidth: 100})
	assert.Equal(t, 220.0, width)
}

func TestWriteSVG_ZeroNormalFaceKeepsItsShape(t *testing.T) {
	var zero math.Vec3
	m := importMesh(t, "", []stl.Triangle{
		{Normal: zero, Vertices: [3]math.Vec3{v(0, 0, 0), v(1, 0, 0), v(0, 1, 0)}},
	})

	out := render(t, m, DefaultSVGOptions())
	assert.Contains(t, out, `height="40.00"`)
	assert.Contains(t, out, `d="M10.00 30.00 L30.00 30.00 L10.00 10.00 Z"`)
}

func TestPlaced_LabelAtBoxCenter(t *testing.T) {
	p := placed{
		flatFace: &flatFace{min: math.Vec2{X: 1, Y: 1}, max: math.Vec2{X: 3, Y: 2}},
		x:        10,
		y:        10,
	}
	assert.Equal(t, math.Vec2{X: 30, Y: 20}, p.labelAt(10))
}
