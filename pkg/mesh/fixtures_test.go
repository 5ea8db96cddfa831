package mesh

import (
	"github.com/Faultbox/modelconv/pkg/math"
	"github.com/Faultbox/modelconv/pkg/stl"
)

func v(x, y, z float32) math.Vec3 {
	return math.Vec3{X: x, Y: y, Z: z}
}

func tri(n, a, b, c math.Vec3) stl.Triangle {
	return stl.Triangle{Normal: n, Vertices: [3]math.Vec3{a, b, c}}
}

// quad splits a counter-clockwise quad (seen from the normal side) into
// the triangles (a, b, c) and (a, c, d).
func quad(n, a, b, c, d math.Vec3) []stl.Triangle {
	return []stl.Triangle{tri(n, a, b, c), tri(n, a, c, d)}
}

func soup(header string, tris ...[]stl.Triangle) *stl.STL {
	s := &stl.STL{}
	s.SetHeaderText(header)
	for _, t := range tris {
		s.Triangles = append(s.Triangles, t...)
	}
	return s
}

// unitCube returns a closed, outward-wound unit cube of 12 triangles.
func unitCube() *stl.STL {
	return soup("unit cube",
		quad(v(0, 0, 1), v(0, 0, 1), v(1, 0, 1), v(1, 1, 1), v(0, 1, 1)),
		quad(v(0, 0, -1), v(0, 0, 0), v(0, 1, 0), v(1, 1, 0), v(1, 0, 0)),
		quad(v(1, 0, 0), v(1, 0, 0), v(1, 1, 0), v(1, 1, 1), v(1, 0, 1)),
		quad(v(-1, 0, 0), v(0, 0, 0), v(0, 0, 1), v(0, 1, 1), v(0, 1, 0)),
		quad(v(0, -1, 0), v(0, 0, 0), v(1, 0, 0), v(1, 0, 1), v(0, 0, 1)),
		quad(v(0, 1, 0), v(0, 1, 0), v(0, 1, 1), v(1, 1, 1), v(1, 1, 0)),
	)
}

// squareRing returns a flat 3x3 square with a 1x1 square hole in the middle.
func squareRing() *stl.STL {
	up := v(0, 0, 1)
	o0, o1, o2, o3 := v(0, 0, 0), v(3, 0, 0), v(3, 3, 0), v(0, 3, 0)
	i0, i1, i2, i3 := v(1, 1, 0), v(2, 1, 0), v(2, 2, 0), v(1, 2, 0)
	return soup("ring",
		quad(up, o0, o1, i1, i0),
		quad(up, o1, o2, i2, i1),
		quad(up, o2, o3, i3, i2),
		quad(up, o3, o0, i0, i3),
	)
}

// zeroNormalRing is squareRing with all-zero normals, listed so that the
// first record starts on an inner edge.
func zeroNormalRing() *stl.STL {
	var zero math.Vec3
	o0, o1, o2, o3 := v(0, 0, 0), v(3, 0, 0), v(3, 3, 0), v(0, 3, 0)
	i0, i1, i2, i3 := v(1, 1, 0), v(2, 1, 0), v(2, 2, 0), v(1, 2, 0)
	return soup("zero ring",
		quad(zero, i1, i0, o0, o1),
		quad(zero, o1, o2, i2, i1),
		quad(zero, o2, o3, i3, i2),
		quad(zero, o3, o0, i0, i3),
	)
}

// zeroNormalTetrahedron is closed and every record has a zero normal.
func zeroNormalTetrahedron() *stl.STL {
	a, b, c, d := v(0, 0, 0), v(1, 0, 0), v(0, 1, 0), v(0, 0, 1)
	var zero math.Vec3
	return soup("tetra", []stl.Triangle{
		tri(zero, a, c, b),
		tri(zero, a, b, d),
		tri(zero, a, d, c),
		tri(zero, b, c, d),
	})
}
