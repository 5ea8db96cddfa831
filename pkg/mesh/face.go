package mesh

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bits-and-blooms/bitset"

	"github.com/Faultbox/modelconv/pkg/math"
)

// DefaultNormalEpsilon is the per-component tolerance for grouping normals.
const DefaultNormalEpsilon float32 = 1e-5

// FaceOptions controls face grouping.
type FaceOptions struct {
	// NormalEpsilon is the per-component tolerance when comparing a
	// triangle's normal to its face's normal. Zero or less means exact equality.
	NormalEpsilon float32

	// SingleLoop rejects faces whose boundary is not exactly one loop
	// (faces with holes).
	SingleLoop bool
}

// DefaultFaceOptions returns the default grouping options.
func DefaultFaceOptions() FaceOptions {
	return FaceOptions{NormalEpsilon: DefaultNormalEpsilon}
}

// Face is a maximal set of edge-connected triangles whose normals match the
// face normal, with its boundary as ordered vertex loops.
type Face struct {
	Normal    math.Vec3
	Triangles []TriangleID // traversal order, seed first
	Boundary  Loop         // outer loop
	Holes     []Loop

	plane   math.Vec3
	members *roaring.Bitmap
}

// PlaneNormal returns the unit normal of the face's plane. It is the
// normalized face normal, or, when the records carry a zero normal, the
// direction of the outer loop's Newell vector.
func (f *Face) PlaneNormal() math.Vec3 {
	return f.plane
}

// Contains reports whether triangle id belongs to the face.
func (f *Face) Contains(id TriangleID) bool {
	return f.members != nil && f.members.Contains(uint32(id))
}

// Len returns the number of member triangles.
func (f *Face) Len() int {
	return len(f.Triangles)
}

// Loops returns the outer loop followed by any holes.
func (f *Face) Loops() []Loop {
	loops := make([]Loop, 0, 1+len(f.Holes))
	loops = append(loops, f.Boundary)
	return append(loops, f.Holes...)
}

// Area returns the area of the face's planar region: the outer loop minus holes.
func (f *Face) Area(vs *VertexStore) float32 {
	area := abs32(f.Boundary.Area(vs, f.plane))
	for _, h := range f.Holes {
		area -= abs32(h.Area(vs, f.plane))
	}
	return area
}

func normalsEqual(a, b math.Vec3, eps float32) bool {
	if eps <= 0 {
		return a == b
	}
	return a.ApproxEqual(b, eps)
}

// BuildFaces partitions every triangle of g into faces.
//
// Triangles are taken as seeds in creation order. Each unclaimed seed starts
// a face with the seed's normal; a breadth-first fill then claims every
// unclaimed neighbor whose normal matches the face normal. An edge is a
// boundary edge when it is open, or when the triangle across it has a
// different normal or was claimed by an earlier face.
//
// A face whose boundary edges close into several loops is kept by default:
// the largest loop is the outer Boundary and the others are Holes. Set
// FaceOptions.SingleLoop to require exactly one closed loop per face and
// fail with ErrMultipleLoops otherwise.
//
// The graph is read-only here. All markers are scoped to this call.
func BuildFaces(g *Graph, opts FaceOptions) ([]Face, error) {
	n := g.Len()
	claimed := bitset.New(uint(n))

	var (
		faces []Face
		queue []TriangleID
		edges []boundaryEdge
	)

	for i := 0; i < n; i++ {
		seed := TriangleID(i)
		if claimed.Test(uint(seed)) {
			continue
		}

		face := Face{
			Normal:  g.Triangles[seed].Normal,
			members: roaring.New(),
		}
		claimed.Set(uint(seed))
		face.members.Add(uint32(seed))

		queue = append(queue[:0], seed)
		edges = edges[:0]

		for head := 0; head < len(queue); head++ {
			id := queue[head]
			t := &g.Triangles[id]
			face.Triangles = append(face.Triangles, id)

			for e := 0; e < 3; e++ {
				nb := t.Neighbors[e]
				switch {
				case nb == NoNeighbor:
					edges = append(edges, newBoundaryEdge(t, e))
				case face.members.Contains(uint32(nb)):
					// interior edge
				case !claimed.Test(uint(nb)) && normalsEqual(g.Triangles[nb].Normal, face.Normal, opts.NormalEpsilon):
					claimed.Set(uint(nb))
					face.members.Add(uint32(nb))
					queue = append(queue, nb)
				default:
					edges = append(edges, newBoundaryEdge(t, e))
				}
			}
		}

		if err := face.assembleBoundary(g.Vertices, edges, opts.SingleLoop); err != nil {
			return nil, &FaceError{Face: len(faces) + 1, Seed: seed, Err: err}
		}
		face.members.RunOptimize()
		faces = append(faces, face)
	}

	return faces, nil
}

// assembleBoundary stitches the face's boundary edges into loops and picks
// the loop with the largest projected area as the outer boundary. Without a
// usable face normal, loops are ranked by the length of their Newell vector
// and the outer loop's Newell vector defines the plane.
func (f *Face) assembleBoundary(vs *VertexStore, edges []boundaryEdge, singleLoop bool) error {
	if len(edges) == 0 {
		return ErrNoBoundary
	}
	loops, err := stitchLoops(edges)
	if err != nil {
		return err
	}
	if singleLoop && len(loops) > 1 {
		return ErrMultipleLoops
	}

	plane := f.Normal.Normalize()
	rank := func(l Loop) float32 {
		if plane == (math.Vec3{}) {
			return l.Newell(vs).Length()
		}
		return abs32(l.Area(vs, plane))
	}

	outer := 0
	best := rank(loops[0])
	for i := 1; i < len(loops); i++ {
		if a := rank(loops[i]); a > best {
			outer, best = i, a
		}
	}
	if plane == (math.Vec3{}) {
		plane = loops[outer].Newell(vs).Normalize()
	}

	f.plane = plane
	f.Boundary = loops[outer]
	for i, l := range loops {
		if i != outer {
			f.Holes = append(f.Holes, l)
		}
	}
	return nil
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
