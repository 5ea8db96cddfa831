package mesh

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/modelconv/pkg/math"
	"github.com/Faultbox/modelconv/pkg/stl"
)

func buildFaces(t *testing.T, s *stl.STL, opts FaceOptions) (*Graph, []Face) {
	t.Helper()
	g, err := BuildGraph(s.Triangles, nil)
	require.NoError(t, err)
	faces, err := BuildFaces(g, opts)
	require.NoError(t, err)
	return g, faces
}

// requirePartition checks that faces partition the graph into connected,
// normal-consistent groups.
func requirePartition(t *testing.T, g *Graph, faces []Face, eps float32) {
	t.Helper()

	owner := make(map[TriangleID]int)
	for fi := range faces {
		f := &faces[fi]
		for _, id := range f.Triangles {
			prev, dup := owner[id]
			require.False(t, dup, "triangle %d in faces %d and %d", id, prev, fi)
			owner[id] = fi
			require.True(t, f.Contains(id))
			require.True(t, normalsEqual(g.Triangles[id].Normal, f.Normal, eps))
		}

		// Every member is reachable from the seed through members only.
		seen := map[TriangleID]bool{f.Triangles[0]: true}
		queue := []TriangleID{f.Triangles[0]}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			for _, nb := range g.Triangles[id].Neighbors {
				if nb != NoNeighbor && f.Contains(nb) && !seen[nb] {
					seen[nb] = true
					queue = append(queue, nb)
				}
			}
		}
		require.Len(t, seen, f.Len(), "face %d is not connected", fi)
	}
	require.Len(t, owner, g.Len())
}

func TestBuildFaces_SingleTriangle(t *testing.T) {
	g, faces := buildFaces(t, soup("", []stl.Triangle{
		tri(v(0, 0, 1), v(0, 0, 0), v(1, 0, 0), v(0, 1, 0)),
	}), DefaultFaceOptions())

	require.Len(t, faces, 1)
	f := faces[0]
	assert.Equal(t, []TriangleID{0}, f.Triangles)
	assert.Equal(t, Loop{0, 1, 2}, f.Boundary)
	assert.Empty(t, f.Holes)
	assert.Equal(t, g.Triangles[0].V[:], []VertexID(f.Boundary))
}

func TestBuildFaces_SharedEdgeSameNormal(t *testing.T) {
	g, faces := buildFaces(t, soup("", []stl.Triangle{
		tri(v(0, 0, 1), v(0, 0, 0), v(1, 0, 0), v(0, 1, 0)),
		tri(v(0, 0, 1), v(1, 0, 0), v(0, 0, 0), v(0, -1, 0)),
	}), DefaultFaceOptions())

	require.Len(t, faces, 1)
	f := faces[0]
	assert.Equal(t, []TriangleID{0, 1}, f.Triangles)
	// The outer quad, without the shared diagonal.
	assert.Equal(t, Loop{1, 2, 0, 3}, f.Boundary)
	assert.InDelta(t, 1.0, f.Area(g.Vertices), 1e-6)

	assert.Equal(t, TriangleID(1), g.Triangles[0].Neighbors[0])
	assert.Equal(t, TriangleID(0), g.Triangles[1].Neighbors[0])
}

func TestBuildFaces_SharedEdgeDifferentNormal(t *testing.T) {
	g, faces := buildFaces(t, soup("", []stl.Triangle{
		tri(v(0, 0, 1), v(0, 0, 0), v(1, 0, 0), v(0, 1, 0)),
		tri(v(0, 0.001, 0.9999995), v(1, 0, 0), v(0, 0, 0), v(0, -1, 0)),
	}), DefaultFaceOptions())

	require.Len(t, faces, 2)
	assert.Equal(t, []TriangleID{0}, faces[0].Triangles)
	assert.Equal(t, []TriangleID{1}, faces[1].Triangles)

	// The shared edge is on both boundaries.
	assert.Equal(t, Loop{0, 1, 2}, faces[0].Boundary)
	assert.Equal(t, Loop{1, 0, 3}, faces[1].Boundary)

	// Still neighbors in the graph.
	assert.Equal(t, TriangleID(1), g.Triangles[0].Neighbors[0])
}

func TestBuildFaces_NormalEpsilon(t *testing.T) {
	s := soup("", []stl.Triangle{
		tri(v(0, 0, 1), v(0, 0, 0), v(1, 0, 0), v(0, 1, 0)),
		tri(v(0, 0.000001, 1), v(1, 0, 0), v(0, 0, 0), v(0, -1, 0)),
	})

	tests := []struct {
		name  string
		eps   float32
		faces int
	}{
		{"default", DefaultNormalEpsilon, 1},
		{"exact", 0, 2},
		{"tight", 1e-7, 2},
		{"loose", 1e-3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, faces := buildFaces(t, s, FaceOptions{NormalEpsilon: tt.eps})
			assert.Len(t, faces, tt.faces)
			requirePartition(t, g, faces, tt.eps)
		})
	}
}

func TestBuildFaces_ComparesAgainstSeedNormal(t *testing.T) {
	// A fan whose normals drift by 0.6 per step with eps 1: the third
	// triangle is within eps of the second but not of the seed.
	s := soup("", []stl.Triangle{
		tri(v(0, 0, 1), v(0, 0, 0), v(1, 0, 0), v(0, 1, 0)),
		tri(v(0, 0.6, 1), v(0, 0, 0), v(0, 1, 0), v(-1, 0, 0)),
		tri(v(0, 1.2, 1), v(0, 0, 0), v(-1, 0, 0), v(0, -1, 0)),
	})

	g, faces := buildFaces(t, s, FaceOptions{NormalEpsilon: 1})
	require.Len(t, faces, 2)
	assert.Equal(t, []TriangleID{0, 1}, faces[0].Triangles)
	assert.Equal(t, []TriangleID{2}, faces[1].Triangles)
	requirePartition(t, g, faces, 1)
}

func TestBuildFaces_Cube(t *testing.T) {
	g, faces := buildFaces(t, unitCube(), DefaultFaceOptions())

	require.Len(t, faces, 6)
	requirePartition(t, g, faces, DefaultNormalEpsilon)
	for i, f := range faces {
		assert.Equal(t, 2, f.Len(), "face %d", i)
		assert.Len(t, f.Boundary, 4, "face %d", i)
		assert.Empty(t, f.Holes, "face %d", i)
		// Outward winding gives a positive area around the face normal.
		assert.InDelta(t, 1.0, f.Boundary.Area(g.Vertices, f.Normal), 1e-6, "face %d", i)
	}
}

func TestBuildFaces_FaceWithHole(t *testing.T) {
	g, faces := buildFaces(t, squareRing(), DefaultFaceOptions())

	require.Len(t, faces, 1)
	f := faces[0]
	assert.Equal(t, 8, f.Len())
	require.Len(t, f.Boundary, 4)
	require.Len(t, f.Holes, 1)
	assert.Len(t, f.Holes[0], 4)
	assert.Len(t, f.Loops(), 2)

	assert.InDelta(t, 9.0, f.Boundary.Area(g.Vertices, f.Normal), 1e-5)
	assert.InDelta(t, -1.0, f.Holes[0].Area(g.Vertices, f.Normal), 1e-5)
	assert.InDelta(t, 8.0, f.Area(g.Vertices), 1e-5)
}

func TestBuildFaces_SingleLoopRejectsHoles(t *testing.T) {
	g, err := BuildGraph(squareRing().Triangles, nil)
	require.NoError(t, err)

	_, err = BuildFaces(g, FaceOptions{NormalEpsilon: DefaultNormalEpsilon, SingleLoop: true})
	require.ErrorIs(t, err, ErrMultipleLoops)

	var fe *FaceError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 1, fe.Face)
	assert.Equal(t, TriangleID(0), fe.Seed)
}

func TestBuildFaces_NoBoundary(t *testing.T) {
	g, err := BuildGraph(zeroNormalTetrahedron().Triangles, nil)
	require.NoError(t, err)
	require.Equal(t, 0, g.OpenEdges())

	_, err = BuildFaces(g, DefaultFaceOptions())
	require.ErrorIs(t, err, ErrNoBoundary)
	assert.Contains(t, err.Error(), "face 1")
}

func TestBuildFaces_Empty(t *testing.T) {
	faces, err := BuildFaces(NewGraph(0), DefaultFaceOptions())
	require.NoError(t, err)
	assert.Empty(t, faces)
}

func TestStitchLoops(t *testing.T) {
	t.Run("single loop in winding order", func(t *testing.T) {
		loops, err := stitchLoops([]boundaryEdge{{2, 0}, {0, 1}, {1, 2}})
		require.NoError(t, err)
		assert.Equal(t, []Loop{{2, 0, 1}}, loops)
	})

	t.Run("reversed edge still closes", func(t *testing.T) {
		loops, err := stitchLoops([]boundaryEdge{{0, 1}, {2, 1}, {2, 3}, {3, 0}})
		require.NoError(t, err)
		assert.Equal(t, []Loop{{0, 1, 2, 3}}, loops)
	})

	t.Run("two disjoint loops", func(t *testing.T) {
		loops, err := stitchLoops([]boundaryEdge{{0, 1}, {4, 5}, {1, 2}, {5, 6}, {2, 0}, {6, 4}})
		require.NoError(t, err)
		assert.Equal(t, []Loop{{0, 1, 2}, {4, 5, 6}}, loops)
	})

	t.Run("loops pinched at a vertex", func(t *testing.T) {
		loops, err := stitchLoops([]boundaryEdge{{0, 1}, {1, 2}, {2, 0}, {0, 3}, {3, 4}, {4, 0}})
		require.NoError(t, err)
		total := 0
		for _, l := range loops {
			total += len(l)
		}
		assert.Equal(t, 6, total)
	})

	t.Run("open chain", func(t *testing.T) {
		_, err := stitchLoops([]boundaryEdge{{0, 1}, {1, 2}, {2, 3}})
		require.ErrorIs(t, err, ErrOpenBoundary)
	})
}

func TestLoopArea(t *testing.T) {
	vs := NewVertexStore(0)
	a := vs.Add(v(0, 0, 0))
	b := vs.Add(v(2, 0, 0))
	c := vs.Add(v(0, 2, 0))

	assert.InDelta(t, 2.0, Loop{a, b, c}.Area(vs, v(0, 0, 1)), 1e-6)
	assert.InDelta(t, -2.0, Loop{a, c, b}.Area(vs, v(0, 0, 1)), 1e-6)
	assert.InDelta(t, 0.0, Loop{a, b}.Area(vs, v(0, 0, 1)), 1e-6)
	assert.Equal(t, []math.Vec3{v(0, 0, 0), v(2, 0, 0), v(0, 2, 0)}, Loop{a, b, c}.Points(vs))
}

func TestBuildFaces_ZeroNormalRingPicksOuterLoop(t *testing.T) {
	g, faces := buildFaces(t, zeroNormalRing(), DefaultFaceOptions())

	require.Len(t, faces, 1)
	f := faces[0]
	assert.Equal(t, math.Vec3{}, f.Normal)
	assert.Equal(t, v(0, 0, 1), f.PlaneNormal())

	require.Len(t, f.Boundary, 4)
	require.Len(t, f.Holes, 1)
	assert.ElementsMatch(t,
		[]math.Vec3{v(0, 0, 0), v(3, 0, 0), v(3, 3, 0), v(0, 3, 0)},
		f.Boundary.Points(g.Vertices))
	assert.ElementsMatch(t,
		[]math.Vec3{v(1, 1, 0), v(2, 1, 0), v(2, 2, 0), v(1, 2, 0)},
		f.Holes[0].Points(g.Vertices))
	assert.InDelta(t, 8.0, f.Area(g.Vertices), 1e-5)
}

func TestFace_PlaneNormalFollowsRecordNormal(t *testing.T) {
	_, faces := buildFaces(t, soup("", []stl.Triangle{
		tri(v(0, 0, 2), v(0, 0, 0), v(1, 0, 0), v(0, 1, 0)),
	}), DefaultFaceOptions())

	require.Len(t, faces, 1)
	assert.Equal(t, v(0, 0, 1), faces[0].PlaneNormal())
}

func TestLoopNewell(t *testing.T) {
	vs := NewVertexStore(0)
	a := vs.Add(v(0, 0, 0))
	b := vs.Add(v(2, 0, 0))
	c := vs.Add(v(0, 2, 0))

	assert.Equal(t, v(0, 0, 4), Loop{a, b, c}.Newell(vs))
	assert.Equal(t, v(0, 0, -4), Loop{a, c, b}.Newell(vs))
	assert.Equal(t, math.Vec3{}, Loop{a, b}.Newell(vs))
	assert.Zero(t, Loop{a, b, c}.Area(vs, math.Vec3{}))
}
