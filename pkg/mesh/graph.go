package mesh

import (
	"errors"
	"fmt"
	gomath "math"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/modelconv/pkg/math"
	"github.com/Faultbox/modelconv/pkg/stl"
)

// TriangleID is a stable index into a Graph's triangle list. A graph holds
// at most MaxTriangles triangles.
type TriangleID int32

// MaxTriangles is the largest triangle count a Graph can index.
const MaxTriangles = gomath.MaxInt32

// NoNeighbor marks an open edge.
const NoNeighbor TriangleID = -1

// Triangle is a node of the adjacency graph. Edge e joins V[e] and V[(e+1)%3];
// Neighbors[e] is the triangle on the other side of that edge.
type Triangle struct {
	Normal    math.Vec3
	V         [3]VertexID
	Neighbors [3]TriangleID
}

// Edge returns the endpoints of edge e in winding order.
func (t *Triangle) Edge(e int) (VertexID, VertexID) {
	return t.V[e], t.V[(e+1)%3]
}

// EdgeOf returns the index of the edge joining a and b in either direction,
// or -1 if the triangle has no such edge.
func (t *Triangle) EdgeOf(a, b VertexID) int {
	for e := 0; e < 3; e++ {
		x, y := t.Edge(e)
		if (x == a && y == b) || (x == b && y == a) {
			return e
		}
	}
	return -1
}

// Shares returns how many vertex references t and other have in common.
func (t *Triangle) Shares(other *Triangle) int {
	n := 0
	for _, a := range t.V {
		for _, b := range other.V {
			if a == b {
				n++
				break
			}
		}
	}
	return n
}

// IsOpen reports whether edge e has no neighbor.
func (t *Triangle) IsOpen(e int) bool {
	return t.Neighbors[e] == NoNeighbor
}

// CheckAdjacent is the pairwise adjacency test. It returns the number of
// shared vertices and, when exactly two are shared, the index of the shared
// edge on each triangle (otherwise -1).
func CheckAdjacent(a, b *Triangle) (shared, edgeA, edgeB int) {
	shared = a.Shares(b)
	if shared != 2 {
		return shared, -1, -1
	}
	for e := 0; e < 3; e++ {
		x, y := a.Edge(e)
		if eb := b.EdgeOf(x, y); eb >= 0 {
			return shared, e, eb
		}
	}
	return shared, -1, -1
}

// edgeKey identifies an undirected edge by its vertex pair.
type edgeKey struct {
	lo, hi VertexID
}

func makeEdgeKey(a, b VertexID) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

type edgeUse struct {
	tri   TriangleID
	edge  int8
	count uint8
}

func sortedTriple(v [3]VertexID) [3]VertexID {
	if v[0] > v[1] {
		v[0], v[1] = v[1], v[0]
	}
	if v[1] > v[2] {
		v[1], v[2] = v[2], v[1]
	}
	if v[0] > v[1] {
		v[0], v[1] = v[1], v[0]
	}
	return v
}

// Graph is the triangle adjacency graph over a vertex store.
//
// Adjacency is found through an index keyed by vertex-id pairs, which gives
// the same links as comparing every new triangle against all earlier ones.
type Graph struct {
	Vertices  *VertexStore
	Triangles []Triangle

	edges   map[edgeKey]edgeUse
	triples map[[3]VertexID]TriangleID
}

// NewGraph creates an empty graph sized for about capacity triangles.
func NewGraph(capacity int) *Graph {
	return &Graph{
		Vertices:  NewVertexStore(capacity / 2),
		Triangles: make([]Triangle, 0, capacity),
		edges:     make(map[edgeKey]edgeUse, capacity*3/2),
		triples:   make(map[[3]VertexID]TriangleID, capacity),
	}
}

// Len returns the number of triangles.
func (g *Graph) Len() int {
	return len(g.Triangles)
}

// Triangle returns the triangle with the given id.
func (g *Graph) Triangle(id TriangleID) *Triangle {
	return &g.Triangles[id]
}

// Point returns the position of vertex i of triangle id.
func (g *Graph) Point(id TriangleID, i int) math.Vec3 {
	return g.Vertices.At(g.Triangles[id].V[i])
}

// Append resolves the three points through the vertex store, adds a triangle
// and links it to every earlier triangle it shares an edge with.
//
// On error the graph must be discarded: the vertex store may already hold
// the new points.
func (g *Graph) Append(normal math.Vec3, pts [3]math.Vec3) (TriangleID, error) {
	if err := checkTriangleCount(int64(len(g.Triangles)) + 1); err != nil {
		return NoNeighbor, err
	}
	id := TriangleID(len(g.Triangles))
	t := Triangle{
		Normal:    normal,
		Neighbors: [3]TriangleID{NoNeighbor, NoNeighbor, NoNeighbor},
	}
	for i, p := range pts {
		t.V[i] = g.Vertices.Add(p)
	}

	if t.V[0] == t.V[1] || t.V[1] == t.V[2] || t.V[0] == t.V[2] {
		return NoNeighbor, &TriangleError{
			Index: int(id) + 1,
			Phase: PhaseVertex,
			Other: NoNeighbor,
			Err:   fmt.Errorf("%w: repeated vertex", ErrDegenerateTriangle),
		}
	}

	triple := sortedTriple(t.V)
	if other, ok := g.triples[triple]; ok {
		return NoNeighbor, &TriangleError{
			Index: int(id) + 1,
			Phase: PhaseAdjacency,
			Other: other,
			Err:   fmt.Errorf("%w: %w", ErrDegenerateTriangle, ErrDuplicateTriangle),
		}
	}

	// Check every edge before linking anything.
	var keys [3]edgeKey
	for e := 0; e < 3; e++ {
		keys[e] = makeEdgeKey(t.Edge(e))
		if use := g.edges[keys[e]]; use.count >= 2 {
			return NoNeighbor, &TriangleError{
				Index: int(id) + 1,
				Phase: PhaseAdjacency,
				Other: use.tri,
				Err:   ErrNonManifoldEdge,
			}
		}
	}

	for e := 0; e < 3; e++ {
		use, ok := g.edges[keys[e]]
		if !ok {
			g.edges[keys[e]] = edgeUse{tri: id, edge: int8(e), count: 1}
			continue
		}
		g.Triangles[use.tri].Neighbors[use.edge] = id
		t.Neighbors[e] = use.tri
		use.count++
		g.edges[keys[e]] = use
	}

	g.triples[triple] = id
	g.Triangles = append(g.Triangles, t)
	return id, nil
}

// OpenEdges returns the number of edges with no neighbor.
func (g *Graph) OpenEdges() int {
	n := 0
	for i := range g.Triangles {
		for e := 0; e < 3; e++ {
			if g.Triangles[i].IsOpen(e) {
				n++
			}
		}
	}
	return n
}

// Validate checks that neighbor links are symmetric, that linked triangles
// share exactly the linking edge, and that no edge is used more than twice.
func (g *Graph) Validate() error {
	uses := make(map[edgeKey]int, len(g.Triangles)*3/2)
	for i := range g.Triangles {
		t := &g.Triangles[i]
		id := TriangleID(i)
		for e := 0; e < 3; e++ {
			a, b := t.Edge(e)
			key := makeEdgeKey(a, b)
			uses[key]++
			if uses[key] > 2 {
				return &TriangleError{Index: i + 1, Total: len(g.Triangles), Phase: PhaseAdjacency,
					Other: NoNeighbor, Err: ErrNonManifoldEdge}
			}

			n := t.Neighbors[e]
			if n == NoNeighbor {
				continue
			}
			other := &g.Triangles[n]
			shared, _, en := CheckAdjacent(t, other)
			if shared != 2 || en < 0 || other.EdgeOf(a, b) != en || other.Neighbors[en] != id {
				return &TriangleError{Index: i + 1, Total: len(g.Triangles), Phase: PhaseAdjacency,
					Other: n, Err: ErrAsymmetricNeighbor}
			}
		}
	}
	return nil
}

// checkTriangleCount rejects inputs whose ids would not fit in a TriangleID.
func checkTriangleCount(n int64) error {
	if n > MaxTriangles {
		return fmt.Errorf("%w: %d triangles, limit is %d", ErrTooManyTriangles, n, MaxTriangles)
	}
	return nil
}

// BuildGraph builds the vertex store and adjacency graph from raw records,
// in record order. Any error aborts the whole build.
func BuildGraph(records []stl.Triangle, log *zap.Logger) (*Graph, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := checkTriangleCount(int64(len(records))); err != nil {
		return nil, err
	}
	start := time.Now()

	g := NewGraph(len(records))
	for i := range records {
		r := &records[i]
		if _, err := g.Append(r.Normal, r.Vertices); err != nil {
			var te *TriangleError
			if errors.As(err, &te) {
				te.Total = len(records)
			}
			return nil, err
		}
	}

	log.Debug("triangle graph built",
		zap.Int("triangles", g.Len()),
		zap.Int("vertices", g.Vertices.Len()),
		zap.Int("open_edges", g.OpenEdges()),
		zap.Duration("elapsed", time.Since(start)))

	return g, nil
}
