package mesh

import (
	"fmt"

	"github.com/Faultbox/modelconv/pkg/math"
)

// Loop is a closed, ordered sequence of vertices; the last vertex connects
// back to the first.
type Loop []VertexID

// Points resolves the loop's vertices.
func (l Loop) Points(vs *VertexStore) []math.Vec3 {
	pts := make([]math.Vec3, len(l))
	for i, id := range l {
		pts[i] = vs.At(id)
	}
	return pts
}

// Newell returns the loop's Newell vector: perpendicular to the loop's
// plane, pointing the way the loop winds counter-clockwise, with a length of
// twice the enclosed area.
func (l Loop) Newell(vs *VertexStore) math.Vec3 {
	var sum math.Vec3
	if len(l) < 3 {
		return sum
	}
	for i := range l {
		p := vs.At(l[i])
		q := vs.At(l[(i+1)%len(l)])
		sum = sum.Add(p.Cross(q))
	}
	return sum
}

// Area returns the signed area of the loop projected onto the plane
// perpendicular to normal. It is positive when the loop winds
// counter-clockwise around normal. A zero normal gives zero.
func (l Loop) Area(vs *VertexStore, normal math.Vec3) float32 {
	return l.Newell(vs).Dot(normal.Normalize()) / 2
}

// boundaryEdge is a face boundary edge in its triangle's winding order.
type boundaryEdge struct {
	a, b VertexID
}

func newBoundaryEdge(t *Triangle, e int) boundaryEdge {
	a, b := t.Edge(e)
	return boundaryEdge{a, b}
}

// stitchLoops chains an unordered set of boundary edges into closed loops.
//
// Each walk starts at the first unused edge and repeatedly moves to an
// unused edge touching the current vertex, preferring one that leaves the
// vertex in winding order. The walk ends when it returns to its start
// vertex. Every edge is used exactly once; an edge set with a dead end
// fails with ErrOpenBoundary.
func stitchLoops(edges []boundaryEdge) ([]Loop, error) {
	incident := make(map[VertexID][]int, len(edges))
	for i, e := range edges {
		incident[e.a] = append(incident[e.a], i)
		incident[e.b] = append(incident[e.b], i)
	}
	used := make([]bool, len(edges))

	next := func(v VertexID) int {
		fallback := -1
		for _, i := range incident[v] {
			if used[i] {
				continue
			}
			if edges[i].a == v {
				return i
			}
			if fallback < 0 {
				fallback = i
			}
		}
		return fallback
	}

	var loops []Loop
	for i := range edges {
		if used[i] {
			continue
		}
		used[i] = true
		start := edges[i].a
		cur := edges[i].b
		loop := Loop{start}

		for cur != start {
			j := next(cur)
			if j < 0 {
				return nil, fmt.Errorf("%w: dead end at vertex %d after %d edges", ErrOpenBoundary, cur, len(loop))
			}
			used[j] = true
			loop = append(loop, cur)
			if edges[j].a == cur {
				cur = edges[j].b
			} else {
				cur = edges[j].a
			}
		}

		loops = append(loops, loop)
	}

	return loops, nil
}
