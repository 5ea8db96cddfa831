// Package mesh reconstructs planar-face topology from a triangle soup:
// a deduplicated vertex store, a triangle adjacency graph and the grouping
// of coplanar, edge-connected triangles into faces with ordered boundaries.
package mesh

import (
	"github.com/Faultbox/modelconv/pkg/math"
)

// VertexID is a stable index into a VertexStore.
type VertexID uint32

// VertexStore is a deduplicated set of points. Points are compared with
// exact float equality; near-coincident points stay distinct.
//
// IDs are dense and never invalidated: the store only appends.
type VertexStore struct {
	points []math.Vec3
	index  map[math.Vec3]VertexID
}

// NewVertexStore creates an empty store sized for about capacity points.
func NewVertexStore(capacity int) *VertexStore {
	return &VertexStore{
		points: make([]math.Vec3, 0, capacity),
		index:  make(map[math.Vec3]VertexID, capacity),
	}
}

// Add returns the ID of p, appending it if no equal point is stored yet.
func (s *VertexStore) Add(p math.Vec3) VertexID {
	if id, ok := s.index[p]; ok {
		return id
	}
	id := VertexID(len(s.points))
	s.points = append(s.points, p)
	s.index[p] = id
	return id
}

// Find returns the ID of a stored point equal to p.
func (s *VertexStore) Find(p math.Vec3) (VertexID, bool) {
	id, ok := s.index[p]
	return id, ok
}

// At returns the point for id. It panics if id was not issued by s.
func (s *VertexStore) At(id VertexID) math.Vec3 {
	return s.points[id]
}

// Len returns the number of distinct points.
func (s *VertexStore) Len() int {
	return len(s.points)
}

// Points returns a copy of all points in ID order.
func (s *VertexStore) Points() []math.Vec3 {
	out := make([]math.Vec3, len(s.points))
	copy(out, s.points)
	return out
}

// Bounds returns the axis-aligned bounding box of the stored points.
func (s *VertexStore) Bounds() (lo, hi math.Vec3) {
	if len(s.points) == 0 {
		return math.Vec3{}, math.Vec3{}
	}
	lo, hi = s.points[0], s.points[0]
	for _, p := range s.points[1:] {
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	return lo, hi
}
