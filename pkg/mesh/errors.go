package mesh

import (
	"errors"
	"fmt"
)

// Structural errors. Any of them aborts the whole import or face build.
var (
	ErrDegenerateTriangle = errors.New("degenerate triangle")
	ErrDuplicateTriangle  = errors.New("duplicate triangle: all three vertices shared")
	ErrNonManifoldEdge    = errors.New("non-manifold edge: shared by more than two triangles")
	ErrNoBoundary         = errors.New("face has no boundary edges")
	ErrOpenBoundary       = errors.New("face boundary does not close into a loop")
	ErrMultipleLoops      = errors.New("face boundary has more than one loop")
	ErrAsymmetricNeighbor = errors.New("neighbor references are not symmetric")
	ErrTooManyTriangles   = errors.New("too many triangles")
)

// Import phases reported by TriangleError.
const (
	PhaseVertex    = "vertex"
	PhaseAdjacency = "adjacency"
)

// TriangleError reports which triangle, and which phase of its insertion,
// failed during graph construction.
type TriangleError struct {
	Index int // 1-based position in the input
	Total int
	Phase string
	Other TriangleID // conflicting triangle, or NoNeighbor
	Err   error
}

func (e *TriangleError) Error() string {
	pos := fmt.Sprintf("triangle %d", e.Index)
	if e.Total > 0 {
		pos = fmt.Sprintf("triangle %d of %d", e.Index, e.Total)
	}
	if e.Other != NoNeighbor {
		return fmt.Sprintf("%s: %s: %v (conflicts with triangle %d)", pos, e.Phase, e.Err, int(e.Other)+1)
	}
	return fmt.Sprintf("%s: %s: %v", pos, e.Phase, e.Err)
}

func (e *TriangleError) Unwrap() error { return e.Err }

// FaceError reports which face failed boundary assembly.
type FaceError struct {
	Face int // 1-based face number
	Seed TriangleID
	Err  error
}

func (e *FaceError) Error() string {
	return fmt.Sprintf("face %d (seed triangle %d): %v", e.Face, int(e.Seed)+1, e.Err)
}

func (e *FaceError) Unwrap() error { return e.Err }
