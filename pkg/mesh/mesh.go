package mesh

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/modelconv/pkg/math"
	"github.com/Faultbox/modelconv/pkg/stl"
)

// Options configures Import.
type Options struct {
	Faces FaceOptions

	// RecomputeZeroNormals replaces all-zero record normals with the
	// right-hand-rule normal of the record's vertices before grouping.
	RecomputeZeroNormals bool

	// Logger receives debug progress. Nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions returns the default import options.
func DefaultOptions() Options {
	return Options{Faces: DefaultFaceOptions()}
}

// Mesh owns the vertex store, the triangle graph and the faces derived from it.
type Mesh struct {
	Header [stl.HeaderSize]byte
	Graph  *Graph
	Faces  []Face

	faceOf   []int
	faceOpts FaceOptions
	log      *zap.Logger
}

// Import builds a mesh from a parsed STL file: vertex deduplication,
// adjacency and face grouping. Any error discards everything built so far.
func Import(s *stl.STL, opts Options) (*Mesh, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	start := time.Now()

	records := s.Triangles
	if opts.RecomputeZeroNormals {
		records = withComputedNormals(records)
	}

	g, err := BuildGraph(records, log)
	if err != nil {
		return nil, fmt.Errorf("building triangle graph: %w", err)
	}

	m := &Mesh{
		Header:   s.Header,
		Graph:    g,
		faceOpts: opts.Faces,
		log:      log,
	}
	if err := m.RebuildFaces(opts.Faces); err != nil {
		return nil, err
	}

	log.Debug("mesh imported",
		zap.Int("triangles", g.Len()),
		zap.Int("vertices", g.Vertices.Len()),
		zap.Int("faces", len(m.Faces)),
		zap.Duration("elapsed", time.Since(start)))

	return m, nil
}

// ImportFile parses and imports an STL file from disk.
func ImportFile(path string, opts Options) (*Mesh, error) {
	s, err := stl.ParseFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Import(s, opts)
	if err != nil {
		return nil, fmt.Errorf("importing %q: %w", path, err)
	}
	return m, nil
}

// RebuildFaces regroups all triangles into faces. On error the mesh is
// left without faces.
func (m *Mesh) RebuildFaces(opts FaceOptions) error {
	start := time.Now()
	m.Faces, m.faceOf = nil, nil
	m.faceOpts = opts

	faces, err := BuildFaces(m.Graph, opts)
	if err != nil {
		return fmt.Errorf("building faces: %w", err)
	}

	faceOf := make([]int, m.Graph.Len())
	for i := range faces {
		for _, id := range faces[i].Triangles {
			faceOf[id] = i
		}
	}
	m.Faces, m.faceOf = faces, faceOf

	m.log.Debug("faces built",
		zap.Int("faces", len(faces)),
		zap.Float32("epsilon", opts.NormalEpsilon),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// AddTriangle appends a triangle to the graph and rebuilds the faces.
// On error the mesh must be discarded.
func (m *Mesh) AddTriangle(normal math.Vec3, pts [3]math.Vec3) (TriangleID, error) {
	id, err := m.Graph.Append(normal, pts)
	if err != nil {
		m.Faces, m.faceOf = nil, nil
		return NoNeighbor, err
	}
	if err := m.RebuildFaces(m.faceOpts); err != nil {
		return NoNeighbor, err
	}
	return id, nil
}

// FaceOf returns the index into Faces of the face owning triangle id.
func (m *Mesh) FaceOf(id TriangleID) int {
	return m.faceOf[id]
}

// Record returns the raw record for triangle id, with a zero attribute.
func (m *Mesh) Record(id TriangleID) stl.Triangle {
	t := &m.Graph.Triangles[id]
	return stl.Triangle{
		Normal: t.Normal,
		Vertices: [3]math.Vec3{
			m.Graph.Vertices.At(t.V[0]),
			m.Graph.Vertices.At(t.V[1]),
			m.Graph.Vertices.At(t.V[2]),
		},
	}
}

// ExportTriangles returns every triangle as a raw record, in creation order.
func (m *Mesh) ExportTriangles() []stl.Triangle {
	out := make([]stl.Triangle, m.Graph.Len())
	for i := range out {
		out[i] = m.Record(TriangleID(i))
	}
	return out
}

// ExportFaces returns the raw records of the member triangles of the given
// faces, face by face.
func (m *Mesh) ExportFaces(faces ...int) ([]stl.Triangle, error) {
	var out []stl.Triangle
	for _, fi := range faces {
		if fi < 0 || fi >= len(m.Faces) {
			return nil, fmt.Errorf("face index %d out of range (mesh has %d faces)", fi, len(m.Faces))
		}
		for _, id := range m.Faces[fi].Triangles {
			out = append(out, m.Record(id))
		}
	}
	return out, nil
}

// Export returns an STL file with the original header and every triangle.
func (m *Mesh) Export() *stl.STL {
	return m.ExportWithHeader(m.Header)
}

// ExportWithHeader returns an STL file with every triangle and the given header.
func (m *Mesh) ExportWithHeader(header [stl.HeaderSize]byte) *stl.STL {
	return &stl.STL{
		Header:    header,
		Triangles: m.ExportTriangles(),
	}
}

// Stats summarizes a mesh.
type Stats struct {
	Vertices  int
	Triangles int
	Faces     int
	OpenEdges int
	Holes     int
	Min, Max  math.Vec3
}

// Stats returns counts and bounds for the mesh.
func (m *Mesh) Stats() Stats {
	s := Stats{
		Vertices:  m.Graph.Vertices.Len(),
		Triangles: m.Graph.Len(),
		Faces:     len(m.Faces),
		OpenEdges: m.Graph.OpenEdges(),
	}
	for i := range m.Faces {
		s.Holes += len(m.Faces[i].Holes)
	}
	s.Min, s.Max = m.Graph.Vertices.Bounds()
	return s
}

// withComputedNormals returns a copy of records where all-zero normals are
// replaced by the normal of the vertex winding.
func withComputedNormals(records []stl.Triangle) []stl.Triangle {
	out := make([]stl.Triangle, len(records))
	copy(out, records)
	for i := range out {
		if out[i].Normal == (math.Vec3{}) {
			out[i].Normal = ComputeNormal(out[i].Vertices)
		}
	}
	return out
}

// ComputeNormal returns the unit normal of a triangle by the right-hand rule.
func ComputeNormal(pts [3]math.Vec3) math.Vec3 {
	return pts[1].Sub(pts[0]).Cross(pts[2].Sub(pts[0])).Normalize()
}
