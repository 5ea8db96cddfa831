// Package stl reads and writes binary STL triangle soups.
package stl

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	gomath "math"

	"github.com/Faultbox/modelconv/pkg/encoding"
	"github.com/Faultbox/modelconv/pkg/math"
)

// Binary STL layout.
const (
	HeaderSize = 80
	countSize  = 4
	RecordSize = 50 // normal + 3 vertices (12 float32) + 2-byte attribute
)

// STL format errors.
var (
	ErrTruncatedSTLData = errors.New("truncated STL data")
)

// Triangle is one raw record: a facet normal, three vertices and the
// attribute byte count, which is unused and written as zero.
type Triangle struct {
	Normal    math.Vec3
	Vertices  [3]math.Vec3
	Attribute uint16
}

// STL represents a parsed binary STL file.
type STL struct {
	Header    [HeaderSize]byte
	Triangles []Triangle
}

// HeaderText returns the header as UTF-8 text, up to the first NUL and
// without trailing spaces. Non-UTF-8 headers are read as Windows-1252.
func (s *STL) HeaderText() string {
	return encoding.FixedStringToUTF8(s.Header[:])
}

// SetHeaderText replaces the header with text, truncated to 80 bytes at a
// rune boundary and zero padded.
func (s *STL) SetHeaderText(text string) {
	copy(s.Header[:], encoding.UTF8ToFixedString(text, HeaderSize))
}

// Size returns the encoded size in bytes.
func (s *STL) Size() int {
	return HeaderSize + countSize + len(s.Triangles)*RecordSize
}

// Parse parses a binary STL file from raw bytes.
// Bytes past the declared triangle count are ignored.
func Parse(data []byte) (*STL, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: header: only %d of %d bytes", ErrTruncatedSTLData, len(data), HeaderSize)
	}
	if len(data) < HeaderSize+countSize {
		return nil, fmt.Errorf("%w: triangle count: only %d of %d bytes",
			ErrTruncatedSTLData, len(data)-HeaderSize, countSize)
	}

	s := &STL{}
	copy(s.Header[:], data[:HeaderSize])
	count := binary.LittleEndian.Uint32(data[HeaderSize:])

	body := data[HeaderSize+countSize:]
	expected := uint64(count) * RecordSize
	if uint64(len(body)) < expected {
		return nil, fmt.Errorf("%w: %d triangles declared, only %d of %d bytes",
			ErrTruncatedSTLData, count, len(body), expected)
	}

	s.Triangles = make([]Triangle, count)
	for i := range s.Triangles {
		off := i * RecordSize
		decodeTriangle(body[off:off+RecordSize], &s.Triangles[i])
	}

	return s, nil
}

// Read parses a binary STL stream record by record, so a short stream is
// reported with the failing triangle index and the bytes that were available.
func Read(r io.Reader) (*STL, error) {
	s := &STL{}

	if n, err := io.ReadFull(r, s.Header[:]); err != nil {
		return nil, fmt.Errorf("%w: header: only %d of %d bytes", ErrTruncatedSTLData, n, HeaderSize)
	}

	var countBuf [countSize]byte
	if n, err := io.ReadFull(r, countBuf[:]); err != nil {
		return nil, fmt.Errorf("%w: triangle count: only %d of %d bytes", ErrTruncatedSTLData, n, countSize)
	}
	count := binary.LittleEndian.Uint32(countBuf[:])

	// Grow as records arrive instead of trusting the declared count up front.
	s.Triangles = make([]Triangle, 0, min(count, 1<<16))
	var buf [RecordSize]byte
	for i := uint32(0); i < count; i++ {
		n, err := io.ReadFull(r, buf[:])
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: triangle %d of %d: only %d of %d bytes",
					ErrTruncatedSTLData, i+1, count, n, RecordSize)
			}
			return nil, fmt.Errorf("reading triangle %d of %d: %w", i+1, count, err)
		}
		var t Triangle
		decodeTriangle(buf[:], &t)
		s.Triangles = append(s.Triangles, t)
	}

	return s, nil
}

// decodeTriangle decodes one 50-byte record into t.
func decodeTriangle(b []byte, t *Triangle) {
	t.Normal = decodeVec3(b[0:12])
	for v := 0; v < 3; v++ {
		off := 12 + v*12
		t.Vertices[v] = decodeVec3(b[off : off+12])
	}
	t.Attribute = binary.LittleEndian.Uint16(b[48:50])
}

func decodeVec3(b []byte) math.Vec3 {
	return math.Vec3{
		X: gomath.Float32frombits(binary.LittleEndian.Uint32(b[0:4])),
		Y: gomath.Float32frombits(binary.LittleEndian.Uint32(b[4:8])),
		Z: gomath.Float32frombits(binary.LittleEndian.Uint32(b[8:12])),
	}
}

// Encode returns the binary encoding of s. Attribute fields are written as zero.
func (s *STL) Encode() []byte {
	buf := make([]byte, s.Size())
	copy(buf, s.Header[:])
	binary.LittleEndian.PutUint32(buf[HeaderSize:], uint32(len(s.Triangles)))

	body := buf[HeaderSize+countSize:]
	for i := range s.Triangles {
		encodeTriangle(body[i*RecordSize:(i+1)*RecordSize], &s.Triangles[i])
	}
	return buf
}

// WriteTo writes the binary encoding of s to w.
func (s *STL) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(s.Encode())
	if err != nil {
		return int64(n), fmt.Errorf("writing STL: only %d of %d bytes: %w", n, s.Size(), err)
	}
	return int64(n), nil
}

func encodeTriangle(b []byte, t *Triangle) {
	encodeVec3(b[0:12], t.Normal)
	for v := 0; v < 3; v++ {
		off := 12 + v*12
		encodeVec3(b[off:off+12], t.Vertices[v])
	}
	binary.LittleEndian.PutUint16(b[48:50], 0)
}

func encodeVec3(b []byte, v math.Vec3) {
	binary.LittleEndian.PutUint32(b[0:4], gomath.Float32bits(v.X))
	binary.LittleEndian.PutUint32(b[4:8], gomath.Float32bits(v.Y))
	binary.LittleEndian.PutUint32(b[8:12], gomath.Float32bits(v.Z))
}
