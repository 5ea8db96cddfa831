package math

// Mat4 is a 4x4 matrix in column-major order.
type Mat4 [16]float32

// LookAt creates a view matrix.
func LookAt(eye, center, up Vec3) Mat4 {
	f := center.Sub(eye).Normalize()
	s := f.Cross(up).Normalize()
	u := s.Cross(f)

	return Mat4{
		s.X, u.X, -f.X, 0,
		s.Y, u.Y, -f.Y, 0,
		s.Z, u.Z, -f.Z, 0,
		-s.Dot(eye), -u.Dot(eye), f.Dot(eye), 1,
	}
}

// PlaneView returns a view matrix looking down -normal, so that points on a
// plane perpendicular to normal map to constant Z and their XY components
// are in-plane coordinates. Counter-clockwise winding around normal stays
// counter-clockwise in XY.
func PlaneView(normal Vec3) Mat4 {
	n := normal.Normalize()
	up := Vec3{0, 0, 1}
	if abs32(n.Z) > 0.9 {
		up = Vec3{0, 1, 0}
	}
	return LookAt(Vec3{}, n.Scale(-1), up)
}

// TransformPoint transforms a point by the matrix (w=1).
func (m Mat4) TransformPoint(p [3]float32) [3]float32 {
	x := m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12]
	y := m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13]
	z := m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14]
	w := m[3]*p[0] + m[7]*p[1] + m[11]*p[2] + m[15]
	if w != 0 && w != 1 {
		return [3]float32{x / w, y / w, z / w}
	}
	return [3]float32{x, y, z}
}

// TransformVec3 transforms a Vec3 point by the matrix.
func (m Mat4) TransformVec3(v Vec3) Vec3 {
	p := m.TransformPoint([3]float32{v.X, v.Y, v.Z})
	return Vec3{p[0], p[1], p[2]}
}
