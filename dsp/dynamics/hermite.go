package dynamics

// hermite evaluates the cubic Hermite polynomial through (x0, p0) and
// (x1, p1) with endpoint tangents m0 and m1 at position x. The tangents are
// slopes in x units, so an identity segment has tangent 1.
func hermite(x, x0, x1, p0, p1, m0, m1 float64) float64 {
	width := x1 - x0
	t := (x - x0) / width

	m0 *= width
	m1 *= width

	t2 := t * t
	t3 := t2 * t

	ct2 := -3*p0 - 2*m0 - m1 + 3*p1
	ct3 := 2*p0 + m0 + m1 - 2*p1

	return ct3*t3 + ct2*t2 + m0*t + p0
}
