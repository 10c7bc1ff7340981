package main

import "math"

const (
	// DefaultIntersectEpsilon rejects near-parallel segment pairs
	DefaultIntersectEpsilon = 1e-6
	// DefaultIntersectInset keeps shared or nearly shared endpoints from counting as crossings
	DefaultIntersectInset = 0.01
)

// Vec2 is a point or direction in world space
type Vec2 struct {
	X, Y float64
}

// Add returns v + o
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v * s
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Len returns the vector length
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dist returns the distance between v and o
func (v Vec2) Dist(o Vec2) float64 { return Distance(v.X, v.Y, o.X, o.Y) }

// DistSq returns the squared distance between v and o
func (v Vec2) DistSq(o Vec2) float64 { return DistanceSq(v.X, v.Y, o.X, o.Y) }

// cross returns the z component of the 2D cross product
func cross(a, b Vec2) float64 {
	return a.X*b.Y - a.Y*b.X
}

// SegmentTest holds the tolerances used when testing two segments for a crossing.
// Epsilon is the cross-product magnitude below which segments count as parallel.
// Inset trims both ends of each segment's parameter range, so only t and u in
// (Inset, 1-Inset) count.
type SegmentTest struct {
	Epsilon float64
	Inset   float64
}

// DefaultSegmentTest returns the tolerances used by SegmentsIntersect
func DefaultSegmentTest() SegmentTest {
	return SegmentTest{Epsilon: DefaultIntersectEpsilon, Inset: DefaultIntersectInset}
}

// params solves a1 + t*(a2-a1) == b1 + u*(b2-b1). ok is false for parallel segments.
func (st SegmentTest) params(a1, a2, b1, b2 Vec2) (t, u float64, ok bool) {
	d1 := a2.Sub(a1)
	d2 := b2.Sub(b1)
	den := cross(d1, d2)
	if math.Abs(den) < st.Epsilon {
		return 0, 0, false
	}
	diff := b1.Sub(a1)
	t = cross(diff, d2) / den
	u = cross(diff, d1) / den
	return t, u, true
}

func (st SegmentTest) inside(v float64) bool {
	return v > st.Inset && v < 1-st.Inset
}

// Intersect reports whether the open segments a1-a2 and b1-b2 strictly cross
func (st SegmentTest) Intersect(a1, a2, b1, b2 Vec2) bool {
	t, u, ok := st.params(a1, a2, b1, b2)
	return ok && st.inside(t) && st.inside(u)
}

// Intersection returns the crossing point of two segments, if Intersect would report one
func (st SegmentTest) Intersection(a1, a2, b1, b2 Vec2) (Vec2, bool) {
	t, u, ok := st.params(a1, a2, b1, b2)
	if !ok || !st.inside(t) || !st.inside(u) {
		return Vec2{}, false
	}
	return a1.Add(a2.Sub(a1).Scale(t)), true
}

// SegmentsIntersect reports whether two segments strictly cross using the default tolerances
func SegmentsIntersect(a1, a2, b1, b2 Vec2) bool {
	return DefaultSegmentTest().Intersect(a1, a2, b1, b2)
}

// SegmentIntersection returns the crossing point of two segments using the default tolerances
func SegmentIntersection(a1, a2, b1, b2 Vec2) (Vec2, bool) {
	return DefaultSegmentTest().Intersection(a1, a2, b1, b2)
}

// PointInPolygon casts a ray toward +X and counts edge crossings; odd means inside.
// Polygons with fewer than 3 vertices contain nothing.
func PointInPolygon(p Vec2, poly []Vec2) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			xCross := a.X + (p.Y-a.Y)/(b.Y-a.Y)*(b.X-a.X)
			if p.X < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

// PolygonArea returns the unsigned shoelace area, 0 for degenerate input
func PolygonArea(poly []Vec2) float64 {
	n := len(poly)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	return math.Abs(sum) / 2
}

// IsTrailClosed reports whether a trail has at least 3 points and its ends are within closureDistance
func IsTrailClosed(trail []Vec2, closureDistance float64) bool {
	if len(trail) < 3 {
		return false
	}
	return trail[0].Dist(trail[len(trail)-1]) <= closureDistance
}

// Centroid returns the area centroid of a polygon. Degenerate polygons fall back to
// the vertex average.
func Centroid(poly []Vec2) Vec2 {
	n := len(poly)
	if n == 0 {
		return Vec2{}
	}
	var a, cx, cy float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		c := poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
		a += c
		cx += (poly[i].X + poly[j].X) * c
		cy += (poly[i].Y + poly[j].Y) * c
	}
	if math.Abs(a) < 1e-12 {
		var sum Vec2
		for _, p := range poly {
			sum = sum.Add(p)
		}
		return sum.Scale(1 / float64(n))
	}
	return Vec2{cx / (3 * a), cy / (3 * a)}
}

// SimplifyPath reduces a polyline with Douglas-Peucker. Endpoints are always kept.
func SimplifyPath(points []Vec2, tolerance float64) []Vec2 {
	if len(points) < 3 || tolerance <= 0 {
		return append([]Vec2(nil), points...)
	}
	keep := make([]bool, len(points))
	keep[0], keep[len(points)-1] = true, true
	simplifyRange(points, 0, len(points)-1, tolerance*tolerance, keep)

	out := make([]Vec2, 0, len(points))
	for i, p := range points {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

func simplifyRange(points []Vec2, first, last int, tolSq float64, keep []bool) {
	if last-first < 2 {
		return
	}
	maxD, idx := -1.0, -1
	for i := first + 1; i < last; i++ {
		d := segmentDistSq(points[i], points[first], points[last])
		if d > maxD {
			maxD, idx = d, i
		}
	}
	if maxD <= tolSq {
		return
	}
	keep[idx] = true
	simplifyRange(points, first, idx, tolSq, keep)
	simplifyRange(points, idx, last, tolSq, keep)
}

// segmentDistSq is the squared distance from p to segment a-b
func segmentDistSq(p, a, b Vec2) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return p.DistSq(a)
	}
	t := Clamp(((p.X-a.X)*ab.X+(p.Y-a.Y)*ab.Y)/l2, 0, 1)
	return p.DistSq(a.Add(ab.Scale(t)))
}
