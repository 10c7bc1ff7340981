package main

// Loop is produced when a trail's newest segment crosses one of its older segments.
// It is only valid until the next Append.
type Loop struct {
	Points  []Vec2 // every recorded point with the crossing position appended
	Crossed int    // index i of the crossed segment Points[i] -> Points[i+1]
	At      Vec2   // where the two segments cross
}

// Polygon returns the ring cut off by the crossing: from the crossing point, along the
// points recorded after the crossed segment, back to the crossing point. The first and
// last vertices are identical so the ring always reads as closed.
func (l Loop) Polygon() []Vec2 {
	if l.Crossed+1 > len(l.Points)-1 {
		return nil
	}
	inner := l.Points[l.Crossed+1 : len(l.Points)-1]
	ring := make([]Vec2, 0, len(inner)+2)
	ring = append(ring, l.At)
	ring = append(ring, inner...)
	ring = append(ring, l.At)
	return ring
}

// Area is the area enclosed by the loop
func (l Loop) Area() float64 {
	return PolygonArea(l.Polygon())
}

// Trail records the pilot's path for one run and reports self-crossings.
// Not safe for concurrent use; the owning arena serializes access.
type Trail struct {
	points     []Vec2
	minSpacing float64
	maxPoints  int
	seg        SegmentTest
}

// NewTrail creates an empty trail. maxPoints 0 means unbounded.
func NewTrail(minSpacing float64, maxPoints int, seg SegmentTest) *Trail {
	return &Trail{
		points:     make([]Vec2, 0, 128),
		minSpacing: minSpacing,
		maxPoints:  maxPoints,
		seg:        seg,
	}
}

// Append offers the pilot's current position to the trail. If the segment from the last
// recorded point to pos crosses an older segment, the trail is reseeded with pos and the
// loop is returned.
func (t *Trail) Append(pos Vec2) (Loop, bool) {
	n := len(t.points)
	if n >= 2 {
		last := t.points[n-1]
		// the segment ending at last shares an endpoint with the new one, so stop before it
		for i := 0; i < n-2; i++ {
			at, hit := t.seg.Intersection(last, pos, t.points[i], t.points[i+1])
			if !hit {
				continue
			}
			pts := make([]Vec2, n+1)
			copy(pts, t.points)
			pts[n] = pos
			t.Reset(pos)
			return Loop{Points: pts, Crossed: i, At: at}, true
		}
	}

	if n > 0 && pos.Dist(t.points[n-1]) < t.minSpacing {
		return Loop{}, false
	}
	t.points = append(t.points, pos)
	if t.maxPoints > 0 && len(t.points) > t.maxPoints {
		drop := len(t.points) - t.maxPoints
		t.points = append(t.points[:0], t.points[drop:]...)
	}
	return Loop{}, false
}

// Reset clears the trail and seeds it with pos
func (t *Trail) Reset(pos Vec2) {
	t.points = append(t.points[:0], pos)
}

// Clear empties the trail without seeding it
func (t *Trail) Clear() {
	t.points = t.points[:0]
}

// Points returns a copy of the recorded points
func (t *Trail) Points() []Vec2 {
	out := make([]Vec2, len(t.points))
	copy(out, t.points)
	return out
}

func (t *Trail) Len() int { return len(t.points) }

// Last returns the newest point, false on an empty trail
func (t *Trail) Last() (Vec2, bool) {
	if len(t.points) == 0 {
		return Vec2{}, false
	}
	return t.points[len(t.points)-1], true
}
