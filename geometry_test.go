package main

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSegmentsIntersectCrossing(t *testing.T) {
	a1, a2 := Vec2{0, 0}, Vec2{2, 2}
	b1, b2 := Vec2{0, 2}, Vec2{2, 0}
	if !SegmentsIntersect(a1, a2, b1, b2) {
		t.Error("diagonals of a square should cross")
	}
	if !SegmentsIntersect(b1, b2, a1, a2) {
		t.Error("segment test should be symmetric")
	}
	p, ok := SegmentIntersection(a1, a2, b1, b2)
	if !ok || !approx(p.X, 1) || !approx(p.Y, 1) {
		t.Errorf("expected crossing at (1,1), got %v ok=%v", p, ok)
	}
}

func TestSegmentsIntersectRejects(t *testing.T) {
	tests := []struct {
		name           string
		a1, a2, b1, b2 Vec2
	}{
		{"parallel", Vec2{0, 0}, Vec2{4, 0}, Vec2{0, 1}, Vec2{4, 1}},
		{"collinear overlap", Vec2{0, 0}, Vec2{4, 0}, Vec2{2, 0}, Vec2{6, 0}},
		{"shared endpoint", Vec2{0, 0}, Vec2{1, 0}, Vec2{1, 0}, Vec2{1, 1}},
		{"T junction", Vec2{0, 0}, Vec2{2, 0}, Vec2{1, 0}, Vec2{1, 2}},
		{"disjoint", Vec2{0, 0}, Vec2{1, 1}, Vec2{3, 0}, Vec2{4, 1}},
		{"would cross if extended", Vec2{0, 0}, Vec2{1, 0}, Vec2{2, -1}, Vec2{2, 1}},
		{"inside inset margin", Vec2{0, 0}, Vec2{1, 0}, Vec2{0.005, -1}, Vec2{0.005, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if SegmentsIntersect(tt.a1, tt.a2, tt.b1, tt.b2) {
				t.Errorf("expected no intersection")
			}
			if SegmentsIntersect(tt.b1, tt.b2, tt.a1, tt.a2) {
				t.Errorf("expected no intersection with arguments swapped")
			}
		})
	}
}

func TestSegmentTestInsetIsTunable(t *testing.T) {
	a1, a2 := Vec2{0, 0}, Vec2{1, 0}
	b1, b2 := Vec2{0.005, -1}, Vec2{0.005, 1}
	exact := SegmentTest{Epsilon: 1e-9, Inset: 0}
	if !exact.Intersect(a1, a2, b1, b2) {
		t.Error("with no inset a crossing near the endpoint should count")
	}
	if DefaultSegmentTest().Intersect(a1, a2, b1, b2) {
		t.Error("default inset should ignore a crossing 0.5% from the endpoint")
	}
}

func TestPointInPolygon(t *testing.T) {
	square := []Vec2{{0, 0}, {4, 0}, {4, 4}, {0, 4}}
	if !PointInPolygon(Vec2{2, 2}, square) {
		t.Error("centre should be inside")
	}
	if PointInPolygon(Vec2{5, 2}, square) {
		t.Error("point right of the square should be outside")
	}
	if PointInPolygon(Vec2{-1, 2}, square) {
		t.Error("point left of the square should be outside")
	}
	if PointInPolygon(Vec2{2, 10}, square) {
		t.Error("point above the square should be outside")
	}

	// concave U shape: the notch is outside
	u := []Vec2{{0, 0}, {6, 0}, {6, 6}, {4, 6}, {4, 2}, {2, 2}, {2, 6}, {0, 6}}
	if PointInPolygon(Vec2{3, 4}, u) {
		t.Error("notch of U should be outside")
	}
	if !PointInPolygon(Vec2{1, 4}, u) {
		t.Error("left arm of U should be inside")
	}
}

func TestPointInPolygonDegenerate(t *testing.T) {
	if PointInPolygon(Vec2{0, 0}, nil) {
		t.Error("empty polygon contains nothing")
	}
	if PointInPolygon(Vec2{0.5, 0}, []Vec2{{0, 0}, {1, 0}}) {
		t.Error("two-vertex polygon contains nothing")
	}
}

func TestPolygonArea(t *testing.T) {
	square := []Vec2{{0, 0}, {4, 0}, {4, 4}, {0, 4}}
	if a := PolygonArea(square); !approx(a, 16) {
		t.Errorf("expected area 16, got %f", a)
	}

	tri := []Vec2{{0, 0}, {3, 0}, {0, 2}, {1, 1}}[:3]
	if a := PolygonArea(tri); !approx(a, 3) {
		t.Errorf("expected area 3, got %f", a)
	}

	if PolygonArea(nil) != 0 || PolygonArea([]Vec2{{0, 0}, {1, 1}}) != 0 {
		t.Error("degenerate polygons have zero area")
	}
}

func TestPolygonAreaOrientationAndRotation(t *testing.T) {
	poly := []Vec2{{0, 0}, {5, 0}, {6, 3}, {2, 5}, {-1, 2}}
	want := PolygonArea(poly)

	rev := make([]Vec2, len(poly))
	for i, p := range poly {
		rev[len(poly)-1-i] = p
	}
	if got := PolygonArea(rev); !approx(got, want) {
		t.Errorf("reversed area = %f, want %f", got, want)
	}

	for shift := 1; shift < len(poly); shift++ {
		rot := append(append([]Vec2{}, poly[shift:]...), poly[:shift]...)
		if got := PolygonArea(rot); !approx(got, want) {
			t.Errorf("rotated by %d: area = %f, want %f", shift, got, want)
		}
	}
}

func TestIsTrailClosed(t *testing.T) {
	trail := []Vec2{{0, 0}, {4, 0}, {4, 4}, {0, 4}}
	if IsTrailClosed(trail, 1.0) {
		t.Error("trail ending 4 units from its start is not closed")
	}
	trail = append(trail, Vec2{0, 0.5})
	if !IsTrailClosed(trail, 1.0) {
		t.Error("trail ending 0.5 from its start should be closed at distance 1")
	}
	if IsTrailClosed(trail, 0.4) {
		t.Error("closure distance 0.4 is tighter than the 0.5 gap")
	}
	if IsTrailClosed([]Vec2{{0, 0}, {0, 0}}, 1) {
		t.Error("fewer than 3 points is never closed")
	}
}

func TestCentroid(t *testing.T) {
	c := Centroid([]Vec2{{0, 0}, {4, 0}, {4, 4}, {0, 4}})
	if !approx(c.X, 2) || !approx(c.Y, 2) {
		t.Errorf("expected (2,2), got %v", c)
	}
	// collinear: falls back to the vertex average
	c = Centroid([]Vec2{{0, 0}, {1, 0}, {2, 0}})
	if !approx(c.X, 1) || !approx(c.Y, 0) {
		t.Errorf("expected (1,0), got %v", c)
	}
}

func TestSimplifyPath(t *testing.T) {
	line := []Vec2{{0, 0}, {1, 0.001}, {2, 0}, {3, -0.001}, {4, 0}}
	got := SimplifyPath(line, 0.01)
	if len(got) != 2 || got[0] != line[0] || got[1] != line[4] {
		t.Errorf("nearly straight line should collapse to its endpoints, got %v", got)
	}

	corner := []Vec2{{0, 0}, {2, 0}, {4, 0}, {4, 2}, {4, 4}}
	got = SimplifyPath(corner, 0.01)
	if len(got) != 3 || got[1] != (Vec2{4, 0}) {
		t.Errorf("corner should survive, got %v", got)
	}

	if got := SimplifyPath(corner, 0); len(got) != len(corner) {
		t.Errorf("zero tolerance keeps every point, got %d", len(got))
	}
}
