package main

// Candidate is an entity offered to FindEnclosed
type Candidate struct {
	ID    string
	Pos   Vec2
	Alive bool
}

// FindEnclosed returns the ids of alive candidates inside trail, in input order.
// Nothing is enclosed unless the trail is closed within closureDistance.
func FindEnclosed(trail []Vec2, closureDistance float64, candidates []Candidate) []string {
	if !IsTrailClosed(trail, closureDistance) {
		return nil
	}
	var ids []string
	for _, c := range candidates {
		if c.Alive && PointInPolygon(c.Pos, trail) {
			ids = append(ids, c.ID)
		}
	}
	return ids
}
