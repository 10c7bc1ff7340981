package main

// Grower is a hostile that seeks the pilot and lays stone around itself
type Grower struct {
	ID     string
	Pos    Vec2
	Alive  bool
	Radius float64 // current spread radius
	Age    float64 // seconds since spawn
}

// NewGrower creates a grower at pos with the starting spread radius
func NewGrower(id string, pos Vec2, gt GrowerTunables) *Grower {
	return &Grower{
		ID:     id,
		Pos:    pos,
		Alive:  true,
		Radius: gt.SpreadRadius,
	}
}

// Update steers straight at the pilot. Stone under the pilot speeds growers up, so a
// pilot standing on stone is hunted faster.
func (g *Grower) Update(dt float64, gt GrowerTunables, pilot Vec2, pilotStrength float64) {
	if !g.Alive {
		return
	}
	g.Age += dt
	if gt.SpreadRadiusGrowth > 0 {
		g.Radius = Clamp(g.Radius+gt.SpreadRadiusGrowth*dt, gt.SpreadRadius, gt.SpreadRadiusMax)
	}

	to := pilot.Sub(g.Pos)
	dist := to.Len()
	if dist == 0 {
		return
	}
	step := gt.Speed * (1 + gt.StoneBoost*pilotStrength) * dt
	if step > dist {
		step = dist
	}
	g.Pos = g.Pos.Add(to.Scale(step / dist))
}

// Spread writes stone around the grower and returns how many tiles took it
func (g *Grower) Spread(f *Field, amount float64, falloff Falloff, now float64) int {
	if !g.Alive {
		return 0
	}
	return f.ApplyInRadius(g.Pos, g.Radius, amount, falloff, now)
}

// Encircled reports whether the grower sits inside a closed ring
func (g *Grower) Encircled(ring []Vec2) bool {
	return g.Alive && PointInPolygon(g.Pos, ring)
}

// Touches reports whether the grower is within reach of the pilot
func (g *Grower) Touches(pilot Vec2, reach float64) bool {
	return g.Alive && g.Pos.DistSq(pilot) <= reach*reach
}

func (g *Grower) Candidate() Candidate {
	return Candidate{ID: g.ID, Pos: g.Pos, Alive: g.Alive}
}

func (g *Grower) ToState() GrowerState {
	return GrowerState{
		ID: g.ID,
		X:  round3(g.Pos.X),
		Y:  round3(g.Pos.Y),
		R:  round3(g.Radius),
	}
}
