package main

// Pilot is the pointer-following point whose path becomes the trail
type Pilot struct {
	Pos     Vec2
	Target  Vec2 // pointer position in world coords
	Alive   bool
	Speed   float64 // effective speed last tick
	stopped bool
}

// NewPilot places a pilot at pos, aiming at its own position so it stays put until input arrives
func NewPilot(pos Vec2) *Pilot {
	return &Pilot{Pos: pos, Target: pos, Alive: true, stopped: true}
}

// SetTarget updates the pointer position
func (p *Pilot) SetTarget(t Vec2) {
	p.Target = t
}

// Update moves the pilot toward its target. strength is the stone under the pilot; every
// unit of it costs drag of the base speed. Movement stays inside [0,w] x [0,h].
func (p *Pilot) Update(dt float64, pt PilotTunables, strength, w, h float64) {
	if !p.Alive {
		return
	}
	to := p.Target.Sub(p.Pos)
	dist := to.Len()
	if dist <= pt.MinMoveDistance {
		p.Speed = 0
		p.stopped = true
		return
	}
	p.stopped = false

	speed := pt.Speed * Clamp(1-pt.StoneDrag*strength, 0, 1)
	step := speed * dt
	if step > dist {
		step = dist
	}
	p.Pos = p.Pos.Add(to.Scale(step / dist))
	p.Pos.X = Clamp(p.Pos.X, 0, w)
	p.Pos.Y = Clamp(p.Pos.Y, 0, h)
	p.Speed = speed
}

// Moving reports whether the pilot moved on its last update
func (p *Pilot) Moving() bool {
	return !p.stopped
}

func (p *Pilot) ToState() PilotState {
	return PilotState{
		X:     round3(p.Pos.X),
		Y:     round3(p.Pos.Y),
		TX:    round3(p.Target.X),
		TY:    round3(p.Target.Y),
		Speed: round1(p.Speed),
		Alive: p.Alive,
	}
}
