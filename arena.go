package main

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"
)

// ArenaPhase is the lifecycle of one run
type ArenaPhase int

const (
	PhaseLobby   ArenaPhase = 0
	PhasePlaying ArenaPhase = 1
	PhaseOver    ArenaPhase = 2
)

// Causes of death reported in OverMsg
const (
	CauseStone  = "stone"
	CauseGrower = "grower"
	CauseLeft   = "left"
)

// ArenaEvents receives what happens inside an arena. Calls are made after the arena
// lock is released, from the goroutine that stepped the arena.
type ArenaEvents interface {
	OnLoop(LoopMsg)
	OnOver(OverMsg)
	OnFrame(*Frame)
}

// Arena is one single-pilot run: the trail, the stone field and the growers share
// one lock, so a restart never clears one without the other.
type Arena struct {
	mu      sync.Mutex
	ID      string
	cfg     Tunables
	phase   ArenaPhase
	pilot   *Pilot
	trail   *Trail
	field   *Field
	growers []*Grower
	spawner Spawner
	events  ArenaEvents

	spreadAmount float64
	spreadShape  Falloff
	wearShape    Falloff

	clock      float64 // simulation seconds since Start
	tick       uint64
	encircled  int
	loops      int
	score      int
	cause      string
	nextGrower int
	lastLoop   []Vec2

	running bool
	stop    chan struct{}
}

// pending collects events raised under the lock
type pending struct {
	loop  *LoopMsg
	over  *OverMsg
	frame *Frame
}

// NewArena creates an arena in the lobby phase. A nil spawner gets the interval spawner
// seeded from the clock.
func NewArena(id string, cfg Tunables, spawner Spawner, events ArenaEvents) *Arena {
	if spawner == nil {
		spawner = NewIntervalSpawner(cfg.Spawn, cfg.Field.ArenaWidth, cfg.Field.ArenaHeight, time.Now().UnixNano())
	}
	amount, shape := cfg.GrowerWrite()
	a := &Arena{
		ID:           id,
		cfg:          cfg,
		phase:        PhaseLobby,
		trail:        NewTrail(cfg.Trail.MinPointSpacing, cfg.Trail.MaxPoints, cfg.Trail.SegmentTest()),
		field:        NewField(cfg.Field),
		spawner:      spawner,
		events:       events,
		spreadAmount: amount,
		spreadShape:  shape,
		wearShape:    FalloffFunc(FalloffFlat),
		stop:         make(chan struct{}),
	}
	a.pilot = NewPilot(a.startPos())
	a.trail.Reset(a.pilot.Pos)
	return a
}

func (a *Arena) startPos() Vec2 {
	return Vec2{a.cfg.Field.ArenaWidth / 2, a.cfg.Field.ArenaHeight / 2}
}

// Start begins a fresh run. Trail, field, growers, spawner, clock and score are
// reset together.
func (a *Arena) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pilot = NewPilot(a.startPos())
	a.trail.Reset(a.pilot.Pos)
	a.field.Clear()
	a.growers = a.growers[:0]
	a.spawner.Reset()
	a.clock = 0
	a.tick = 0
	a.encircled = 0
	a.loops = 0
	a.score = 0
	a.cause = ""
	a.lastLoop = nil
	a.phase = PhasePlaying
}

// Run ticks the arena at TickRate until ctx is done or Stop is called
func (a *Arena) Run(ctx context.Context) {
	a.mu.Lock()
	a.running = true
	a.mu.Unlock()

	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	dt := 1.0 / float64(TickRate)
	for {
		select {
		case <-ticker.C:
			a.Step(dt)
		case <-a.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop terminates Run
func (a *Arena) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		a.running = false
		close(a.stop)
	}
}

// SetTarget feeds the pointer position for the next tick
func (a *Arena) SetTarget(t Vec2) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pilot.SetTarget(t)
}

// Leave ends a running run as abandoned
func (a *Arena) Leave() {
	a.mu.Lock()
	var out pending
	if a.phase == PhasePlaying {
		out.over = a.endRun(CauseLeft)
	}
	a.mu.Unlock()
	a.dispatch(out)
}

// AddGrower places a grower directly, bypassing the spawner
func (a *Arena) AddGrower(pos Vec2) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addGrower(pos).ID
}

func (a *Arena) addGrower(pos Vec2) *Grower {
	a.nextGrower++
	g := NewGrower("g"+strconv.Itoa(a.nextGrower), pos, a.cfg.Grower)
	a.growers = append(a.growers, g)
	return g
}

// Step advances the arena by dt seconds
func (a *Arena) Step(dt float64) {
	a.mu.Lock()
	out := a.step(dt)
	a.mu.Unlock()
	a.dispatch(out)
}

func (a *Arena) step(dt float64) pending {
	var out pending
	if a.phase != PhasePlaying {
		return out
	}
	a.tick++
	a.clock += dt
	cfg := &a.cfg
	w, h := cfg.Field.ArenaWidth, cfg.Field.ArenaHeight

	a.pilot.Update(dt, cfg.Pilot, a.field.StrengthAt(a.pilot.Pos), w, h)

	// loops resolve before anything touches the field this tick
	if loop, ok := a.trail.Append(a.pilot.Pos); ok {
		out.loop = a.resolveLoop(loop)
	}

	for _, pos := range a.spawner.Tick(dt, a.pilot.Pos, len(a.growers)) {
		a.addGrower(pos)
	}

	pilotStrength := a.field.StrengthAt(a.pilot.Pos)
	touched := false
	for _, g := range a.growers {
		g.Update(dt, cfg.Grower, a.pilot.Pos, pilotStrength)
		if g.Touches(a.pilot.Pos, cfg.Grower.ContactRadius) {
			touched = true
		}
		g.Spread(a.field, a.spreadAmount, a.spreadShape, a.clock)
	}

	if cfg.Pilot.WearAmount > 0 {
		a.field.ApplyInRadius(a.pilot.Pos, cfg.Pilot.WearRadius, cfg.Pilot.WearAmount, a.wearShape, a.clock)
	}

	a.score = a.computeScore()
	switch {
	case touched:
		out.over = a.endRun(CauseGrower)
	case a.field.IsAtMaximum(a.pilot.Pos):
		out.over = a.endRun(CauseStone)
	}

	if a.events != nil && (a.tick%BroadcastEvery == 0 || out.over != nil) {
		out.frame = a.snapshot()
	}
	return out
}

// resolveLoop removes every grower inside the loop and scores them
func (a *Arena) resolveLoop(loop Loop) *LoopMsg {
	a.loops++
	ring := loop.Polygon()
	a.lastLoop = SimplifyPath(ring, a.cfg.Trail.SimplifyWire)

	cands := make([]Candidate, len(a.growers))
	for i, g := range a.growers {
		cands[i] = g.Candidate()
	}
	ids := FindEnclosed(ring, a.cfg.Trail.ClosureDistance, cands)
	if len(ids) > 0 {
		gone := make(map[string]bool, len(ids))
		for _, id := range ids {
			gone[id] = true
		}
		kept := a.growers[:0]
		for _, g := range a.growers {
			if gone[g.ID] {
				g.Alive = false
				continue
			}
			kept = append(kept, g)
		}
		for i := len(kept); i < len(a.growers); i++ {
			a.growers[i] = nil
		}
		a.growers = kept
		a.encircled += len(ids)
	}
	a.score = a.computeScore()

	return &LoopMsg{
		Ring:      toWire(a.lastLoop),
		Area:      round3(PolygonArea(ring)),
		Encircled: ids,
		Score:     a.score,
	}
}

func (a *Arena) computeScore() int {
	return int(math.Round(a.clock))*a.cfg.Score.PointsPerSecond + a.encircled*a.cfg.Score.PointsPerGrower
}

func (a *Arena) endRun(cause string) *OverMsg {
	a.phase = PhaseOver
	a.pilot.Alive = false
	a.cause = cause
	a.score = a.computeScore()
	return &OverMsg{
		Score:     a.score,
		Seconds:   round1(a.clock),
		Encircled: a.encircled,
		Loops:     a.loops,
		Cause:     cause,
	}
}

func (a *Arena) dispatch(out pending) {
	if a.events == nil {
		return
	}
	if out.loop != nil {
		a.events.OnLoop(*out.loop)
	}
	if out.frame != nil {
		a.events.OnFrame(out.frame)
	}
	if out.over != nil {
		a.events.OnOver(*out.over)
	}
}

// Snapshot returns the current state as a frame
func (a *Arena) Snapshot() *Frame {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot()
}

func (a *Arena) snapshot() *Frame {
	f := &Frame{
		Tick:    a.tick,
		Phase:   int(a.phase),
		Time:    round1(a.clock),
		Score:   a.score,
		Pilot:   a.pilot.ToState(),
		Trail:   toWire(a.trail.points),
		Growers: make([]GrowerState, 0, len(a.growers)),
		Loop:    toWire(a.lastLoop),
	}
	for _, g := range a.growers {
		f.Growers = append(f.Growers, g.ToState())
	}
	minX, minY, width, _ := a.field.Bounds()
	for i, s := range a.field.strength {
		if s > 0 {
			f.Tiles = append(f.Tiles, TileState{
				X: minX + i%width,
				Y: minY + i/width,
				S: round3(s),
			})
		}
	}
	return f
}

// Phase returns the current phase
func (a *Arena) Phase() ArenaPhase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase
}

// Score returns the current score
func (a *Arena) Score() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.score
}

// Result describes the run so far. Once over, it is the final result.
func (a *Arena) Result() OverMsg {
	a.mu.Lock()
	defer a.mu.Unlock()
	return OverMsg{
		Score:     a.score,
		Seconds:   round1(a.clock),
		Encircled: a.encircled,
		Loops:     a.loops,
		Cause:     a.cause,
	}
}

// GrowerCount returns the number of alive growers
func (a *Arena) GrowerCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.growers)
}

// View runs fn with the arena locked, for renderers that read the field directly.
// fn must not call back into the arena.
func (a *Arena) View(fn func(p *Pilot, trail *Trail, field *Field, growers []*Grower)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(a.pilot, a.trail, a.field, a.growers)
}

// Config returns the arena's tunables
func (a *Arena) Config() Tunables {
	return a.cfg
}
