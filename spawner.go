package main

import (
	"math"
	"math/rand"
)

// Spawner decides when and where new growers appear
type Spawner interface {
	// Tick advances the spawner by dt and returns the positions to spawn at this tick
	Tick(dt float64, pilot Vec2, alive int) []Vec2
	Reset()
}

// IntervalSpawner drops one grower every Interval seconds on a ring around the pilot,
// while fewer than MaxAlive are alive
type IntervalSpawner struct {
	cfg    SpawnTunables
	width  float64
	height float64
	rng    *rand.Rand
	timer  float64
}

// NewIntervalSpawner creates a spawner confined to [0,w] x [0,h]. The same seed
// reproduces the same spawn positions.
func NewIntervalSpawner(cfg SpawnTunables, w, h float64, seed int64) *IntervalSpawner {
	return &IntervalSpawner{
		cfg:    cfg,
		width:  w,
		height: h,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (s *IntervalSpawner) Tick(dt float64, pilot Vec2, alive int) []Vec2 {
	s.timer += dt
	if s.timer < s.cfg.Interval {
		return nil
	}
	s.timer -= s.cfg.Interval
	if alive >= s.cfg.MaxAlive {
		return nil
	}
	angle := s.rng.Float64() * 2 * math.Pi
	r := s.cfg.MinRadius + s.rng.Float64()*s.cfg.RadiusRange
	pos := Vec2{
		X: Clamp(pilot.X+math.Cos(angle)*r, 0, s.width),
		Y: Clamp(pilot.Y+math.Sin(angle)*r, 0, s.height),
	}
	return []Vec2{pos}
}

func (s *IntervalSpawner) Reset() {
	s.timer = 0
}
