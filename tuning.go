package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	TickRate       = 60 // simulation ticks per second
	BroadcastRate  = 20 // state frames per second
	TickDuration   = time.Second / TickRate
	BroadcastEvery = TickRate / BroadcastRate
)

// Tunables is every gameplay value an operator can change. Zero values in a TOML file
// leave the defaults in place only for keys that are absent; present keys always win.
type Tunables struct {
	Trail  TrailTunables  `toml:"trail"`
	Field  FieldTunables  `toml:"field"`
	Pilot  PilotTunables  `toml:"pilot"`
	Grower GrowerTunables `toml:"grower"`
	Spawn  SpawnTunables  `toml:"spawn"`
	Score  ScoreTunables  `toml:"score"`
}

type TrailTunables struct {
	MinPointSpacing  float64 `toml:"min_point_spacing"`
	ClosureDistance  float64 `toml:"closure_distance"`
	MaxPoints        int     `toml:"max_points"` // 0 = unbounded
	IntersectEpsilon float64 `toml:"intersect_epsilon"`
	IntersectInset   float64 `toml:"intersect_inset"`
	SimplifyWire     float64 `toml:"simplify_wire"` // Douglas-Peucker tolerance for loop payloads
}

// FieldTunables sizes the tile grid. The grid covers tiles [MinX, MinX+Width) x [MinY, MinY+Height);
// the playable arena is [0, ArenaWidth) x [0, ArenaHeight) in world units.
type FieldTunables struct {
	TileSize      float64 `toml:"tile_size"`
	MinX          int     `toml:"min_x"`
	MinY          int     `toml:"min_y"`
	Width         int     `toml:"width"`
	Height        int     `toml:"height"`
	ArenaWidth    float64 `toml:"arena_width"`
	ArenaHeight   float64 `toml:"arena_height"`
	MaxStrength   float64 `toml:"max_strength"`
	WriteCooldown float64 `toml:"write_cooldown"` // seconds
	// StoneStages > 0 switches to the discrete model: every write adds MaxStrength/StoneStages
	// with flat falloff. 1 is the plain painted/unpainted grid.
	StoneStages int `toml:"stone_stages"`
}

type PilotTunables struct {
	Speed           float64 `toml:"speed"`
	MinMoveDistance float64 `toml:"min_move_distance"`
	StoneDrag       float64 `toml:"stone_drag"`  // fraction of speed lost per unit strength underfoot
	WearAmount      float64 `toml:"wear_amount"` // passive stone the pilot leaves, 0 = none
	WearRadius      float64 `toml:"wear_radius"`
}

type GrowerTunables struct {
	Speed              float64 `toml:"speed"`
	StoneBoost         float64 `toml:"stone_boost"` // speed gain per unit strength under the pilot
	ContactRadius      float64 `toml:"contact_radius"`
	SpreadRadius       float64 `toml:"spread_radius"`
	SpreadRadiusGrowth float64 `toml:"spread_radius_growth"` // per second
	SpreadRadiusMax    float64 `toml:"spread_radius_max"`
	SpreadAmount       float64 `toml:"spread_amount"`
	Falloff            string  `toml:"falloff"`
}

type SpawnTunables struct {
	Interval    float64 `toml:"interval"`
	MinRadius   float64 `toml:"min_radius"`
	RadiusRange float64 `toml:"radius_range"`
	MaxAlive    int     `toml:"max_alive"`
}

type ScoreTunables struct {
	PointsPerSecond int `toml:"points_per_second"`
	PointsPerGrower int `toml:"points_per_grower"`
}

// DefaultTunables returns the stock arena: a 20x15 play area inside a 20-tile stone border
func DefaultTunables() Tunables {
	return Tunables{
		Trail: TrailTunables{
			MinPointSpacing:  0.1,
			ClosureDistance:  1.0,
			MaxPoints:        0,
			IntersectEpsilon: DefaultIntersectEpsilon,
			IntersectInset:   DefaultIntersectInset,
			SimplifyWire:     0.05,
		},
		Field: FieldTunables{
			TileSize:      1,
			MinX:          -20,
			MinY:          -20,
			Width:         60,
			Height:        55,
			ArenaWidth:    20,
			ArenaHeight:   15,
			MaxStrength:   1,
			WriteCooldown: 3,
		},
		Pilot: PilotTunables{
			Speed:           5,
			MinMoveDistance: 0.05,
			WearRadius:      0.5,
		},
		Grower: GrowerTunables{
			Speed:           3,
			StoneBoost:      1,
			ContactRadius:   0.5,
			SpreadRadius:    1,
			SpreadRadiusMax: 1,
			SpreadAmount:    0.1,
			Falloff:         FalloffFlat,
		},
		Spawn: SpawnTunables{
			Interval:    10,
			MinRadius:   10,
			RadiusRange: 10,
			MaxAlive:    10,
		},
		Score: ScoreTunables{
			PointsPerSecond: 100,
			PointsPerGrower: 100,
		},
	}
}

// LoadTunables reads a TOML file on top of DefaultTunables
func LoadTunables(path string) (Tunables, error) {
	t := DefaultTunables()
	if path == "" {
		return t, nil
	}
	md, err := toml.DecodeFile(path, &t)
	if err != nil {
		return t, fmt.Errorf("tunables: decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return t, fmt.Errorf("tunables: unknown key %q in %s", undecoded[0].String(), path)
	}
	return t, t.Validate()
}

// Validate rejects values the core cannot run with
func (t Tunables) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	check(t.Trail.MinPointSpacing >= 0, "trail.min_point_spacing must be >= 0")
	check(t.Trail.ClosureDistance >= 0, "trail.closure_distance must be >= 0")
	check(t.Trail.MaxPoints == 0 || t.Trail.MaxPoints >= 3, "trail.max_points must be 0 or >= 3")
	check(t.Trail.IntersectEpsilon >= 0, "trail.intersect_epsilon must be >= 0")
	check(t.Trail.IntersectInset >= 0 && t.Trail.IntersectInset < 0.5, "trail.intersect_inset must be in [0, 0.5)")
	check(t.Field.TileSize > 0, "field.tile_size must be > 0")
	check(t.Field.Width > 0 && t.Field.Height > 0, "field.width and field.height must be > 0")
	check(t.Field.ArenaWidth > 0 && t.Field.ArenaHeight > 0, "field.arena_width and field.arena_height must be > 0")
	check(t.Field.MaxStrength > 0, "field.max_strength must be > 0")
	check(t.Field.WriteCooldown >= 0, "field.write_cooldown must be >= 0")
	check(t.Field.StoneStages >= 0, "field.stone_stages must be >= 0")
	check(t.Pilot.Speed > 0, "pilot.speed must be > 0")
	check(t.Grower.Speed >= 0, "grower.speed must be >= 0")
	check(t.Grower.SpreadRadius >= 0, "grower.spread_radius must be >= 0")
	check(t.Grower.SpreadRadiusMax >= t.Grower.SpreadRadius, "grower.spread_radius_max must be >= grower.spread_radius")
	check(t.Spawn.Interval > 0, "spawn.interval must be > 0")
	check(t.Spawn.MaxAlive >= 0, "spawn.max_alive must be >= 0")
	if _, err := ParseFalloff(t.Grower.Falloff); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SegmentTest returns the trail's intersection tolerances
func (t TrailTunables) SegmentTest() SegmentTest {
	return SegmentTest{Epsilon: t.IntersectEpsilon, Inset: t.IntersectInset}
}

// GrowerWrite returns the per-write amount and falloff growers use, applying the discrete
// model when StoneStages is set
func (t Tunables) GrowerWrite() (float64, Falloff) {
	if t.Field.StoneStages > 0 {
		return t.Field.MaxStrength / float64(t.Field.StoneStages), FalloffFunc(FalloffFlat)
	}
	f, err := ParseFalloff(t.Grower.Falloff)
	if err != nil {
		f = FalloffFunc(FalloffFlat)
	}
	return t.Grower.SpreadAmount, f
}
