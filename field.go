package main

import "math"

// TileCoord addresses one cell of the field
type TileCoord struct {
	X, Y int
}

// Field is the stone strength grid. Each tile holds a strength in [0, max] and the
// simulation time it was last written; writes through ApplyInRadius are throttled
// per tile by the cooldown.
// Not safe for concurrent use; the owning arena serializes access.
type Field struct {
	tileSize float64
	minX     int
	minY     int
	width    int
	height   int
	max      float64
	cooldown float64

	strength []float64
	touched  []float64
}

// NewField allocates a width x height grid whose lowest tile is (minX, minY)
func NewField(ft FieldTunables) *Field {
	f := &Field{
		tileSize: ft.TileSize,
		minX:     ft.MinX,
		minY:     ft.MinY,
		width:    ft.Width,
		height:   ft.Height,
		max:      ft.MaxStrength,
		cooldown: ft.WriteCooldown,
		strength: make([]float64, ft.Width*ft.Height),
		touched:  make([]float64, ft.Width*ft.Height),
	}
	f.Clear()
	return f
}

// WorldToTile quantizes a world position by floor division
func (f *Field) WorldToTile(p Vec2) TileCoord {
	return TileCoord{
		X: int(math.Floor(p.X / f.tileSize)),
		Y: int(math.Floor(p.Y / f.tileSize)),
	}
}

// TileToWorld returns the centre of a tile
func (f *Field) TileToWorld(tc TileCoord) Vec2 {
	return Vec2{
		X: (float64(tc.X) + 0.5) * f.tileSize,
		Y: (float64(tc.Y) + 0.5) * f.tileSize,
	}
}

func (f *Field) InBounds(tc TileCoord) bool {
	return tc.X >= f.minX && tc.X < f.minX+f.width &&
		tc.Y >= f.minY && tc.Y < f.minY+f.height
}

func (f *Field) index(tc TileCoord) int {
	return (tc.Y-f.minY)*f.width + (tc.X - f.minX)
}

// Strength returns a tile's strength, 0 out of bounds
func (f *Field) Strength(tc TileCoord) float64 {
	if !f.InBounds(tc) {
		return 0
	}
	return f.strength[f.index(tc)]
}

// StrengthAt returns the strength of the tile under a world position
func (f *Field) StrengthAt(p Vec2) float64 {
	return f.Strength(f.WorldToTile(p))
}

// AddStrength raises a tile by amount, clamped at the maximum. It ignores the cooldown
// and does not stamp the tile.
func (f *Field) AddStrength(tc TileCoord, amount float64) {
	if amount <= 0 || !f.InBounds(tc) {
		return
	}
	f.raise(f.index(tc), amount)
}

// maxSnap absorbs the rounding left by summing fractional writes, so N writes of max/N
// reach max exactly
const maxSnap = 1e-9

func (f *Field) raise(i int, amount float64) {
	s := f.strength[i] + amount
	if s >= f.max-maxSnap {
		s = f.max
	}
	f.strength[i] = s
}

// ApplyInRadius writes amount*falloff(d/radius) into every tile whose centre lies within
// radius of the centre tile, where d is that distance. Tiles written less than the cooldown
// ago are skipped. Returns the number of tiles written.
func (f *Field) ApplyInRadius(center Vec2, radius, amount float64, falloff Falloff, now float64) int {
	if radius < 0 || amount <= 0 {
		return 0
	}
	if falloff == nil {
		falloff = FalloffFunc(FalloffFlat)
	}
	ct := f.WorldToTile(center)
	cw := f.TileToWorld(ct)
	reach := int(math.Ceil(radius / f.tileSize))
	r2 := radius * radius

	written := 0
	for dy := -reach; dy <= reach; dy++ {
		for dx := -reach; dx <= reach; dx++ {
			tc := TileCoord{ct.X + dx, ct.Y + dy}
			if !f.InBounds(tc) {
				continue
			}
			d2 := cw.DistSq(f.TileToWorld(tc))
			if d2 > r2 {
				continue
			}
			i := f.index(tc)
			if now-f.touched[i] < f.cooldown {
				continue
			}
			scale := 1.0
			if radius > 0 {
				scale = falloff(math.Sqrt(d2) / radius)
			}
			if w := amount * scale; w > 0 {
				f.raise(i, w)
			}
			f.touched[i] = now
			written++
		}
	}
	return written
}

// IsAtMaximum reports whether the tile under p is at full strength
func (f *Field) IsAtMaximum(p Vec2) bool {
	tc := f.WorldToTile(p)
	if !f.InBounds(tc) {
		return false
	}
	return f.strength[f.index(tc)] >= f.max
}

// Clear zeroes every tile and forgets every write time
func (f *Field) Clear() {
	for i := range f.strength {
		f.strength[i] = 0
		f.touched[i] = math.Inf(-1)
	}
}

// Max is the strength at which a tile becomes lethal
func (f *Field) Max() float64 { return f.max }

// Bounds returns the lowest tile and the grid size in tiles
func (f *Field) Bounds() (minX, minY, width, height int) {
	return f.minX, f.minY, f.width, f.height
}

// Snapshot copies the strengths row by row starting at (minX, minY)
func (f *Field) Snapshot() []float64 {
	out := make([]float64, len(f.strength))
	copy(out, f.strength)
	return out
}

// Painted returns every tile with non-zero strength
func (f *Field) Painted() []TileCoord {
	var out []TileCoord
	for i, s := range f.strength {
		if s > 0 {
			out = append(out, TileCoord{X: f.minX + i%f.width, Y: f.minY + i/f.width})
		}
	}
	return out
}
