package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
)

const (
	terminalFPS  = 30
	cellsPerTile = 2 // terminal cells are roughly twice as tall as wide
	hudRows      = 2
)

var (
	styleDefault = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	styleHUD     = styleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleBorder  = styleDefault.Foreground(tcell.ColorDarkGray)
	styleTrail   = styleDefault.Foreground(tcell.ColorYellow)
	styleLoop    = styleDefault.Foreground(tcell.ColorLime)
	stylePilot   = styleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleGrower  = styleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleOver    = styleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)

	// stone shades from empty to lethal
	stoneGlyphs = []rune{' ', '░', '▒', '▓', '█'}
	stoneStyles = []tcell.Style{
		styleDefault,
		styleDefault.Foreground(tcell.ColorSilver),
		styleDefault.Foreground(tcell.ColorGray),
		styleDefault.Foreground(tcell.ColorDarkGray),
		styleDefault.Foreground(tcell.ColorMaroon),
	}
)

// Terminal plays one arena locally: the mouse is the pointer
type Terminal struct {
	screen tcell.Screen
	arena  *Arena
	store  RunStore
	name   string

	mu      sync.Mutex
	message string
	over    *OverMsg
}

// NewTerminal creates a terminal front-end over an initialised screen. store may be nil.
func NewTerminal(screen tcell.Screen, cfg Tunables, store RunStore, name string) *Terminal {
	t := &Terminal{screen: screen, store: store, name: name}
	t.arena = NewArena(GenerateUUID(), cfg, nil, t)
	return t
}

func (t *Terminal) OnLoop(ev LoopMsg) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.message = fmt.Sprintf("loop closed, area %.1f, caught %d", ev.Area, len(ev.Encircled))
}

func (t *Terminal) OnFrame(*Frame) {}

func (t *Terminal) OnOver(ev OverMsg) {
	if t.store != nil && ev.Cause != CauseLeft {
		if _, err := t.store.SaveRun(RunRecord{
			Pilot:     t.name,
			Score:     ev.Score,
			Seconds:   ev.Seconds,
			Encircled: ev.Encircled,
			Loops:     ev.Loops,
			Cause:     ev.Cause,
			EndedAt:   time.Now(),
		}); err != nil {
			log.Printf("terminal: %v", err)
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.over = &ev
}

// origin is the screen cell of tile (0,0)
func (t *Terminal) origin() (int, int) {
	return 1, hudRows + 1
}

// ScreenToWorld maps a terminal cell to the world point under its centre
func (t *Terminal) ScreenToWorld(x, y int) Vec2 {
	ox, oy := t.origin()
	ts := t.arena.cfg.Field.TileSize
	return Vec2{
		X: (float64(x-ox) + 0.5) / cellsPerTile * ts,
		Y: (float64(y-oy) + 0.5) * ts,
	}
}

// WorldToScreen maps a world point to the terminal cell showing it
func (t *Terminal) WorldToScreen(p Vec2) (int, int) {
	ox, oy := t.origin()
	ts := t.arena.cfg.Field.TileSize
	return ox + int(p.X/ts*cellsPerTile), oy + int(p.Y/ts)
}

// Restart begins a new run
func (t *Terminal) Restart() {
	t.mu.Lock()
	t.over = nil
	t.message = ""
	t.mu.Unlock()
	t.arena.Start()
}

// HandleEvent applies one tcell event. It returns false when the player quits.
func (t *Terminal) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		t.screen.Sync()
	case *tcell.EventMouse:
		x, y := ev.Position()
		t.arena.SetTarget(t.ScreenToWorld(x, y))
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case 'r':
				t.Restart()
			}
		}
	}
	return true
}

// Render draws the arena and the HUD
func (t *Terminal) Render() {
	s := t.screen
	s.Clear()
	cfg := t.arena.cfg
	cols := int(cfg.Field.ArenaWidth / cfg.Field.TileSize)
	rows := int(cfg.Field.ArenaHeight / cfg.Field.TileSize)
	ox, oy := t.origin()

	for x := ox - 1; x <= ox+cols*cellsPerTile; x++ {
		s.SetContent(x, oy-1, '─', nil, styleBorder)
		s.SetContent(x, oy+rows, '─', nil, styleBorder)
	}
	for y := oy; y < oy+rows; y++ {
		s.SetContent(ox-1, y, '│', nil, styleBorder)
		s.SetContent(ox+cols*cellsPerTile, y, '│', nil, styleBorder)
	}

	t.arena.View(func(p *Pilot, trail *Trail, field *Field, growers []*Grower) {
		for ty := 0; ty < rows; ty++ {
			for tx := 0; tx < cols; tx++ {
				level := stoneLevel(field.Strength(TileCoord{tx, ty}), field.Max())
				for c := 0; c < cellsPerTile; c++ {
					s.SetContent(ox+tx*cellsPerTile+c, oy+ty, stoneGlyphs[level], nil, stoneStyles[level])
				}
			}
		}
		for _, pt := range trail.points {
			x, y := t.WorldToScreen(pt)
			s.SetContent(x, y, '·', nil, styleTrail)
		}
		for _, g := range growers {
			x, y := t.WorldToScreen(g.Pos)
			s.SetContent(x, y, 'G', nil, styleGrower)
		}
		x, y := t.WorldToScreen(p.Pos)
		s.SetContent(x, y, '@', nil, stylePilot)
	})

	res := t.arena.Result()
	drawText(s, 0, 0, fmt.Sprintf("score %d  time %.0fs  caught %d  loops %d", res.Score, res.Seconds, res.Encircled, res.Loops), styleHUD)

	t.mu.Lock()
	msg, over := t.message, t.over
	t.mu.Unlock()
	if msg != "" {
		drawText(s, 0, 1, msg, styleLoop)
	}
	if over != nil {
		text := fmt.Sprintf(" GAME OVER (%s)  score %d   r: restart  q: quit ", over.Cause, over.Score)
		bx := ox + cols*cellsPerTile/2 - len(text)/2
		if bx < 0 {
			bx = 0
		}
		drawText(s, bx, oy+rows/2, text, styleOver)
	}
	s.Show()
}

// stoneLevel buckets a strength into a glyph index; only a lethal tile gets the last one
func stoneLevel(strength, max float64) int {
	if strength <= 0 {
		return 0
	}
	if strength >= max {
		return len(stoneGlyphs) - 1
	}
	lvl := 1 + int(strength/max*float64(len(stoneGlyphs)-2))
	if lvl > len(stoneGlyphs)-2 {
		lvl = len(stoneGlyphs) - 2
	}
	return lvl
}

func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, style)
	}
}

// Run plays until the player quits or ctx is done
func (t *Terminal) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	t.screen.EnableMouse(tcell.MouseMotionEvents)
	t.screen.HideCursor()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	go t.arena.Run(ctx)
	defer t.arena.Stop()
	t.Restart()

	ticker := time.NewTicker(time.Second / terminalFPS)
	defer ticker.Stop()
	for {
		select {
		case ev := <-events:
			if !t.HandleEvent(ev) {
				t.arena.Leave()
				return
			}
		case <-ticker.C:
			t.Render()
		case <-ctx.Done():
			return
		}
	}
}

// RunTerminal opens the real terminal and plays until quit
func RunTerminal(ctx context.Context, cfg Tunables, store RunStore, name string) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	defer screen.Fini()
	screen.SetStyle(styleDefault)

	NewTerminal(screen, cfg, store, name).Run(ctx)
	return nil
}
