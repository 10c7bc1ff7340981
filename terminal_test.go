package main

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
)

func newTestTerminal(t *testing.T, store RunStore) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	screen.SetSize(80, 25)
	t.Cleanup(screen.Fini)

	term := NewTerminal(screen, DefaultTunables(), store, "local")
	term.arena.Start()
	return term, screen
}

func rowText(s tcell.SimulationScreen, y, width int) string {
	var b strings.Builder
	for x := 0; x < width; x++ {
		r, _, _, _ := s.GetContent(x, y)
		b.WriteRune(r)
	}
	return b.String()
}

func TestTerminalRendersPilotAndStone(t *testing.T) {
	term, screen := newTestTerminal(t, nil)
	term.arena.View(func(_ *Pilot, _ *Trail, f *Field, _ []*Grower) {
		f.AddStrength(TileCoord{2, 2}, f.Max())
	})
	term.Render()

	x, y := term.WorldToScreen(Vec2{10, 7.5})
	if r, _, _, _ := screen.GetContent(x, y); r != '@' {
		t.Errorf("expected pilot at (%d,%d), got %q", x, y, r)
	}
	sx, sy := term.WorldToScreen(term.arena.field.TileToWorld(TileCoord{2, 2}))
	if r, _, _, _ := screen.GetContent(sx, sy); r != '█' {
		t.Errorf("lethal stone should draw as a full block, got %q", r)
	}
	if hud := rowText(screen, 0, 40); !strings.HasPrefix(hud, "score 0") {
		t.Errorf("unexpected HUD %q", hud)
	}
}

func TestTerminalCoordinates(t *testing.T) {
	term, _ := newTestTerminal(t, nil)
	for _, cell := range [][2]int{{1, 3}, {21, 10}, {40, 17}} {
		p := term.ScreenToWorld(cell[0], cell[1])
		if x, y := term.WorldToScreen(p); x != cell[0] || y != cell[1] {
			t.Errorf("cell %v -> %v -> (%d,%d)", cell, p, x, y)
		}
	}
}

func TestTerminalMouseSteers(t *testing.T) {
	term, _ := newTestTerminal(t, nil)
	if !term.HandleEvent(tcell.NewEventMouse(21, 10, tcell.ButtonNone, tcell.ModNone)) {
		t.Fatal("mouse motion should not quit")
	}
	want := term.ScreenToWorld(21, 10)
	term.arena.View(func(p *Pilot, _ *Trail, _ *Field, _ []*Grower) {
		if p.Target != want {
			t.Errorf("target = %v, want %v", p.Target, want)
		}
	})
}

func TestTerminalGameOver(t *testing.T) {
	store := newTestStore(t)
	term, screen := newTestTerminal(t, store)
	term.arena.View(func(p *Pilot, _ *Trail, f *Field, _ []*Grower) {
		f.AddStrength(f.WorldToTile(p.Pos), f.Max())
	})
	term.arena.Step(0.1)
	term.Render()

	_, oy := term.origin()
	if row := rowText(screen, oy+7, 80); !strings.Contains(row, "GAME OVER (stone)") {
		t.Errorf("expected game over banner, got %q", row)
	}
	if top, _ := store.TopRuns(10); len(top) != 1 || top[0].Pilot != "local" {
		t.Errorf("run should be saved, got %+v", top)
	}

	term.Restart()
	if term.arena.Phase() != PhasePlaying {
		t.Error("restart should start a new run")
	}
}

func TestTerminalQuitNotSaved(t *testing.T) {
	store := newTestStore(t)
	term, _ := newTestTerminal(t, store)
	term.arena.Leave()
	if top, _ := store.TopRuns(10); len(top) != 0 {
		t.Errorf("quitting should not record a run, got %+v", top)
	}
}

func TestStoneLevel(t *testing.T) {
	tests := []struct {
		s    float64
		want int
	}{
		{0, 0},
		{0.01, 1},
		{0.5, 2},
		{0.99, 3},
		{1, 4},
	}
	for _, tt := range tests {
		if got := stoneLevel(tt.s, 1); got != tt.want {
			t.Errorf("stoneLevel(%v) = %d, want %d", tt.s, got, tt.want)
		}
	}
}
