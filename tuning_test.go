package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTOML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tunables.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultTunablesValid(t *testing.T) {
	if err := DefaultTunables().Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadTunablesEmptyPath(t *testing.T) {
	cfg, err := LoadTunables("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg != DefaultTunables() {
		t.Error("empty path should return defaults")
	}
}

func TestLoadTunablesOverrides(t *testing.T) {
	path := writeTOML(t, `
[trail]
closure_distance = 2.5

[field]
write_cooldown = 1.5
stone_stages = 3

[grower]
falloff = "smooth"
`)
	cfg, err := LoadTunables(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Trail.ClosureDistance != 2.5 {
		t.Errorf("closure_distance = %f, want 2.5", cfg.Trail.ClosureDistance)
	}
	if cfg.Field.WriteCooldown != 1.5 || cfg.Field.StoneStages != 3 {
		t.Errorf("field overrides not applied: %+v", cfg.Field)
	}
	if cfg.Grower.Falloff != FalloffSmooth {
		t.Errorf("falloff = %q, want smooth", cfg.Grower.Falloff)
	}
	// untouched keys keep their defaults
	if cfg.Trail.MinPointSpacing != DefaultTunables().Trail.MinPointSpacing {
		t.Error("min_point_spacing should keep its default")
	}
}

func TestLoadTunablesRejectsUnknownKey(t *testing.T) {
	path := writeTOML(t, "[field]\ntile_sise = 2\n")
	_, err := LoadTunables(path)
	if err == nil || !strings.Contains(err.Error(), "tile_sise") {
		t.Errorf("expected unknown key error, got %v", err)
	}
}

func TestLoadTunablesRejectsInvalid(t *testing.T) {
	path := writeTOML(t, "[field]\ntile_size = 0.0\n[grower]\nfalloff = \"cubic\"\n")
	_, err := LoadTunables(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "tile_size") || !strings.Contains(err.Error(), "cubic") {
		t.Errorf("both problems should be reported, got %v", err)
	}
}

func TestLoadTunablesBadSyntax(t *testing.T) {
	path := writeTOML(t, "[field\n")
	if _, err := LoadTunables(path); err == nil {
		t.Error("expected decode error")
	}
}
