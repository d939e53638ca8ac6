package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	if err := Load(t.TempDir()); err != nil {
		t.Fatalf("expected missing config file to be tolerated, got %v", err)
	}
	if got := GetString("window.title"); got != "Iron Rampage" {
		t.Fatalf("expected default title %q, got %q", "Iron Rampage", got)
	}
	if got := GetInt("arena.cols"); got != 40 {
		t.Fatalf("expected default arena.cols 40, got %d", got)
	}
	if got := GetInt("arena.cellSize"); got != 32 {
		t.Fatalf("expected default arena.cellSize 32, got %d", got)
	}
	if !GetBool("audio.enabled") {
		t.Fatalf("expected audio enabled by default")
	}
	if !GetBool("performance.spatialPartitioning") {
		t.Fatalf("expected spatial partitioning enabled by default")
	}
	if got := GetInt("performance.explosionChainCap"); got != 8 {
		t.Fatalf("expected default explosionChainCap 8, got %d", got)
	}
	if got := GetInt("performance.subStepCount"); got != 4 {
		t.Fatalf("expected default subStepCount 4, got %d", got)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{
		"window": { "title": "Night Ops" },
		"arena": { "cols": 20, "rows": 15 },
		"performance": { "spatialPartitioning": false }
	}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := Load(dir); err != nil {
		t.Fatalf("expected valid config to load, got %v", err)
	}
	if got := GetString("window.title"); got != "Night Ops" {
		t.Fatalf("expected overridden title %q, got %q", "Night Ops", got)
	}
	if got := GetInt("arena.cols"); got != 20 {
		t.Fatalf("expected overridden arena.cols 20, got %d", got)
	}
	if GetBool("performance.spatialPartitioning") {
		t.Fatalf("expected spatial partitioning disabled by file")
	}
	// Keys the file does not mention keep their defaults.
	if got := GetInt("arena.cellSize"); got != 32 {
		t.Fatalf("expected untouched arena.cellSize 32, got %d", got)
	}
	if got := GetInt("level.start"); got != 1 {
		t.Fatalf("expected untouched level.start 1, got %d", got)
	}
}

func TestLoad_MalformedFileErrors(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"window": `), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	err := Load(dir)
	if err == nil {
		t.Fatalf("expected malformed config file to error")
	}
	if !strings.Contains(err.Error(), "error reading config file") {
		t.Fatalf("expected wrapped read error, got %v", err)
	}
}
