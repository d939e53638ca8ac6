package main

import (
	"flag"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/Iron-Rampage/internal/config"
	"github.com/Garsondee/Iron-Rampage/internal/game"
	"github.com/Garsondee/Iron-Rampage/pkg/logger"
)

func main() {
	var configDir string
	var seed int64
	flag.StringVar(&configDir, "config", ".", "directory containing config.json")
	flag.Int64Var(&seed, "seed", 0, "master seed; 0 picks one from the clock")
	flag.Parse()

	logger.Init()
	if err := config.Load(configDir); err != nil {
		logger.Log.Fatalf("config: %v", err)
	}

	var audio game.SoundPlayer = game.NoopPlayer{}
	if config.GetBool("audio.enabled") {
		player, err := game.NewBeepPlayer()
		if err != nil {
			logger.Log.Warnf("audio disabled, speaker init failed: %v", err)
		} else {
			audio = player
		}
	}

	perf := game.PerformanceOptions{
		SpatialPartitioning: config.GetBool("performance.spatialPartitioning"),
		ExplosionChainCap:   config.GetInt("performance.explosionChainCap"),
		SubStepCount:        config.GetInt("performance.subStepCount"),
	}

	g := game.New(game.Options{
		Cols:       config.GetInt("arena.cols"),
		Rows:       config.GetInt("arena.rows"),
		CellSize:   config.GetInt("arena.cellSize"),
		StartLevel: config.GetInt("level.start"),
		Seed:       seed,
		Audio:      audio,
		Perf:       &perf,
	})

	ebiten.SetWindowTitle(config.GetString("window.title"))
	ebiten.SetWindowSize(config.GetInt("window.width"), config.GetInt("window.height"))
	if err := ebiten.RunGame(g); err != nil {
		logger.Log.Fatalf("shell exited: %v", err)
	}
}
