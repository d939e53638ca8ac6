package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Load reads the optional config file and registers defaults for every
// tunable. Running without a config file is normal; only a malformed file
// is an error. configDir is the directory searched for config.json.
func Load(configDir string) error {
	// Window / presentation
	viper.SetDefault("window.title", "Iron Rampage")
	viper.SetDefault("window.width", 1280)
	viper.SetDefault("window.height", 960)

	// Arena
	viper.SetDefault("arena.cols", 40)
	viper.SetDefault("arena.rows", 25)
	viper.SetDefault("arena.cellSize", 32)

	// Campaign
	viper.SetDefault("level.start", 1)

	// Engine knobs, same keys the in-game toggles adjust.
	viper.SetDefault("performance.spatialPartitioning", true)
	viper.SetDefault("performance.explosionChainCap", 8)
	viper.SetDefault("performance.subStepCount", 4)

	viper.SetDefault("audio.enabled", true)

	viper.SetConfigName("config")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
