// Package config reads runtime settings from an optional .env file and the
// process environment.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	DataPath  string
	DataSheet string
	GinMode   string
}

func Default() Config {
	return Config{
		Port:      "9595",
		DataPath:  "data/clean_open_pubs.csv",
		DataSheet: "",
		GinMode:   "release",
	}
}

// Load applies .env files (missing ones are ignored) and then reads the
// environment. Variables already set in the environment win over .env.
func Load(envFiles ...string) Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}
	return FromEnv()
}

func FromEnv() Config {
	cfg := Default()
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < 65536 {
			cfg.Port = v
		}
	}
	if v := os.Getenv("DATA_PATH"); v != "" {
		cfg.DataPath = v
	}
	if v := os.Getenv("DATA_SHEET"); v != "" {
		cfg.DataSheet = v
	}
	switch v := os.Getenv("GIN_MODE"); v {
	case "debug", "release", "test":
		cfg.GinMode = v
	}
	return cfg
}

func (c Config) Addr() string { return ":" + c.Port }
