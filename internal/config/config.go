package config

import "path/filepath"

type Config struct {
	Server ServerConfig
	Wiki   WikiConfig
	Cache  CacheConfig
	API    APIConfig
	Log    LogConfig
}

type ServerConfig struct {
	Port int
}

type WikiConfig struct {
	Title      string
	ContentDir string
}

type CacheConfig struct {
	Dir        string
	TTLSeconds int
}

type APIConfig struct {
	Token string
}

type LogConfig struct {
	Level         string
	DebugMetadata bool
}

func defaults() Config {
	dataDir := defaultDataDir()
	return Config{
		Server: ServerConfig{
			Port: 4000,
		},
		Wiki: WikiConfig{
			Title:      "Wiki",
			ContentDir: filepath.Join(dataDir, "content"),
		},
		Cache: CacheConfig{
			Dir:        filepath.Join(dataDir, "cache"),
			TTLSeconds: 60,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON config file at
// $XDG_CONFIG_HOME/dwiki/config.json and applies DWIKI_* environment
// variable overrides on top. The API token is a secret and comes from
// the environment only.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	return cfg, nil
}
