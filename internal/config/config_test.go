package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempConfig(t *testing.T, content string) *fileBackend {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return newFileBackend(path)
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
	}
}

// TestDefaults verifies default values when the config file is empty.
func TestDefaults(t *testing.T) {
	clearEnv(t)
	b := writeTempConfig(t, `{}`)

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want 4000", cfg.Server.Port)
	}
	if cfg.Wiki.Title != "Wiki" {
		t.Errorf("Wiki.Title = %q, want %q", cfg.Wiki.Title, "Wiki")
	}
	if cfg.Cache.TTLSeconds != 60 {
		t.Errorf("Cache.TTLSeconds = %d, want 60", cfg.Cache.TTLSeconds)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Log.DebugMetadata {
		t.Error("Log.DebugMetadata = true, want false")
	}
	if cfg.API.Token != "" {
		t.Errorf("API.Token = %q, want empty", cfg.API.Token)
	}
	if !strings.HasSuffix(cfg.Wiki.ContentDir, filepath.Join("dwiki", "content")) {
		t.Errorf("Wiki.ContentDir = %q", cfg.Wiki.ContentDir)
	}
}

// TestFileValues verifies that all field kinds are read from the JSON file.
func TestFileValues(t *testing.T) {
	clearEnv(t)
	b := writeTempConfig(t, `{
  "server.port": 8080,
  "wiki.title": "Team Handbook",
  "wiki.content_dir": "/srv/wiki",
  "cache.dir": "/var/cache/dwiki",
  "cache.ttl_seconds": 300,
  "log.level": "debug",
  "log.debug_metadata": "true"
}`)

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Wiki.Title != "Team Handbook" {
		t.Errorf("Wiki.Title = %q", cfg.Wiki.Title)
	}
	if cfg.Wiki.ContentDir != "/srv/wiki" {
		t.Errorf("Wiki.ContentDir = %q", cfg.Wiki.ContentDir)
	}
	if cfg.Cache.Dir != "/var/cache/dwiki" {
		t.Errorf("Cache.Dir = %q", cfg.Cache.Dir)
	}
	if cfg.Cache.TTLSeconds != 300 {
		t.Errorf("Cache.TTLSeconds = %d, want 300", cfg.Cache.TTLSeconds)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if !cfg.Log.DebugMetadata {
		t.Error("Log.DebugMetadata = false, want true")
	}
}

// TestEnvOverride verifies that environment variables win over file values.
func TestEnvOverride(t *testing.T) {
	clearEnv(t)
	b := writeTempConfig(t, `{"server.port": 8080, "wiki.title": "File Title"}`)

	t.Setenv("DWIKI_SERVER_PORT", "9090")
	t.Setenv("DWIKI_WIKI_TITLE", "Env Title")
	t.Setenv("DWIKI_API_TOKEN", "env-token")

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Wiki.Title != "Env Title" {
		t.Errorf("Wiki.Title = %q, want %q", cfg.Wiki.Title, "Env Title")
	}
	if cfg.API.Token != "env-token" {
		t.Errorf("API.Token = %q, want %q", cfg.API.Token, "env-token")
	}
}

// TestSecretNotReadFromFile verifies the token is ignored in the config file.
func TestSecretNotReadFromFile(t *testing.T) {
	clearEnv(t)
	b := writeTempConfig(t, `{"api.token": "leaked"}`)

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.Token != "" {
		t.Errorf("API.Token = %q, want empty (secrets are env-only)", cfg.API.Token)
	}
}

// TestBadIntSurfaces verifies a malformed integer in the file is an error.
func TestBadIntSurfaces(t *testing.T) {
	clearEnv(t)
	b := writeTempConfig(t, `{"server.port": "not-a-number"}`)

	if _, err := loadWith(b); err == nil {
		t.Fatal("expected error for malformed port, got nil")
	}
}

func TestShowAllHidesSecrets(t *testing.T) {
	cfg := defaults()
	cfg.API.Token = "hidden"

	for _, info := range ShowAll(cfg) {
		if info.Key == "api.token" {
			t.Fatal("api.token listed in ShowAll")
		}
		if info.Value == "hidden" {
			t.Fatalf("secret value leaked under key %s", info.Key)
		}
	}
}

func TestValidKeys(t *testing.T) {
	keys := ValidKeys()
	want := map[string]bool{
		"server.port": true, "wiki.title": true, "wiki.content_dir": true,
		"cache.dir": true, "cache.ttl_seconds": true,
		"log.level": true, "log.debug_metadata": true,
	}
	if len(keys) != len(want) {
		t.Fatalf("got %d keys %v, want %d", len(keys), keys, len(want))
	}
	for _, k := range keys {
		if !want[k] {
			t.Errorf("unexpected key %q", k)
		}
	}
}
