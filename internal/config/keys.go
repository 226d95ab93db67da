package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "DWIKI_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "wiki.title", typ: kString, env: "DWIKI_WIKI_TITLE",
		apply:   func(cfg *Config, v any) { cfg.Wiki.Title = v.(string) },
		extract: func(cfg Config) any { return cfg.Wiki.Title },
	},
	{
		key: "wiki.content_dir", typ: kString, env: "DWIKI_WIKI_CONTENT_DIR",
		apply:   func(cfg *Config, v any) { cfg.Wiki.ContentDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Wiki.ContentDir },
	},
	{
		key: "cache.dir", typ: kString, env: "DWIKI_CACHE_DIR",
		apply:   func(cfg *Config, v any) { cfg.Cache.Dir = v.(string) },
		extract: func(cfg Config) any { return cfg.Cache.Dir },
	},
	{
		key: "cache.ttl_seconds", typ: kInt, env: "DWIKI_CACHE_TTL_SECONDS",
		apply:   func(cfg *Config, v any) { cfg.Cache.TTLSeconds = v.(int) },
		extract: func(cfg Config) any { return cfg.Cache.TTLSeconds },
	},
	{
		key: "api.token", typ: kString, env: "DWIKI_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.API.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.API.Token },
	},
	{
		key: "log.level", typ: kString, env: "DWIKI_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "log.debug_metadata", typ: kBool, env: "DWIKI_LOG_DEBUG_METADATA",
		apply:   func(cfg *Config, v any) { cfg.Log.DebugMetadata = v.(bool) },
		extract: func(cfg Config) any { return cfg.Log.DebugMetadata },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kBool:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if bv, err := strconv.ParseBool(v); err == nil {
					s.apply(cfg, bv)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
