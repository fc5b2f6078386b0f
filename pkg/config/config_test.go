package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/taxoview/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load("testdata/full.toml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := Default()
	want.Dataset = "animals.json"
	want.RootID = "Q729"
	want.DefaultDepth = 2
	want.Palette.Depth = "warm"
	want.Layout = LayoutConfig{Width: 1024, Height: 768, SiblingSpacing: 40, LevelSpacing: 180, CircleRadius: 10, Padding: 5}
	want.Cache.Backend = CacheRedis
	want.Cache.RedisAddr = "cache:6379"
	want.Cache.TTL = time.Hour
	want.Server = ServerConfig{Addr: ":9090", SessionTTL: 30 * time.Minute}
	want.Neo4j = Neo4jConfig{URI: "bolt://kb:7687", User: "reader", Database: "wikidata"}

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if !cfg.UsesNeo4j() {
		t.Error("neo4j uri set but UsesNeo4j is false")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		path string
		code errors.Code
	}{
		{"testdata/missing.toml", errors.ErrCodeFileNotFound},
		{"testdata/unknown.toml", errors.ErrCodeInvalidFormat},
		{"testdata/invalid.toml", errors.ErrCodeInvalidDepth},
	}
	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			_, err := Load(tt.path)
			if !errors.Is(err, tt.code) {
				t.Errorf("Load(%s) error = %v, want %s", tt.path, err, tt.code)
			}
		})
	}
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("root_id = "), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("error = %v, want INVALID_FORMAT", err)
	}
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("want defaults (-want +got):\n%s", diff)
	}

	if _, err := LoadOrDefault("testdata/missing.toml"); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("explicit missing file: error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		code   errors.Code
	}{
		{"depth cap too high", func(c *Config) { c.DepthCap = 7 }, errors.ErrCodeInvalidDepth},
		{"default over cap", func(c *Config) { c.DepthCap = 2; c.MaxDepth = 2; c.DefaultDepth = 3 }, errors.ErrCodeInvalidDepth},
		{"probe depth zero", func(c *Config) { c.MaxDepth = 0 }, errors.ErrCodeInvalidDepth},
		{"bad palette", func(c *Config) { c.Palette.Depth = "plaid" }, errors.ErrCodeInvalidInput},
		{"one ascent colour", func(c *Config) { c.Palette.Ascent = []string{"#fff"} }, errors.ErrCodeInvalidInput},
		{"bad hex", func(c *Config) { c.Palette.Descent = []string{"#fff", "nope"} }, errors.ErrCodeInvalidInput},
		{"zero width", func(c *Config) { c.Layout.Width = 0 }, errors.ErrCodeInvalidBounds},
		{"zero radius", func(c *Config) { c.Layout.CircleRadius = 0 }, errors.ErrCodeInvalidInput},
		{"bad backend", func(c *Config) { c.Cache.Backend = "memcached" }, errors.ErrCodeInvalidInput},
		{"bad root", func(c *Config) { c.RootID = " Q5" }, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.code) {
				t.Errorf("Validate() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"TAXOVIEW_ROOT_ID":          "Q5",
		"TAXOVIEW_DEFAULT_DEPTH":    "3",
		"TAXOVIEW_REDIS_ADDR":       "redis:6380",
		"TAXOVIEW_CACHE_TTL":        "5m",
		"TAXOVIEW_NEO4J_PASSWORD":   "secret",
		"TAXOVIEW_CACHE_KEY_PREFIX": "taxoview:test:",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	cfg := Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.RootID != "Q5" || cfg.DefaultDepth != 3 || cfg.Cache.RedisAddr != "redis:6380" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Cache.TTL != 5*time.Minute || cfg.Neo4j.Password != "secret" {
		t.Errorf("ttl=%v password=%q", cfg.Cache.TTL, cfg.Neo4j.Password)
	}
	if cfg.Cache.KeyPrefix != "taxoview:test:" {
		t.Errorf("KeyPrefix = %q", cfg.Cache.KeyPrefix)
	}

	env["TAXOVIEW_DEFAULT_DEPTH"] = "deep"
	if err := Default().ApplyEnv(lookup); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("malformed depth: error = %v", err)
	}
}

func TestEngineOptions(t *testing.T) {
	cfg := Default()
	opts, err := cfg.EngineOptions()
	if err != nil {
		t.Fatal(err)
	}
	if len(opts) != 5 {
		t.Errorf("got %d options, want 5 with adaptive padding", len(opts))
	}

	cfg.Layout.Padding = 3
	opts, _ = cfg.EngineOptions()
	if len(opts) != 6 {
		t.Errorf("got %d options, want 6 with fixed padding", len(opts))
	}
}
