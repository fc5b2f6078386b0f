// Package config loads taxoview settings from a TOML file.
//
// Settings are resolved in three layers: [Default], then the file passed to
// [Load], then TAXOVIEW_* environment variables via [Config.ApplyEnv]. The
// CLI applies its flags last.
//
//	root_id = "Q35120"
//	default_depth = 1
//
//	[layout]
//	width = 840.0
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/taxoview/pkg/engine"
	"github.com/matzehuels/taxoview/pkg/errors"
	"github.com/matzehuels/taxoview/pkg/hierarchy"
	"github.com/matzehuels/taxoview/pkg/layout"
	"github.com/matzehuels/taxoview/pkg/layout/tidy"
	"github.com/matzehuels/taxoview/pkg/ontology"
	"github.com/matzehuels/taxoview/pkg/palette"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TAXOVIEW_"

// Config is the full taxoview configuration.
type Config struct {
	Dataset      string `toml:"dataset"`
	RootID       string `toml:"root_id"`
	DefaultDepth int    `toml:"default_depth"`
	MaxDepth     int    `toml:"max_depth"` // probe depth for reachable-depth clamping
	DepthCap     int    `toml:"depth_cap"`

	Palette PaletteConfig `toml:"palette"`
	Layout  LayoutConfig  `toml:"layout"`
	Cache   CacheConfig   `toml:"cache"`
	Server  ServerConfig  `toml:"server"`
	Neo4j   Neo4jConfig   `toml:"neo4j"`
}

// PaletteConfig selects colour scales. Ascent and Descent are [from, to]
// hex pairs.
type PaletteConfig struct {
	Depth   string   `toml:"depth"`
	Ascent  []string `toml:"ascent"`
	Descent []string `toml:"descent"`
}

type LayoutConfig struct {
	Width          float64 `toml:"width"`
	Height         float64 `toml:"height"`
	SiblingSpacing float64 `toml:"sibling_spacing"`
	LevelSpacing   float64 `toml:"level_spacing"`
	CircleRadius   float64 `toml:"circle_radius"`
	Padding        float64 `toml:"padding"` // negative selects adaptive padding
}

type CacheConfig struct {
	Backend       string        `toml:"backend"`
	Dir           string        `toml:"dir"`
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db"`
	KeyPrefix     string        `toml:"key_prefix"` // namespaces keys in a shared backend
	TTL           time.Duration `toml:"ttl"`
}

type ServerConfig struct {
	Addr       string        `toml:"addr"`
	SessionTTL time.Duration `toml:"session_ttl"`
}

// Neo4jConfig points the loader at a knowledge base. The dataset file is
// used when URI is empty.
type Neo4jConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	Query    string `toml:"query"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		RootID:       ontology.DefaultRootID,
		DefaultDepth: 1,
		MaxDepth:     hierarchy.DefaultMaxDepth,
		DepthCap:     hierarchy.DepthCap,
		Palette: PaletteConfig{
			Depth:   palette.NameCool,
			Ascent:  []string{palette.AscentFrom, palette.AscentTo},
			Descent: []string{palette.DescentFrom, palette.DescentTo},
		},
		Layout: LayoutConfig{
			Width:          layout.DefaultWidth,
			Height:         layout.DefaultHeight,
			SiblingSpacing: tidy.SiblingSpacing,
			LevelSpacing:   tidy.LevelSpacing,
			CircleRadius:   tidy.CircleRadius,
			Padding:        -1,
		},
		Cache: CacheConfig{
			Backend:   CacheFile,
			RedisAddr: "localhost:6379",
			TTL:       24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:       ":8080",
			SessionTTL: 2 * time.Hour,
		},
	}
}

// DefaultPath returns ~/.config/taxoview/config.toml, honouring
// XDG_CONFIG_HOME.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "taxoview", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "taxoview", "config.toml")
}

// Load reads path over the defaults and validates the result. A missing
// file is FILE_NOT_FOUND; unknown keys are INVALID_FORMAT.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidFormat, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads path, or the default path when path is empty. Only an
// explicitly named file must exist.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	cfg, err := Load(DefaultPath())
	if errors.Is(err, errors.ErrCodeFileNotFound) {
		return Default(), nil
	}
	return cfg, err
}

// Validate checks ranges and names.
func (c *Config) Validate() error {
	if c.DepthCap < 1 || c.DepthCap > hierarchy.DepthCap {
		return errors.New(errors.ErrCodeInvalidDepth, "depth_cap must be in [1, %d], got %d", hierarchy.DepthCap, c.DepthCap)
	}
	if err := errors.ValidateDepth(c.DefaultDepth, c.DepthCap); err != nil {
		return err
	}
	if c.MaxDepth < 1 || c.MaxDepth > c.DepthCap {
		return errors.New(errors.ErrCodeInvalidDepth, "max_depth must be in [1, %d], got %d", c.DepthCap, c.MaxDepth)
	}
	if c.RootID != "" {
		if err := errors.ValidateEntityID(c.RootID); err != nil {
			return err
		}
	}
	if _, err := palette.Named(c.Palette.Depth); err != nil {
		return err
	}
	for name, pair := range map[string][]string{"ascent": c.Palette.Ascent, "descent": c.Palette.Descent} {
		if len(pair) != 2 {
			return errors.New(errors.ErrCodeInvalidInput, "palette.%s needs two colours, got %d", name, len(pair))
		}
		for _, hex := range pair {
			if err := palette.ValidateHex(hex); err != nil {
				return err
			}
		}
	}
	if err := errors.ValidateBounds(c.Layout.Width, c.Layout.Height); err != nil {
		return err
	}
	if c.Layout.SiblingSpacing <= 0 || c.Layout.LevelSpacing <= 0 || c.Layout.CircleRadius <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "layout spacing and radius must be positive")
	}
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 || c.Server.SessionTTL < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "ttl must not be negative")
	}
	return nil
}

// ApplyEnv overrides settings from TAXOVIEW_* variables read through
// lookup (os.LookupEnv in production). Malformed numbers are errors.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("DATASET", &c.Dataset)
	str("ROOT_ID", &c.RootID)
	str("CACHE_BACKEND", &c.Cache.Backend)
	str("CACHE_DIR", &c.Cache.Dir)
	str("REDIS_ADDR", &c.Cache.RedisAddr)
	str("REDIS_PASSWORD", &c.Cache.RedisPassword)
	str("CACHE_KEY_PREFIX", &c.Cache.KeyPrefix)
	str("SERVER_ADDR", &c.Server.Addr)
	str("NEO4J_URI", &c.Neo4j.URI)
	str("NEO4J_USER", &c.Neo4j.User)
	str("NEO4J_PASSWORD", &c.Neo4j.Password)
	str("NEO4J_DATABASE", &c.Neo4j.Database)

	if v, ok := lookup(EnvPrefix + "DEFAULT_DEPTH"); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "%sDEFAULT_DEPTH", EnvPrefix)
		}
		c.DefaultDepth = n
	}
	if v, ok := lookup(EnvPrefix + "CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "%sCACHE_TTL", EnvPrefix)
		}
		c.Cache.TTL = d
	}
	return c.Validate()
}

// Bounds returns the configured drawing surface.
func (c *Config) Bounds() layout.Bounds {
	return layout.Bounds{Width: c.Layout.Width, Height: c.Layout.Height}
}

// EngineOptions translates the configuration into engine options. The
// configuration must have passed Validate.
func (c *Config) EngineOptions() ([]engine.Option, error) {
	depth, err := palette.Named(c.Palette.Depth)
	if err != nil {
		return nil, err
	}
	ascent, err := palette.Linear(c.Palette.Ascent[0], c.Palette.Ascent[1])
	if err != nil {
		return nil, err
	}
	descent, err := palette.Linear(c.Palette.Descent[0], c.Palette.Descent[1])
	if err != nil {
		return nil, err
	}
	opts := []engine.Option{
		engine.WithDepthScale(depth),
		engine.WithPathScales(ascent, descent),
		engine.WithProbeDepth(c.MaxDepth),
		engine.WithTreeSpacing(c.Layout.SiblingSpacing, c.Layout.LevelSpacing),
		engine.WithTreeRadius(c.Layout.CircleRadius),
	}
	if c.Layout.Padding >= 0 {
		opts = append(opts, engine.WithPadding(c.Layout.Padding))
	}
	return opts, nil
}

// UsesNeo4j reports whether datasets come from a knowledge base.
func (c *Config) UsesNeo4j() bool { return c.Neo4j.URI != "" }
