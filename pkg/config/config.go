// Package config loads mapabo settings.
//
// Settings come from, in increasing precedence:
//
//  1. built-in defaults ([Default]);
//  2. a TOML file, given explicitly, by MAPABO_CONFIG, or ./mapabo.toml;
//  3. MAPABO_* environment variables, after loading ./.env if present.
//
// A sample file:
//
//	[labels]
//	permanent_threshold = 50
//	zoom_threshold = 12
//
//	[style]
//	opacity = 0.8
//	stroke_width = 1.2
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[keys]
//	name = ["NOMBRE", "nombre", "name"]
package config

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/institutoite/bolivia/pkg/cache"
	"github.com/institutoite/bolivia/pkg/errors"
	"github.com/institutoite/bolivia/pkg/label"
	"github.com/institutoite/bolivia/pkg/props"
	"github.com/institutoite/bolivia/pkg/render"
	"github.com/institutoite/bolivia/pkg/style"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "mapabo.toml"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the full configuration.
type Config struct {
	Labels label.Config `toml:"labels"`
	Style  style.Params `toml:"style"`
	Halo   style.Halo   `toml:"halo"`
	Export Export       `toml:"export"`
	Cache  Cache        `toml:"cache"`
	Server Server       `toml:"server"`
	Keys   props.Keys   `toml:"keys"`

	// File is the path the configuration was read from, "" for none.
	File string `toml:"-"`
	// Unknown lists keys of the file that matched no setting.
	Unknown []string `toml:"-"`
}

// Export holds export defaults.
type Export struct {
	Width   int      `toml:"width"`
	Height  int      `toml:"height"`
	Scale   float64  `toml:"scale"`
	MaxSide int      `toml:"max_side"`
	Formats []string `toml:"formats"`
}

// Cache selects and configures the cache backend.
type Cache struct {
	Backend       string        `toml:"backend"`
	Dir           string        `toml:"dir"`
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db"`
	Prefix        string        `toml:"prefix"`
	LayerTTL      time.Duration `toml:"layer_ttl"`
}

// Server configures the HTTP server.
type Server struct {
	Addr       string        `toml:"addr"`
	SessionTTL time.Duration `toml:"session_ttl"`
	// DataDir roots relative local layer paths.
	DataDir string `toml:"data_dir"`
	// Catalog is a JSON index file or a directory to scan. Empty means the
	// built-in catalog.
	Catalog string `toml:"catalog"`

	// Political base sources.
	ADM1           string `toml:"adm1"`
	ADM3           string `toml:"adm3"`
	Capitals       string `toml:"capitals"`
	Municipalities string `toml:"municipalities"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Labels: label.DefaultConfig(),
		Style:  style.DefaultParams(),
		Halo:   style.DefaultHalo(),
		Export: Export{
			Width:   1200,
			Height:  800,
			Scale:   render.DefaultScale,
			Formats: []string{"png"},
		},
		Cache: Cache{
			Backend:  BackendFile,
			Prefix:   "mapabo:",
			LayerTTL: cache.LayerTTL,
		},
		Server: Server{
			Addr:       ":8080",
			SessionTTL: 2 * time.Hour,
			DataDir:    ".",
		},
	}
}

// Load reads .env, the TOML file at path (or the default locations) and the
// environment. A missing explicit file is an error; a missing default file
// is not.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if p, ok := lookup("MAPABO_CONFIG"); ok && p != "" {
			path, explicit = p, true
		} else {
			path = DefaultFile
		}
	}

	if _, err := os.Stat(path); err == nil {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	} else if explicit {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "config file %s", path)
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a TOML document over the defaults. The environment is not
// consulted.
func Parse(data string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config")
	}
	cfg.collectUnknown(md)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	c.File = path
	c.collectUnknown(md)
	return nil
}

func (c *Config) collectUnknown(md toml.MetaData) {
	for _, k := range md.Undecoded() {
		c.Unknown = append(c.Unknown, k.String())
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	str("MAPABO_CACHE", &c.Cache.Backend)
	str("MAPABO_CACHE_DIR", &c.Cache.Dir)
	str("MAPABO_REDIS_ADDR", &c.Cache.RedisAddr)
	str("MAPABO_REDIS_PASSWORD", &c.Cache.RedisPassword)
	str("MAPABO_ADDR", &c.Server.Addr)
	str("MAPABO_DATA_DIR", &c.Server.DataDir)
	str("MAPABO_CATALOG", &c.Server.Catalog)

	if v, ok := lookup("MAPABO_REDIS_DB"); ok && v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "MAPABO_REDIS_DB")
		}
		c.Cache.RedisDB = db
	}
	// A redis address alone selects the redis backend.
	_, backendSet := lookup("MAPABO_CACHE")
	if addr, ok := lookup("MAPABO_REDIS_ADDR"); ok && addr != "" && !backendSet {
		c.Cache.Backend = BackendRedis
	}
	return nil
}

// Validate checks ranges and names. Style parameters are clamped rather
// than rejected.
func (c *Config) Validate() error {
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "redis cache needs redis_addr")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}

	l := c.Labels
	if l.PermanentThreshold < 0 || l.MinFont <= 0 || l.MaxFont < l.MinFont || l.MaxFontZoom < l.MinFontZoom {
		return errors.New(errors.ErrCodeInvalidInput, "invalid label settings %+v", l)
	}

	c.Style = c.Style.Clamped()
	if c.Style.StrokeOverride != "" {
		if err := errors.ValidateColor(c.Style.StrokeOverride); err != nil {
			return err
		}
	}
	if err := errors.ValidateColor(c.Halo.Color); err != nil {
		return err
	}
	if c.Halo.Width < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "negative halo width")
	}

	for _, f := range c.Export.Formats {
		if _, err := render.ParseFormat(f); err != nil {
			return err
		}
	}
	if c.Export.Width <= 0 || c.Export.Height <= 0 || c.Export.Scale <= 0 || c.Export.MaxSide < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "invalid export settings %+v", c.Export)
	}
	return nil
}

// PropKeys returns the default key tables with the [keys] section merged in.
func (c *Config) PropKeys() *props.Keys {
	k := props.DefaultKeys()
	k.Merge(c.Keys)
	return k
}

// OpenCache builds the configured cache and a keyer scoped by Prefix.
// noCache forces the null cache.
func (c *Config) OpenCache(ctx context.Context, noCache bool) (cache.Cache, cache.Keyer, error) {
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.Cache.Prefix)
	if noCache {
		return cache.NewNullCache(), keyer, nil
	}
	switch c.Cache.Backend {
	case BackendNone:
		return cache.NewNullCache(), keyer, nil
	case BackendRedis:
		rc, err := cache.NewRedisCache(ctx, c.Cache.RedisAddr, c.Cache.RedisPassword, c.Cache.RedisDB)
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to redis at %s", c.Cache.RedisAddr)
		}
		return rc, keyer, nil
	}
	dir := c.Cache.Dir
	if dir == "" {
		d, err := cache.DefaultDir()
		if err != nil {
			return cache.NewNullCache(), keyer, nil
		}
		dir = d
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "create cache dir %s", dir)
	}
	return fc, keyer, nil
}

// CacheDir returns the file cache directory in effect.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return cache.DefaultDir()
}
