package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/institutoite/bolivia/pkg/cache"
	"github.com/institutoite/bolivia/pkg/errors"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse(`
[labels]
permanent_threshold = 30
zoom_threshold = 11.0
spacing_bonus = 2

[style]
opacity = 5.0
stroke_width = 2.0

[halo]
enabled = false
color = "#000"
width = 2

[server]
addr = ":9090"
session_ttl = "30m"
adm1 = "geo/departamentos.geojson"

[keys]
name = ["TITULO"]
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Labels.PermanentThreshold != 30 || cfg.Labels.ZoomThreshold != 11 {
		t.Errorf("Labels = %+v, want thresholds 30/11", cfg.Labels)
	}
	if cfg.Labels.MaxFont != 16 {
		t.Errorf("MaxFont = %v, want default 16", cfg.Labels.MaxFont)
	}
	if cfg.Style.Opacity != 1 {
		t.Errorf("Opacity = %v, want clamped to 1", cfg.Style.Opacity)
	}
	if cfg.Halo.Enabled || cfg.Halo.Width != 2 {
		t.Errorf("Halo = %+v", cfg.Halo)
	}
	if cfg.Server.Addr != ":9090" || cfg.Server.SessionTTL != 30*time.Minute {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if len(cfg.Unknown) != 1 || cfg.Unknown[0] != "labels.spacing_bonus" {
		t.Errorf("Unknown = %v, want [labels.spacing_bonus]", cfg.Unknown)
	}

	keys := cfg.PropKeys()
	if got := keys.ExtractName(map[string]any{"TITULO": "Illimani", "name": "x"}); got != "Illimani" {
		t.Errorf("ExtractName = %q, want Illimani", got)
	}
	if len(keys.RegionID) == 0 {
		t.Error("unset key tables should keep their defaults")
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errors.Code
	}{
		{"syntax", "[labels\n", errors.ErrCodeInvalidFormat},
		{"unknown backend", "[cache]\nbackend = \"memcached\"", errors.ErrCodeInvalidInput},
		{"redis without addr", "[cache]\nbackend = \"redis\"", errors.ErrCodeInvalidInput},
		{"bad halo color", "[halo]\ncolor = \"white\"", errors.ErrCodeInvalidColor},
		{"bad format", "[export]\nformats = [\"gif\"]", errors.ErrCodeInvalidFormat},
		{"font range", "[labels]\nmin_font = 20.0", errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.doc)
			if !errors.Is(err, tt.code) {
				t.Errorf("Parse() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapabo.toml")
	if err := os.WriteFile(path, []byte("[server]\naddr = \":9000\"\ncatalog = \"index.json\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := load("", env(map[string]string{
		"MAPABO_CONFIG":     path,
		"MAPABO_ADDR":       ":7000",
		"MAPABO_REDIS_ADDR": "localhost:6379",
		"MAPABO_REDIS_DB":   "2",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.File != path {
		t.Errorf("File = %q, want %q", cfg.File, path)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("Addr = %q, want env override :7000", cfg.Server.Addr)
	}
	if cfg.Server.Catalog != "index.json" {
		t.Errorf("Catalog = %q, want index.json", cfg.Server.Catalog)
	}
	if cfg.Cache.Backend != BackendRedis || cfg.Cache.RedisDB != 2 {
		t.Errorf("Cache = %+v, want redis db 2", cfg.Cache)
	}
}

func TestLoadExplicitBackendWins(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "none.toml"), env(nil))
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("load(missing explicit) = %v, want INVALID_PATH", err)
	}

	cfg, err = load("", env(map[string]string{
		"MAPABO_CACHE":      "none",
		"MAPABO_REDIS_ADDR": "localhost:6379",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Cache.Backend != BackendNone {
		t.Errorf("Backend = %q, want none", cfg.Cache.Backend)
	}
	if cfg.File != "" {
		t.Errorf("File = %q, want none read", cfg.File)
	}
}

func TestLoadBadRedisDB(t *testing.T) {
	_, err := load("", env(map[string]string{"MAPABO_REDIS_DB": "two"}))
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("load() = %v, want INVALID_INPUT", err)
	}
}

func TestOpenCache(t *testing.T) {
	ctx := context.Background()
	cfg := Default()
	cfg.Cache.Dir = t.TempDir()

	c, keyer, err := cfg.OpenCache(ctx, false)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	if _, ok := c.(*cache.FileCache); !ok {
		t.Errorf("OpenCache() = %T, want *cache.FileCache", c)
	}
	if got := keyer.HTTPKey("geo", "x"); got != "mapabo:http:geo:x" {
		t.Errorf("HTTPKey = %q, want mapabo: prefix", got)
	}

	c, _, _ = cfg.OpenCache(ctx, true)
	if _, ok := c.(cache.NullCache); !ok {
		t.Errorf("OpenCache(noCache) = %T, want cache.NullCache", c)
	}

	cfg.Cache.Backend = BackendNone
	c, _, _ = cfg.OpenCache(ctx, false)
	if _, ok := c.(cache.NullCache); !ok {
		t.Errorf("OpenCache(none) = %T, want cache.NullCache", c)
	}
}
