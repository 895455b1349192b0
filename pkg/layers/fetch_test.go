package layers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/institutoite/bolivia/pkg/cache"
	"github.com/institutoite/bolivia/pkg/catalog"
	"github.com/institutoite/bolivia/pkg/errors"
)

const sampleGeoJSON = `{"type":"FeatureCollection","features":[
  {"type":"Feature","geometry":{"type":"Point","coordinates":[-68.15,-16.5]},"properties":{"name":"La Paz"}},
  {"type":"Feature","geometry":{"type":"Point","coordinates":[-63.18,-17.78]},"properties":{"name":"Santa Cruz"}}
]}`

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(sampleGeoJSON))
	}))
	defer srv.Close()

	f := NewFetcher(WithHTTPClient(srv.Client()), WithRetry(3, time.Millisecond))
	l, err := f.Load(context.Background(), catalog.Entry{Name: "capitales", URL: srv.URL + "/c.geojson", Group: "puntos"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("requests = %d, want 3", calls.Load())
	}
	if len(l.Features) != 2 || l.PointCount != 2 {
		t.Errorf("features = %d, points = %d, want 2, 2", len(l.Features), l.PointCount)
	}
	if l.Group != "puntos" || l.Name != "capitales" {
		t.Errorf("Group, Name = %q, %q", l.Group, l.Name)
	}
}

func TestFetchDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(WithHTTPClient(srv.Client()), WithRetry(3, time.Millisecond))
	_, err := f.Load(context.Background(), catalog.Entry{URL: srv.URL + "/missing.geojson"})
	if !errors.Is(err, errors.ErrCodeLayerLoad) {
		t.Errorf("Load error = %v, want LAYER_LOAD_FAILED", err)
	}
	if calls.Load() != 1 {
		t.Errorf("requests = %d, want 1", calls.Load())
	}
}

func TestFetchUsesCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleGeoJSON))
	}))
	url := srv.URL + "/a.geojson"

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := NewFetcher(WithHTTPClient(srv.Client()), WithCache(c, nil, time.Hour))
	if _, err := f.Fetch(context.Background(), url); err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	srv.Close()

	data, err := f.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("cached Fetch: %v", err)
	}
	if string(data) != sampleGeoJSON {
		t.Error("cached bytes differ")
	}
}

func TestFetchLocal(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "geo"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "geo", "c.geojson"), []byte(sampleGeoJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	f := NewFetcher(WithDataDir(dir))

	tests := []struct {
		source string
		code   errors.Code
	}{
		{"geo/c.geojson", ""},
		{"/geo/c.geojson", ""},
		{"geo/none.geojson", errors.ErrCodeLayerNotFound},
		{"geo/../../etc/passwd", errors.ErrCodeInvalidPath},
	}
	for _, tt := range tests {
		_, err := f.Fetch(context.Background(), tt.source)
		if got := errors.GetCode(err); got != tt.code {
			t.Errorf("Fetch(%q) code = %q, want %q (err %v)", tt.source, got, tt.code, err)
		}
	}
}

func TestFetchRejectsOversizedLayer(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(sampleGeoJSON))
	}))
	defer srv.Close()

	limit := int64(len(sampleGeoJSON) - 1)
	f := NewFetcher(WithHTTPClient(srv.Client()), WithRetry(3, time.Millisecond), WithMaxBytes(limit))
	data, err := f.Fetch(context.Background(), srv.URL+"/big.geojson")
	if !errors.Is(err, errors.ErrCodeLayerLoad) || data != nil {
		t.Errorf("Fetch = %d bytes, %v, want LAYER_LOAD_FAILED", len(data), err)
	}
	if calls.Load() != 1 {
		t.Errorf("requests = %d, want 1", calls.Load())
	}

	exact := NewFetcher(WithHTTPClient(srv.Client()), WithMaxBytes(int64(len(sampleGeoJSON))))
	if data, err := exact.Fetch(context.Background(), srv.URL+"/c.geojson"); err != nil || len(data) != len(sampleGeoJSON) {
		t.Errorf("Fetch at the limit = %d bytes, %v", len(data), err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "big.geojson"), []byte(sampleGeoJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = NewFetcher(WithDataDir(dir), WithMaxBytes(limit)).Load(context.Background(), catalog.Entry{URL: "big.geojson"})
	if !errors.Is(err, errors.ErrCodeLayerLoad) {
		t.Errorf("Load(local) error = %v, want LAYER_LOAD_FAILED", err)
	}
}

func TestLoadInvalidGeoJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.geojson"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewFetcher(WithDataDir(dir)).Load(context.Background(), catalog.Entry{URL: "bad.geojson"})
	if !errors.Is(err, errors.ErrCodeLayerLoad) {
		t.Errorf("Load error = %v, want LAYER_LOAD_FAILED", err)
	}
}
