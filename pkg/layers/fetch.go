package layers

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/institutoite/bolivia/pkg/buildinfo"
	"github.com/institutoite/bolivia/pkg/cache"
	"github.com/institutoite/bolivia/pkg/catalog"
	"github.com/institutoite/bolivia/pkg/errors"
	"github.com/institutoite/bolivia/pkg/geo"
	"github.com/institutoite/bolivia/pkg/observability"
)

const httpTimeout = 30 * time.Second

// maxLayerBytes bounds a single download.
const maxLayerBytes = 256 << 20

// Fetcher reads layer sources. It is safe for concurrent use.
type Fetcher struct {
	http     *http.Client
	cache    cache.Cache
	keyer    cache.Keyer
	ttl      time.Duration
	root     string
	attempts int
	delay    time.Duration
	maxBytes int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithCache stores downloaded bytes in c under keyer.LayerKey.
func WithCache(c cache.Cache, keyer cache.Keyer, ttl time.Duration) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.cache = c
		}
		if keyer != nil {
			f.keyer = keyer
		}
		f.ttl = ttl
	}
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.http = c
		}
	}
}

// WithDataDir sets the directory local paths are resolved against.
func WithDataDir(dir string) Option {
	return func(f *Fetcher) { f.root = dir }
}

// WithRetry sets the attempt count and initial backoff for remote fetches.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(f *Fetcher) {
		f.attempts = attempts
		f.delay = delay
	}
}

// WithMaxBytes bounds the size of one layer body. Larger bodies fail with
// LAYER_LOAD_FAILED instead of being cut short.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// NewFetcher returns a fetcher without cache that resolves local paths
// against the working directory.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		http:     &http.Client{Timeout: httpTimeout},
		cache:    cache.NewNullCache(),
		keyer:    cache.NewDefaultKeyer(),
		ttl:      cache.LayerTTL,
		root:     ".",
		attempts: 3,
		delay:    time.Second,
		maxBytes: maxLayerBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// IsRemote reports whether source is an http(s) URL.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Fetch returns the raw bytes of source.
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	if !IsRemote(source) {
		return f.readLocal(source)
	}
	if err := errors.ValidateURL(source); err != nil {
		return nil, err
	}

	key := f.keyer.LayerKey(source)
	if data, ok, _ := f.cache.Get(ctx, key); ok {
		observability.Cache().OnCacheHit(ctx, "layer")
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "layer")

	var data []byte
	err := cache.Retry(ctx, f.attempts, f.delay, func() error {
		d, err := f.get(ctx, source)
		if err != nil {
			return err
		}
		data = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := f.cache.Set(ctx, key, data, f.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, "layer", len(data))
	}
	return data, nil
}

func (f *Fetcher) get(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "bad layer url")
	}
	req.Header.Set("Accept", "application/geo+json, application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	host, path := req.URL.Host, req.URL.Path
	observability.HTTP().OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := f.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", source))
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(source, resp.StatusCode); err != nil {
		return nil, err
	}
	data, err := f.readAll(resp.Body, source)
	if errors.Is(err, errors.ErrCodeLayerLoad) {
		return nil, err
	}
	if err != nil {
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "read %s", source))
	}
	return data, nil
}

// readAll reads at most maxBytes and fails when r holds more.
func (f *Fetcher) readAll(r io.Reader, source string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxBytes {
		return nil, errors.New(errors.ErrCodeLayerLoad, "layer %s too large (over %d bytes)", source, f.maxBytes)
	}
	return data, nil
}

func checkStatus(source string, code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeLayerNotFound, "%s: status %d", source, code)
	case code >= 500:
		return cache.Retryable(errors.New(errors.ErrCodeNetwork, "%s: status %d", source, code))
	default:
		return errors.New(errors.ErrCodeNetwork, "%s: status %d", source, code)
	}
}

func (f *Fetcher) readLocal(source string) ([]byte, error) {
	rel := strings.TrimPrefix(source, "/")
	if err := errors.ValidatePath(rel); err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(f.root, filepath.FromSlash(rel)))
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeLayerNotFound, "no layer file %s", source)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", source)
	}
	defer file.Close()
	data, err := f.readAll(file, source)
	if err != nil && !errors.Is(err, errors.ErrCodeLayerLoad) {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", source)
	}
	return data, err
}

// Load fetches and decodes a catalog entry. Every failure is reported as
// LAYER_LOAD_FAILED with the cause attached.
func (f *Fetcher) Load(ctx context.Context, e catalog.Entry) (*geo.Layer, error) {
	start := time.Now()
	observability.Pipeline().OnLayerLoadStart(ctx, e.URL)

	l, err := f.load(ctx, e)
	n := 0
	if l != nil {
		n = len(l.Features)
	}
	observability.Pipeline().OnLayerLoadComplete(ctx, e.URL, n, time.Since(start), err)
	return l, err
}

func (f *Fetcher) load(ctx context.Context, e catalog.Entry) (*geo.Layer, error) {
	data, err := f.Fetch(ctx, e.URL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayerLoad, err, "could not load %s", e.URL)
	}
	l, err := geo.Decode(e.URL, data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayerLoad, err, "could not load %s", e.URL)
	}
	l.Name = e.Name
	l.Group = e.Group
	return l, nil
}
