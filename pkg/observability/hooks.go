// Package observability lets callers observe layer loads, label passes,
// exports, cache traffic and outgoing HTTP requests.
//
// Libraries emit events through the package-level registry; every hook
// defaults to a no-op. A binary registers its own implementation once at
// startup, before any work starts. [LogHooks] writes the events to a
// charmbracelet/log logger at debug level:
//
//	observability.Register(observability.NewLogHooks(logger))
//
// Emitting an event:
//
//	observability.Pipeline().OnLayerLoadStart(ctx, url)
//	layer, err := fetch(ctx, url)
//	observability.Pipeline().OnLayerLoadComplete(ctx, url, len(layer.Features), time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives events from layer loading and map export.
type PipelineHooks interface {
	OnLayerLoadStart(ctx context.Context, url string)
	OnLayerLoadComplete(ctx context.Context, url string, featureCount int, duration time.Duration, err error)
	OnLabelsResolved(ctx context.Context, zoom float64, accepted, rejected int)
	OnExportStart(ctx context.Context, formats []string)
	OnExportFallback(ctx context.Context, format string, err error)
	OnExportComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// CacheHooks receives events from cache operations.
// keyType is "layer" or "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from remote layer fetches. OnError covers
// transport failures; any response, whatever its status, goes to OnResponse.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	OnError(ctx context.Context, method, host, path string, err error)
}

type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLayerLoadStart(context.Context, string)                              {}
func (NoopPipelineHooks) OnLayerLoadComplete(context.Context, string, int, time.Duration, error) {}
func (NoopPipelineHooks) OnLabelsResolved(context.Context, float64, int, int)                    {}
func (NoopPipelineHooks) OnExportStart(context.Context, []string)                                {}
func (NoopPipelineHooks) OnExportFallback(context.Context, string, error)                        {}
func (NoopPipelineHooks) OnExportComplete(context.Context, []string, time.Duration, error)       {}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks replaces the pipeline hooks. nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores the no-op hooks.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}

// Hooks implements every hook interface.
type Hooks interface {
	PipelineHooks
	CacheHooks
	HTTPHooks
}

// Register installs h for all three event categories.
func Register(h Hooks) {
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}
