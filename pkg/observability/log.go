package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks logging to l.
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{Logger: l}
}

func (h *LogHooks) OnLayerLoadStart(_ context.Context, url string) {
	h.Logger.Debug("layer load", "url", url)
}

func (h *LogHooks) OnLayerLoadComplete(_ context.Context, url string, features int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("layer load failed", "url", url, "err", err)
		return
	}
	h.Logger.Debug("layer loaded", "url", url, "features", features, "took", d.Round(time.Millisecond))
}

func (h *LogHooks) OnLabelsResolved(_ context.Context, zoom float64, accepted, rejected int) {
	h.Logger.Debug("labels", "zoom", zoom, "accepted", accepted, "rejected", rejected)
}

func (h *LogHooks) OnExportStart(_ context.Context, formats []string) {
	h.Logger.Debug("export", "formats", formats)
}

func (h *LogHooks) OnExportFallback(_ context.Context, format string, err error) {
	h.Logger.Debug("export fallback", "format", format, "err", err)
}

func (h *LogHooks) OnExportComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.Logger.Debug("export done", "formats", formats, "took", d.Round(time.Millisecond), "err", err)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.Logger.Debug("http", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.Logger.Debug("http done", "host", host, "path", path, "status", status, "took", d.Round(time.Millisecond))
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.Logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}
