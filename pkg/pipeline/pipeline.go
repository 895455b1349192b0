// Package pipeline runs a map export end to end.
//
// The pipeline has three stages:
//
//  1. Load: fetch and decode every requested layer, plus the political base
//     (departments, provinces and optional overlays) when one is given.
//  2. Labels: frame the view and resolve point labels for the catalog layers.
//  3. Export: compose the scene and encode it in each requested format.
//
// [Runner] executes the stages with caching of layer bytes and of rendered
// artifacts. Options are validated once with [Options.ValidateAndSetDefaults].
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"

	"github.com/institutoite/bolivia/pkg/cache"
	"github.com/institutoite/bolivia/pkg/catalog"
	"github.com/institutoite/bolivia/pkg/errors"
	"github.com/institutoite/bolivia/pkg/geo"
	"github.com/institutoite/bolivia/pkg/label"
	"github.com/institutoite/bolivia/pkg/politico"
	"github.com/institutoite/bolivia/pkg/props"
	"github.com/institutoite/bolivia/pkg/render"
	"github.com/institutoite/bolivia/pkg/style"
	"github.com/institutoite/bolivia/pkg/viewport"
)

// Defaults.
const (
	DefaultWidth  = 1200
	DefaultHeight = 800
	DefaultFormat = "png"

	// MaxZoom bounds fitted views.
	MaxZoom = 18
	// FitPadding is the padding in pixels of a view fitted to catalog layers.
	FitPadding = 20
)

// Options configures one export.
type Options struct {
	// Catalog layers, drawn bottom to top.
	Layers []catalog.Entry `json:"layers,omitempty"`

	// Political base. ADM3 is required when ADM1 is set.
	ADM1           string `json:"adm1,omitempty"`
	ADM3           string `json:"adm3,omitempty"`
	Capitals       string `json:"capitals,omitempty"`
	Municipalities string `json:"municipalities,omitempty"`

	// Political selection.
	Mode       style.Mode    `json:"mode,omitempty"`
	Department string        `json:"department,omitempty"`
	Province   string        `json:"province,omitempty"`
	Params     *style.Params `json:"params,omitempty"`
	Halo       *style.Halo   `json:"halo,omitempty"`

	// View. A zero Zoom fits the loaded content.
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	Center    *orb.Point `json:"center,omitempty"`
	Zoom      float64    `json:"zoom,omitempty"`
	Highlight string     `json:"highlight,omitempty"`

	// Export.
	Formats []string `json:"formats"`
	Scale   float64  `json:"scale,omitempty"`
	MaxSide int      `json:"max_side,omitempty"`
	// Refresh skips the artifact cache lookup.
	Refresh bool `json:"refresh,omitempty"`

	Labels *label.Config `json:"-"`
	Keys   *props.Keys   `json:"-"`
	Logger *log.Logger   `json:"-"`

	validated bool
}

// ValidateAndSetDefaults validates the options and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.SetViewDefaults(); err != nil {
		return err
	}
	if err := o.ValidateForExport(); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks the layer sources.
func (o *Options) ValidateForLoad() error {
	if len(o.Layers) == 0 && o.ADM1 == "" {
		return errors.New(errors.ErrCodeInvalidInput, "nothing to export: no layers and no political base")
	}
	if o.ADM1 != "" && o.ADM3 == "" {
		return errors.New(errors.ErrCodeInvalidInput, "political base needs both adm1 and adm3 sources")
	}
	if o.ADM1 == "" && (o.Department != "" || o.Province != "") {
		return errors.New(errors.ErrCodeInvalidInput, "department or province given without a political base")
	}
	seen := make(map[string]bool, len(o.Layers))
	for _, e := range o.Layers {
		if strings.TrimSpace(e.URL) == "" {
			return errors.New(errors.ErrCodeInvalidInput, "layer %q has no url", e.Name)
		}
		if seen[e.URL] {
			return errors.New(errors.ErrCodeInvalidInput, "layer %s given twice", e.URL)
		}
		seen[e.URL] = true
	}
	if o.Mode != "" {
		if _, err := style.ParseMode(string(o.Mode)); err != nil {
			return err
		}
	}
	return nil
}

// SetViewDefaults fills the container size and checks the explicit view.
func (o *Options) SetViewDefaults() error {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Width < 0 || o.Height < 0 || o.Width > viewport.MaxSide || o.Height > viewport.MaxSide {
		return errors.New(errors.ErrCodeInvalidInput, "invalid size %dx%d", o.Width, o.Height)
	}
	if o.Zoom < 0 || o.Zoom > MaxZoom {
		return errors.New(errors.ErrCodeInvalidInput, "zoom %g out of range [0, %d]", o.Zoom, MaxZoom)
	}
	if o.Center != nil && o.Zoom == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "center given without zoom")
	}
	if o.Labels == nil {
		cfg := label.DefaultConfig()
		o.Labels = &cfg
	}
	if o.Keys == nil {
		o.Keys = props.Default
	}
	return nil
}

// ValidateForExport normalizes formats and fills the export defaults.
func (o *Options) ValidateForExport() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	seen := make(map[string]bool, len(o.Formats))
	formats := make([]string, 0, len(o.Formats))
	for _, f := range o.Formats {
		parsed, err := render.ParseFormat(f)
		if err != nil {
			return err
		}
		if !seen[string(parsed)] {
			seen[string(parsed)] = true
			formats = append(formats, string(parsed))
		}
	}
	o.Formats = formats
	if o.Scale == 0 {
		o.Scale = render.DefaultScale
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "invalid scale %g", o.Scale)
	}
	if o.MaxSide < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "invalid max side %d", o.MaxSide)
	}
	return nil
}

// HasPolitical reports whether a political base is requested.
func (o Options) HasPolitical() bool { return o.ADM1 != "" }

// ArtifactKeyOpts returns the options that change the bytes of one format.
func (o Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:  format,
		Width:   o.Width,
		Height:  o.Height,
		MaxSide: o.MaxSide,
		Scale:   o.Scale,
	}
}

// Result is the output of a pipeline run.
type Result struct {
	Layers    []*geo.Layer
	Political *politico.Map
	View      viewport.Viewport
	Labels    label.Resolution
	Scene     *render.Scene

	// Artifacts maps format to encoded bytes.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats summarizes a run.
type Stats struct {
	Layers     int
	Features   int
	Labels     int
	Shapes     int
	LoadTime   time.Duration
	LabelTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo reports which artifacts came from the cache.
type CacheInfo struct {
	RenderCacheHit bool
	Hits           []string
}
