// Package session holds the state of one map being composed: the active
// catalog layers, the political map with its styles and selection, and the
// current view.
//
// A [Session] is safe for concurrent use. Layer loads go through its
// [layers.Registry], which runs them outside the session lock; everything
// else is mutated under the lock.
//
// Sessions live in a [Store]:
//
//	store := session.NewMemoryStore(session.DefaultTTL)
//	sess := session.New(catalog.Default(), fetcher, cfg)
//	store.Set(ctx, sess)
//
//	sess, err := store.Get(ctx, id) // SESSION_NOT_FOUND once expired
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/institutoite/bolivia/pkg/catalog"
	"github.com/institutoite/bolivia/pkg/errors"
	"github.com/institutoite/bolivia/pkg/geo"
	"github.com/institutoite/bolivia/pkg/geo/index"
	"github.com/institutoite/bolivia/pkg/label"
	"github.com/institutoite/bolivia/pkg/layers"
	"github.com/institutoite/bolivia/pkg/politico"
	"github.com/institutoite/bolivia/pkg/props"
	"github.com/institutoite/bolivia/pkg/render"
	"github.com/institutoite/bolivia/pkg/style"
	"github.com/institutoite/bolivia/pkg/viewport"
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 2 * time.Hour

// Default container size until the client reports one.
const (
	DefaultWidth  = 1200
	DefaultHeight = 800
)

// Config carries the settings every new session starts with.
type Config struct {
	Labels label.Config
	Keys   *props.Keys
	Params style.Params
	Halo   style.Halo
}

// DefaultConfig returns the stock settings.
func DefaultConfig() Config {
	return Config{
		Labels: label.DefaultConfig(),
		Keys:   props.Default,
		Params: style.DefaultParams(),
		Halo:   style.DefaultHalo(),
	}
}

// Session is one user's map.
type Session struct {
	ID        string
	CreatedAt time.Time

	Catalog  *catalog.Catalog
	Registry *layers.Registry

	mu        sync.Mutex
	cfg       Config
	political *politico.Map
	view      viewport.Viewport
	highlight string
	touched   time.Time
	indexes   map[*geo.Layer]*index.Index
}

// New creates a session with a fresh uuid, viewing Bolivia.
func New(cat *catalog.Catalog, loader layers.Loader, cfg Config) *Session {
	if cfg.Keys == nil {
		cfg.Keys = props.Default
	}
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		Catalog:   cat,
		Registry:  layers.NewRegistry(loader),
		cfg:       cfg,
		view:      viewport.Default(DefaultWidth, DefaultHeight),
		touched:   now,
		indexes:   make(map[*geo.Layer]*index.Index),
	}
}

// Touch marks the session as used.
func (s *Session) Touch() {
	s.mu.Lock()
	s.touched = time.Now()
	s.mu.Unlock()
}

// Expired reports whether the session has been idle longer than ttl.
func (s *Session) Expired(ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ttl > 0 && time.Since(s.touched) > ttl
}

// Close cancels in-flight loads.
func (s *Session) Close() { s.Registry.Close() }

// ActivateLayer loads a catalog layer, found by URL or file name. Keys
// outside the catalog are rejected with LAYER_NOT_FOUND and never fetched.
// The session lock is not held while loading.
func (s *Session) ActivateLayer(ctx context.Context, key string) (*geo.Layer, error) {
	e, ok := s.Catalog.Find(key)
	if !ok {
		return nil, errors.New(errors.ErrCodeLayerNotFound, "layer %s is not in the catalog", key)
	}
	return s.Registry.Activate(ctx, e)
}

// View returns the current viewport.
func (s *Session) View() viewport.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// SetView replaces the viewport, typically on a client's zoom or move end.
func (s *Session) SetView(v viewport.Viewport) error {
	if v.Width <= 0 || v.Height <= 0 || v.Width > viewport.MaxSide || v.Height > viewport.MaxSide {
		return errors.New(errors.ErrCodeInvalidInput, "invalid container size %dx%d (max %d)", v.Width, v.Height, viewport.MaxSide)
	}
	if v.Zoom < 0 || v.Zoom > 18 {
		return errors.New(errors.ErrCodeInvalidInput, "zoom %g out of range", v.Zoom)
	}
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
	return nil
}

// Highlight marks one active layer to be drawn highlighted; "" clears it.
func (s *Session) Highlight(url string) error {
	if url != "" && !s.Registry.IsActive(url) {
		return errors.New(errors.ErrCodeLayerNotFound, "layer %s is not active", url)
	}
	s.mu.Lock()
	s.highlight = url
	s.mu.Unlock()
	return nil
}

// DeactivateLayer drops a layer, its spatial index and its highlight.
func (s *Session) DeactivateLayer(url string) bool {
	l, _ := s.Registry.Layer(url)
	ok := s.Registry.Deactivate(url)
	s.mu.Lock()
	delete(s.indexes, l)
	if s.highlight == url {
		s.highlight = ""
	}
	s.mu.Unlock()
	return ok
}

// Labels resolves labels of the loaded layers at the current view.
func (s *Session) Labels() label.Resolution {
	v := s.View()
	s.mu.Lock()
	r := label.NewResolver(s.cfg.Labels, s.cfg.Keys)
	s.mu.Unlock()
	return r.ResolveAll(s.Registry.Layers(), v, v.Zoom)
}

// Popup lists the attributes of one feature of an active layer.
func (s *Session) Popup(url string, index int) ([]props.Entry, error) {
	l, ok := s.Registry.Layer(url)
	if !ok {
		return nil, errors.New(errors.ErrCodeLayerNotFound, "layer %s is not loaded", url)
	}
	if index < 0 || index >= len(l.Features) {
		return nil, errors.New(errors.ErrCodeFeatureNotFound, "feature %d not in %s", index, url)
	}
	return s.cfg.Keys.Popup(l.Features[index].Properties), nil
}

// FeaturesIn lists the indices of the features of an active layer that
// intersect b, in layer order.
func (s *Session) FeaturesIn(url string, b orb.Bound) ([]int, error) {
	l, ok := s.Registry.Layer(url)
	if !ok {
		return nil, errors.New(errors.ErrCodeLayerNotFound, "layer %s is not loaded", url)
	}
	return s.index(l).Query(b), nil
}

func (s *Session) index(l *geo.Layer) *index.Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	if x, ok := s.indexes[l]; ok {
		return x
	}
	x := index.New(l)
	s.indexes[l] = x
	return x
}

// SetPolitical installs the political map and applies the session's style
// parameters to it.
func (s *Session) SetPolitical(m *politico.Map) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m != nil {
		m.Engine.Params = s.cfg.Params.Clamped()
		m.Engine.Halo = s.cfg.Halo
	}
	s.political = m
}

// HasPolitical reports whether a political map is installed.
func (s *Session) HasPolitical() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.political != nil
}

// Political runs fn on the political map under the session lock.
func (s *Session) Political(fn func(m *politico.Map) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.political == nil {
		return errors.New(errors.ErrCodeNotFound, "political map not loaded")
	}
	return fn(s.political)
}

// Frame fits the view to the political focus.
func (s *Session) Frame() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.political == nil {
		return errors.New(errors.ErrCodeNotFound, "political map not loaded")
	}
	s.view = s.political.Viewport(s.view.Width, s.view.Height)
	return nil
}

// Scene composes what the session shows right now.
func (s *Session) Scene() *render.Scene {
	res := s.Labels()
	ls := s.Registry.Layers()

	s.mu.Lock()
	defer s.mu.Unlock()
	halo := s.cfg.Halo
	if s.political != nil {
		halo = s.political.Engine.Halo
	}
	return render.Compose(render.Input{
		View:      s.view,
		Political: s.political,
		Layers:    ls,
		Highlight: s.highlight,
		Labels:    &res,
		Halo:      halo,
	})
}

// State is a JSON snapshot of a session.
type State struct {
	ID        string            `json:"id"`
	Layers    []catalog.Entry   `json:"layers"`
	Loading   []string          `json:"loading,omitempty"`
	View      viewport.Viewport `json:"view"`
	Highlight string            `json:"highlight,omitempty"`
	Selection *style.Selection  `json:"selection,omitempty"`
	Params    *style.Params     `json:"params,omitempty"`
	Halo      style.Halo        `json:"halo"`
	Trail     string            `json:"trail,omitempty"`
}

// Snapshot returns the current state.
func (s *Session) Snapshot() State {
	entries := s.Registry.Entries()
	st := State{ID: s.ID, Layers: make([]catalog.Entry, 0, len(entries))}
	for _, e := range entries {
		if s.Registry.Loading(e.URL) {
			st.Loading = append(st.Loading, e.URL)
			continue
		}
		st.Layers = append(st.Layers, e)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st.View = s.view
	st.Highlight = s.highlight
	st.Halo = s.cfg.Halo
	if m := s.political; m != nil {
		sel, params := m.Engine.Selection, m.Engine.Params
		st.Selection, st.Params = &sel, &params
		st.Halo = m.Engine.Halo
		st.Trail = m.Trail()
	}
	return st
}
