package layers

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/institutoite/bolivia/pkg/catalog"
	"github.com/institutoite/bolivia/pkg/errors"
	"github.com/institutoite/bolivia/pkg/geo"
)

// Loader turns a catalog entry into a layer.
type Loader interface {
	Load(ctx context.Context, e catalog.Entry) (*geo.Layer, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, e catalog.Entry) (*geo.Layer, error)

func (f LoaderFunc) Load(ctx context.Context, e catalog.Entry) (*geo.Layer, error) { return f(ctx, e) }

// Registry tracks active layers in activation order.
type Registry struct {
	loader Loader

	mu    sync.Mutex
	group singleflight.Group
	slots map[string]*slot
	order []string
	gen   uint64
}

// slot is one activation. A slot replaced or removed while its load runs
// never receives the result.
type slot struct {
	entry  catalog.Entry
	layer  *geo.Layer
	ctx    context.Context
	cancel context.CancelFunc
	gen    uint64
}

// NewRegistry returns an empty registry that loads through loader.
func NewRegistry(loader Loader) *Registry {
	return &Registry{loader: loader, slots: make(map[string]*slot)}
}

// Activate loads e unless it is already active. Concurrent activations of
// the same URL share one load. If the load fails the layer stays inactive
// and the error is returned to every waiter.
//
// The load outlives ctx: a caller that gives up does not abort a load other
// callers may be waiting on. Only Deactivate cancels it.
func (r *Registry) Activate(ctx context.Context, e catalog.Entry) (*geo.Layer, error) {
	if e.URL == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "layer url is empty")
	}

	r.mu.Lock()
	s, ok := r.slots[e.URL]
	if ok && s.layer != nil {
		r.mu.Unlock()
		return s.layer, nil
	}
	if !ok {
		r.gen++
		lctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s = &slot{entry: e, ctx: lctx, cancel: cancel, gen: r.gen}
		r.slots[e.URL] = s
		r.order = append(r.order, e.URL)
	}
	r.mu.Unlock()

	key := e.URL + "#" + strconv.FormatUint(s.gen, 10)
	ch := r.group.DoChan(key, func() (any, error) { return r.load(s) })
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*geo.Layer), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Registry) load(s *slot) (*geo.Layer, error) {
	r.mu.Lock()
	if s.layer != nil {
		l := s.layer
		r.mu.Unlock()
		return l, nil
	}
	r.mu.Unlock()

	l, err := r.loader.Load(s.ctx, s.entry)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slots[s.entry.URL] != s {
		return nil, errors.New(errors.ErrCodeLayerLoad, "layer %s was deactivated while loading", s.entry.URL)
	}
	if err != nil {
		s.cancel()
		r.remove(s.entry.URL)
		if !errors.Is(err, errors.ErrCodeLayerLoad) {
			err = errors.Wrap(errors.ErrCodeLayerLoad, err, "could not load %s", s.entry.URL)
		}
		return nil, err
	}
	s.layer = l
	return l, nil
}

// Deactivate removes a layer and cancels its load if one is running.
// It reports whether the layer was active or loading.
func (r *Registry) Deactivate(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[url]
	if !ok {
		return false
	}
	s.cancel()
	r.remove(url)
	return true
}

// Toggle activates or deactivates e. The returned layer is nil when off.
func (r *Registry) Toggle(ctx context.Context, e catalog.Entry, on bool) (*geo.Layer, error) {
	if on {
		return r.Activate(ctx, e)
	}
	r.Deactivate(e.URL)
	return nil, nil
}

func (r *Registry) remove(url string) {
	delete(r.slots, url)
	for i, u := range r.order {
		if u == url {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
}

// IsActive reports whether url is active or loading.
func (r *Registry) IsActive(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.slots[url]
	return ok
}

// Loading reports whether url is still loading.
func (r *Registry) Loading(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[url]
	return ok && s.layer == nil
}

// Layer returns a loaded layer.
func (r *Registry) Layer(url string) (*geo.Layer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[url]
	if !ok || s.layer == nil {
		return nil, false
	}
	return s.layer, true
}

// Entries lists active and loading entries in activation order.
func (r *Registry) Entries() []catalog.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]catalog.Entry, 0, len(r.order))
	for _, u := range r.order {
		out = append(out, r.slots[u].entry)
	}
	return out
}

// Layers lists loaded layers in activation order.
func (r *Registry) Layers() []*geo.Layer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*geo.Layer, 0, len(r.order))
	for _, u := range r.order {
		if l := r.slots[u].layer; l != nil {
			out = append(out, l)
		}
	}
	return out
}

// Close deactivates everything.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.slots {
		s.cancel()
	}
	r.slots = make(map[string]*slot)
	r.order = nil
}
