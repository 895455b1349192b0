package pipeline

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"

	"github.com/institutoite/bolivia/pkg/cache"
	"github.com/institutoite/bolivia/pkg/catalog"
	"github.com/institutoite/bolivia/pkg/errors"
	"github.com/institutoite/bolivia/pkg/geo"
	"github.com/institutoite/bolivia/pkg/layers"
	"github.com/institutoite/bolivia/pkg/region"
	"github.com/institutoite/bolivia/pkg/style"
	"github.com/institutoite/bolivia/pkg/viewport"
)

func TestOptionsValidation(t *testing.T) {
	layer := []catalog.Entry{{Name: "mercados", URL: "geo/mercados.geojson"}}
	center := orb.Point{-68, -16}

	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"nothing to export", Options{}, errors.ErrCodeInvalidInput},
		{"adm1 without adm3", Options{ADM1: "adm1.geojson"}, errors.ErrCodeInvalidInput},
		{"department without base", Options{Layers: layer, Department: "lp"}, errors.ErrCodeInvalidInput},
		{"layer without url", Options{Layers: []catalog.Entry{{Name: "x"}}}, errors.ErrCodeInvalidInput},
		{"duplicate layer", Options{Layers: append(layer, layer...)}, errors.ErrCodeInvalidInput},
		{"unknown mode", Options{ADM1: "a", ADM3: "b", Mode: "zoom"}, errors.ErrCodeInvalidInput},
		{"bad format", Options{Layers: layer, Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
		{"center without zoom", Options{Layers: layer, Center: &center}, errors.ErrCodeInvalidInput},
		{"zoom too deep", Options{Layers: layer, Zoom: 30}, errors.ErrCodeInvalidInput},
		{"negative scale", Options{Layers: layer, Scale: -1}, errors.ErrCodeInvalidInput},
		{"oversized container", Options{Layers: layer, Width: 100000}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("ValidateAndSetDefaults() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Layers: []catalog.Entry{{Name: "mercados", URL: "geo/mercados.geojson"}}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.Width != DefaultWidth || opts.Height != DefaultHeight {
		t.Errorf("size = %dx%d, want %dx%d", opts.Width, opts.Height, DefaultWidth, DefaultHeight)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != DefaultFormat {
		t.Errorf("Formats = %v, want [%s]", opts.Formats, DefaultFormat)
	}
	if opts.Scale != 2 {
		t.Errorf("Scale = %v, want 2", opts.Scale)
	}
	if opts.Labels == nil || opts.Labels.PermanentThreshold != 50 {
		t.Errorf("Labels = %+v, want defaults", opts.Labels)
	}
	if opts.Keys == nil || opts.Logger == nil {
		t.Error("Keys and Logger should be set")
	}
}

func TestOptionsFormatsNormalized(t *testing.T) {
	in := []string{"PNG", "svg", "png"}
	opts := Options{Layers: []catalog.Entry{{URL: "a.geojson"}}, Formats: in}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if strings.Join(opts.Formats, ",") != "png,svg" {
		t.Errorf("Formats = %v, want [png svg]", opts.Formats)
	}
	if in[0] != "PNG" {
		t.Error("caller's format slice was modified")
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Layers: []catalog.Entry{{URL: "a.geojson"}}, Width: 300}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("first validation: %v", err)
	}
	first := opts.Formats
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second validation: %v", err)
	}
	if opts.Width != 300 || len(opts.Formats) != len(first) {
		t.Error("second call changed the options")
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{Width: 640, Height: 480, Scale: 2, MaxSide: 1000}
	k := opts.ArtifactKeyOpts("pdf")
	want := cache.ArtifactKeyOpts{Format: "pdf", Width: 640, Height: 480, MaxSide: 1000, Scale: 2}
	if k != want {
		t.Errorf("ArtifactKeyOpts = %+v, want %+v", k, want)
	}
}

func square(x0, y0, x1, y1 float64) orb.Polygon {
	return orb.Polygon{{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}}
}

func named(id, name string, g orb.Geometry) geo.Feature {
	return geo.Feature{Geometry: g, Properties: map[string]any{"id": id, "name": name}}
}

// memLoader serves fixed layers by URL.
type memLoader struct {
	layers map[string]*geo.Layer
}

func (m *memLoader) Load(_ context.Context, e catalog.Entry) (*geo.Layer, error) {
	l, ok := m.layers[e.URL]
	if !ok {
		return nil, errors.New(errors.ErrCodeLayerLoad, "no layer %s", e.URL)
	}
	return l, nil
}

func fixtureLoader() *memLoader {
	return &memLoader{layers: map[string]*geo.Layer{
		"mercados.geojson": geo.NewLayer("mercados.geojson", []geo.Feature{
			named("1", "Rodriguez", orb.Point{-68.14, -16.50}),
			named("2", "Lanza", orb.Point{-68.13, -16.49}),
			named("3", "Camacho", orb.Point{-68.11, -16.51}),
		}),
		"adm1.geojson": geo.NewLayer("adm1.geojson", []geo.Feature{
			named("lp", "La Paz", square(0, 0, 10, 10)),
			named("or", "Oruro", square(10, 0, 20, 10)),
		}),
		"adm3.geojson": geo.NewLayer("adm3.geojson", []geo.Feature{
			named("murillo", "Murillo", square(1, 1, 3, 3)),
			named("omasuyos", "Omasuyos", square(4, 4, 6, 6)),
			named("sajama", "Sajama", square(16, 1, 18, 3)),
		}),
	}}
}

func newTestRunner(c cache.Cache) *Runner {
	r := NewRunner(c, nil, log.New(io.Discard))
	r.Loader = fixtureLoader()
	return r
}

func TestExecute(t *testing.T) {
	r := newTestRunner(nil)
	res, err := r.Execute(context.Background(), Options{
		Layers:  []catalog.Entry{{Name: "mercados", URL: "mercados.geojson"}},
		Width:   200,
		Height:  100,
		Formats: []string{"svg", "png"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !bytes.Contains(res.Artifacts["svg"], []byte("<svg")) {
		t.Error("svg artifact is not SVG")
	}
	if !bytes.HasPrefix(res.Artifacts["png"], []byte("\x89PNG")) {
		t.Error("png artifact is not PNG")
	}
	if res.Stats.Layers != 1 || res.Stats.Features != 3 {
		t.Errorf("Stats = %+v, want 1 layer and 3 features", res.Stats)
	}
	if res.Stats.Labels == 0 {
		t.Error("expected point labels")
	}
	if res.CacheInfo.RenderCacheHit {
		t.Error("first run should not hit the cache")
	}
}

func TestExecuteCachesArtifacts(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := newTestRunner(c)
	defer r.Close()

	opts := Options{
		Layers:  []catalog.Entry{{Name: "mercados", URL: "mercados.geojson"}},
		Width:   200,
		Height:  100,
		Formats: []string{"svg"},
	}
	first, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	second, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.RenderCacheHit {
		t.Error("second run should hit the artifact cache")
	}
	if !bytes.Equal(first.Artifacts["svg"], second.Artifacts["svg"]) {
		t.Error("cached artifact differs from rendered one")
	}

	opts.Refresh = true
	third, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("refresh Execute: %v", err)
	}
	if third.CacheInfo.RenderCacheHit {
		t.Error("refresh should bypass the artifact cache")
	}
}

func TestExecuteLoadFailure(t *testing.T) {
	r := newTestRunner(nil)
	_, err := r.Execute(context.Background(), Options{
		Layers: []catalog.Entry{
			{Name: "mercados", URL: "mercados.geojson"},
			{Name: "rios", URL: "missing.geojson"},
		},
		Formats: []string{"svg"},
	})
	if !errors.Is(err, errors.ErrCodeLayerLoad) {
		t.Errorf("Execute() error = %v, want LAYER_LOAD_FAILED", err)
	}
}

func TestExecutePolitical(t *testing.T) {
	r := newTestRunner(nil)
	res, err := r.Execute(context.Background(), Options{
		ADM1:       "adm1.geojson",
		ADM3:       "adm3.geojson",
		Capitals:   "capitales.geojson", // missing overlay is not fatal
		Department: "lp",
		Width:      200,
		Height:     100,
		Formats:    []string{"svg"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	m := res.Political
	if m == nil {
		t.Fatal("Political = nil")
	}
	if m.Mode() != style.ModeDepartment || m.Engine.Selection.DeptID != "lp" {
		t.Errorf("Selection = %+v, want department/lp", m.Engine.Selection)
	}
	if m.Capitals != nil {
		t.Error("missing capitals overlay should be nil")
	}
	svg := string(res.Artifacts["svg"])
	for _, name := range []string{"La Paz", "Murillo"} {
		if !strings.Contains(svg, name) {
			t.Errorf("svg should label %s", name)
		}
	}
}

func TestApplySelection(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		code     errors.Code
		wantMode style.Mode
		wantDept string
		wantProv string
	}{
		{name: "default country", wantMode: style.ModeCountry},
		{name: "department", opts: Options{Department: "or"}, wantMode: style.ModeDepartment, wantDept: "or"},
		{name: "province derives department", opts: Options{Province: "sajama"}, wantMode: style.ModeProvince, wantDept: "or", wantProv: "sajama"},
		{name: "province mode without province", opts: Options{Mode: style.ModeProvince, Department: "lp"}, wantMode: style.ModeProvince, wantDept: "lp"},
		{name: "unknown department", opts: Options{Department: "pt"}, code: errors.ErrCodeRegionNotFound},
		{name: "unknown province", opts: Options{Province: "x"}, code: errors.ErrCodeRegionNotFound},
		{name: "foreign province", opts: Options{Department: "lp", Province: "sajama"}, code: errors.ErrCodeInvalidInput},
		{name: "country takes no selection", opts: Options{Mode: style.ModeCountry, Department: "lp"}, code: errors.ErrCodeInvalidInput},
		{name: "province needs province mode", opts: Options{Mode: style.ModeDepartment, Province: "murillo"}, code: errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := fixtureLoader()
			m, err := LoadPolitical(context.Background(), l, Options{ADM1: "adm1.geojson", ADM3: "adm3.geojson"}, nil)
			if err != nil {
				t.Fatalf("LoadPolitical: %v", err)
			}
			err = ApplySelection(m, tt.opts)
			if tt.code != "" {
				if !errors.Is(err, tt.code) {
					t.Errorf("ApplySelection() = %v, want %s", err, tt.code)
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplySelection: %v", err)
			}
			sel := m.Engine.Selection
			if sel.Mode != tt.wantMode || sel.DeptID != tt.wantDept || sel.ProvID != tt.wantProv {
				t.Errorf("Selection = %+v, want %s/%s/%s", sel, tt.wantMode, tt.wantDept, tt.wantProv)
			}
		})
	}
}

func TestApplySelectionParams(t *testing.T) {
	m, err := LoadPolitical(context.Background(), fixtureLoader(), Options{ADM1: "adm1.geojson", ADM3: "adm3.geojson"}, nil)
	if err != nil {
		t.Fatalf("LoadPolitical: %v", err)
	}
	p := style.DefaultParams()
	p.Opacity = 5
	halo := style.Halo{Enabled: false, Color: "#000000", Width: 1}
	if err := ApplySelection(m, Options{Params: &p, Halo: &halo}); err != nil {
		t.Fatalf("ApplySelection: %v", err)
	}
	if m.Engine.Params.Opacity != style.MaxOpacity {
		t.Errorf("Opacity = %v, want clamped to %v", m.Engine.Params.Opacity, style.MaxOpacity)
	}
	if m.Engine.Halo != halo {
		t.Errorf("Halo = %+v, want %+v", m.Engine.Halo, halo)
	}
	if _, ok := m.Hierarchy.Node(region.ADM3, "murillo"); !ok {
		t.Error("hierarchy should hold provinces")
	}
}

func TestFrame(t *testing.T) {
	l := fixtureLoader()
	markets := l.layers["mercados.geojson"]
	opts := Options{Width: 400, Height: 300}

	v := Frame(opts, nil, []*geo.Layer{markets})
	b, _ := geo.Bound(markets)
	if v.Center != b.Center() {
		t.Errorf("fitted Center = %v, want %v", v.Center, b.Center())
	}

	opts.Zoom = 7
	center := orb.Point{-65, -17}
	opts.Center = &center
	v = Frame(opts, nil, []*geo.Layer{markets})
	if v.Zoom != 7 || v.Center != center {
		t.Errorf("explicit view = %v@%v, want %v@7", v.Center, v.Zoom, center)
	}

	v = Frame(Options{Width: 400, Height: 300}, nil, nil)
	if v.Center != viewport.Default(400, 300).Center {
		t.Errorf("empty Frame Center = %v, want Bolivia", v.Center)
	}
}

func TestLoadLayersKeepsOrder(t *testing.T) {
	l := fixtureLoader()
	got, err := LoadLayers(context.Background(), l, []catalog.Entry{
		{URL: "adm3.geojson"}, {URL: "mercados.geojson"}, {URL: "adm1.geojson"},
	})
	if err != nil {
		t.Fatalf("LoadLayers: %v", err)
	}
	want := []string{"adm3.geojson", "mercados.geojson", "adm1.geojson"}
	for i, layer := range got {
		if layer.ID != want[i] {
			t.Errorf("layer %d = %s, want %s", i, layer.ID, want[i])
		}
	}
}

var _ layers.Loader = (*memLoader)(nil)
