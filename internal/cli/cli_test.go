package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/institutoite/bolivia/pkg/catalog"
	"github.com/institutoite/bolivia/pkg/config"
	"github.com/institutoite/bolivia/pkg/errors"
	"github.com/institutoite/bolivia/pkg/render"
	"github.com/institutoite/bolivia/pkg/style"
)

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, log.InfoLevel).RootCommand()

	want := []string{"catalog", "labels", "regions", "inspect", "export", "serve", "cache", "browse", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("Find(%q) = %v, %v", name, cmd, err)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("root should have a --config flag")
	}
}

func TestParseCenter(t *testing.T) {
	tests := []struct {
		in      string
		want    []float64
		wantErr bool
	}{
		{"", nil, false},
		{"-68.15,-16.5", []float64{-68.15, -16.5}, false},
		{" -68.15 , -16.5 ", []float64{-68.15, -16.5}, false},
		{"-68.15", nil, true},
		{"a,b", nil, true},
		{"-200,0", nil, true},
	}
	for _, tt := range tests {
		got, err := parseCenter(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseCenter(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.want == nil {
			if got != nil {
				t.Errorf("parseCenter(%q) = %v, want nil", tt.in, got)
			}
			continue
		}
		if got == nil || got[0] != tt.want[0] || got[1] != tt.want[1] {
			t.Errorf("parseCenter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		w, h    int
		wantErr bool
	}{
		{"", 0, 0, false},
		{"1200x800", 1200, 800, false},
		{"640X480", 640, 480, false},
		{"1200", 0, 0, true},
		{"0x800", 0, 0, true},
		{"axb", 0, 0, true},
	}
	for _, tt := range tests {
		w, h, err := parseSize(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if w != tt.w || h != tt.h {
			t.Errorf("parseSize(%q) = %dx%d, want %dx%d", tt.in, w, h, tt.w, tt.h)
		}
	}
}

func TestParseFormats(t *testing.T) {
	got := parseFormats("png, svg,,pdf")
	want := []string{"png", "svg", "pdf"}
	if len(got) != len(want) {
		t.Fatalf("parseFormats = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("parseFormats[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if parseFormats("") != nil {
		t.Error("empty format list should be nil")
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		formats []string
		want    map[string]string
		wantErr bool
	}{
		{"default base", "", []string{"png", "svg"}, map[string]string{"png": "mapa.png", "svg": "mapa.svg"}, false},
		{"exact file", "lapaz.pdf", []string{"pdf"}, map[string]string{"pdf": "lapaz.pdf"}, false},
		{"extension stripped", "out/lapaz.png", []string{"png", "pdf"}, map[string]string{"png": "out/lapaz.png", "pdf": "out/lapaz.pdf"}, false},
		{"unknown extension kept", "mapa.v2", []string{"svg"}, map[string]string{"svg": "mapa.v2.svg"}, false},
		{"stdout", "-", []string{"svg"}, map[string]string{"svg": "-"}, false},
		{"stdout needs one format", "-", []string{"svg", "png"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := outputPaths(tt.output, tt.formats)
			if (err != nil) != tt.wantErr {
				t.Fatalf("outputPaths error = %v, wantErr %v", err, tt.wantErr)
			}
			for f, p := range tt.want {
				if got[f] != p {
					t.Errorf("path[%s] = %q, want %q", f, got[f], p)
				}
			}
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "hidrografia"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"hidrografia/rios.geojson", "mercados.geojson", "notas.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(`{"type":"FeatureCollection","features":[]}`), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cat, err := loadCatalog(dir)
	if err != nil {
		t.Fatalf("loadCatalog(dir): %v", err)
	}
	if len(cat.Entries) != 2 {
		t.Errorf("entries = %d, want 2", len(cat.Entries))
	}
	if e, ok := cat.Find("rios.geojson"); !ok || e.Group != "hidrografia" {
		t.Errorf("Find(rios.geojson) = %+v, %v", e, ok)
	}

	index := filepath.Join(dir, "index.json")
	if err := os.WriteFile(index, []byte(`[{"name":"rios.geojson","url":"geo/rios.geojson","group":"hidrografia"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	cat, err = loadCatalog(index)
	if err != nil {
		t.Fatalf("loadCatalog(index): %v", err)
	}
	if len(cat.Entries) != 1 || cat.Entries[0].URL != "geo/rios.geojson" {
		t.Errorf("entries = %+v", cat.Entries)
	}

	if _, err := loadCatalog(filepath.Join(dir, "missing")); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("missing catalog error = %v, want INVALID_PATH", err)
	}
	if cat, err := loadCatalog(""); err != nil || len(cat.Entries) == 0 {
		t.Errorf("built-in catalog = %v, %v", cat, err)
	}
}

func TestLayerEntry(t *testing.T) {
	cat := &catalog.Catalog{Entries: []catalog.Entry{{Name: "rios.geojson", URL: "geo/rios.geojson", Group: "hidrografia"}}}

	if e := layerEntry(cat, "rios.geojson"); e.URL != "geo/rios.geojson" {
		t.Errorf("by name: URL = %q", e.URL)
	}
	if e := layerEntry(cat, "otros/caminos.geojson"); e.URL != "otros/caminos.geojson" || e.Group != catalog.DefaultGroup {
		t.Errorf("ad hoc entry = %+v", e)
	}
}

func TestCompleteLayers(t *testing.T) {
	index := filepath.Join(t.TempDir(), "index.json")
	data := `[{"name":"rios.geojson","url":"geo/rios.geojson","group":"hidrografia"},
		{"name":"mercados.geojson","url":"geo/mercados.geojson","group":"economia"}]`
	if err := os.WriteFile(index, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	c := New(io.Discard, log.InfoLevel)
	c.cfg = config.Default()
	c.cfg.Server.Catalog = index

	got, _ := c.completeLayers(nil, nil, "r")
	if len(got) != 1 || got[0] != "rios.geojson\thidrografia" {
		t.Errorf("completeLayers(r) = %q", got)
	}
	got, _ = c.completeLayers(nil, []string{"geo/rios.geojson"}, "")
	if len(got) != 1 || got[0] != "mercados.geojson\teconomia" {
		t.Errorf("completeLayers after rios = %q", got)
	}
}

func TestCompleteFormats(t *testing.T) {
	got, _ := completeFormats(nil, nil, "png,p")
	if len(got) != 1 || got[0] != "png,pdf" {
		t.Errorf("completeFormats(png,p) = %q, want [png,pdf]", got)
	}
	if got, _ := completeFormats(nil, nil, ""); len(got) != len(render.Formats) {
		t.Errorf("completeFormats() = %q", got)
	}
}

func TestExportOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Server.ADM1 = "adm1.geojson"
	cfg.Server.ADM3 = "adm3.geojson"
	cat := catalog.Default()

	eo := exportOpts{formats: "svg", size: "400x300", mode: "departamento", department: "lp"}
	opts, err := eo.pipelineOptions(cfg, cat, []string{"x.geojson"})
	if err != nil {
		t.Fatalf("pipelineOptions: %v", err)
	}
	if opts.Width != 400 || opts.Height != 300 {
		t.Errorf("size = %dx%d, want 400x300", opts.Width, opts.Height)
	}
	if opts.Mode != style.ModeDepartment || opts.Department != "lp" {
		t.Errorf("selection = %s/%s", opts.Mode, opts.Department)
	}
	if opts.ADM1 != "adm1.geojson" || opts.ADM3 != "adm3.geojson" {
		t.Errorf("political base = %q, %q", opts.ADM1, opts.ADM3)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != "svg" {
		t.Errorf("formats = %v", opts.Formats)
	}
	if opts.Scale != cfg.Export.Scale {
		t.Errorf("scale = %g, want the configured %g", opts.Scale, cfg.Export.Scale)
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("ValidateAndSetDefaults: %v", err)
	}

	eo = exportOpts{noPolitical: true}
	opts, err = eo.pipelineOptions(cfg, cat, nil)
	if err != nil {
		t.Fatalf("pipelineOptions: %v", err)
	}
	if opts.ADM1 != "" || opts.Width != cfg.Export.Width {
		t.Errorf("no-political options = %+v", opts)
	}
	if len(opts.Formats) != len(cfg.Export.Formats) {
		t.Errorf("formats = %v, want configured %v", opts.Formats, cfg.Export.Formats)
	}

	if _, err := (exportOpts{mode: "galaxy"}).pipelineOptions(cfg, cat, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad mode error = %v, want INVALID_INPUT", err)
	}
}

func TestCatalogListModel(t *testing.T) {
	cat := &catalog.Catalog{Entries: []catalog.Entry{
		{Name: "rios.geojson", URL: "geo/rios.geojson", Group: "hidrografia"},
		{Name: "mercados.geojson", URL: "geo/mercados.geojson", Group: "economia"},
	}}
	m := NewCatalogListModel(cat)
	if len(m.Entries) != 2 || m.Entries[0].Group != "economia" {
		t.Fatalf("entries = %+v, want grouped order", m.Entries)
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(CatalogListModel)
	if m.Cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.Cursor)
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(CatalogListModel)
	if m.Cursor != 1 {
		t.Errorf("cursor past end = %d, want 1", m.Cursor)
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(CatalogListModel)
	if m.Selected == nil || m.Selected.URL != "geo/rios.geojson" {
		t.Errorf("selected = %+v", m.Selected)
	}
	if cmd == nil {
		t.Error("enter should quit")
	}
	if v := m.View(); v == "" {
		t.Error("View should render")
	}
}

func TestDisplayAddr(t *testing.T) {
	if got := displayAddr(":8080"); got != "localhost:8080" {
		t.Errorf("displayAddr(:8080) = %q", got)
	}
	if got := displayAddr("0.0.0.0:80"); got != "0.0.0.0:80" {
		t.Errorf("displayAddr = %q", got)
	}
}
