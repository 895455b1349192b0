package politico

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/institutoite/bolivia/pkg/geo"
	"github.com/institutoite/bolivia/pkg/label"
	"github.com/institutoite/bolivia/pkg/region"
	"github.com/institutoite/bolivia/pkg/style"
)

func square(x0, y0, x1, y1 float64) orb.Polygon {
	return orb.Polygon{{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}}
}

func feature(id, name string, g orb.Geometry) geo.Feature {
	return geo.Feature{Geometry: g, Properties: map[string]any{"id": id, "name": name}}
}

func newMap() *Map {
	adm1 := geo.NewLayer("adm1", []geo.Feature{
		feature("lp", "La Paz", square(0, 0, 10, 10)),
		feature("or", "Oruro", square(10, 0, 20, 10)),
	})
	adm3 := geo.NewLayer("adm3", []geo.Feature{
		feature("murillo", "Murillo", square(1, 1, 3, 3)),
		feature("omasuyos", "Omasuyos", square(4, 4, 6, 6)),
		feature("sajama", "Sajama", square(16, 1, 18, 3)),
	})
	return New(region.Build(adm1, adm3, nil))
}

func ids(nodes []region.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewActivatesFirstDepartment(t *testing.T) {
	m := newMap()
	if got := m.Engine.Active; got.Level != region.ADM1 || got.ID != "lp" {
		t.Errorf("Active = %+v, want adm1/lp", got)
	}
	if m.Mode() != style.ModeCountry {
		t.Errorf("Mode = %v, want country", m.Mode())
	}
}

func TestVisibleADM3(t *testing.T) {
	m := newMap()
	if got := ids(m.VisibleADM3()); !equal(got, []string{"murillo", "omasuyos", "sajama"}) {
		t.Errorf("country VisibleADM3 = %v", got)
	}

	m.SetMode(style.ModeDepartment)
	if got := m.VisibleADM3(); len(got) != 0 {
		t.Errorf("department without selection VisibleADM3 = %v, want none", ids(got))
	}
	m.Click(region.ADM1, "lp")
	if got := ids(m.VisibleADM3()); !equal(got, []string{"murillo", "omasuyos"}) {
		t.Errorf("department lp VisibleADM3 = %v", got)
	}

	m.SetMode(style.ModeProvince)
	m.Click(region.ADM1, "lp")
	if got := ids(m.VisibleADM3()); !equal(got, []string{"murillo", "omasuyos"}) {
		t.Errorf("province mode, unset province VisibleADM3 = %v", got)
	}
	m.Click(region.ADM3, "omasuyos")
	if got := ids(m.VisibleADM3()); !equal(got, []string{"omasuyos"}) {
		t.Errorf("province omasuyos VisibleADM3 = %v", got)
	}

	m.SetMode(style.ModeMenu)
	if len(m.VisibleADM1())+len(m.VisibleADM3()) != 0 {
		t.Error("menu mode shows units")
	}
}

func TestToggles(t *testing.T) {
	m := newMap()
	m.ShowADM3 = false
	if got := m.VisibleADM3(); len(got) != 0 {
		t.Errorf("VisibleADM3 with toggle off = %v", ids(got))
	}
	m.ShowADM1 = false
	if got := m.VisibleADM1(); len(got) != 0 {
		t.Errorf("VisibleADM1 with toggle off = %v", ids(got))
	}
}

func TestClickRejectsForeignProvince(t *testing.T) {
	m := newMap()
	m.SetMode(style.ModeProvince)
	m.Click(region.ADM1, "lp")
	if m.Click(region.ADM3, "sajama") {
		t.Error("Click(sajama) under lp changed selection")
	}
	if sel := m.Engine.Selection; sel.DeptID != "lp" || sel.ProvID != "" {
		t.Errorf("Selection = %+v", sel)
	}
	if m.Click(region.ADM1, "nope") {
		t.Error("Click on unknown unit changed selection")
	}
}

func TestClickInCountryModeOnlyActivates(t *testing.T) {
	m := newMap()
	if m.Click(region.ADM3, "sajama") {
		t.Error("Click in country mode changed selection")
	}
	if got := m.Engine.Active; got.Level != region.ADM3 || got.ID != "sajama" {
		t.Errorf("Active = %+v, want adm3/sajama", got)
	}
}

func TestRegionLabels(t *testing.T) {
	m := newMap()
	m.ShowADM3 = false
	if err := m.MoveLabel(region.ADM1, "or", orb.Point{12, 2}); err != nil {
		t.Fatalf("MoveLabel: %v", err)
	}
	identity := label.ProjectorFunc(func(p orb.Point) orb.Point { return p })
	labels := m.RegionLabels(identity)
	if len(labels) != 2 {
		t.Fatalf("len(RegionLabels) = %d, want 2", len(labels))
	}
	if l := labels[0]; l.Text != "La Paz" || l.Position != (orb.Point{5, 5}) || l.Pinned {
		t.Errorf("labels[0] = %+v", l)
	}
	if l := labels[1]; l.Position != (orb.Point{12, 2}) || !l.Pinned || l.Color != style.DefaultText {
		t.Errorf("labels[1] = %+v", l)
	}
	if err := m.MoveLabel(region.ADM1, "nope", orb.Point{}); err == nil {
		t.Error("MoveLabel on unknown unit succeeded")
	}
}

func TestLegend(t *testing.T) {
	m := newMap()
	m.SetMode(style.ModeDepartment)
	m.Click(region.ADM1, "or")
	rows := m.Legend()
	if len(rows) != 3 {
		t.Fatalf("len(Legend) = %d, want 3", len(rows))
	}
	if rows[0].Name != "La Paz" || rows[0].Fill != style.Palette[0] {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if rows[2].Name != "Sajama" || rows[2].Level != region.ADM3 {
		t.Errorf("rows[2] = %+v", rows[2])
	}
}

func TestPaintedDimsOtherDepartments(t *testing.T) {
	m := newMap()
	m.SetMode(style.ModeDepartment)
	m.Click(region.ADM1, "lp")
	painted := m.Painted(region.ADM1)
	if len(painted) != 2 {
		t.Fatalf("len(Painted) = %d, want 2", len(painted))
	}
	if painted[1].Paint.Color != style.DimmedStroke {
		t.Errorf("Painted(or).Color = %q, want %q", painted[1].Paint.Color, style.DimmedStroke)
	}
	if painted[0].Paint.Color == style.DimmedStroke {
		t.Error("selected department is dimmed")
	}
}

func TestFocus(t *testing.T) {
	m := newMap()
	b, pad := m.Focus()
	if b != (orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{20, 10}}) || pad != padCountry {
		t.Errorf("country Focus = %v, %v", b, pad)
	}
	m.SetMode(style.ModeProvince)
	m.Click(region.ADM1, "lp")
	m.Click(region.ADM3, "murillo")
	b, pad = m.Focus()
	if b != (orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{3, 3}}) || pad != padProvince {
		t.Errorf("province Focus = %v, %v", b, pad)
	}
}

func TestTrail(t *testing.T) {
	m := newMap()
	m.SetMode(style.ModeProvince)
	m.Click(region.ADM1, "lp")
	m.Click(region.ADM3, "murillo")
	want := "Modo: PROVINCIA > Depto: La Paz > Prov: Murillo"
	if got := m.Trail(); got != want {
		t.Errorf("Trail() = %q, want %q", got, want)
	}
}

func TestMunicipalities(t *testing.T) {
	m := newMap()
	m.Municipalities = geo.NewLayer("mun", []geo.Feature{
		feature("m1", "Palca", square(1.5, 1.5, 2, 2)),
		feature("m2", "Achacachi", square(4.5, 4.5, 5, 5)),
	})
	if got := m.VisibleMunicipalities(); got != nil {
		t.Errorf("country VisibleMunicipalities = %v, want nil", got)
	}
	m.SetMode(style.ModeProvince)
	m.Click(region.ADM1, "lp")
	m.Click(region.ADM3, "murillo")
	if got := m.VisibleMunicipalities(); len(got) != 1 || got[0] != 0 {
		t.Errorf("VisibleMunicipalities = %v, want [0]", got)
	}
}
