package viewport

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func almost(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestProjectCenter(t *testing.T) {
	v := Viewport{Center: orb.Point{-65, -17}, Zoom: 6, Width: 800, Height: 600}
	p := v.Project(v.Center)
	if !almost(p[0], 400, 1e-6) || !almost(p[1], 300, 1e-6) {
		t.Errorf("Project(center) = %v, want [400 300]", p)
	}
}

func TestProjectZoomDoubles(t *testing.T) {
	a := Viewport{Center: orb.Point{0, 0}, Zoom: 3, Width: 512, Height: 512}
	b := a
	b.Zoom = 4
	q := orb.Point{10, 10}
	pa, pb := a.Project(q), b.Project(q)
	if !almost(pb[0]-256, 2*(pa[0]-256), 1e-6) {
		t.Errorf("x offset at z+1 = %v, want %v", pb[0]-256, 2*(pa[0]-256))
	}
}

func TestWorldEquator(t *testing.T) {
	p := worldPixel(orb.Point{0, 0}, 0)
	if !almost(p[0], 128, 1e-9) || !almost(p[1], 128, 1e-9) {
		t.Errorf("worldPixel(0,0,z0) = %v, want [128 128]", p)
	}
	p = worldPixel(orb.Point{180, 0}, 1)
	if !almost(p[0], 512, 1e-6) {
		t.Errorf("worldPixel(180,0,z1).x = %v, want 512", p[0])
	}
}

func TestUnprojectRoundTrip(t *testing.T) {
	v := Viewport{Center: orb.Point{-64.5, -16.3}, Zoom: 7.5, Width: 1024, Height: 768}
	q := orb.Point{-63.18, -17.78}
	got := v.Unproject(v.Project(q))
	if !almost(got[0], q[0], 1e-7) || !almost(got[1], q[1], 1e-7) {
		t.Errorf("Unproject(Project(q)) = %v, want %v", got, q)
	}
}

func TestFitContainsBound(t *testing.T) {
	v := Fit(Bolivia, 1000, 800, 10, 18)
	if v.Zoom != 6 {
		t.Errorf("Fit(Bolivia).Zoom = %v, want 6", v.Zoom)
	}
	vb := v.Bound()
	if vb.Min[0] > Bolivia.Min[0] || vb.Max[0] < Bolivia.Max[0] ||
		vb.Min[1] > Bolivia.Min[1] || vb.Max[1] < Bolivia.Max[1] {
		t.Errorf("view bound %v does not contain %v", vb, Bolivia)
	}
}

func TestFitPoint(t *testing.T) {
	b := orb.Point{-65, -17}.Bound()
	if v := Fit(b, 400, 400, 0, 15); v.Zoom != 15 {
		t.Errorf("Fit(point).Zoom = %v, want 15", v.Zoom)
	}
}
