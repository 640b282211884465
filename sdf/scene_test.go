package sdf

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
)

func circleAt(x, y, r float32) Shape {
	return Shape{Kind: KindEllipse, Center: ms2.Vec{X: x, Y: y}, Half: ms2.Vec{X: r, Y: r}}
}

func rectAt(x, y, w, h, r float32) Shape {
	return Shape{
		Kind:   KindRoundedRect,
		Center: ms2.Vec{X: x, Y: y},
		Half:   ms2.Vec{X: w / 2, Y: h / 2},
		Radius: r,
	}
}

func TestSceneEmpty(t *testing.T) {
	s := NewScene(10)
	if got := s.Distance(ms2.Vec{X: 3, Y: -7}); got != FarDistance {
		t.Errorf("empty scene distance = %f, want %f", got, float32(FarDistance))
	}
}

func TestSceneCapacity(t *testing.T) {
	s := NewScene(0)
	for i := 0; i < MaxShapes; i++ {
		if err := s.Add(circleAt(float32(i)*30, 0, 10)); err != nil {
			t.Fatalf("Add #%d: %v", i+1, err)
		}
	}
	if s.Len() != MaxShapes {
		t.Fatalf("Len = %d, want %d", s.Len(), MaxShapes)
	}
	if err := s.Add(circleAt(900, 0, 10)); err != ErrTooManyShapes {
		t.Fatalf("Add #17 error = %v, want ErrTooManyShapes", err)
	}
	if s.Len() != MaxShapes {
		t.Errorf("failed Add changed Len to %d", s.Len())
	}
}

// referenceFold is the plain left fold the unrolled paths must agree with.
func referenceFold(shapes []Shape, blend float32, p ms2.Vec) float32 {
	if len(shapes) == 0 {
		return FarDistance
	}
	d := shapes[0].distance(p)
	for _, sh := range shapes[1:] {
		d = SmoothUnion(d, sh.distance(p), blend)
	}
	return d
}

func TestSceneUnrolledMatchesFold(t *testing.T) {
	shapes := []Shape{
		circleAt(0, 0, 20),
		rectAt(50, 10, 40, 30, 6),
		circleAt(-40, 25, 15),
		rectAt(10, -45, 60, 20, 10),
		circleAt(80, -30, 25),
		rectAt(-70, -10, 30, 50, 4),
	}
	probes := []ms2.Vec{
		{}, {X: 25, Y: 5}, {X: -55, Y: 20}, {X: 100, Y: 100}, {X: 3, Y: -40},
	}
	for n := 1; n <= len(shapes); n++ {
		s := NewScene(12)
		for _, sh := range shapes[:n] {
			if err := s.Add(sh); err != nil {
				t.Fatal(err)
			}
		}
		for _, p := range probes {
			got := s.Distance(p)
			want := referenceFold(shapes[:n], 12, p)
			if math32.Abs(got-want) > 1e-5 {
				t.Errorf("n=%d p=%v: Distance=%f, fold=%f", n, p, got, want)
			}
		}
	}
}

func TestSceneHardUnionIsMin(t *testing.T) {
	a := circleAt(-30, 0, 20)
	b := circleAt(30, 0, 20)
	s := NewScene(0)
	if err := s.Add(a); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(b); err != nil {
		t.Fatal(err)
	}
	for _, p := range []ms2.Vec{{}, {X: -30}, {X: 30}, {X: 0, Y: 50}, {X: -60, Y: 10}} {
		got := s.Distance(p)
		want := math32.Min(a.distance(p), b.distance(p))
		if got != want {
			t.Errorf("blend=0 at %v: got %f, want exact min %f", p, got, want)
		}
	}
}

func TestSceneBlendBulge(t *testing.T) {
	// Two circles near each other with a large blend radius: at the
	// midpoint the combined field must dip below both individual fields,
	// the outward bulge of a metaball merge.
	a := circleAt(-35, 0, 20)
	b := circleAt(35, 0, 20)
	s := NewScene(40)
	if err := s.Add(a); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(b); err != nil {
		t.Fatal(err)
	}
	mid := ms2.Vec{}
	got := s.Distance(mid)
	individual := math32.Min(a.distance(mid), b.distance(mid))
	if got >= individual {
		t.Errorf("midpoint %f did not dip below individual min %f", got, individual)
	}
}

func TestSceneOrderInsensitive(t *testing.T) {
	shapes := []Shape{
		circleAt(0, 0, 25),
		rectAt(30, 10, 50, 30, 8),
		circleAt(-20, 35, 18),
		rectAt(-40, -25, 35, 35, 5),
	}
	perms := [][]int{
		{0, 1, 2, 3},
		{3, 2, 1, 0},
		{1, 3, 0, 2},
		{2, 0, 3, 1},
	}
	probes := []ms2.Vec{{}, {X: 12, Y: 8}, {X: -30, Y: 30}, {X: 60, Y: -20}}
	var base [4]float32
	for pi, perm := range perms {
		s := NewScene(15)
		for _, idx := range perm {
			if err := s.Add(shapes[idx]); err != nil {
				t.Fatal(err)
			}
		}
		for qi, p := range probes {
			d := s.Distance(p)
			if pi == 0 {
				base[qi] = d
				continue
			}
			if math32.Abs(d-base[qi]) > 1e-2 {
				t.Errorf("perm %v probe %v: %f deviates from %f", perm, p, d, base[qi])
			}
		}
	}
}

func TestSceneEvaluate(t *testing.T) {
	s := NewScene(5)
	if err := s.Add(rectAt(0, 0, 80, 50, 10)); err != nil {
		t.Fatal(err)
	}
	pos := []ms2.Vec{{}, {X: 40}, {X: 100, Y: 100}, {X: -12, Y: 7}}
	dist := make([]float32, len(pos))
	if err := s.Evaluate(pos, dist, nil); err != nil {
		t.Fatal(err)
	}
	for i, p := range pos {
		if want := s.Distance(p); dist[i] != want {
			t.Errorf("Evaluate[%d] = %f, Distance = %f", i, dist[i], want)
		}
	}

	if err := s.Evaluate(pos, dist[:2], nil); err == nil {
		t.Error("mismatched buffer lengths should error")
	}
}

func TestSceneBounds(t *testing.T) {
	s := NewScene(25)
	if err := s.Add(rectAt(0, 0, 100, 60, 10)); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(circleAt(80, 0, 20)); err != nil {
		t.Fatal(err)
	}
	bb := s.Bounds()
	// Shape union is x [-50,100], y [-30,30]; blend inflates by 25.
	wantMin := ms2.Vec{X: -75, Y: -55}
	wantMax := ms2.Vec{X: 125, Y: 55}
	if math32.Abs(bb.Min.X-wantMin.X) > 1e-4 || math32.Abs(bb.Min.Y-wantMin.Y) > 1e-4 ||
		math32.Abs(bb.Max.X-wantMax.X) > 1e-4 || math32.Abs(bb.Max.Y-wantMax.Y) > 1e-4 {
		t.Errorf("Bounds = %+v, want min %v max %v", bb, wantMin, wantMax)
	}
}

func TestSceneGradientUnitLength(t *testing.T) {
	s := NewScene(0)
	if err := s.Add(rectAt(0, 0, 100, 60, 10)); err != nil {
		t.Fatal(err)
	}
	// Probe points away from the medial axis where the gradient of a true
	// distance field has unit length.
	probes := []ms2.Vec{{X: 70, Y: 0}, {X: 0, Y: 45}, {X: 48, Y: 0}, {X: 60, Y: 40}}
	for _, p := range probes {
		g := s.Gradient(p, 0.25)
		l := ms2.Norm(g)
		if math32.Abs(l-1) > 0.05 {
			t.Errorf("gradient length at %v = %f, want ~1", p, l)
		}
	}
}

func TestNormalsCentralDiffMatchesGradient(t *testing.T) {
	s := NewScene(8)
	if err := s.Add(circleAt(0, 0, 30)); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(rectAt(50, 0, 40, 40, 5)); err != nil {
		t.Fatal(err)
	}
	pos := []ms2.Vec{{X: 40, Y: 10}, {X: -10, Y: 35}, {X: 70, Y: -25}}
	normals := make([]ms2.Vec, len(pos))
	if err := NormalsCentralDiff(s, pos, normals, 0.25, nil); err != nil {
		t.Fatal(err)
	}
	for i, p := range pos {
		want := s.Gradient(p, 0.125)
		if math32.Abs(normals[i].X-want.X) > 1e-2 || math32.Abs(normals[i].Y-want.Y) > 1e-2 {
			t.Errorf("normal[%d] = %v, gradient = %v", i, normals[i], want)
		}
	}
}
