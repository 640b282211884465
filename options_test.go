package glass

import "testing"

// TestNewGroupDefaults tests that NewGroup starts from the reference
// configuration.
func TestNewGroupDefaults(t *testing.T) {
	g := NewGroup()
	defer g.Close()

	if g.Settings() != DefaultSettings() {
		t.Errorf("Settings() = %+v, want defaults", g.Settings())
	}
	if !g.Transform().IsIdentity() {
		t.Errorf("Transform() = %+v, want identity", g.Transform())
	}
	if g.Scale() != 1 {
		t.Errorf("Scale() = %g, want 1", g.Scale())
	}
	if g.ShapeCount() != 0 {
		t.Errorf("ShapeCount() = %d, want 0", g.ShapeCount())
	}
}

// TestNewGroupWithSettings tests injection of the initial optics.
func TestNewGroupWithSettings(t *testing.T) {
	s := DefaultSettings()
	s.Thickness = 42
	s.ChromaticAberration = 0.3

	g := NewGroup(WithSettings(s))
	defer g.Close()

	if g.Settings() != s {
		t.Errorf("Settings() = %+v, want the injected value", g.Settings())
	}
}

// TestNewGroupWithTransform tests injection of the initial placement.
func TestNewGroupWithTransform(t *testing.T) {
	m := Translate(100, 50)
	g := NewGroup(WithTransform(m))
	defer g.Close()

	if g.Transform() != m {
		t.Errorf("Transform() = %+v, want %+v", g.Transform(), m)
	}
}

// TestNewGroupWithScale tests the device pixel ratio option, including
// the guard against unusable values.
func TestNewGroupWithScale(t *testing.T) {
	g := NewGroup(WithScale(2))
	defer g.Close()
	if g.Scale() != 2 {
		t.Errorf("Scale() = %g, want 2", g.Scale())
	}

	h := NewGroup(WithScale(-1))
	defer h.Close()
	if h.Scale() != 1 {
		t.Errorf("Scale() with a negative ratio = %g, want fallback 1", h.Scale())
	}
}

// TestNewGroupWithParallelism tests the worker cap reaches the pool.
func TestNewGroupWithParallelism(t *testing.T) {
	g := NewGroup(WithParallelism(2))
	defer g.Close()

	if got := g.workers().Workers(); got != 2 {
		t.Errorf("Workers() = %d, want 2", got)
	}
}

// TestNewGroupMultipleOptions tests combining options.
func TestNewGroupMultipleOptions(t *testing.T) {
	s := DefaultSettings()
	s.BlurRadius = 4
	m := Translate(7, 9)

	g := NewGroup(WithSettings(s), WithTransform(m), WithScale(1.5))
	defer g.Close()

	if g.Settings() != s || g.Transform() != m || g.Scale() != 1.5 {
		t.Errorf("options not all applied: settings %+v, transform %+v, scale %g",
			g.Settings(), g.Transform(), g.Scale())
	}
}

// TestCompositorMatteBudgetOption tests the cache budget option and its
// default.
func TestCompositorMatteBudgetOption(t *testing.T) {
	c := NewCompositor(grayStub())
	if got := c.CacheStats().MaxSize; got != 64<<20 {
		t.Errorf("default budget = %d, want %d", got, 64<<20)
	}

	small := NewCompositor(grayStub(), WithMatteBudget(1<<20))
	if got := small.CacheStats().MaxSize; got != 1<<20 {
		t.Errorf("budget = %d, want %d", got, 1<<20)
	}

	off := NewCompositor(grayStub(), WithMatteBudget(0))
	if off.cache != nil {
		t.Error("zero budget still built a cache")
	}
}
