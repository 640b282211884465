package glass

import (
	"bytes"
	"errors"
	"testing"
)

// stubAccelerator records calls and defers every pass to the CPU.
type stubAccelerator struct {
	name     string
	initErr  error
	ops      AcceleratedOp
	inits    int
	closes   int
	bakes    int
	shades   int
	provider any
}

var (
	_ Accelerator         = (*stubAccelerator)(nil)
	_ DeviceProviderAware = (*stubAccelerator)(nil)
)

func (a *stubAccelerator) Name() string {
	if a.name == "" {
		return "stub"
	}
	return a.name
}

func (a *stubAccelerator) Init() error {
	a.inits++
	return a.initErr
}

func (a *stubAccelerator) Close() {
	a.closes++
}

func (a *stubAccelerator) CanAccelerate(op AcceleratedOp) bool {
	return a.ops&op != 0
}

func (a *stubAccelerator) BakeMatte(RenderTarget, FieldDesc) error {
	a.bakes++
	return ErrFallbackToCPU
}

func (a *stubAccelerator) Shade(RenderTarget, RenderTarget, RenderTarget, ShadeDesc) error {
	a.shades++
	return ErrFallbackToCPU
}

func (a *stubAccelerator) SetDeviceProvider(p any) error {
	a.provider = p
	return nil
}

// TestRegisterAcceleratorNil verifies nil registration is rejected.
func TestRegisterAcceleratorNil(t *testing.T) {
	if err := RegisterAccelerator(nil); err == nil {
		t.Error("RegisterAccelerator(nil) error = nil")
	}
}

// TestRegisterAcceleratorInitError verifies a failing Init leaves the
// previous accelerator in place.
func TestRegisterAcceleratorInitError(t *testing.T) {
	defer CloseAccelerator()

	good := &stubAccelerator{}
	if err := RegisterAccelerator(good); err != nil {
		t.Fatalf("RegisterAccelerator() error = %v", err)
	}

	bad := &stubAccelerator{initErr: errors.New("no device")}
	if err := RegisterAccelerator(bad); err == nil {
		t.Error("RegisterAccelerator() with failing Init error = nil")
	}
	if got := RegisteredAccelerator(); got != Accelerator(good) {
		t.Errorf("RegisteredAccelerator() = %v, want the previous one", got)
	}
	if good.closes != 0 {
		t.Error("failed registration closed the previous accelerator")
	}
}

// TestRegisterAcceleratorReplaces verifies replacement closes the old
// accelerator.
func TestRegisterAcceleratorReplaces(t *testing.T) {
	defer CloseAccelerator()

	first := &stubAccelerator{name: "first"}
	second := &stubAccelerator{name: "second"}
	if err := RegisterAccelerator(first); err != nil {
		t.Fatal(err)
	}
	if err := RegisterAccelerator(second); err != nil {
		t.Fatal(err)
	}

	if first.closes != 1 {
		t.Errorf("old accelerator closes = %d, want 1", first.closes)
	}
	if got := RegisteredAccelerator(); got != Accelerator(second) {
		t.Errorf("RegisteredAccelerator() = %v, want the replacement", got)
	}
	if second.inits != 1 {
		t.Errorf("new accelerator inits = %d, want 1", second.inits)
	}
}

// TestCloseAccelerator verifies shutdown unregisters and is idempotent.
func TestCloseAccelerator(t *testing.T) {
	stub := &stubAccelerator{}
	if err := RegisterAccelerator(stub); err != nil {
		t.Fatal(err)
	}

	CloseAccelerator()
	if stub.closes != 1 {
		t.Errorf("closes = %d, want 1", stub.closes)
	}
	if RegisteredAccelerator() != nil {
		t.Error("RegisteredAccelerator() != nil after CloseAccelerator")
	}

	CloseAccelerator()
	if stub.closes != 1 {
		t.Errorf("second CloseAccelerator reran Close, closes = %d", stub.closes)
	}
}

// TestSetAcceleratorDeviceProvider verifies provider propagation and
// the no-accelerator no-op.
func TestSetAcceleratorDeviceProvider(t *testing.T) {
	CloseAccelerator()
	if err := SetAcceleratorDeviceProvider(42); err != nil {
		t.Errorf("SetAcceleratorDeviceProvider() without accelerator error = %v", err)
	}

	stub := &stubAccelerator{}
	if err := RegisterAccelerator(stub); err != nil {
		t.Fatal(err)
	}
	defer CloseAccelerator()

	if err := SetAcceleratorDeviceProvider("provider"); err != nil {
		t.Errorf("SetAcceleratorDeviceProvider() error = %v", err)
	}
	if stub.provider != "provider" {
		t.Errorf("provider = %v, want it forwarded", stub.provider)
	}
}

// TestAcceleratorFallbackMatchesCPU verifies an accelerator that
// declines every pass leaves the output byte-identical to pure CPU
// rendering, and that both passes were actually offered to it.
func TestAcceleratorFallbackMatchesCPU(t *testing.T) {
	CloseAccelerator()

	s := DefaultSettings()
	s.ChromaticAberration = 0.5
	s.Tint = RGBA{R: 1, G: 0.8, B: 0.6, A: 0.3}

	want, g1 := paintWith(t, s)
	g1.Close()

	stub := &stubAccelerator{ops: AccelGeometryBake | AccelOpticalShade}
	if err := RegisterAccelerator(stub); err != nil {
		t.Fatal(err)
	}
	defer CloseAccelerator()

	got, g2 := paintWith(t, s)
	g2.Close()

	if stub.bakes == 0 {
		t.Error("the geometry pass was never offered to the accelerator")
	}
	if stub.shades == 0 {
		t.Error("the optical pass was never offered to the accelerator")
	}
	if !bytes.Equal(got.Data(), want.Data()) {
		t.Error("fallback output differs from CPU rendering")
	}
}
