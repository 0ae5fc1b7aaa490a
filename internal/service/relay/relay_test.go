package relay

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/gpio"

	"aisha/internal/config"
	"aisha/internal/logger"
)

type fakePin struct {
	levels []gpio.Level
	err    error
}

func (p *fakePin) Out(l gpio.Level) error {
	if p.err != nil {
		return p.err
	}
	p.levels = append(p.levels, l)
	return nil
}

func (p *fakePin) Name() string { return "GPIO17" }

func (p *fakePin) last() gpio.Level { return p.levels[len(p.levels)-1] }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l := logger.NewLogger(&config.Config{LogDirectory: t.TempDir()})
	t.Cleanup(func() { l.Close() })
	return l
}

func TestGPIORelay_ActiveLow(t *testing.T) {
	pin := &fakePin{}
	r, err := newGPIORelay(pin, true, testLogger(t))
	if err != nil {
		t.Fatalf("newGPIORelay failed: %v", err)
	}

	if pin.last() != gpio.High {
		t.Errorf("Active-low relay should start High (off)")
	}
	if r.IsOn() {
		t.Error("Relay should start off")
	}

	if err := r.On(); err != nil {
		t.Fatalf("On failed: %v", err)
	}
	if pin.last() != gpio.Low || !r.IsOn() {
		t.Errorf("Active-low relay ON should drive Low, got %v", pin.last())
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if pin.last() != gpio.High || r.IsOn() {
		t.Error("Close should switch the relay off")
	}
}

func TestGPIORelay_ActiveHigh(t *testing.T) {
	pin := &fakePin{}
	r, err := newGPIORelay(pin, false, testLogger(t))
	if err != nil {
		t.Fatalf("newGPIORelay failed: %v", err)
	}
	if err := r.On(); err != nil {
		t.Fatalf("On failed: %v", err)
	}
	if pin.last() != gpio.High {
		t.Errorf("Active-high relay ON should drive High, got %v", pin.last())
	}
}

func TestGPIORelay_WriteError(t *testing.T) {
	pin := &fakePin{err: errors.New("busy")}
	if _, err := newGPIORelay(pin, true, testLogger(t)); err == nil {
		t.Error("Expected error when the pin cannot be written")
	}
}

func TestOpen_DryRun(t *testing.T) {
	r, err := Open(&config.Config{RelayDryRun: true}, testLogger(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, ok := r.(*DryRunRelay); !ok {
		t.Fatalf("Expected DryRunRelay, got %T", r)
	}

	r.On()
	if !r.IsOn() {
		t.Error("Dry-run relay should remember ON")
	}
	r.Close()
	if r.IsOn() {
		t.Error("Close should switch the dry-run relay off")
	}
}
