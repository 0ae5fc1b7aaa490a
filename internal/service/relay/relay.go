// Package relay switches the Raspberry Pi relay module.
package relay

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"aisha/internal/config"
	"aisha/internal/logger"
)

// Relay is a two-state output.
type Relay interface {
	On() error
	Off() error
	IsOn() bool
	Close() error
}

// pinWriter is the part of gpio.PinOut the relay needs.
type pinWriter interface {
	Out(l gpio.Level) error
	Name() string
}

// GPIORelay drives a relay module wired to a single GPIO pin.
type GPIORelay struct {
	mu        sync.Mutex
	pin       pinWriter
	activeLow bool
	on        bool
	logger    *logger.Logger
}

// OpenGPIO initializes the host drivers and claims the named pin.
// The relay starts switched off.
func OpenGPIO(name string, activeLow bool, logger *logger.Logger) (*GPIORelay, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize gpio host: %w", err)
	}

	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("gpio pin %s not found", name)
	}

	return newGPIORelay(pin, activeLow, logger)
}

func newGPIORelay(pin pinWriter, activeLow bool, logger *logger.Logger) (*GPIORelay, error) {
	r := &GPIORelay{pin: pin, activeLow: activeLow, logger: logger}
	if err := r.write(false); err != nil {
		return nil, err
	}
	return r, nil
}

// level maps a logical state to the pin level. Active-low modules close on Low.
func (r *GPIORelay) level(on bool) gpio.Level {
	if r.activeLow {
		return gpio.Level(!on)
	}
	return gpio.Level(on)
}

func (r *GPIORelay) write(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.pin.Out(r.level(on)); err != nil {
		return fmt.Errorf("failed to set %s: %w", r.pin.Name(), err)
	}
	r.on = on
	return nil
}

// On closes the relay.
func (r *GPIORelay) On() error {
	if err := r.write(true); err != nil {
		return err
	}
	r.logger.Info("Relay %s ON", r.pin.Name())
	return nil
}

// Off opens the relay.
func (r *GPIORelay) Off() error {
	if err := r.write(false); err != nil {
		return err
	}
	r.logger.Info("Relay %s OFF", r.pin.Name())
	return nil
}

// IsOn reports the last state written.
func (r *GPIORelay) IsOn() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.on
}

// Close switches the relay off.
func (r *GPIORelay) Close() error {
	return r.Off()
}

// DryRunRelay only remembers and logs its state. Used off the Pi.
type DryRunRelay struct {
	mu     sync.Mutex
	on     bool
	logger *logger.Logger
}

// NewDryRun creates a DryRunRelay.
func NewDryRun(logger *logger.Logger) *DryRunRelay {
	return &DryRunRelay{logger: logger}
}

func (r *DryRunRelay) set(on bool) {
	r.mu.Lock()
	r.on = on
	r.mu.Unlock()

	state := "OFF"
	if on {
		state = "ON"
	}
	r.logger.Info("Relay (dry run) %s", state)
}

func (r *DryRunRelay) On() error {
	r.set(true)
	return nil
}

func (r *DryRunRelay) Off() error {
	r.set(false)
	return nil
}

func (r *DryRunRelay) IsOn() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.on
}

func (r *DryRunRelay) Close() error {
	return r.Off()
}

// Open returns a GPIO relay, or a dry-run relay when RELAY_DRY_RUN is set.
func Open(cfg *config.Config, logger *logger.Logger) (Relay, error) {
	if cfg.RelayDryRun {
		return NewDryRun(logger), nil
	}
	return OpenGPIO(cfg.RelayPin, cfg.RelayActiveLow, logger)
}
