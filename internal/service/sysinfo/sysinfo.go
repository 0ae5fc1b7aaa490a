// Package sysinfo samples host load for the HUD status line.
package sysinfo

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	pshost "github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"aisha/internal/logger"
)

// DefaultInterval between samples.
const DefaultInterval = 3 * time.Second

// Stats is one host sample. Temperature is zero when no sensor is readable.
type Stats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	Temperature   float64 `json:"temperature"`
}

type probe struct {
	cpu  func() (float64, error)
	mem  func() (float64, error)
	temp func() (float64, error)
}

var hostProbe = probe{
	cpu: func() (float64, error) {
		values, err := cpu.Percent(0, false)
		if err != nil || len(values) == 0 {
			return 0, err
		}
		return values[0], nil
	},
	mem: func() (float64, error) {
		vm, err := mem.VirtualMemory()
		if err != nil {
			return 0, err
		}
		return vm.UsedPercent, nil
	},
	temp: func() (float64, error) {
		sensors, err := pshost.SensorsTemperatures()
		return hottest(sensors), err
	},
}

// hottest returns the highest plausible reading.
func hottest(sensors []pshost.TemperatureStat) float64 {
	max := 0.0
	for _, s := range sensors {
		if s.Temperature > max && s.Temperature < 150 {
			max = s.Temperature
		}
	}
	return max
}

// Sampler keeps the latest host stats.
type Sampler struct {
	mu       sync.RWMutex
	latest   Stats
	interval time.Duration
	probe    probe
	logger   *logger.Logger
	warned   bool
}

// NewSampler creates a Sampler.
func NewSampler(interval time.Duration, logger *logger.Logger) *Sampler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sampler{interval: interval, probe: hostProbe, logger: logger}
}

// Run samples until ctx is done.
func (s *Sampler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sample()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sample()
		}
	}
}

func (s *Sampler) sample() {
	var stats Stats
	var firstErr error

	var err error
	if stats.CPUPercent, err = s.probe.cpu(); err != nil && firstErr == nil {
		firstErr = err
	}
	if stats.MemoryPercent, err = s.probe.mem(); err != nil && firstErr == nil {
		firstErr = err
	}
	// Temperature sensors are often partially readable; keep whatever came back.
	stats.Temperature, _ = s.probe.temp()

	if firstErr != nil && !s.warned {
		s.logger.Warning("System stats unavailable: %v", firstErr)
		s.warned = true
	}

	s.mu.Lock()
	s.latest = stats
	s.mu.Unlock()
}

// Latest returns the most recent sample.
func (s *Sampler) Latest() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}
