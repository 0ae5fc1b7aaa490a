// Package flight produces the telemetry shown on the pilot HUD.
package flight

import (
	"math"
	"time"
)

// Data is one telemetry sample. Angles are in degrees, altitude in metres,
// speed in km/h, vertical speed in m/s, pressure in bar.
type Data struct {
	Pitch       float64 `json:"pitch"`
	Roll        float64 `json:"roll"`
	Heading     float64 `json:"heading"`
	Altitude    float64 `json:"altitude"`
	Speed       float64 `json:"speed"`
	VSI         float64 `json:"vsi"`
	Fuel        float64 `json:"fuel"`
	Temperature float64 `json:"temperature"`
	Pressure    float64 `json:"pressure"`
}

// Synthetic returns the animated flight profile at t seconds.
func Synthetic(t float64) Data {
	return Data{
		Pitch:       10 * math.Sin(t*0.5),
		Roll:        15 * math.Sin(t*0.3),
		Heading:     NormalizeHeading(360 + 90*math.Sin(t*0.2)),
		Altitude:    5000 + 2000*math.Sin(t*0.1),
		Speed:       600 + 200*math.Sin(t*0.15),
		VSI:         5 * math.Sin(t*0.4),
		Fuel:        50 + 30*math.Sin(t*0.05),
		Temperature: 60 + 15*math.Sin(t*0.07),
		Pressure:    1 + 0.1*math.Sin(t*0.06),
	}
}

// NormalizeHeading maps any angle into [0, 360).
func NormalizeHeading(deg float64) float64 {
	h := math.Mod(deg, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// DefaultMaxAge is how long an IMU reading overrides the synthetic attitude.
const DefaultMaxAge = time.Second

// Source mixes live IMU attitude into synthetic telemetry.
type Source struct {
	imu    *IMU
	maxAge time.Duration
	now    func() time.Time
}

// NewSource creates a Source. imu may be nil.
func NewSource(imu *IMU) *Source {
	return &Source{imu: imu, maxAge: DefaultMaxAge, now: time.Now}
}

// At returns telemetry for t seconds since start.
func (s *Source) At(t float64) Data {
	d := Synthetic(t)
	if s.imu == nil {
		return d
	}

	att, ok := s.imu.Latest()
	if !ok || s.now().Sub(att.At) > s.maxAge {
		return d
	}

	d.Pitch = att.Pitch
	d.Roll = att.Roll
	d.Heading = NormalizeHeading(att.Yaw)
	return d
}
