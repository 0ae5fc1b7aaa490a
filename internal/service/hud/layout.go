// Package hud draws the synthetic pilot head-up display over camera frames.
package hud

import (
	"image"
	"image/color"
	"math"
	"math/rand"
)

var (
	green = color.RGBA{G: 255, A: 255}
	red   = color.RGBA{R: 255, A: 255}
)

// shade returns green at the given brightness (0..255).
func shade(brightness float64) color.RGBA {
	return color.RGBA{G: uint8(clamp(brightness, 0, 255)), A: 255}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// frac is the positive fractional part, matching a floored modulo by 1.
func frac(v float64) float64 {
	return v - math.Floor(v)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// polar returns the point at distance r and angle deg from c, y pointing down.
func polar(c image.Point, r, deg float64) image.Point {
	return image.Pt(
		c.X+int(r*math.Cos(radians(deg))),
		c.Y+int(r*math.Sin(radians(deg))),
	)
}

// Fade is 255 at the start of every second and decays to 0.
func Fade(t float64) float64 {
	return 255 * (1 - frac(t))
}

// Blip is a radar contact marker.
type Blip struct {
	Point image.Point
	Alpha float64
	Label string
}

// RadarBlips places three contacts 120 degrees apart, trailing the sweep.
func RadarBlips(center image.Point, radius int, angle, t float64, rng *rand.Rand) []Blip {
	blips := make([]Blip, 3)
	minDist := float64(radius / 3)
	for i := range blips {
		deg := math.Mod(angle+float64(i)*120, 360)
		dist := minDist + rng.Float64()*(float64(radius)-minDist)
		blips[i] = Blip{
			Point: polar(center, dist, deg),
			Alpha: Fade(t + float64(i)*0.2),
			Label: "ID" + string(rune('1'+i)),
		}
	}
	return blips
}

// LadderLine is one rung of the pitch ladder.
type LadderLine struct {
	Y      int
	Step   int
	Center bool
	Label  int
}

// PitchLadder returns rungs -3..3, 15 px apart, shifted 5 px per degree of pitch.
func PitchLadder(centerY int, pitch float64) []LadderLine {
	lines := make([]LadderLine, 0, 7)
	for i := -3; i <= 3; i++ {
		lines = append(lines, LadderLine{
			Y:      centerY + int(float64(i*15)-pitch*5),
			Step:   i,
			Center: i == 0,
			Label:  -i * 5,
		})
	}
	return lines
}

// CompassArrow is the heading needle tip at 0.8 of the radius.
func CompassArrow(center image.Point, radius int, heading float64) image.Point {
	return polar(center, float64(radius)*0.8, heading)
}

// TapeOffset is the distance of a tape marker from the frame bottom for value
// normalised against max.
func TapeOffset(height int, value, max float64) int {
	return int(float64(height) * (1 - value/max))
}

// VSIAngle maps vertical speed to needle deflection, 9 degrees per m/s.
func VSIAngle(vsi float64) float64 {
	return clamp(vsi*9, -90, 90)
}

// VSIColor is red at 5 m/s and above in either direction.
func VSIColor(vsi float64) color.RGBA {
	if math.Abs(vsi) < 5 {
		return green
	}
	return red
}

// ReticleOffset is the half size of the i-th pulsing reticle square.
func ReticleOffset(t float64, i int) int {
	return int(10 * (1 + 0.2*math.Sin(t*2+float64(i))))
}

// TargetPosition is the centre of target marker i.
func TargetPosition(size image.Point, t float64, i int) image.Point {
	ti := t + float64(i)
	return image.Pt(
		int(float64(size.X)*(0.3+0.4*math.Mod(ti, 2))),
		int(float64(size.Y)*(0.3+0.2*math.Sin(ti))),
	)
}

// FuelColor is red at 30% and below.
func FuelColor(fuel int) color.RGBA {
	if fuel > 30 {
		return green
	}
	return red
}

// TempColor is red from 80C.
func TempColor(temp int) color.RGBA {
	if temp < 80 {
		return green
	}
	return red
}

// PressureColor is green only strictly inside (0.9, 1.1).
func PressureColor(pressure float64) color.RGBA {
	if pressure > 0.9 && pressure < 1.1 {
		return green
	}
	return red
}
