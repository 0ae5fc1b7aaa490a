package hud

import (
	"fmt"
	"image"
	"math"
	"math/rand"
	"time"

	"gocv.io/x/gocv"

	"aisha/internal/service/flight"
	"aisha/internal/service/sysinfo"
	"aisha/internal/service/weather"
)

const (
	radarRadius  = 50
	radarStep    = 5.0
	compassRange = 30
	vsiRadius    = 20
	font         = gocv.FontHersheySimplex
)

// State is everything one HUD frame shows.
type State struct {
	T       float64
	Now     time.Time
	Flight  flight.Data
	Weather *weather.Current
	System  *sysinfo.Stats
	Relay   bool
}

// Renderer draws HUD frames. It keeps the radar sweep between frames and is
// not safe for concurrent use.
type Renderer struct {
	city       string
	radarAngle float64
	rng        *rand.Rand
}

// NewRenderer creates a Renderer labelling the weather block with city.
func NewRenderer(city string) *Renderer {
	return &Renderer{city: city, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Render draws the whole HUD onto frame in place.
func (r *Renderer) Render(frame *gocv.Mat, s State) error {
	if frame.Empty() {
		return fmt.Errorf("frame is empty")
	}

	if err := r.drawPitchRoll(frame, s.Flight.Pitch, s.Flight.Roll); err != nil {
		return err
	}

	size := image.Pt(frame.Cols(), frame.Rows())
	r.radarAngle = math.Mod(r.radarAngle+radarStep, 360)
	r.drawRadar(frame, image.Pt(int(float64(size.X)*0.85), int(float64(size.Y)*0.85)), s.T)
	drawCompass(frame, size, s.Flight.Heading)
	drawTapes(frame, size, s.Flight.Altitude, s.Flight.Speed)
	drawVSI(frame, size, s.Flight.VSI)
	drawReticle(frame, size, s.T)
	drawTargets(frame, size, s.T)
	drawStatus(frame, size, int(s.Flight.Fuel), int(s.Flight.Temperature), s.Flight.Pressure)
	drawMain(frame, s.Flight, s.Relay)
	r.drawWeather(frame, size, s.Weather, s.Now)
	drawSystem(frame, size, s.System)
	return nil
}

// drawPitchRoll rotates the scene by roll about the centre and draws the ladder.
func (r *Renderer) drawPitchRoll(frame *gocv.Mat, pitch, roll float64) error {
	w, h := frame.Cols(), frame.Rows()
	center := image.Pt(w/2, h/2)

	rotation := gocv.GetRotationMatrix2D(center, roll, 1.0)
	defer rotation.Close()

	rotated := gocv.NewMat()
	defer rotated.Close()
	if err := gocv.WarpAffine(*frame, &rotated, rotation, image.Pt(w, h)); err != nil {
		return fmt.Errorf("failed to rotate frame: %w", err)
	}
	if err := rotated.CopyTo(frame); err != nil {
		return fmt.Errorf("failed to copy rotated frame: %w", err)
	}

	for _, line := range PitchLadder(center.Y, pitch) {
		if line.Center {
			gocv.Line(frame, image.Pt(center.X-40, line.Y), image.Pt(center.X-15, line.Y), green, 1)
			gocv.Line(frame, image.Pt(center.X+15, line.Y), image.Pt(center.X+40, line.Y), green, 1)
			continue
		}
		gocv.Line(frame, image.Pt(center.X-25, line.Y), image.Pt(center.X+25, line.Y), green, 1)
		gocv.PutText(frame, fmt.Sprint(line.Label), image.Pt(center.X+30, line.Y+5), font, 0.3, green, 1)
	}
	return nil
}

func (r *Renderer) drawRadar(frame *gocv.Mat, center image.Point, t float64) {
	for _, radius := range []int{radarRadius, radarRadius / 2, radarRadius / 3} {
		gocv.Circle(frame, center, radius, green, 1)
	}

	sweep := polar(center, radarRadius, r.radarAngle)
	gocv.Line(frame, center, sweep, shade(Fade(t)), 1)

	for _, blip := range RadarBlips(center, radarRadius, r.radarAngle, t, r.rng) {
		c := shade(blip.Alpha)
		gocv.Circle(frame, blip.Point, 4, c, -1)
		gocv.PutText(frame, blip.Label, blip.Point.Add(image.Pt(5, -5)), font, 0.3, c, 1)
	}
}

func drawCompass(frame *gocv.Mat, size image.Point, heading float64) {
	center := image.Pt(size.X-50, 50)
	gocv.Circle(frame, center, compassRange, green, 1)

	for _, mark := range []struct {
		angle float64
		label string
	}{{0, "N"}, {90, "E"}, {180, "S"}, {270, "W"}} {
		p := polar(center, compassRange+10, mark.angle)
		gocv.PutText(frame, mark.label, p.Add(image.Pt(-5, 5)), font, 0.3, green, 1)
	}

	gocv.Line(frame, center, CompassArrow(center, compassRange, heading), green, 1)
}

func drawTapes(frame *gocv.Mat, size image.Point, altitude, speed float64) {
	w, h := size.X, size.Y

	altY := TapeOffset(h, altitude, 20000)
	gocv.Rectangle(frame, image.Rect(20, h-300, 40, h-100), green, 1)
	gocv.Rectangle(frame, image.Rect(20, h-altY-10, 40, h-altY+10), green, -1)
	gocv.PutText(frame, fmt.Sprint(int(altitude)), image.Pt(45, h-altY), font, 0.4, green, 1)

	spdY := TapeOffset(h, speed, 1200)
	gocv.Rectangle(frame, image.Rect(w-40, h-300, w-20, h-100), green, 1)
	gocv.Rectangle(frame, image.Rect(w-40, h-spdY-10, w-20, h-spdY+10), green, -1)
	gocv.PutText(frame, fmt.Sprint(int(speed)), image.Pt(w-60, h-spdY), font, 0.4, green, 1)
}

func drawVSI(frame *gocv.Mat, size image.Point, vsi float64) {
	center := image.Pt(size.X-50, size.Y-50)
	gocv.Circle(frame, center, vsiRadius, green, 1)

	c := VSIColor(vsi)
	tip := polar(center, vsiRadius*0.8, VSIAngle(vsi)+90)
	gocv.Line(frame, center, tip, c, 1)
	gocv.PutText(frame, fmt.Sprintf("%.1f", vsi), image.Pt(center.X+25, center.Y), font, 0.3, c, 1)
}

func drawReticle(frame *gocv.Mat, size image.Point, t float64) {
	c := image.Pt(size.X/2, size.Y/2)
	gocv.Line(frame, image.Pt(c.X-15, c.Y), image.Pt(c.X+15, c.Y), green, 1)
	gocv.Line(frame, image.Pt(c.X, c.Y-15), image.Pt(c.X, c.Y+15), green, 1)

	for i := 1; i < 3; i++ {
		o := ReticleOffset(t, i)
		gocv.Rectangle(frame, image.Rect(c.X-o, c.Y-o, c.X+o, c.Y+o), green, 1)
	}
}

func drawTargets(frame *gocv.Mat, size image.Point, t float64) {
	for i := 0; i < 2; i++ {
		p := TargetPosition(size, t, i)
		c := shade(Fade(t + float64(i)*0.5))
		gocv.Rectangle(frame, image.Rect(p.X-10, p.Y-10, p.X+10, p.Y+10), c, 1)
		gocv.PutText(frame, fmt.Sprintf("T%d", i+1), image.Pt(p.X+15, p.Y-5), font, 0.3, c, 1)
	}
}

func drawStatus(frame *gocv.Mat, size image.Point, fuel, temp int, pressure float64) {
	h := size.Y
	gocv.PutText(frame, fmt.Sprintf("FUEL: %d%%", fuel), image.Pt(10, h-60), font, 0.4, FuelColor(fuel), 1)
	gocv.PutText(frame, fmt.Sprintf("TEMP: %dC", temp), image.Pt(10, h-40), font, 0.4, TempColor(temp), 1)
	gocv.PutText(frame, fmt.Sprintf("PRESS: %.2f", pressure), image.Pt(10, h-20), font, 0.4, PressureColor(pressure), 1)
}

func drawMain(frame *gocv.Mat, d flight.Data, relay bool) {
	gocv.PutText(frame, fmt.Sprintf("ALT: %d m", int(d.Altitude)), image.Pt(10, 20), font, 0.5, green, 1)
	gocv.PutText(frame, fmt.Sprintf("SPD: %d km/h", int(d.Speed)), image.Pt(10, 40), font, 0.5, green, 1)
	gocv.PutText(frame, fmt.Sprintf("HDG: %d deg", int(d.Heading)), image.Pt(10, 60), font, 0.5, green, 1)

	state, c := "OFF", green
	if relay {
		state, c = "ON", red
	}
	gocv.PutText(frame, "RELAY: "+state, image.Pt(10, 80), font, 0.5, c, 1)
}

// drawWeather is skipped until the first successful fetch.
func (r *Renderer) drawWeather(frame *gocv.Mat, size image.Point, w *weather.Current, now time.Time) {
	if w == nil {
		return
	}
	x := size.X - 250
	lines := []string{
		r.city + " weather:",
		fmt.Sprintf("Temp: %.1fC", w.Temperature),
		fmt.Sprintf("Wind: %.1f m/s", w.WindSpeed),
		fmt.Sprintf("Direction: %.0f deg", w.WindDirection),
		"Time: " + now.Format("15:04:05"),
	}
	for i, line := range lines {
		gocv.PutText(frame, line, image.Pt(x, 30+i*20), font, 0.4, green, 1)
	}
}

func drawSystem(frame *gocv.Mat, size image.Point, s *sysinfo.Stats) {
	if s == nil {
		return
	}
	text := fmt.Sprintf("CPU: %.0f%%  MEM: %.0f%%", s.CPUPercent, s.MemoryPercent)
	if s.Temperature > 0 {
		text += fmt.Sprintf("  SOC: %.0fC", s.Temperature)
	}
	gocv.PutText(frame, text, image.Pt(size.X/2-80, size.Y-10), font, 0.4, green, 1)
}
