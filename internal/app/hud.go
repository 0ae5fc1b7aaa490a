package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"

	"aisha/internal/route"
	"aisha/internal/service"
	"aisha/internal/service/audio"
	"aisha/internal/service/command"
	"aisha/internal/service/flight"
	"aisha/internal/service/hud"
	"aisha/internal/service/notify"
	"aisha/internal/service/relay"
	"aisha/internal/service/speech"
	"aisha/internal/service/sysinfo"
	"aisha/internal/service/weather"
)

const hudWindow = "Pilot HUD View"

// telemetry is the latest HUD state, shared with the viewer.
type telemetry struct {
	mu     sync.RWMutex
	status hudStatus
}

type hudStatus struct {
	Time    time.Time        `json:"time"`
	Flight  flight.Data      `json:"flight"`
	Weather *weather.Current `json:"weather,omitempty"`
	System  *sysinfo.Stats   `json:"system,omitempty"`
	Relay   bool             `json:"relay"`
}

func (t *telemetry) Set(s hud.State) {
	t.mu.Lock()
	t.status = hudStatus{Time: s.Now, Flight: s.Flight, Weather: s.Weather, System: s.System, Relay: s.Relay}
	t.mu.Unlock()
}

func (t *telemetry) Snapshot() interface{} {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// hudLoop holds what one HUD iteration touches.
type hudLoop struct {
	camera     *gocv.VideoCapture
	window     *gocv.Window
	microphone speech.Source
	stream     speech.StreamRecognizer
	relay      relay.Relay
	switcher   *relaySwitch
	source     *flight.Source
	weather    *weather.Refresher
	sampler    *sysinfo.Sampler
	renderer   *hud.Renderer
	telemetry  *telemetry
	manager    *service.Manager
	// start is t = 0 of the synthetic flight profile.
	start time.Time
}

// RunHUD listens for relay phrases and draws the pilot HUD over the webcam
// until q is pressed. The relay is switched off on exit.
func (a *App) RunHUD(ctx context.Context) error {
	camera, err := openCamera(a.config)
	if err != nil {
		return err
	}
	defer camera.Close()

	rl, err := relay.Open(a.config, a.logger)
	if err != nil {
		return err
	}
	defer rl.Close()

	microphone, err := audio.OpenMicrophone(a.config.AudioChunkFrames)
	if err != nil {
		return err
	}
	defer microphone.Close()

	model, err := speech.LoadVoskModel(a.config.VoskModelPath)
	if err != nil {
		return err
	}
	defer model.Close()

	stream, err := speech.NewVoskStream(model, microphone.SampleRate())
	if err != nil {
		return err
	}
	defer stream.Close()

	var imu *flight.IMU
	if a.config.IMUPort != "" {
		if imu, err = flight.OpenIMU(a.config.IMUPort, a.config.IMUBaud, a.logger); err != nil {
			a.logger.Warning("Flying on synthetic attitude: %v", err)
			imu = nil
		}
	}

	vocabulary := a.loadVocabulary(a.config.RelayVocabularyPath, command.DefaultRelayVocabulary())
	notifier := notify.New(a.config.Notifications)

	window := gocv.NewWindow(hudWindow)
	defer window.Close()
	if a.config.Fullscreen {
		window.SetWindowProperty(gocv.WindowPropertyFullscreen, gocv.WindowFullscreen)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	loop := &hudLoop{
		camera:     camera,
		window:     window,
		microphone: microphone,
		stream:     stream,
		relay:      rl,
		switcher:   &relaySwitch{relay: rl, vocabulary: vocabulary, events: a.events, notifier: notifier, logger: a.logger},
		source:     flight.NewSource(imu),
		weather:    weather.NewRefresher(weather.NewClient(a.config), a.config.WeatherInterval, a.logger),
		sampler:    sysinfo.NewSampler(sysinfo.DefaultInterval, a.logger),
		renderer:   hud.NewRenderer(a.config.WeatherCity),
		telemetry:  &telemetry{},
		start:      time.Now(),
	}

	g.Go(func() error { return loop.weather.Run(gctx) })
	g.Go(func() error { return loop.sampler.Run(gctx) })
	if imu != nil {
		g.Go(func() error {
			if err := imu.Run(gctx); err != nil {
				a.logger.Warning("IMU stopped, back to synthetic attitude: %v", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		a.watchVocabulary(gctx, vocabulary, a.config.RelayVocabularyPath)
		return nil
	})

	hub := a.startViewer(gctx, g, route.Dependencies{Relay: rl, Notifier: notifier, Status: loop.telemetry.Snapshot})
	loop.manager = service.NewManager(nil, broadcaster(hub), a.config, a.logger)

	a.logger.Info("✈️  HUD started, relay on %s, session %s", a.config.RelayPin, a.events.Session())
	loopErr := a.runHUDLoop(gctx, loop)

	loop.manager.Stop()
	cancel()
	if err := g.Wait(); err != nil && loopErr == nil {
		loopErr = err
	}

	if err := rl.Off(); err != nil {
		a.logger.Error("Failed to switch relay off: %v", err)
	}
	return loopErr
}

func (a *App) runHUDLoop(ctx context.Context, l *hudLoop) error {
	frame := gocv.NewMat()
	defer frame.Close()

	for ctx.Err() == nil {
		a.listenChunk(ctx, l)

		if ok := l.camera.Read(&frame); !ok || frame.Empty() {
			return fmt.Errorf("failed to read frame from camera %d", a.config.CameraIndex)
		}

		state := l.state(time.Now())
		if err := l.renderer.Render(&frame, state); err != nil {
			a.logger.Error("HUD render failed: %v", err)
		}
		l.telemetry.Set(state)
		l.manager.HandleFrame(frame, a.config.CameraName, nil, l.telemetry.Snapshot())

		if quitPressed(l.window, frame) {
			return nil
		}
	}
	return nil
}

// state builds the HUD state for now, in seconds since the HUD started.
func (l *hudLoop) state(now time.Time) hud.State {
	t := now.Sub(l.start).Seconds()
	state := hud.State{
		T:      t,
		Now:    now,
		Flight: l.source.At(t),
		Relay:  l.relay.IsOn(),
	}
	if current, ok := l.weather.Latest(); ok {
		state.Weather = &current
	}
	stats := l.sampler.Latest()
	state.System = &stats
	return state
}

// listenChunk feeds one audio chunk to the recognizer and acts on a finished phrase.
func (a *App) listenChunk(ctx context.Context, l *hudLoop) {
	chunk, err := l.microphone.ReadChunk(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			a.logger.Error("Audio read failed: %v", err)
		}
		return
	}

	text, final, err := l.stream.Accept(chunk)
	if err != nil {
		a.logger.Warning("Recognizer error: %v", err)
		return
	}
	if !final || strings.TrimSpace(text) == "" {
		return
	}

	a.logger.Info("Recognized: %s", text)
	l.switcher.Handle(text)
}
