package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aisha/internal/config"
	"aisha/internal/dto"
	"aisha/internal/logger"
	"aisha/internal/model"
	"aisha/internal/service/command"
	"aisha/internal/service/flight"
	"aisha/internal/service/hud"
	"aisha/internal/service/notify"
	"aisha/internal/service/relay"
	"aisha/internal/service/speech"
	"aisha/internal/service/sysinfo"
	"aisha/internal/service/weather"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		LogDirectory:   filepath.Join(dir, "logs"),
		DatabasePath:   filepath.Join(dir, "data", "aisha.db"),
		ImageDirectory: filepath.Join(dir, "images"),
	}
	l := logger.NewLogger(cfg)
	t.Cleanup(func() { l.Close() })

	a, err := New(cfg, l)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

// ========================================
// Relay Switch Tests
// ========================================

func TestRelaySwitch_Handle(t *testing.T) {
	a := newTestApp(t)
	r := relay.NewDryRun(a.logger)
	s := &relaySwitch{
		relay:      r,
		vocabulary: command.NewStore(command.DefaultRelayVocabulary()),
		events:     a.events,
		notifier:   notify.New(false),
		logger:     a.logger,
	}

	tests := []struct {
		text    string
		matched bool
		on      bool
	}{
		{"ад", true, true},
		{"тоқтар", true, false},
		{"қос", true, true},
		{"қос қос", false, true},
		{"тоқта", true, false},
		{"сәлем", false, false},
	}

	for _, tt := range tests {
		if got := s.Handle(tt.text); got != tt.matched {
			t.Errorf("Handle(%q) = %v, expected %v", tt.text, got, tt.matched)
		}
		if r.IsOn() != tt.on {
			t.Errorf("After %q relay on = %v, expected %v", tt.text, r.IsOn(), tt.on)
		}
	}

	data, err := a.events.Events(dto.EventFilter{Source: model.SourceHUD, Limit: 100})
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(data.Commands) != len(tests) {
		t.Errorf("Every phrase should be recorded, got %d", len(data.Commands))
	}
	if data.Actions[command.ActionRelayOn] != 2 || data.Actions[""] != 2 {
		t.Errorf("Unexpected action counts %v", data.Actions)
	}
}

func TestRelaySwitch_IgnoresNonRelayActions(t *testing.T) {
	a := newTestApp(t)
	r := relay.NewDryRun(a.logger)
	s := &relaySwitch{
		relay:      r,
		vocabulary: command.NewStore(command.DefaultAssistantVocabulary()),
		notifier:   notify.New(false),
		logger:     a.logger,
	}

	if s.Handle("қос") {
		t.Error("An assistant command should not switch the relay")
	}
	if r.IsOn() {
		t.Error("Relay should stay off")
	}
}

// ========================================
// Events Output Tests
// ========================================

func TestPrintEvents(t *testing.T) {
	a := newTestApp(t)
	a.events.RecordCommand(model.SourceAssistant, "зеңбірек қос", command.ActionActivate, "Қосамын")
	a.events.RecordCommand(model.SourceHUD, "сәлем", "", "")

	var out bytes.Buffer
	if err := a.PrintEvents(&out, dto.EventFilter{}, false); err != nil {
		t.Fatalf("PrintEvents failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{"Commands (2)", "зеңбірек қос", "activate", "Snapshots (0)", "Actions: activate=1 unmatched=1"} {
		if !strings.Contains(text, want) {
			t.Errorf("Output should contain %q:\n%s", want, text)
		}
	}

	out.Reset()
	if err := a.PrintEvents(&out, dto.EventFilter{Source: model.SourceHUD}, true); err != nil {
		t.Fatalf("PrintEvents JSON failed: %v", err)
	}
	if !strings.Contains(out.String(), `"source": "hud"`) || strings.Contains(out.String(), "зеңбірек") {
		t.Errorf("Unexpected JSON output:\n%s", out.String())
	}
}

func TestClearEvents(t *testing.T) {
	a := newTestApp(t)
	a.events.RecordCommand(model.SourceWeb, "state=on", command.ActionRelayOn, "")

	var out bytes.Buffer
	if err := a.ClearEvents(&out); err != nil {
		t.Fatalf("ClearEvents failed: %v", err)
	}
	if !strings.Contains(out.String(), "Removed 0 snapshot(s)") {
		t.Errorf("Unexpected output %q", out.String())
	}

	data, _ := a.events.Events(dto.EventFilter{})
	if len(data.Commands) != 0 {
		t.Errorf("Commands should be cleared, got %d", len(data.Commands))
	}
}

func TestImportEvents(t *testing.T) {
	a := newTestApp(t)
	if err := os.MkdirAll(a.config.ImageDirectory, 0755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(a.config.ImageDirectory, "2024-05-01_10-02-03.450_webcam_mig-29.jpg"), []byte("jpeg"), 0644)

	var out bytes.Buffer
	if err := a.ImportEvents(&out); err != nil {
		t.Fatalf("ImportEvents failed: %v", err)
	}
	if strings.TrimSpace(out.String()) != "Imported 1 snapshot(s)" {
		t.Errorf("Unexpected output %q", out.String())
	}

	data, _ := a.events.Events(dto.EventFilter{Label: "mig-29"})
	if len(data.Snapshots) != 1 {
		t.Errorf("Expected the imported snapshot, got %d", len(data.Snapshots))
	}
}

// ========================================
// Telemetry Tests
// ========================================

func TestTelemetry(t *testing.T) {
	var tel telemetry
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	w := weather.Current{Temperature: 21.5}

	tel.Set(hud.State{Now: now, Flight: flight.Synthetic(0), Weather: &w, Relay: true})

	status, ok := tel.Snapshot().(hudStatus)
	if !ok {
		t.Fatalf("Unexpected snapshot type %T", tel.Snapshot())
	}
	if !status.Time.Equal(now) || !status.Relay || status.Weather.Temperature != 21.5 {
		t.Errorf("Unexpected status %+v", status)
	}
	if status.Flight.Altitude != 5000 {
		t.Errorf("Expected altitude 5000, got %v", status.Flight.Altitude)
	}
}

func TestBroadcaster_NilHub(t *testing.T) {
	if broadcaster(nil) != nil {
		t.Error("A disabled viewer must give the manager a nil interface")
	}
}

// ========================================
// HUD Listen Tests
// ========================================

type chunkResult struct {
	text  string
	final bool
	err   error
}

// fakeMicrophone hands out one chunk per call or fails with err.
type fakeMicrophone struct {
	err   error
	reads int
}

func (m *fakeMicrophone) ReadChunk(ctx context.Context) ([]int16, error) {
	m.reads++
	if m.err != nil {
		return nil, m.err
	}
	return []int16{0, 1, 2}, nil
}

func (m *fakeMicrophone) SampleRate() int { return 16000 }

// fakeStream returns scripted results, one per accepted chunk.
type fakeStream struct {
	results []chunkResult
	pos     int
}

func (s *fakeStream) Accept(pcm []int16) (string, bool, error) {
	r := s.results[s.pos]
	s.pos++
	return r.text, r.final, r.err
}

func (s *fakeStream) Close() {}

func newTestHUDLoop(a *App, mic speech.Source, stream speech.StreamRecognizer) (*hudLoop, *relay.DryRunRelay) {
	r := relay.NewDryRun(a.logger)
	return &hudLoop{
		microphone: mic,
		stream:     stream,
		relay:      r,
		switcher: &relaySwitch{
			relay:      r,
			vocabulary: command.NewStore(command.DefaultRelayVocabulary()),
			events:     a.events,
			notifier:   notify.New(false),
			logger:     a.logger,
		},
	}, r
}

func TestListenChunk_SwitchesRelay(t *testing.T) {
	a := newTestApp(t)
	stream := &fakeStream{results: []chunkResult{
		{text: "қо", final: false},
		{text: "", final: true},
		{text: "қос", final: true},
		{err: errors.New("decoder hiccup")},
		{text: "тоқта", final: false},
	}}
	l, r := newTestHUDLoop(a, &fakeMicrophone{}, stream)
	ctx := context.Background()

	a.listenChunk(ctx, l)
	if r.IsOn() {
		t.Fatal("A partial result must not switch the relay")
	}

	a.listenChunk(ctx, l)
	a.listenChunk(ctx, l)
	if !r.IsOn() {
		t.Fatal("A final relay phrase should switch the relay on")
	}

	a.listenChunk(ctx, l)
	a.listenChunk(ctx, l)
	if !r.IsOn() {
		t.Error("Recognizer errors and partial results must leave the relay alone")
	}

	data, err := a.events.Events(dto.EventFilter{Source: model.SourceHUD, Limit: 10})
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(data.Commands) != 1 || data.Commands[0].Text != "қос" || data.Commands[0].Action != command.ActionRelayOn {
		t.Errorf("Expected one relay_on record, got %+v", data.Commands)
	}
}

func TestListenChunk_ReadError(t *testing.T) {
	a := newTestApp(t)
	stream := &fakeStream{results: []chunkResult{{text: "қос", final: true}}}

	for _, readErr := range []error{errors.New("input overflow"), context.Canceled} {
		mic := &fakeMicrophone{err: readErr}
		l, r := newTestHUDLoop(a, mic, stream)

		a.listenChunk(context.Background(), l)

		if mic.reads != 1 {
			t.Errorf("Expected one read, got %d", mic.reads)
		}
		if stream.pos != 0 {
			t.Errorf("%v: nothing should reach the recognizer", readErr)
		}
		if r.IsOn() {
			t.Errorf("%v: relay should stay off", readErr)
		}
	}
}

func TestHUDLoop_StateStartsAtZero(t *testing.T) {
	a := newTestApp(t)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := &hudLoop{
		relay:   relay.NewDryRun(a.logger),
		source:  flight.NewSource(nil),
		weather: weather.NewRefresher(weather.NewClient(a.config), time.Minute, a.logger),
		sampler: sysinfo.NewSampler(time.Second, a.logger),
		start:   start,
	}

	s := l.state(start)
	if s.T != 0 || s.Flight != flight.Synthetic(0) {
		t.Errorf("HUD should start at t=0, got t=%v %+v", s.T, s.Flight)
	}
	if s.Weather != nil {
		t.Error("No weather before the first fetch")
	}

	s = l.state(start.Add(2500 * time.Millisecond))
	if s.T != 2.5 || !s.Now.Equal(start.Add(2500*time.Millisecond)) {
		t.Errorf("Expected t=2.5, got %v", s.T)
	}
}
