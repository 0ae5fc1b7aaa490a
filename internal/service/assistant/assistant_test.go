package assistant

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aisha/internal/config"
	"aisha/internal/logger"
	"aisha/internal/service/command"
	"aisha/internal/service/notify"
	"aisha/internal/service/speech"
)

// step is one scripted utterance: either the listener fails with listenErr,
// or the recognizer returns text/err.
type step struct {
	listenErr error
	text      string
	err       error
}

// fakeEars plays a script through both the listener and the recognizer.
// When the script runs out, Listen returns io.EOF.
type fakeEars struct {
	script   []step
	pos      int
	current  step
	adjusted bool
}

func (f *fakeEars) AdjustForAmbientNoise(ctx context.Context, d time.Duration) error {
	f.adjusted = true
	return nil
}

func (f *fakeEars) Listen(ctx context.Context, timeout, phraseLimit time.Duration) ([]int16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.pos >= len(f.script) {
		return nil, io.EOF
	}
	f.current = f.script[f.pos]
	f.pos++
	if f.current.listenErr != nil {
		return nil, f.current.listenErr
	}
	return []int16{1}, nil
}

func (f *fakeEars) Recognize(ctx context.Context, pcm []int16, lang string) (string, error) {
	return f.current.text, f.current.err
}

func (f *fakeEars) Name() string { return "fake" }
func (f *fakeEars) Close()       {}

type recorded struct {
	source, text, action, reply string
}

type fakeRecorder struct {
	calls []recorded
}

func (r *fakeRecorder) RecordCommand(source, text, action, reply string) error {
	r.calls = append(r.calls, recorded{source, text, action, reply})
	return nil
}

func newTestAssistant(t *testing.T, triggerWord string, script ...step) (*Assistant, *fakeEars, *fakeRecorder, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{
		LogDirectory: filepath.Join(t.TempDir(), "logs"),
		TriggerWord:  triggerWord,
		Language:     "kk",
	}
	l := logger.NewLogger(cfg)
	t.Cleanup(func() { l.Close() })

	ears := &fakeEars{script: script}
	rec := &fakeRecorder{}
	a := New(cfg, ears, ears, command.NewStore(command.DefaultAssistantVocabulary()), notify.New(false), rec, l)

	var out bytes.Buffer
	a.out = &out
	a.pause = 0
	return a, ears, rec, &out
}

func said(text string) step { return step{text: text} }

// ========================================
// ChooseName Tests
// ========================================

func TestChooseName_RetriesUntilKazakhWord(t *testing.T) {
	a, _, _, out := newTestAssistant(t, "",
		step{listenErr: speech.ErrWaitTimeout},
		step{err: speech.ErrUnknownValue},
		said("hello 123"),
		said("Айша келді"),
	)

	name, err := a.ChooseName(context.Background())
	if err != nil {
		t.Fatalf("ChooseName failed: %v", err)
	}
	if name != "айша" {
		t.Errorf("Expected name айша, got %q", name)
	}

	text := out.String()
	if strings.Count(text, msgRepeatName) != 2 {
		t.Errorf("Expected two retry prompts, got:\n%s", text)
	}
	if !strings.Contains(text, msgSayKazakhName) {
		t.Errorf("Expected a Kazakh-name prompt, got:\n%s", text)
	}
	if !strings.Contains(text, fmt.Sprintf(msgNameChosen, "айша")) {
		t.Errorf("Expected the chosen name to be announced, got:\n%s", text)
	}
}

func TestChooseName_FatalError(t *testing.T) {
	a, _, _, _ := newTestAssistant(t, "")

	if _, err := a.ChooseName(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}

// ========================================
// WaitForTrigger Tests
// ========================================

func TestWaitForTrigger(t *testing.T) {
	a, ears, _, out := newTestAssistant(t, "",
		said("қайырлы таң"),
		step{err: fmt.Errorf("%w: 503", speech.ErrRequest)},
		said("Ей АЙША, тыңда"),
		said("never reached"),
	)

	if err := a.WaitForTrigger(context.Background(), "айша"); err != nil {
		t.Fatalf("WaitForTrigger failed: %v", err)
	}
	if ears.pos != 3 {
		t.Errorf("Expected to stop at the third phrase, consumed %d", ears.pos)
	}
	if !strings.Contains(out.String(), msgGreeting) {
		t.Errorf("Expected greeting, got:\n%s", out.String())
	}
}

func TestWaitForTrigger_Cancelled(t *testing.T) {
	a, _, _, _ := newTestAssistant(t, "", said("anything"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := a.WaitForTrigger(ctx, "айша"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// ========================================
// ProcessCommand Tests
// ========================================

func TestProcessCommand(t *testing.T) {
	tests := []struct {
		name   string
		step   step
		more   bool
		output string
		action string
	}{
		{"activate", said("зеңбірек қос"), true, "Қосамын, жүйелерді іске қосамын!", command.ActionActivate},
		{"shutdown", said("бәрін өшір"), false, "Ассистент өшіріледі. Сау болыңыз, пилот!", command.ActionShutdown},
		{"unknown", said("ауа райы қандай"), true, msgUnknownCommand, ""},
		{"not understood", step{err: speech.ErrUnknownValue}, true, msgNotUnderstood, "-"},
		{"service error", step{err: fmt.Errorf("%w: timeout", speech.ErrRequest)}, true, "Қызмет қатесі: ", "-"},
		{"silence", step{listenErr: speech.ErrWaitTimeout}, true, msgSilence, "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _, rec, out := newTestAssistant(t, "", tt.step)

			more, err := a.ProcessCommand(context.Background())
			if err != nil {
				t.Fatalf("ProcessCommand failed: %v", err)
			}
			if more != tt.more {
				t.Errorf("Expected continue=%v, got %v", tt.more, more)
			}
			if !strings.Contains(out.String(), tt.output) {
				t.Errorf("Expected output %q, got %q", tt.output, out.String())
			}

			// "-" means nothing was recognized, so nothing is recorded.
			if tt.action == "-" {
				if len(rec.calls) != 0 {
					t.Errorf("Expected no records, got %+v", rec.calls)
				}
				return
			}
			if len(rec.calls) != 1 || rec.calls[0].action != tt.action || rec.calls[0].source != "assist" {
				t.Errorf("Expected one %q record, got %+v", tt.action, rec.calls)
			}
		})
	}
}

func TestProcessCommand_FatalError(t *testing.T) {
	a, _, _, _ := newTestAssistant(t, "")

	more, err := a.ProcessCommand(context.Background())
	if !errors.Is(err, io.EOF) || more {
		t.Errorf("Expected io.EOF and stop, got %v, %v", more, err)
	}
}

// ========================================
// Run Tests
// ========================================

func TestRun_UntilShutdown(t *testing.T) {
	a, ears, rec, out := newTestAssistant(t, "",
		said("Айша"),          // name
		said("айша"),          // trigger
		said("қос"),           // activate
		said("айша"),          // trigger
		said("бірдеңе айтам"), // unknown
		said("айша"),          // trigger
		said("тоқтат"),        // shutdown
		said("айша"),
	)

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !ears.adjusted {
		t.Error("Run should adjust for ambient noise first")
	}
	if ears.pos != 7 {
		t.Errorf("Run should stop right after the shutdown command, consumed %d", ears.pos)
	}
	if len(rec.calls) != 3 {
		t.Errorf("Expected 3 recorded commands, got %+v", rec.calls)
	}
	if strings.Count(out.String(), msgGreeting) != 3 {
		t.Errorf("Expected 3 greetings, got:\n%s", out.String())
	}
}

func TestRun_PresetTriggerWord(t *testing.T) {
	a, ears, _, _ := newTestAssistant(t, "қыран",
		said("қыран"),
		said("аяқта"),
	)

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if ears.pos != 2 {
		t.Errorf("Preset name should skip the naming step, consumed %d", ears.pos)
	}
}

func TestRun_Cancelled(t *testing.T) {
	a, _, _, _ := newTestAssistant(t, "айша")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := a.Run(ctx); err != nil {
		t.Errorf("Cancelled run should return nil, got %v", err)
	}
}

func TestRun_PresetTriggerWord_MixedCase(t *testing.T) {
	a, ears, _, out := newTestAssistant(t, " Айша ",
		said("Айша"),
		said("тоқтат"),
		said("never reached"),
	)

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if ears.pos != 2 {
		t.Errorf("Mixed-case preset should match the first utterance, consumed %d", ears.pos)
	}
	if !strings.Contains(out.String(), fmt.Sprintf(msgNameChosen, "айша")) {
		t.Errorf("Expected the normalized name to be announced, got:\n%s", out.String())
	}
}
