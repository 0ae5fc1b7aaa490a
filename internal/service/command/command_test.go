package command

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"aisha/internal/config"
	"aisha/internal/logger"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"Айша, қос!", []string{"айша", "қос"}},
		{"  ЖҮЙЕНІ   іске қос ", []string{"жүйені", "іске", "қос"}},
		{"hello мир 123", []string{"мир"}},
		{"", nil},
		{"abc 42", nil},
	}

	for _, tt := range tests {
		result := Tokenize(tt.input)
		if len(result) == 0 && len(tt.expected) == 0 {
			continue
		}
		if !reflect.DeepEqual(result, tt.expected) {
			t.Errorf("Tokenize(%q) = %v, expected %v", tt.input, result, tt.expected)
		}
	}
}

func TestIsKazakhWord(t *testing.T) {
	tests := []struct {
		word     string
		expected bool
	}{
		{"қыран", true},
		{"Болат", true},
		{"aisha", false},
		{"123", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsKazakhWord(tt.word); got != tt.expected {
			t.Errorf("IsKazakhWord(%q) = %v, expected %v", tt.word, got, tt.expected)
		}
	}
}

func TestAssistantVocabulary_Match(t *testing.T) {
	vocab := DefaultAssistantVocabulary()

	tests := []struct {
		text   string
		action string
		ok     bool
	}{
		{"зеңбірек дайын", ActionActivate, true},
		{"Қос", ActionActivate, true},
		{"бәрін өшір", ActionShutdown, true},
		{"жұмысты аяқта", ActionShutdown, true},
		{"қосамын", "", false},
		{"сәлем", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		cmd, ok := vocab.Match(tt.text)
		if ok != tt.ok {
			t.Errorf("Match(%q) ok = %v, expected %v", tt.text, ok, tt.ok)
			continue
		}
		if ok && cmd.Action != tt.action {
			t.Errorf("Match(%q) action = %s, expected %s", tt.text, cmd.Action, tt.action)
		}
	}
}

func TestRelayVocabulary_ExactMatch(t *testing.T) {
	vocab := DefaultRelayVocabulary()

	tests := []struct {
		text   string
		action string
		ok     bool
	}{
		{"қос", ActionRelayOn, true},
		{"ад", ActionRelayOn, true},
		{" ат ", ActionRelayOn, true},
		{"тоқта", ActionRelayOff, true},
		{"тоқтар", ActionRelayOff, true},
		{"қос қос", "", false},
		{"шамды қос", "", false},
	}

	for _, tt := range tests {
		cmd, ok := vocab.Match(tt.text)
		if ok != tt.ok {
			t.Errorf("Match(%q) ok = %v, expected %v", tt.text, ok, tt.ok)
			continue
		}
		if ok && cmd.Action != tt.action {
			t.Errorf("Match(%q) action = %s, expected %s", tt.text, cmd.Action, tt.action)
		}
	}
}

func TestVocabulary_Validate(t *testing.T) {
	if err := DefaultAssistantVocabulary().Validate(); err != nil {
		t.Errorf("Default vocabulary should be valid: %v", err)
	}
	if err := (Vocabulary{}).Validate(); err == nil {
		t.Error("Empty vocabulary should be invalid")
	}

	bad := Vocabulary{Commands: []Command{{Action: "x", Words: []string{"a"}, Match: "fuzzy"}}}
	if err := bad.Validate(); err == nil {
		t.Error("Unknown match mode should be rejected")
	}
}

const testVocabularyYAML = `
commands:
  - action: relay_on
    match: exact
    words: [жарық]
    reply: Жарық қосылды
  - action: relay_off
    match: exact
    words: [қараңғы]
`

func TestLoadVocabulary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.yaml")
	if err := os.WriteFile(path, []byte(testVocabularyYAML), 0644); err != nil {
		t.Fatalf("Failed to write vocabulary: %v", err)
	}

	vocab, err := LoadVocabulary(path, DefaultRelayVocabulary())
	if err != nil {
		t.Fatalf("LoadVocabulary failed: %v", err)
	}

	cmd, ok := vocab.Match("жарық")
	if !ok || cmd.Action != ActionRelayOn {
		t.Errorf("Expected relay_on for custom word, got %+v (ok=%v)", cmd, ok)
	}
	if _, ok := vocab.Match("қос"); ok {
		t.Error("Default words should not leak into a loaded vocabulary")
	}
}

func TestLoadVocabulary_Fallbacks(t *testing.T) {
	fallback := DefaultRelayVocabulary()

	vocab, err := LoadVocabulary("", fallback)
	if err != nil || len(vocab.Commands) != len(fallback.Commands) {
		t.Errorf("Empty path should return fallback, got %+v, err %v", vocab, err)
	}

	vocab, err = LoadVocabulary(filepath.Join(t.TempDir(), "missing.yaml"), fallback)
	if err == nil {
		t.Error("Missing file should return an error")
	}
	if len(vocab.Commands) != len(fallback.Commands) {
		t.Error("Missing file should still return the fallback vocabulary")
	}
}

func TestStore_WatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "commands.yaml")
	if err := os.WriteFile(path, []byte("commands: []\n"), 0644); err != nil {
		t.Fatalf("Failed to write vocabulary: %v", err)
	}

	log := logger.NewLogger(&config.Config{LogDirectory: filepath.Join(dir, "logs")})
	defer log.Close()

	store := NewStore(DefaultRelayVocabulary())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.Watch(ctx, path, log) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(testVocabularyYAML), 0644); err != nil {
		t.Fatalf("Failed to rewrite vocabulary: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cmd, ok := store.Match("жарық"); ok && cmd.Action == ActionRelayOn {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	if _, ok := store.Match("жарық"); !ok {
		t.Error("Store should pick up the rewritten vocabulary")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned error: %v", err)
	}
}

func TestSampleVocabularies(t *testing.T) {
	tests := []struct {
		path     string
		fallback Vocabulary
		want     Vocabulary
	}{
		{"../../../configs/commands.yaml", Vocabulary{}, DefaultAssistantVocabulary()},
		{"../../../configs/relay.yaml", Vocabulary{}, DefaultRelayVocabulary()},
	}

	for _, tt := range tests {
		vocab, err := LoadVocabulary(tt.path, tt.fallback)
		if err != nil {
			t.Fatalf("LoadVocabulary(%s) failed: %v", tt.path, err)
		}
		if !reflect.DeepEqual(vocab, tt.want) {
			t.Errorf("%s should match the built-in vocabulary, got %+v", tt.path, vocab)
		}
	}
}
