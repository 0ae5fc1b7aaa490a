package command

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Actions understood by the assistant and the relay loop.
const (
	ActionActivate = "activate"
	ActionShutdown = "shutdown"
	ActionRelayOn  = "relay_on"
	ActionRelayOff = "relay_off"
)

// Match modes.
const (
	// MatchWord fires when any Kazakh token of the text equals one of the words.
	MatchWord = "word"
	// MatchExact fires when the whole recognized text equals one of the words.
	MatchExact = "exact"
)

// Command maps a set of spoken words to an action.
type Command struct {
	Action string   `yaml:"action"`
	Words  []string `yaml:"words"`
	Match  string   `yaml:"match"`
	Reply  string   `yaml:"reply"`
}

// Vocabulary is an ordered list of commands; the first match wins.
type Vocabulary struct {
	Commands []Command `yaml:"commands"`
}

// DefaultAssistantVocabulary returns the command words of the voice assistant.
func DefaultAssistantVocabulary() Vocabulary {
	return Vocabulary{Commands: []Command{
		{
			Action: ActionActivate,
			Words:  []string{"қос", "ос", "берік", "зеңбірек"},
			Match:  MatchWord,
			Reply:  "Қосамын, жүйелерді іске қосамын!",
		},
		{
			Action: ActionShutdown,
			Words:  []string{"өшір", "тоқтат", "аяқта"},
			Match:  MatchWord,
			Reply:  "Ассистент өшіріледі. Сау болыңыз, пилот!",
		},
	}}
}

// DefaultRelayVocabulary returns the phrases that switch the relay.
// The offline model often hears "қос" as "ад" or "ат", so those count too.
func DefaultRelayVocabulary() Vocabulary {
	return Vocabulary{Commands: []Command{
		{
			Action: ActionRelayOn,
			Words:  []string{"қос", "ад", "ат"},
			Match:  MatchExact,
			Reply:  "Реле ВКЛ",
		},
		{
			Action: ActionRelayOff,
			Words:  []string{"тоқта", "тоқтар"},
			Match:  MatchExact,
			Reply:  "Реле ВЫКЛ",
		},
	}}
}

// Match returns the first command the text triggers.
func (v Vocabulary) Match(text string) (Command, bool) {
	normalized := strings.TrimSpace(Normalize(text))
	if normalized == "" {
		return Command{}, false
	}

	var tokens []string
	tokensReady := false

	for _, cmd := range v.Commands {
		switch cmd.Match {
		case MatchExact:
			for _, w := range cmd.Words {
				if normalized == Normalize(w) {
					return cmd, true
				}
			}
		default:
			if !tokensReady {
				tokens = KazakhWords(normalized)
				tokensReady = true
			}
			for _, token := range tokens {
				for _, w := range cmd.Words {
					if token == Normalize(w) {
						return cmd, true
					}
				}
			}
		}
	}

	return Command{}, false
}

// Validate checks that every command has an action and at least one word.
func (v Vocabulary) Validate() error {
	if len(v.Commands) == 0 {
		return fmt.Errorf("vocabulary has no commands")
	}
	for i, cmd := range v.Commands {
		if cmd.Action == "" {
			return fmt.Errorf("command %d has no action", i)
		}
		if len(cmd.Words) == 0 {
			return fmt.Errorf("command %q has no words", cmd.Action)
		}
		if cmd.Match != "" && cmd.Match != MatchWord && cmd.Match != MatchExact {
			return fmt.Errorf("command %q has unknown match mode %q", cmd.Action, cmd.Match)
		}
	}
	return nil
}

// LoadVocabulary reads a YAML vocabulary file. An empty path returns the fallback.
func LoadVocabulary(path string, fallback Vocabulary) (Vocabulary, error) {
	if path == "" {
		return fallback, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fallback, fmt.Errorf("failed to read vocabulary %s: %w", path, err)
	}

	var vocab Vocabulary
	if err := yaml.Unmarshal(data, &vocab); err != nil {
		return fallback, fmt.Errorf("failed to parse vocabulary %s: %w", path, err)
	}
	if err := vocab.Validate(); err != nil {
		return fallback, fmt.Errorf("invalid vocabulary %s: %w", path, err)
	}

	return vocab, nil
}

// Store holds the active vocabulary and allows it to be swapped at runtime.
type Store struct {
	mu    sync.RWMutex
	vocab Vocabulary
}

// NewStore creates a Store with the given vocabulary.
func NewStore(vocab Vocabulary) *Store {
	return &Store{vocab: vocab}
}

// Get returns the current vocabulary.
func (s *Store) Get() Vocabulary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vocab
}

// Set replaces the current vocabulary.
func (s *Store) Set(vocab Vocabulary) {
	s.mu.Lock()
	s.vocab = vocab
	s.mu.Unlock()
}

// Match matches text against the current vocabulary.
func (s *Store) Match(text string) (Command, bool) {
	return s.Get().Match(text)
}
