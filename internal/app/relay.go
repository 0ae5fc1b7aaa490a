package app

import (
	"aisha/internal/logger"
	"aisha/internal/model"
	"aisha/internal/service/command"
	"aisha/internal/service/notify"
	"aisha/internal/service/relay"
	"aisha/internal/service/storage"
)

// relaySwitch turns recognized phrases into relay switches.
type relaySwitch struct {
	relay      relay.Relay
	vocabulary *command.Store
	events     *storage.EventsService
	notifier   *notify.Notifier
	logger     *logger.Logger
}

// Handle switches the relay when text is one of the relay phrases and
// reports whether it matched. Every phrase is recorded.
func (s *relaySwitch) Handle(text string) bool {
	cmd, ok := s.vocabulary.Match(text)

	var err error
	switch {
	case !ok:
	case cmd.Action == command.ActionRelayOn:
		err = s.relay.On()
	case cmd.Action == command.ActionRelayOff:
		err = s.relay.Off()
	default:
		ok = false
	}

	if err != nil {
		s.logger.Error("Relay switch failed: %v", err)
		return false
	}

	if !ok {
		s.record(text, "", "")
		return false
	}

	s.logger.Info("%s", cmd.Reply)
	s.record(text, cmd.Action, cmd.Reply)
	s.notifier.Relay(s.relay.IsOn())
	return true
}

func (s *relaySwitch) record(text, action, reply string) {
	if s.events == nil {
		return
	}
	if err := s.events.RecordCommand(model.SourceHUD, text, action, reply); err != nil {
		s.logger.Warning("%v", err)
	}
}
