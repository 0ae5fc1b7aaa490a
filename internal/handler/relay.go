package handler

import (
	"net/http"

	"aisha/internal/logger"
	"aisha/internal/model"
	"aisha/internal/service/command"
	"aisha/internal/service/notify"
	"aisha/internal/service/relay"
	"aisha/internal/service/storage"
)

type relayState struct {
	On bool `json:"on"`
}

// RelayHandler reports the relay state on GET and switches it on POST with
// state=on|off. Switches are recorded like voice commands from the web source.
func RelayHandler(r relay.Relay, events *storage.EventsService, notifier *notify.Notifier, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, relayState{On: r.IsOn()})

		case http.MethodPost:
			var (
				err    error
				action string
			)
			switch req.FormValue("state") {
			case "on":
				action = command.ActionRelayOn
				err = r.On()
			case "off":
				action = command.ActionRelayOff
				err = r.Off()
			default:
				http.Error(w, "state must be on or off", http.StatusBadRequest)
				return
			}
			if err != nil {
				logger.Error("Relay switch failed: %v", err)
				http.Error(w, "Relay switch failed", http.StatusInternalServerError)
				return
			}

			on := r.IsOn()
			logger.Info("Relay switched %s from %s", req.FormValue("state"), req.RemoteAddr)
			if notifier != nil {
				notifier.Relay(on)
			}
			if events != nil {
				if err := events.RecordCommand(model.SourceWeb, "state="+req.FormValue("state"), action, ""); err != nil {
					logger.Warning("%v", err)
				}
			}
			writeJSON(w, http.StatusOK, relayState{On: on})

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
