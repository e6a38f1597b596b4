package blgw

import (
	"net/http"

	"github.com/nerrad567/beolink-bridge/internal/backend"
	"github.com/nerrad567/beolink-bridge/internal/command"
	"github.com/nerrad567/beolink-bridge/internal/hip"
)

// handleExec executes a command addressed the same way as a TCP c
// line, with parameters in the query string. Unlike TCP, failures are
// reported: unknown resources get a 404 and backend errors a 500.
func (s *Server) handleExec(w http.ResponseWriter, r *http.Request) {
	typ := hip.ResourceType(param(r, "type"))
	name := param(r, "resource")
	cmd := param(r, "command")

	snap, err := s.builder.Snapshot(r.Context())
	if err != nil {
		s.logger.Error("snapshot for command failed", "error", err)
		writeInternalError(w, "backend enumeration failed")
		return
	}

	res := snap.Find(typ, name)
	if res == nil {
		writeNotFound(w, "unknown resource")
		return
	}
	if res.Zone != param(r, "zone") {
		writeNotFound(w, "unknown zone")
		return
	}

	params := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	var entity *backend.Entity
	if e, err := s.gw.Entity(r.Context(), res.EntityID); err == nil {
		entity = e
	}

	call := s.translator.Translate(command.Input{
		Resource: res,
		Command:  cmd,
		Params:   params,
		Entity:   entity,
	})
	if call == nil {
		// Untranslatable commands are acknowledged like on TCP.
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	if err := s.gw.CallService(r.Context(), *call); err != nil {
		s.telemetry.RecordCommand(string(res.Type), cmd, false)
		s.logger.Warn("backend call failed",
			"resource", res.Path(), "command", cmd, "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeBackend, err.Error())
		return
	}

	s.telemetry.RecordCommand(string(res.Type), cmd, true)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
