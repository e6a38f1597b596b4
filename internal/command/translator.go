package command

import (
	"strconv"
	"strings"

	"github.com/nerrad567/beolink-bridge/internal/backend"
	"github.com/nerrad567/beolink-bridge/internal/catalog"
	"github.com/nerrad567/beolink-bridge/internal/hip"
)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Input is one command against one resource. Entity carries the
// resource's current backend state for commands that depend on it
// (mute toggling); it may be nil.
type Input struct {
	Resource *catalog.Resource
	Command  string
	Params   map[string]string
	Entity   *backend.Entity
}

// Translator maps protocol commands to backend service calls.
type Translator struct {
	logger Logger
}

// NewTranslator creates a translator.
func NewTranslator() *Translator {
	return &Translator{logger: noopLogger{}}
}

// SetLogger sets a logger for no-op warnings.
func (t *Translator) SetLogger(logger Logger) {
	if logger != nil {
		t.logger = logger
	}
}

// Translate maps a command to a service call. A nil return is a
// no-op; the caller still acknowledges the command on the wire.
func (t *Translator) Translate(in Input) *backend.Call {
	if in.Resource == nil {
		return nil
	}

	switch in.Resource.Type {
	case hip.TypeShade:
		return t.shade(in)
	case hip.TypeDimmer:
		return t.dimmer(in)
	case hip.TypeThermostat:
		return t.thermostat(in)
	case hip.TypeAlarm:
		return t.alarm(in)
	case hip.TypeAVRenderer:
		return t.avRenderer(in)
	case hip.TypeMacro:
		return t.macro(in)
	default:
		return t.unsupported(in)
	}
}

// call builds a service invocation targeting the resource's entity.
func call(domain, service, entityID string, extra map[string]any) *backend.Call {
	data := map[string]any{"entity_id": entityID}
	for k, v := range extra {
		data[k] = v
	}
	return &backend.Call{Domain: domain, Service: service, Data: data}
}

func (t *Translator) unsupported(in Input) *backend.Call {
	t.logger.Warn("unsupported command, ignoring",
		"resource", in.Resource.Name,
		"type", string(in.Resource.Type),
		"command", in.Command,
	)
	return nil
}

func (t *Translator) shade(in Input) *backend.Call {
	id := in.Resource.EntityID
	switch in.Command {
	case "RAISE":
		return call(backend.DomainCover, "open_cover", id, nil)
	case "LOWER":
		return call(backend.DomainCover, "close_cover", id, nil)
	case "STOP":
		return call(backend.DomainCover, "stop_cover", id, nil)
	case "SET":
		level, ok := intParam(in.Params, "LEVEL")
		if !ok {
			t.logger.Warn("shade SET missing LEVEL parameter", "resource", in.Resource.Name)
			return nil
		}
		return call(backend.DomainCover, "set_cover_position", id, map[string]any{"position": level})
	default:
		return t.unsupported(in)
	}
}

func (t *Translator) dimmer(in Input) *backend.Call {
	id := in.Resource.EntityID
	switch in.Command {
	case "SET":
		level, ok := intParam(in.Params, "LEVEL")
		if !ok {
			t.logger.Warn("dimmer SET missing LEVEL parameter", "resource", in.Resource.Name)
			return nil
		}
		return call(backend.DomainLight, "turn_on", id, map[string]any{"brightness_pct": level})
	case "SET COLOR":
		raw := in.Params["LEVEL"]
		if raw == "" {
			raw = in.Params["VALUE"]
		}
		hue, sat, bri, ok := parseHSV(raw)
		if !ok {
			t.logger.Warn("dimmer SET COLOR with unparseable value", "resource", in.Resource.Name, "value", raw)
			return nil
		}
		return call(backend.DomainLight, "turn_on", id, map[string]any{
			"hs_color":       []float64{hue, sat},
			"brightness_pct": int(bri),
		})
	default:
		return t.unsupported(in)
	}
}

// hvacModes maps protocol thermostat modes to backend modes. Eco has
// no native equivalent and maps to heat.
var hvacModes = map[string]string{
	"Off":  "off",
	"Heat": "heat",
	"Cool": "cool",
	"Auto": "auto",
	"Eco":  "heat",
}

func (t *Translator) thermostat(in Input) *backend.Call {
	id := in.Resource.EntityID
	switch in.Command {
	case "SET SETPOINT":
		value, err := strconv.ParseFloat(in.Params["VALUE"], 64)
		if err != nil {
			t.logger.Warn("thermostat SET SETPOINT with unparseable value", "resource", in.Resource.Name, "value", in.Params["VALUE"])
			return nil
		}
		return call(backend.DomainClimate, "set_temperature", id, map[string]any{"temperature": value})
	case "SET MODE":
		mode, ok := hvacModes[in.Params["VALUE"]]
		if !ok {
			t.logger.Warn("thermostat SET MODE with unknown mode", "resource", in.Resource.Name, "mode", in.Params["VALUE"])
			return nil
		}
		return call(backend.DomainClimate, "set_hvac_mode", id, map[string]any{"hvac_mode": mode})
	default:
		return t.unsupported(in)
	}
}

func (t *Translator) alarm(in Input) *backend.Call {
	id := in.Resource.EntityID
	switch in.Command {
	case "DISARM":
		extra := map[string]any{}
		if code := in.Params["CODE"]; code != "" {
			extra["code"] = code
		}
		return call(backend.DomainAlarm, "alarm_disarm", id, extra)
	case "ARM":
		switch in.Params["MODE"] {
		case "HOME":
			return call(backend.DomainAlarm, "alarm_arm_home", id, nil)
		case "AWAY":
			return call(backend.DomainAlarm, "alarm_arm_away", id, nil)
		default:
			t.logger.Warn("alarm ARM with unknown mode", "resource", in.Resource.Name, "mode", in.Params["MODE"])
			return nil
		}
	default:
		return t.unsupported(in)
	}
}

func (t *Translator) avRenderer(in Input) *backend.Call {
	id := in.Resource.EntityID
	switch in.Command {
	case "Standby", "All standby":
		return call(backend.DomainMediaPlayer, "turn_off", id, nil)

	case "Select source by id":
		src, ok := resolveSource(in.Resource.Sources, in.Params["sourceUniqueId"])
		if !ok {
			t.logger.Warn("source id not advertised by renderer",
				"resource", in.Resource.Name, "source_id", in.Params["sourceUniqueId"])
			return nil
		}
		return call(backend.DomainMediaPlayer, "select_source", id, map[string]any{"source": src.Name})

	case "Volume level":
		level, ok := intParam(in.Params, "Level")
		if !ok {
			t.logger.Warn("volume level missing Level parameter", "resource", in.Resource.Name)
			return nil
		}
		return call(backend.DomainMediaPlayer, "volume_set", id, map[string]any{
			"volume_level": float64(level) / 100,
		})

	case "Volume adjust":
		if in.Params["Command"] != "Mute" {
			return t.unsupported(in)
		}
		muted := in.Entity != nil && in.Entity.Bool(backend.AttrMuted)
		return call(backend.DomainMediaPlayer, "volume_mute", id, map[string]any{
			"is_volume_muted": !muted,
		})

	case "Send command", "Beo4 advanced command", "Beo4 command":
		key, ok := beo4Keys[in.Params["Command"]]
		if !ok {
			t.logger.Warn("unmapped remote key", "resource", in.Resource.Name, "key", in.Params["Command"])
			return nil
		}
		return call(backend.DomainRemote, "send_command", remoteEntityID(id), map[string]any{
			"command": key,
		})

	default:
		return t.unsupported(in)
	}
}

func (t *Translator) macro(in Input) *backend.Call {
	if in.Command != "FIRE" {
		return t.unsupported(in)
	}
	return call(backend.DomainScene, "turn_on", in.Resource.EntityID, nil)
}

// resolveSource matches an advertised source by exact id first, then
// case-insensitively with any ".product" suffix stripped.
func resolveSource(sources []backend.Source, id string) (backend.Source, bool) {
	if id == "" {
		return backend.Source{}, false
	}
	for _, s := range sources {
		if s.ID == id {
			return s, true
		}
	}
	base := strings.ToLower(trimSuffix(id))
	for _, s := range sources {
		if strings.ToLower(trimSuffix(s.ID)) == base {
			return s, true
		}
	}
	return backend.Source{}, false
}

func trimSuffix(id string) string {
	if i := strings.IndexByte(id, '@'); i >= 0 {
		return id[:i]
	}
	return id
}

// remoteEntityID derives the paired remote-control entity from a
// media player entity by naming convention.
func remoteEntityID(mediaPlayerID string) string {
	if i := strings.IndexByte(mediaPlayerID, '.'); i >= 0 {
		return backend.DomainRemote + mediaPlayerID[i:]
	}
	return backend.DomainRemote + "." + mediaPlayerID
}

func intParam(params map[string]string, key string) (int, bool) {
	raw, ok := params[key]
	if !ok || raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseHSV parses the protocol's hsv(h,s,v) colour payload.
func parseHSV(raw string) (hue, sat, bri float64, ok bool) {
	if !strings.HasPrefix(raw, "hsv(") || !strings.HasSuffix(raw, ")") {
		return 0, 0, 0, false
	}
	parts := strings.Split(raw[4:len(raw)-1], ",")
	if len(parts) < 3 {
		return 0, 0, 0, false
	}
	var vals [3]float64
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return 0, 0, 0, false
		}
		vals[i] = v
	}
	return vals[0], vals[1], vals[2], true
}
