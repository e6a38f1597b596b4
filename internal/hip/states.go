package hip

import (
	"math"
	"strconv"
	"strings"

	"github.com/nerrad567/beolink-bridge/internal/backend"
)

// StateFragment renders the protocol state key/value fragment for an
// entity, pre-encoded for direct concatenation onto a state path.
// An empty return means the entity has nothing to report and no state
// line should be emitted.
func StateFragment(typ ResourceType, e *backend.Entity) string {
	switch typ {
	case TypeShade:
		return shadeFragment(e)
	case TypeDimmer:
		return dimmerFragment(e)
	case TypeThermostat:
		return thermostatFragment(e)
	case TypeAlarm:
		return alarmFragment(e)
	case TypeAVRenderer:
		return avFragment(e)
	default:
		return ""
	}
}

// fragment accumulates encoded key=value pairs joined by '&'.
type fragment struct {
	b strings.Builder
}

func (f *fragment) add(key, value string) {
	if f.b.Len() > 0 {
		f.b.WriteByte('&')
	}
	f.b.WriteString(Encode(key))
	f.b.WriteByte('=')
	f.b.WriteString(Encode(value))
}

func (f *fragment) String() string { return f.b.String() }

func shadeFragment(e *backend.Entity) string {
	pos, ok := e.Float(backend.AttrCurrentPosition)
	if !ok {
		return ""
	}
	var f fragment
	f.add("LEVEL", strconv.Itoa(int(pos)))
	return f.String()
}

func dimmerFragment(e *backend.Entity) string {
	var f fragment
	f.add("LEVEL", strconv.Itoa(brightnessPercent(e)))
	if hs, ok := e.Floats(backend.AttrHSColor); ok && len(hs) >= 2 {
		color := "hsv(" + formatNumber(hs[0]) + "," + formatNumber(hs[1]) + "," +
			strconv.Itoa(brightnessPercent(e)) + ")"
		f.add("COLOR", color)
	}
	return f.String()
}

// brightnessPercent converts the backend's 0-255 brightness scale to
// the protocol's 0-100.
func brightnessPercent(e *backend.Entity) int {
	raw, ok := e.Float(backend.AttrBrightness)
	if !ok || raw <= 0 {
		return 0
	}
	return int(raw / 255 * 100)
}

func thermostatFragment(e *backend.Entity) string {
	current, okCurrent := e.Float(backend.AttrCurrentTemp)
	target, okTarget := e.Float(backend.AttrTemperature)
	if !okCurrent && !okTarget {
		return ""
	}
	var f fragment
	f.add("TEMPERATURE", strconv.Itoa(int(math.Round(current))))
	f.add("SETPOINT", strconv.Itoa(int(math.Round(target))))
	// Mode reporting is fixed: the wire format has no way to express
	// the backend's real mode set.
	f.add("MODE", "Auto")
	f.add("FAN AUTO", "true")
	return f.String()
}

func alarmFragment(e *backend.Entity) string {
	var alarm, mode string
	switch {
	case e.State == "triggered":
		alarm, mode = "1", "ARM"
	case strings.HasPrefix(e.State, "armed"):
		alarm, mode = "0", "ARM"
	case e.State == "disarmed":
		alarm, mode = "0", "DISARM"
	default:
		return ""
	}
	var f fragment
	f.add("ALARM", alarm)
	f.add("READY", "1")
	f.add("MODE", mode)
	return f.String()
}

func avFragment(e *backend.Entity) string {
	var f fragment
	f.add("nowPlaying", e.Str(backend.AttrMediaTitle))
	f.add("nowPlayingDetails", "")
	f.add("online", "Yes")

	sourceName := e.Str(backend.AttrSource)
	f.add("sourceName", sourceName)
	f.add("sourceUniqueId", sourceUniqueID(e, sourceName))

	state := ""
	if e.State == "playing" {
		state = "Play"
	}
	f.add("state", state)

	volume := 0
	if v, ok := e.Float(backend.AttrVolumeLevel); ok {
		volume = int(math.Round(v * 100))
	}
	f.add("volume", strconv.Itoa(volume))
	return f.String()
}

// sourceUniqueID prefers the backend's advertised source id; when the
// entity only reports a display name the id is derived from it, with
// the product serial appended the way real renderers do.
func sourceUniqueID(e *backend.Entity, sourceName string) string {
	if id := e.Str("source_id"); id != "" {
		return id
	}
	if sourceName == "" {
		return ""
	}
	id := strings.ToLower(strings.ReplaceAll(sourceName, " ", ""))
	if sn := e.Str(backend.AttrSerialNumber); sn != "" {
		id += "." + sn
	}
	return id
}

// formatNumber renders a float without a trailing ".0" for whole
// values, matching what devices send.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
