package backend

// Backend domains the bridge understands. Entities in any other domain
// are ignored during enumeration.
const (
	DomainLight       = "light"
	DomainCover       = "cover"
	DomainCamera      = "camera"
	DomainClimate     = "climate"
	DomainAlarm       = "alarm_control_panel"
	DomainMediaPlayer = "media_player"
	DomainScene       = "scene"
	DomainRemote      = "remote"
)

// Well-known attribute names.
const (
	AttrFriendlyName    = "friendly_name"
	AttrBrightness      = "brightness"
	AttrHSColor         = "hs_color"
	AttrCurrentPosition = "current_position"
	AttrSupportedFeats  = "supported_features"
	AttrCurrentTemp     = "current_temperature"
	AttrTemperature     = "temperature"
	AttrVolumeLevel     = "volume_level"
	AttrMuted           = "is_volume_muted"
	AttrSource          = "source"
	AttrSourceList      = "source_list"
	AttrSourceIDList    = "source_id_list"
	AttrMediaTitle      = "media_title"
	AttrSerialNumber    = "serial_number"
)

// Entity is a single backend entity with its current state.
type Entity struct {
	ID         string
	Domain     string
	Name       string
	AreaID     string
	DeviceID   string
	State      string
	Attributes map[string]any
}

// Float returns a numeric attribute. JSON numbers arrive as float64,
// but integer-typed values are accepted too.
func (e *Entity) Float(key string) (float64, bool) {
	switch v := e.Attributes[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// Str returns a string attribute, or "" if absent or not a string.
func (e *Entity) Str(key string) string {
	if v, ok := e.Attributes[key].(string); ok {
		return v
	}
	return ""
}

// Bool returns a boolean attribute, or false if absent.
func (e *Entity) Bool(key string) bool {
	v, ok := e.Attributes[key].(bool)
	return ok && v
}

// Floats returns a numeric list attribute (e.g. hs_color).
func (e *Entity) Floats(key string) ([]float64, bool) {
	raw, ok := e.Attributes[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]float64, 0, len(raw))
	for _, item := range raw {
		f, ok := item.(float64)
		if !ok {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}

// Strings returns a string list attribute (e.g. source_list).
func (e *Entity) Strings(key string) []string {
	raw, ok := e.Attributes[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Area is a backend area (a room, in B&O terms a zone).
type Area struct {
	ID   string
	Name string
}

// Event is a state change notification for a subscribed entity.
type Event struct {
	EntityID string
	Entity   Entity
}

// Call is a backend service invocation. Data always carries the target
// entity under "entity_id".
type Call struct {
	Domain  string
	Service string
	Data    map[string]any
}

// Source is a selectable input on an AV renderer.
type Source struct {
	ID   string
	Name string
}
