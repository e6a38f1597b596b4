package hass

import "encoding/json"

// Outbound message types.
const (
	msgTypeAuth            = "auth"
	msgTypeGetStates       = "get_states"
	msgTypeSubscribeEvents = "subscribe_events"
	msgTypeCallService     = "call_service"
	msgTypeEntityRegistry  = "config/entity_registry/list"
	msgTypeDeviceRegistry  = "config/device_registry/list"
	msgTypeAreaRegistry    = "config/area_registry/list"
)

// Inbound message types.
const (
	msgTypeAuthRequired = "auth_required"
	msgTypeAuthOK       = "auth_ok"
	msgTypeAuthInvalid  = "auth_invalid"
	msgTypeResult       = "result"
	msgTypeEvent        = "event"
)

const eventStateChanged = "state_changed"

// authMessage authenticates the connection. It has no ID; auth happens
// before the command phase.
type authMessage struct {
	Type        string `json:"type"`
	AccessToken string `json:"access_token"`
}

// commandMessage is a bare request carrying only an ID, used for
// enumeration commands like get_states and the registry lists.
type commandMessage struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// subscribeMessage subscribes to a server event stream.
type subscribeMessage struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	EventType string `json:"event_type"`
}

// callServiceMessage invokes a service.
type callServiceMessage struct {
	ID          int64          `json:"id"`
	Type        string         `json:"type"`
	Domain      string         `json:"domain"`
	Service     string         `json:"service"`
	ServiceData map[string]any `json:"service_data,omitempty"`
}

// serverMessage is the envelope for everything the server sends after
// authentication.
type serverMessage struct {
	ID      int64           `json:"id"`
	Type    string          `json:"type"`
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Event   json.RawMessage `json:"event"`
	Error   *serverError    `json:"error"`
}

type serverError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// stateObject is one entity state as reported by get_states and
// state_changed events.
type stateObject struct {
	EntityID   string         `json:"entity_id"`
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

// stateChangedEvent is the payload of a state_changed event.
type stateChangedEvent struct {
	EventType string `json:"event_type"`
	Data      struct {
		EntityID string       `json:"entity_id"`
		NewState *stateObject `json:"new_state"`
	} `json:"data"`
}

// entityEntry is one row of the entity registry.
type entityEntry struct {
	EntityID string `json:"entity_id"`
	AreaID   string `json:"area_id"`
	DeviceID string `json:"device_id"`
	Name     string `json:"name"`
}

// deviceEntry is one row of the device registry.
type deviceEntry struct {
	ID     string `json:"id"`
	AreaID string `json:"area_id"`
}

// areaEntry is one row of the area registry.
type areaEntry struct {
	AreaID string `json:"area_id"`
	Name   string `json:"name"`
}
