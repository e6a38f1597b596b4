package command

import (
	"reflect"
	"testing"

	"github.com/nerrad567/beolink-bridge/internal/backend"
	"github.com/nerrad567/beolink-bridge/internal/catalog"
	"github.com/nerrad567/beolink-bridge/internal/hip"
)

func resource(typ hip.ResourceType, entityID string) *catalog.Resource {
	return &catalog.Resource{
		Type:     typ,
		Name:     "Test",
		Zone:     "Living Room",
		EntityID: entityID,
	}
}

func TestTranslateShade(t *testing.T) {
	tr := NewTranslator()
	res := resource(hip.TypeShade, "cover.blinds")

	tests := []struct {
		name    string
		command string
		params  map[string]string
		want    *backend.Call
	}{
		{
			name:    "raise",
			command: "RAISE",
			want: &backend.Call{Domain: "cover", Service: "open_cover",
				Data: map[string]any{"entity_id": "cover.blinds"}},
		},
		{
			name:    "lower",
			command: "LOWER",
			want: &backend.Call{Domain: "cover", Service: "close_cover",
				Data: map[string]any{"entity_id": "cover.blinds"}},
		},
		{
			name:    "stop",
			command: "STOP",
			want: &backend.Call{Domain: "cover", Service: "stop_cover",
				Data: map[string]any{"entity_id": "cover.blinds"}},
		},
		{
			name:    "set position",
			command: "SET",
			params:  map[string]string{"LEVEL": "65"},
			want: &backend.Call{Domain: "cover", Service: "set_cover_position",
				Data: map[string]any{"entity_id": "cover.blinds", "position": 65}},
		},
		{
			name:    "set without level is a no-op",
			command: "SET",
			want:    nil,
		},
		{
			name:    "unknown command is a no-op",
			command: "WOBBLE",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tr.Translate(Input{Resource: res, Command: tt.command, Params: tt.params})
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Translate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTranslateDimmer(t *testing.T) {
	tr := NewTranslator()
	res := resource(hip.TypeDimmer, "light.lamp")

	got := tr.Translate(Input{Resource: res, Command: "SET",
		Params: map[string]string{"LEVEL": "42"}})
	want := &backend.Call{Domain: "light", Service: "turn_on",
		Data: map[string]any{"entity_id": "light.lamp", "brightness_pct": 42}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SET = %+v, want %+v", got, want)
	}

	got = tr.Translate(Input{Resource: res, Command: "SET COLOR",
		Params: map[string]string{"LEVEL": "hsv(120,50,80)"}})
	want = &backend.Call{Domain: "light", Service: "turn_on",
		Data: map[string]any{
			"entity_id":      "light.lamp",
			"hs_color":       []float64{120, 50},
			"brightness_pct": 80,
		}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SET COLOR = %+v, want %+v", got, want)
	}

	if got := tr.Translate(Input{Resource: res, Command: "SET COLOR",
		Params: map[string]string{"LEVEL": "rgb(1,2,3)"}}); got != nil {
		t.Errorf("bad colour payload should be a no-op, got %+v", got)
	}
}

func TestTranslateThermostat(t *testing.T) {
	tr := NewTranslator()
	res := resource(hip.TypeThermostat, "climate.hall")

	got := tr.Translate(Input{Resource: res, Command: "SET SETPOINT",
		Params: map[string]string{"VALUE": "21.5"}})
	want := &backend.Call{Domain: "climate", Service: "set_temperature",
		Data: map[string]any{"entity_id": "climate.hall", "temperature": 21.5}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SET SETPOINT = %+v, want %+v", got, want)
	}

	modes := map[string]string{
		"Off": "off", "Heat": "heat", "Cool": "cool", "Auto": "auto", "Eco": "heat",
	}
	for in, out := range modes {
		got := tr.Translate(Input{Resource: res, Command: "SET MODE",
			Params: map[string]string{"VALUE": in}})
		if got == nil || got.Data["hvac_mode"] != out {
			t.Errorf("SET MODE %s = %+v, want hvac_mode %s", in, got, out)
		}
	}

	if got := tr.Translate(Input{Resource: res, Command: "SET MODE",
		Params: map[string]string{"VALUE": "Turbo"}}); got != nil {
		t.Errorf("unknown mode should be a no-op, got %+v", got)
	}
}

func TestTranslateAlarm(t *testing.T) {
	tr := NewTranslator()
	res := resource(hip.TypeAlarm, "alarm_control_panel.house")

	got := tr.Translate(Input{Resource: res, Command: "DISARM",
		Params: map[string]string{"CODE": "1234"}})
	want := &backend.Call{Domain: "alarm_control_panel", Service: "alarm_disarm",
		Data: map[string]any{"entity_id": "alarm_control_panel.house", "code": "1234"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DISARM = %+v, want %+v", got, want)
	}

	got = tr.Translate(Input{Resource: res, Command: "ARM",
		Params: map[string]string{"MODE": "HOME"}})
	if got == nil || got.Service != "alarm_arm_home" {
		t.Errorf("ARM HOME = %+v, want alarm_arm_home", got)
	}

	got = tr.Translate(Input{Resource: res, Command: "ARM",
		Params: map[string]string{"MODE": "AWAY"}})
	if got == nil || got.Service != "alarm_arm_away" {
		t.Errorf("ARM AWAY = %+v, want alarm_arm_away", got)
	}

	if got := tr.Translate(Input{Resource: res, Command: "ARM",
		Params: map[string]string{"MODE": "VACATION"}}); got != nil {
		t.Errorf("unknown arm mode should be a no-op, got %+v", got)
	}
}

func TestTranslateAVRenderer(t *testing.T) {
	tr := NewTranslator()
	res := resource(hip.TypeAVRenderer, "media_player.tv")
	res.Sources = []backend.Source{
		{ID: "tv:1111.222@products.bang-olufsen.com", Name: "TV"},
		{ID: "netflix:1111.222@products.bang-olufsen.com", Name: "Netflix"},
	}

	t.Run("standby", func(t *testing.T) {
		got := tr.Translate(Input{Resource: res, Command: "Standby"})
		want := &backend.Call{Domain: "media_player", Service: "turn_off",
			Data: map[string]any{"entity_id": "media_player.tv"}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Standby = %+v, want %+v", got, want)
		}
	})

	t.Run("select source exact", func(t *testing.T) {
		got := tr.Translate(Input{Resource: res, Command: "Select source by id",
			Params: map[string]string{"sourceUniqueId": "netflix:1111.222@products.bang-olufsen.com"}})
		if got == nil || got.Service != "select_source" || got.Data["source"] != "Netflix" {
			t.Errorf("select source = %+v, want select_source Netflix", got)
		}
	})

	t.Run("select source fallback", func(t *testing.T) {
		got := tr.Translate(Input{Resource: res, Command: "Select source by id",
			Params: map[string]string{"sourceUniqueId": "TV:1111.222@other-host"}})
		if got == nil || got.Data["source"] != "TV" {
			t.Errorf("fallback select = %+v, want source TV", got)
		}
	})

	t.Run("select unknown source", func(t *testing.T) {
		if got := tr.Translate(Input{Resource: res, Command: "Select source by id",
			Params: map[string]string{"sourceUniqueId": "spotify:9.9@x"}}); got != nil {
			t.Errorf("unknown source should be a no-op, got %+v", got)
		}
	})

	t.Run("volume level", func(t *testing.T) {
		got := tr.Translate(Input{Resource: res, Command: "Volume level",
			Params: map[string]string{"Level": "35"}})
		want := &backend.Call{Domain: "media_player", Service: "volume_set",
			Data: map[string]any{"entity_id": "media_player.tv", "volume_level": 0.35}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Volume level = %+v, want %+v", got, want)
		}
	})

	t.Run("mute toggles from current state", func(t *testing.T) {
		unmuted := &backend.Entity{ID: "media_player.tv",
			Attributes: map[string]any{"is_volume_muted": false}}
		got := tr.Translate(Input{Resource: res, Command: "Volume adjust",
			Params: map[string]string{"Command": "Mute"}, Entity: unmuted})
		if got == nil || got.Data["is_volume_muted"] != true {
			t.Errorf("mute from unmuted = %+v, want is_volume_muted true", got)
		}

		muted := &backend.Entity{ID: "media_player.tv",
			Attributes: map[string]any{"is_volume_muted": true}}
		got = tr.Translate(Input{Resource: res, Command: "Volume adjust",
			Params: map[string]string{"Command": "Mute"}, Entity: muted})
		if got == nil || got.Data["is_volume_muted"] != false {
			t.Errorf("mute from muted = %+v, want is_volume_muted false", got)
		}
	})

	t.Run("remote key forwards to paired remote", func(t *testing.T) {
		got := tr.Translate(Input{Resource: res, Command: "Beo4 advanced command",
			Params: map[string]string{"Command": "GO"}})
		want := &backend.Call{Domain: "remote", Service: "send_command",
			Data: map[string]any{"entity_id": "remote.tv", "command": "select"}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Beo4 GO = %+v, want %+v", got, want)
		}
	})

	t.Run("unmapped remote key", func(t *testing.T) {
		if got := tr.Translate(Input{Resource: res, Command: "Send command",
			Params: map[string]string{"Command": "EJECT"}}); got != nil {
			t.Errorf("unmapped key should be a no-op, got %+v", got)
		}
	})
}

func TestTranslateMacro(t *testing.T) {
	tr := NewTranslator()
	res := resource(hip.TypeMacro, "scene.movie_night")

	got := tr.Translate(Input{Resource: res, Command: "FIRE"})
	want := &backend.Call{Domain: "scene", Service: "turn_on",
		Data: map[string]any{"entity_id": "scene.movie_night"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FIRE = %+v, want %+v", got, want)
	}
}

func TestTranslateNilResource(t *testing.T) {
	tr := NewTranslator()
	if got := tr.Translate(Input{Command: "RAISE"}); got != nil {
		t.Errorf("nil resource should be a no-op, got %+v", got)
	}
}
