package hass

import (
	"context"
	"reflect"
	"testing"

	"github.com/nerrad567/beolink-bridge/internal/backend"
	"github.com/nerrad567/beolink-bridge/internal/infrastructure/config"
)

func TestWSURL(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		want    string
		wantErr bool
	}{
		{name: "http", base: "http://ha.local:8123", want: "ws://ha.local:8123/api/websocket"},
		{name: "https", base: "https://ha.example.com", want: "wss://ha.example.com/api/websocket"},
		{name: "trailing slash", base: "http://ha.local:8123/", want: "ws://ha.local:8123/api/websocket"},
		{name: "already ws", base: "ws://ha.local:8123", want: "ws://ha.local:8123/api/websocket"},
		{name: "bad scheme", base: "ftp://ha.local", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := wsURL(tt.base)
			if (err != nil) != tt.wantErr {
				t.Fatalf("wsURL(%q) error = %v, wantErr %v", tt.base, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("wsURL(%q) = %q, want %q", tt.base, got, tt.want)
			}
		})
	}
}

func TestBuildEntity(t *testing.T) {
	entities := map[string]entityEntry{
		"light.lamp": {EntityID: "light.lamp", AreaID: "living_room"},
		"cover.blinds": {
			EntityID: "cover.blinds",
			DeviceID: "dev-1",
		},
		"climate.hall": {EntityID: "climate.hall", Name: "Hall Thermostat"},
	}
	devices := map[string]deviceEntry{
		"dev-1": {ID: "dev-1", AreaID: "kitchen"},
	}

	t.Run("direct area assignment", func(t *testing.T) {
		e := buildEntity(stateObject{
			EntityID:   "light.lamp",
			State:      "on",
			Attributes: map[string]any{"friendly_name": "Lamp"},
		}, entities, devices)

		if e.AreaID != "living_room" {
			t.Errorf("AreaID = %q, want living_room", e.AreaID)
		}
		if e.Name != "Lamp" {
			t.Errorf("Name = %q, want Lamp", e.Name)
		}
		if e.Domain != "light" {
			t.Errorf("Domain = %q, want light", e.Domain)
		}
	})

	t.Run("falls back to device area", func(t *testing.T) {
		e := buildEntity(stateObject{EntityID: "cover.blinds", State: "open"}, entities, devices)
		if e.AreaID != "kitchen" {
			t.Errorf("AreaID = %q, want kitchen (device fallback)", e.AreaID)
		}
	})

	t.Run("registry name when no friendly name", func(t *testing.T) {
		e := buildEntity(stateObject{EntityID: "climate.hall", State: "heat"}, entities, devices)
		if e.Name != "Hall Thermostat" {
			t.Errorf("Name = %q, want Hall Thermostat", e.Name)
		}
	})

	t.Run("unregistered entity keeps object id name", func(t *testing.T) {
		e := buildEntity(stateObject{EntityID: "light.garage", State: "off"}, entities, devices)
		if e.AreaID != "" {
			t.Errorf("AreaID = %q, want empty", e.AreaID)
		}
		if e.Name != "garage" {
			t.Errorf("Name = %q, want garage", e.Name)
		}
	})
}

func TestSourcesFromEntity(t *testing.T) {
	t.Run("aligned id list", func(t *testing.T) {
		e := &backend.Entity{
			ID: "media_player.tv",
			Attributes: map[string]any{
				"source_list":    []any{"TV", "Netflix"},
				"source_id_list": []any{"tv:1.2@host", "netflix:1.2@host"},
			},
		}
		got := sourcesFromEntity(e)
		want := []backend.Source{
			{ID: "tv:1.2@host", Name: "TV"},
			{ID: "netflix:1.2@host", Name: "Netflix"},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("sourcesFromEntity() = %+v, want %+v", got, want)
		}
	})

	t.Run("slugged fallback without ids", func(t *testing.T) {
		e := &backend.Entity{
			ID: "media_player.tv",
			Attributes: map[string]any{
				"source_list": []any{"HDMI 1", "Bluetooth"},
			},
		}
		got := sourcesFromEntity(e)
		want := []backend.Source{
			{ID: "hdmi_1", Name: "HDMI 1"},
			{ID: "bluetooth", Name: "Bluetooth"},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("sourcesFromEntity() = %+v, want %+v", got, want)
		}
	})

	t.Run("no sources", func(t *testing.T) {
		e := &backend.Entity{ID: "media_player.tv", Attributes: map[string]any{}}
		if got := sourcesFromEntity(e); got != nil {
			t.Errorf("sourcesFromEntity() = %+v, want nil", got)
		}
	})
}

func TestValidateCredentials(t *testing.T) {
	c := &Client{
		users: []config.UserConfig{
			{Username: "installer", Password: "hunter2hunter2"},
			{Username: "owner", Password: "correct-horse"},
		},
	}
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{name: "first user", username: "installer", password: "hunter2hunter2", want: true},
		{name: "second user", username: "owner", password: "correct-horse", want: true},
		{name: "wrong password", username: "installer", password: "wrong", want: false},
		{name: "unknown user", username: "ghost", password: "hunter2hunter2", want: false},
		{name: "crossed credentials", username: "installer", password: "correct-horse", want: false},
		{name: "empty", username: "", password: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.ValidateCredentials(ctx, tt.username, tt.password)
			if err != nil {
				t.Fatalf("ValidateCredentials: %v", err)
			}
			if got != tt.want {
				t.Errorf("ValidateCredentials(%q, %q) = %v, want %v", tt.username, tt.password, got, tt.want)
			}
		})
	}
}

func TestSubscribeFanOut(t *testing.T) {
	c := &Client{
		states: make(map[string]stateObject),
		subs:   make(map[string]map[int]func(backend.Event)),
	}
	ctx := context.Background()

	var got []string
	unsub1, _ := c.Subscribe(ctx, "light.lamp", func(ev backend.Event) {
		got = append(got, "first:"+ev.Entity.State)
	})
	_, _ = c.Subscribe(ctx, "light.lamp", func(ev backend.Event) {
		got = append(got, "second:"+ev.Entity.State)
	})

	if c.SubscriberCount() != 2 {
		t.Fatalf("SubscriberCount() = %d, want 2", c.SubscriberCount())
	}

	c.handleEvent(mustEvent(t, "light.lamp", "on"))
	if len(got) != 2 {
		t.Fatalf("handlers fired %d times, want 2", len(got))
	}

	unsub1()
	if c.SubscriberCount() != 1 {
		t.Errorf("SubscriberCount() after unsubscribe = %d, want 1", c.SubscriberCount())
	}

	got = nil
	c.handleEvent(mustEvent(t, "light.lamp", "off"))
	if len(got) != 1 || got[0] != "second:off" {
		t.Errorf("after unsubscribe handlers = %v, want [second:off]", got)
	}

	// The cache reflects the last event even with no subscribers.
	c.handleEvent(mustEvent(t, "cover.blinds", "open"))
	c.stateMu.RLock()
	state, ok := c.states["cover.blinds"]
	c.stateMu.RUnlock()
	if !ok || state.State != "open" {
		t.Errorf("state cache = %+v, want cover.blinds open", state)
	}
}

func mustEvent(t *testing.T, entityID, state string) []byte {
	t.Helper()
	return []byte(`{
		"event_type": "state_changed",
		"data": {
			"entity_id": "` + entityID + `",
			"new_state": {"entity_id": "` + entityID + `", "state": "` + state + `", "attributes": {}}
		}
	}`)
}
