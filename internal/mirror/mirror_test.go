package mirror

import (
	"context"
	"sync"
	"testing"

	"github.com/nerrad567/beolink-bridge/internal/backend"
	"github.com/nerrad567/beolink-bridge/internal/backend/backendtest"
	"github.com/nerrad567/beolink-bridge/internal/catalog"
	"github.com/nerrad567/beolink-bridge/internal/command"
	"github.com/nerrad567/beolink-bridge/internal/infrastructure/mqtt"
)

type publishedMessage struct {
	Topic    string
	Payload  string
	Retained bool
}

// fakeBroker records publishes and captures subscription handlers.
type fakeBroker struct {
	mu        sync.Mutex
	published []publishedMessage
	handlers  map[string]mqtt.MessageHandler
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{handlers: make(map[string]mqtt.MessageHandler)}
}

func (b *fakeBroker) Publish(topic string, payload []byte, _ byte, retained bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, publishedMessage{topic, string(payload), retained})
	return nil
}

func (b *fakeBroker) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = handler
	return nil
}

func (b *fakeBroker) Unsubscribe(topic string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, topic)
	return nil
}

func (b *fakeBroker) Topics() mqtt.Topics { return mqtt.Topics{Prefix: "beobridge"} }

func (b *fakeBroker) messages() []publishedMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]publishedMessage, len(b.published))
	copy(out, b.published)
	return out
}

func (b *fakeBroker) deliver(t *testing.T, topic string, payload string) {
	t.Helper()
	b.mu.Lock()
	handler := b.handlers[b.Topics().AllCommands()]
	b.mu.Unlock()
	if handler == nil {
		t.Fatal("no command handler subscribed")
	}
	if err := handler(topic, []byte(payload)); err != nil {
		t.Fatalf("handler(%q): %v", topic, err)
	}
}

func newTestMirror(t *testing.T) (*Mirror, *fakeBroker, *backendtest.Gateway) {
	t.Helper()
	gw := backendtest.New()
	gw.AddArea("a1", "Kitchen")
	gw.AddEntity(backend.Entity{
		ID: "light.ceiling", Domain: backend.DomainLight, Name: "Ceiling",
		AreaID: "a1", State: "on",
		Attributes: map[string]any{backend.AttrBrightness: 255.0},
	})

	broker := newFakeBroker()
	m, err := New(Deps{
		Broker:     broker,
		Gateway:    gw,
		Builder:    catalog.NewBuilder(gw, catalog.NewFilter("", nil), nil),
		Translator: command.NewTranslator(),
		QoS:        1,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return m, broker, gw
}

func TestStartPublishesInitialState(t *testing.T) {
	m, broker, _ := newTestMirror(t)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	msgs := broker.messages()
	if len(msgs) != 2 {
		t.Fatalf("published %d messages, want 2", len(msgs))
	}
	if msgs[0].Topic != "beobridge/system/firmware" || !msgs[0].Retained {
		t.Errorf("firmware message = %+v", msgs[0])
	}
	if msgs[1].Topic != "beobridge/state/Kitchen/DIMMER/Ceiling" {
		t.Errorf("state topic = %q", msgs[1].Topic)
	}
	if msgs[1].Payload != "LEVEL=100" || !msgs[1].Retained {
		t.Errorf("state message = %+v", msgs[1])
	}
}

func TestStateChangeRepublishes(t *testing.T) {
	m, broker, gw := newTestMirror(t)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	gw.Emit(backend.Entity{
		ID: "light.ceiling", Domain: backend.DomainLight, Name: "Ceiling",
		AreaID: "a1", State: "on",
		Attributes: map[string]any{backend.AttrBrightness: 51.0},
	})

	msgs := broker.messages()
	last := msgs[len(msgs)-1]
	if last.Topic != "beobridge/state/Kitchen/DIMMER/Ceiling" || last.Payload != "LEVEL=20" {
		t.Errorf("last message = %+v", last)
	}
}

func TestCommandExecution(t *testing.T) {
	m, broker, gw := newTestMirror(t)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	broker.deliver(t, "beobridge/command/Kitchen/DIMMER/Ceiling", "SET?LEVEL=40")

	calls := gw.Calls()
	if len(calls) != 1 {
		t.Fatalf("Calls() = %d, want 1", len(calls))
	}
	if calls[0].Domain != "light" || calls[0].Service != "turn_on" {
		t.Errorf("call = %s.%s, want light.turn_on", calls[0].Domain, calls[0].Service)
	}
	if calls[0].Data["brightness_pct"] != 40 {
		t.Errorf("brightness_pct = %v, want 40", calls[0].Data["brightness_pct"])
	}
}

func TestCommandUnknownResourceIgnored(t *testing.T) {
	m, broker, gw := newTestMirror(t)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	broker.deliver(t, "beobridge/command/Kitchen/DIMMER/Nope", "SET?LEVEL=40")

	if calls := gw.Calls(); len(calls) != 0 {
		t.Errorf("Calls() = %d, want 0", len(calls))
	}
}

func TestCloseReleasesSubscriptions(t *testing.T) {
	m, broker, gw := newTestMirror(t)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if n := gw.SubscriberCount("light.ceiling"); n != 0 {
		t.Errorf("SubscriberCount = %d, want 0", n)
	}
	broker.mu.Lock()
	defer broker.mu.Unlock()
	if len(broker.handlers) != 0 {
		t.Errorf("handlers = %d, want 0", len(broker.handlers))
	}
}
