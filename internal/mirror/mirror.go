package mirror

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nerrad567/beolink-bridge/internal/backend"
	"github.com/nerrad567/beolink-bridge/internal/catalog"
	"github.com/nerrad567/beolink-bridge/internal/command"
	"github.com/nerrad567/beolink-bridge/internal/hip"
	"github.com/nerrad567/beolink-bridge/internal/infrastructure/mqtt"
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

// Broker is the slice of the MQTT client the mirror needs. Satisfied
// by *mqtt.Client; tests substitute a recorder.
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	Topics() mqtt.Topics
}

// Deps holds the dependencies required by the mirror.
type Deps struct {
	Broker     Broker
	Gateway    backend.Gateway
	Builder    *catalog.Builder
	Translator *command.Translator
	QoS        byte

	// Logger may be nil; logging is disabled.
	Logger Logger
}

// Mirror publishes resource state to the broker and executes commands
// received from it.
type Mirror struct {
	broker     Broker
	gw         backend.Gateway
	builder    *catalog.Builder
	translator *command.Translator
	qos        byte
	logger     Logger

	mu       sync.Mutex
	registry map[string]*catalog.Resource
	subs     []backend.Unsubscribe
}

// New creates a mirror from its dependencies.
func New(deps Deps) (*Mirror, error) {
	if deps.Broker == nil {
		return nil, fmt.Errorf("mirror: broker is required")
	}
	if deps.Gateway == nil {
		return nil, fmt.Errorf("mirror: gateway is required")
	}
	if deps.Builder == nil {
		return nil, fmt.Errorf("mirror: catalog builder is required")
	}
	if deps.Translator == nil {
		return nil, fmt.Errorf("mirror: translator is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Mirror{
		broker:     deps.Broker,
		gw:         deps.Gateway,
		builder:    deps.Builder,
		translator: deps.Translator,
		qos:        deps.QoS,
		logger:     logger,
		registry:   make(map[string]*catalog.Resource),
	}, nil
}

// Start publishes the firmware identity, performs the initial state
// export, and subscribes to the command topics.
func (m *Mirror) Start(ctx context.Context) error {
	topics := m.broker.Topics()

	if err := m.broker.Publish(topics.Firmware(), []byte(hip.FirmwareStatusLine), m.qos, true); err != nil {
		return fmt.Errorf("publishing firmware line: %w", err)
	}

	if err := m.Rebuild(ctx); err != nil {
		return err
	}

	if err := m.broker.Subscribe(topics.AllCommands(), m.qos, m.handleCommand); err != nil {
		return fmt.Errorf("subscribing to command topics: %w", err)
	}

	return nil
}

// Rebuild re-enumerates the backend, replaces the registry and the
// state subscriptions, and republishes every current state fragment.
func (m *Mirror) Rebuild(ctx context.Context) error {
	snap, err := m.builder.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("building snapshot: %w", err)
	}

	registry := make(map[string]*catalog.Resource)
	var subscribable []*catalog.Resource
	for _, res := range snap.Resources() {
		if res.Type == hip.TypeCamera {
			continue
		}
		registry[registryKey(res.Type, res.Name)] = res
		if res.Subscribable() {
			subscribable = append(subscribable, res)
		}
	}

	var subs []backend.Unsubscribe
	for _, res := range subscribable {
		res := res
		unsub, err := m.gw.Subscribe(ctx, res.EntityID, func(ev backend.Event) {
			m.publishState(res, &ev.Entity)
		})
		if err != nil {
			m.logger.Warn("subscribe failed", "entity", res.EntityID, "error", err)
			continue
		}
		subs = append(subs, unsub)
	}

	m.mu.Lock()
	old := m.subs
	m.registry = registry
	m.subs = subs
	m.mu.Unlock()
	for _, unsub := range old {
		unsub()
	}

	for _, res := range subscribable {
		e, err := m.gw.Entity(ctx, res.EntityID)
		if err != nil {
			m.logger.Warn("state fetch failed", "entity", res.EntityID, "error", err)
			continue
		}
		m.publishState(res, e)
	}

	m.logger.Debug("mirror rebuilt", "resources", len(registry), "subscribed", len(subs))
	return nil
}

// publishState publishes one retained state fragment. Empty fragments
// are skipped; the previous retained value stays valid.
func (m *Mirror) publishState(res *catalog.Resource, e *backend.Entity) {
	frag := hip.StateFragment(res.Type, e)
	if frag == "" {
		return
	}
	topic := m.broker.Topics().ResourceState(
		hip.Encode(res.Zone), hip.Encode(string(res.Type)), hip.Encode(res.Name))
	if err := m.broker.Publish(topic, []byte(frag), m.qos, true); err != nil {
		m.logger.Warn("state publish failed", "topic", topic, "error", err)
	}
}

// handleCommand executes one command message. The topic addresses the
// resource, the payload carries the encoded action, for example
// "SET?LEVEL=40".
func (m *Mirror) handleCommand(topic string, payload []byte) error {
	parts := strings.Split(topic, "/")
	if len(parts) < 5 {
		return fmt.Errorf("malformed command topic %q", topic)
	}
	typ := hip.ResourceType(hip.Decode(parts[len(parts)-2]))
	name := hip.Decode(parts[len(parts)-1])

	m.mu.Lock()
	res := m.registry[registryKey(typ, name)]
	m.mu.Unlock()
	if res == nil {
		m.logger.Warn("command for unknown resource", "topic", topic)
		return nil
	}

	cmd, params := parseAction(string(payload))

	ctx := context.Background()
	var entity *backend.Entity
	if e, err := m.gw.Entity(ctx, res.EntityID); err == nil {
		entity = e
	}

	call := m.translator.Translate(command.Input{
		Resource: res,
		Command:  cmd,
		Params:   params,
		Entity:   entity,
	})
	if call == nil {
		return nil
	}

	if err := m.gw.CallService(ctx, *call); err != nil {
		m.logger.Warn("backend call failed", "resource", res.Path(), "command", cmd, "error", err)
	}
	return nil
}

// Close releases the command subscription and all state subscriptions.
func (m *Mirror) Close() error {
	if err := m.broker.Unsubscribe(m.broker.Topics().AllCommands()); err != nil {
		m.logger.Warn("unsubscribing command topics failed", "error", err)
	}

	m.mu.Lock()
	old := m.subs
	m.subs = nil
	m.mu.Unlock()
	for _, unsub := range old {
		unsub()
	}
	return nil
}

func parseAction(action string) (string, map[string]string) {
	cmdPart, query, found := strings.Cut(action, "?")
	cmd := hip.Decode(cmdPart)
	if !found || query == "" {
		return cmd, nil
	}
	params := make(map[string]string)
	for _, pair := range strings.Split(query, "&") {
		k, v, _ := strings.Cut(pair, "=")
		params[hip.Decode(k)] = hip.Decode(v)
	}
	return cmd, params
}

func registryKey(typ hip.ResourceType, name string) string {
	return string(typ) + "/" + name
}
