package hass

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/beolink-bridge/internal/backend"
	"github.com/nerrad567/beolink-bridge/internal/infrastructure/config"
)

// ErrAuthFailed indicates the access token was rejected.
var ErrAuthFailed = errors.New("hass: authentication failed")

// Timeouts for the WebSocket conversation.
const (
	defaultDialTimeout    = 10 * time.Second
	defaultRequestTimeout = 10 * time.Second
	defaultWriteTimeout   = 5 * time.Second
)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Client talks to one Home Assistant instance over its WebSocket API.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Writes to the connection are serialised through writeMu.
type Client struct {
	cfg    config.BackendConfig
	users  []config.UserConfig
	logger Logger

	rest restClient

	conn    *websocket.Conn
	writeMu sync.Mutex

	// connected tracks current connection state.
	connected bool
	connMu    sync.RWMutex

	// nextID numbers outbound commands; responses correlate by ID.
	nextID int64
	idMu   sync.Mutex

	// pending holds response channels for in-flight requests.
	pending   map[int64]chan serverMessage
	pendingMu sync.Mutex

	// states caches the last known state of every entity, updated by
	// the event stream and refreshed in bulk on enumeration.
	states  map[string]stateObject
	stateMu sync.RWMutex

	// Registry caches, refreshed whenever Entities runs.
	entityReg map[string]entityEntry
	deviceReg map[string]deviceEntry
	regMu     sync.RWMutex

	// subs fans the single state_changed subscription out to local
	// subscribers keyed by entity ID.
	subs   map[string]map[int]func(backend.Event)
	subSeq int
	subMu  sync.Mutex

	cancel context.CancelFunc
	done   chan struct{}
}

// Connect dials the WebSocket endpoint, authenticates, subscribes to
// state changes, and primes the state cache. A background goroutine
// then keeps the connection alive with exponential backoff until ctx
// is cancelled or Close is called.
func Connect(ctx context.Context, cfg config.BackendConfig, users []config.UserConfig) (*Client, error) {
	c := &Client{
		cfg:     cfg,
		users:   users,
		logger:  noopLogger{},
		rest:    newRESTClient(cfg),
		pending: make(map[int64]chan serverMessage),
		states:  make(map[string]stateObject),
		subs:    make(map[string]map[int]func(backend.Event)),
		done:    make(chan struct{}),
	}

	if err := c.dial(ctx); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.run(runCtx)

	return c, nil
}

// SetLogger sets a logger for connection lifecycle reporting.
func (c *Client) SetLogger(logger Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// wsURL derives the WebSocket endpoint from the configured base URL.
func wsURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing backend url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported backend url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/websocket"
	return u.String(), nil
}

// dial establishes and authenticates one connection, subscribes to
// state_changed, and primes the caches.
func (c *Client) dial(ctx context.Context) error {
	endpoint, err := wsURL(c.cfg.URL)
	if err != nil {
		return err
	}

	dialCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", backend.ErrNotConnected, err)
	}

	if err := c.authenticate(conn); err != nil {
		conn.Close()
		return err
	}

	c.connMu.Lock()
	c.conn = conn
	c.connected = true
	c.connMu.Unlock()

	go c.readLoop(conn)

	if err := c.subscribeStateChanges(ctx); err != nil {
		c.teardown(conn)
		return err
	}
	if err := c.refreshStates(ctx); err != nil {
		c.teardown(conn)
		return err
	}
	if err := c.refreshRegistries(ctx); err != nil {
		c.teardown(conn)
		return err
	}

	c.logger.Info("backend connected", "url", c.cfg.URL)
	return nil
}

// authenticate runs the auth phase on a fresh connection. The server
// speaks first with auth_required.
func (c *Client) authenticate(conn *websocket.Conn) error {
	var hello serverMessage
	if err := conn.ReadJSON(&hello); err != nil {
		return fmt.Errorf("reading auth greeting: %w", err)
	}
	if hello.Type != msgTypeAuthRequired {
		return fmt.Errorf("unexpected greeting %q", hello.Type)
	}

	if err := conn.WriteJSON(authMessage{Type: msgTypeAuth, AccessToken: c.cfg.Token}); err != nil {
		return fmt.Errorf("sending auth: %w", err)
	}

	var reply serverMessage
	if err := conn.ReadJSON(&reply); err != nil {
		return fmt.Errorf("reading auth reply: %w", err)
	}
	switch reply.Type {
	case msgTypeAuthOK:
		return nil
	case msgTypeAuthInvalid:
		return ErrAuthFailed
	default:
		return fmt.Errorf("unexpected auth reply %q", reply.Type)
	}
}

// run keeps the connection alive. When the read loop dies it redials
// with exponential backoff between the configured bounds.
func (c *Client) run(ctx context.Context) {
	defer close(c.done)

	initial := time.Duration(c.cfg.ReconnectInitial) * time.Second
	if initial <= 0 {
		initial = time.Second
	}
	max := time.Duration(c.cfg.ReconnectMax) * time.Second
	if max < initial {
		max = initial
	}

	delay := initial
	for {
		// Wait for the current connection to drop.
		for c.IsConnected() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		if err := c.dial(ctx); err != nil {
			c.logger.Warn("backend reconnect failed", "error", err, "retry_in", delay.String())
			delay *= 2
			if delay > max {
				delay = max
			}
			continue
		}
		delay = initial
	}
}

// readLoop consumes one connection until it fails, dispatching results
// to waiting requests and events to subscribers.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var msg serverMessage
		if err := conn.ReadJSON(&msg); err != nil {
			c.logger.Warn("backend connection lost", "error", err)
			c.teardown(conn)
			return
		}

		switch msg.Type {
		case msgTypeResult:
			c.deliverResult(msg)
		case msgTypeEvent:
			c.handleEvent(msg.Event)
		}
	}
}

// teardown marks the connection dead and fails in-flight requests so
// callers don't block across a reconnect.
func (c *Client) teardown(conn *websocket.Conn) {
	c.connMu.Lock()
	if c.conn == conn {
		c.connected = false
	}
	c.connMu.Unlock()
	conn.Close()

	c.pendingMu.Lock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()
}

// deliverResult routes a result message to its waiting request.
func (c *Client) deliverResult(msg serverMessage) {
	c.pendingMu.Lock()
	ch, ok := c.pending[msg.ID]
	if ok {
		delete(c.pending, msg.ID)
	}
	c.pendingMu.Unlock()

	if ok {
		ch <- msg
		close(ch)
	}
}

// handleEvent updates the state cache and fans the change out to
// subscribers of the affected entity.
func (c *Client) handleEvent(raw json.RawMessage) {
	var ev stateChangedEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		c.logger.Warn("unparseable event", "error", err)
		return
	}
	if ev.EventType != eventStateChanged || ev.Data.NewState == nil {
		return
	}

	state := *ev.Data.NewState
	c.stateMu.Lock()
	c.states[state.EntityID] = state
	c.stateMu.Unlock()

	c.subMu.Lock()
	handlers := make([]func(backend.Event), 0, len(c.subs[state.EntityID]))
	for _, fn := range c.subs[state.EntityID] {
		handlers = append(handlers, fn)
	}
	c.subMu.Unlock()

	if len(handlers) == 0 {
		return
	}

	entity := c.resolveEntity(state)
	for _, fn := range handlers {
		fn(backend.Event{EntityID: state.EntityID, Entity: entity})
	}
}

// request sends one command and waits for its result envelope.
func (c *Client) request(ctx context.Context, build func(id int64) any) (serverMessage, error) {
	if !c.IsConnected() {
		return serverMessage{}, backend.ErrNotConnected
	}

	c.idMu.Lock()
	c.nextID++
	id := c.nextID
	c.idMu.Unlock()

	ch := make(chan serverMessage, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()

	if err := c.write(build(id)); err != nil {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
		return serverMessage{}, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	select {
	case <-reqCtx.Done():
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
		return serverMessage{}, reqCtx.Err()
	case msg, ok := <-ch:
		if !ok {
			return serverMessage{}, backend.ErrNotConnected
		}
		if !msg.Success {
			if msg.Error != nil {
				return serverMessage{}, fmt.Errorf("%w: %s", backend.ErrCallFailed, msg.Error.Message)
			}
			return serverMessage{}, backend.ErrCallFailed
		}
		return msg, nil
	}
}

// write serialises one outbound message onto the connection.
func (c *Client) write(v any) error {
	c.connMu.RLock()
	conn := c.conn
	connected := c.connected
	c.connMu.RUnlock()
	if !connected || conn == nil {
		return backend.ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout)) //nolint:errcheck // Best-effort deadline; write error caught below
	if err := conn.WriteJSON(v); err != nil {
		return fmt.Errorf("writing to backend: %w", err)
	}
	return nil
}

// subscribeStateChanges installs the single global event subscription.
func (c *Client) subscribeStateChanges(ctx context.Context) error {
	_, err := c.request(ctx, func(id int64) any {
		return subscribeMessage{ID: id, Type: msgTypeSubscribeEvents, EventType: eventStateChanged}
	})
	if err != nil {
		return fmt.Errorf("subscribing to state changes: %w", err)
	}
	return nil
}

// refreshStates replaces the state cache with a fresh enumeration.
func (c *Client) refreshStates(ctx context.Context) error {
	msg, err := c.request(ctx, func(id int64) any {
		return commandMessage{ID: id, Type: msgTypeGetStates}
	})
	if err != nil {
		return fmt.Errorf("fetching states: %w", err)
	}

	var states []stateObject
	if err := json.Unmarshal(msg.Result, &states); err != nil {
		return fmt.Errorf("decoding states: %w", err)
	}

	fresh := make(map[string]stateObject, len(states))
	for _, s := range states {
		fresh[s.EntityID] = s
	}

	c.stateMu.Lock()
	c.states = fresh
	c.stateMu.Unlock()
	return nil
}

// refreshRegistries replaces the entity and device registry caches.
func (c *Client) refreshRegistries(ctx context.Context) error {
	entMsg, err := c.request(ctx, func(id int64) any {
		return commandMessage{ID: id, Type: msgTypeEntityRegistry}
	})
	if err != nil {
		return fmt.Errorf("fetching entity registry: %w", err)
	}
	var entities []entityEntry
	if err := json.Unmarshal(entMsg.Result, &entities); err != nil {
		return fmt.Errorf("decoding entity registry: %w", err)
	}

	devMsg, err := c.request(ctx, func(id int64) any {
		return commandMessage{ID: id, Type: msgTypeDeviceRegistry}
	})
	if err != nil {
		return fmt.Errorf("fetching device registry: %w", err)
	}
	var devices []deviceEntry
	if err := json.Unmarshal(devMsg.Result, &devices); err != nil {
		return fmt.Errorf("decoding device registry: %w", err)
	}

	entityReg := make(map[string]entityEntry, len(entities))
	for _, e := range entities {
		entityReg[e.EntityID] = e
	}
	deviceReg := make(map[string]deviceEntry, len(devices))
	for _, d := range devices {
		deviceReg[d.ID] = d
	}

	c.regMu.Lock()
	c.entityReg = entityReg
	c.deviceReg = deviceReg
	c.regMu.Unlock()
	return nil
}

// resolveEntity merges a cached state with the registry caches.
func (c *Client) resolveEntity(state stateObject) backend.Entity {
	c.regMu.RLock()
	defer c.regMu.RUnlock()
	return buildEntity(state, c.entityReg, c.deviceReg)
}

// Entities returns every entity with registry data merged in. The
// state and registry caches are refreshed first so enumeration always
// reflects the live instance.
func (c *Client) Entities(ctx context.Context) ([]backend.Entity, error) {
	if err := c.refreshStates(ctx); err != nil {
		return nil, err
	}
	if err := c.refreshRegistries(ctx); err != nil {
		return nil, err
	}

	c.stateMu.RLock()
	states := make([]stateObject, 0, len(c.states))
	for _, s := range c.states {
		states = append(states, s)
	}
	c.stateMu.RUnlock()

	out := make([]backend.Entity, 0, len(states))
	for _, s := range states {
		out = append(out, c.resolveEntity(s))
	}
	return out, nil
}

// Entity returns the current state of one entity from the cache.
func (c *Client) Entity(ctx context.Context, id string) (*backend.Entity, error) {
	if !c.IsConnected() {
		return nil, backend.ErrNotConnected
	}

	c.stateMu.RLock()
	state, ok := c.states[id]
	c.stateMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", backend.ErrEntityNotFound, id)
	}

	entity := c.resolveEntity(state)
	return &entity, nil
}

// Areas returns the area registry.
func (c *Client) Areas(ctx context.Context) ([]backend.Area, error) {
	msg, err := c.request(ctx, func(id int64) any {
		return commandMessage{ID: id, Type: msgTypeAreaRegistry}
	})
	if err != nil {
		return nil, fmt.Errorf("fetching area registry: %w", err)
	}

	var entries []areaEntry
	if err := json.Unmarshal(msg.Result, &entries); err != nil {
		return nil, fmt.Errorf("decoding area registry: %w", err)
	}

	out := make([]backend.Area, 0, len(entries))
	for _, a := range entries {
		out = append(out, backend.Area{ID: a.AreaID, Name: a.Name})
	}
	return out, nil
}

// Subscribe registers a handler for one entity's state changes. The
// returned function removes the registration.
func (c *Client) Subscribe(ctx context.Context, entityID string, fn func(backend.Event)) (backend.Unsubscribe, error) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	c.subSeq++
	token := c.subSeq
	if c.subs[entityID] == nil {
		c.subs[entityID] = make(map[int]func(backend.Event))
	}
	c.subs[entityID][token] = fn

	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs[entityID], token)
		if len(c.subs[entityID]) == 0 {
			delete(c.subs, entityID)
		}
	}, nil
}

// SubscriberCount returns the number of active entity subscriptions.
func (c *Client) SubscriberCount() int {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	n := 0
	for _, m := range c.subs {
		n += len(m)
	}
	return n
}

// CallService invokes a backend service.
func (c *Client) CallService(ctx context.Context, call backend.Call) error {
	_, err := c.request(ctx, func(id int64) any {
		return callServiceMessage{
			ID:          id,
			Type:        msgTypeCallService,
			Domain:      call.Domain,
			Service:     call.Service,
			ServiceData: call.Data,
		}
	})
	return err
}

// ValidateCredentials checks a username and password against the
// bridge's configured users. Comparison is constant time so probing a
// valid username leaks nothing.
func (c *Client) ValidateCredentials(ctx context.Context, username, password string) (bool, error) {
	valid := false
	for _, u := range c.users {
		userOK := subtle.ConstantTimeCompare([]byte(u.Username), []byte(username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) == 1
		if userOK && passOK {
			valid = true
		}
	}
	return valid, nil
}

// CameraImage fetches a still frame through the REST camera proxy.
func (c *Client) CameraImage(ctx context.Context, entityID string) ([]byte, error) {
	return c.rest.cameraImage(ctx, entityID)
}

// Sources derives an AV renderer's selectable sources from its
// current attributes.
func (c *Client) Sources(ctx context.Context, entityID string) ([]backend.Source, error) {
	entity, err := c.Entity(ctx, entityID)
	if err != nil {
		return nil, err
	}
	return sourcesFromEntity(entity), nil
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected
}

// HealthCheck verifies the backend connection is alive.
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if !c.IsConnected() {
		return backend.ErrNotConnected
	}
	return nil
}

// Close stops the reconnect loop and drops the connection.
func (c *Client) Close() error {
	if c.cancel != nil {
		c.cancel()
	}

	c.connMu.Lock()
	conn := c.conn
	c.connected = false
	c.connMu.Unlock()

	if conn != nil {
		conn.Close()
	}

	select {
	case <-c.done:
	case <-time.After(time.Second):
	}
	return nil
}
