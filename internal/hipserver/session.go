package hipserver

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"

	"github.com/nerrad567/beolink-bridge/internal/backend"
	"github.com/nerrad567/beolink-bridge/internal/catalog"
	"github.com/nerrad567/beolink-bridge/internal/command"
	"github.com/nerrad567/beolink-bridge/internal/hip"
)

// Session states. Authentication is line-based: the username arrives
// as the first line, the password as the second.
type sessionState int

const (
	awaitingUser sessionState = iota
	awaitingPassword
	authenticated
)

const defaultQueueSize = 256

// session is one authenticated-or-authenticating TCP peer. All output
// flows through the bounded out channel so a slow peer cannot block
// backend subscription callbacks; overflow disconnects the session.
type session struct {
	srv  *Server
	conn net.Conn

	out    chan []byte
	closed chan struct{}
	once   sync.Once

	state    sessionState
	username string

	// registry maps type/name and type/entityID keys to the resources
	// announced by the last enumeration. Only registered resources
	// accept commands.
	registry map[string]*catalog.Resource

	pub publisher
}

func (s *Server) newSession(conn net.Conn) *session {
	size := s.cfg.QueueSize
	if size < 1 {
		size = defaultQueueSize
	}
	return &session{
		srv:      s,
		conn:     conn,
		out:      make(chan []byte, size),
		closed:   make(chan struct{}),
		registry: make(map[string]*catalog.Resource),
	}
}

func (se *session) run(ctx context.Context) {
	defer se.disconnect()

	se.srv.telemetry.RecordSession("connect")
	se.srv.logger.Debug("session opened", "remote", se.conn.RemoteAddr().String())

	go se.writeLoop()

	se.enqueue([]byte("login: "))

	reader := bufio.NewReader(se.conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if line == "" {
				return
			}
			// Process a final unterminated line before closing.
		}
		line = strings.TrimRight(line, "\r\n")

		switch se.state {
		case awaitingUser:
			se.username = line
			se.state = awaitingPassword
			se.enqueue([]byte("\r\npassword: "))
		case awaitingPassword:
			se.authenticate(ctx, line)
		case authenticated:
			if line != "" {
				se.handleLine(ctx, line)
			}
		}

		if err != nil {
			return
		}
	}
}

// authenticate checks the password line. Failure is silent: the
// session stays in the password state without any reject frame, the
// same stall a real gateway presents.
func (se *session) authenticate(ctx context.Context, password string) {
	ok, err := se.srv.gw.ValidateCredentials(ctx, se.username, password)
	if err != nil {
		se.srv.logger.Warn("credential check failed", "user", se.username, "error", err)
		se.srv.telemetry.RecordSession("login_failed")
		return
	}
	if !ok {
		se.srv.logger.Warn("login rejected", "user", se.username)
		se.srv.telemetry.RecordSession("login_failed")
		return
	}

	se.state = authenticated
	se.enqueue([]byte("\r\n"))
	se.srv.telemetry.RecordSession("login")
	se.srv.logger.Info("session authenticated", "user", se.username)
}

func (se *session) handleLine(ctx context.Context, line string) {
	switch line {
	case "f":
		se.sendOK("f")
	case "f */*/*/*":
		se.sendOK("f */*/*/*")
	case "q", "q */*/*/*":
		se.handleQuery(ctx)
	case "q */*/SYSTEM/*":
		se.sendOK("q */*/SYSTEM/*")
		se.sendResponse(hip.FirmwareStatusLine)
	default:
		if strings.HasPrefix(line, "c ") {
			se.handleCommand(ctx, line)
			return
		}
		se.srv.logger.Warn("unrecognised protocol line", "line", line)
	}
}

// handleQuery rebuilds the catalog, replaces the session's command
// registry and subscriptions, then streams the enumeration: the ack,
// one state line per subscribable resource, one response line per
// macro path. Re-issuing q never accumulates duplicate subscriptions.
func (se *session) handleQuery(ctx context.Context) {
	snap, err := se.srv.builder.Snapshot(ctx)
	if err != nil {
		se.srv.logger.Warn("enumeration failed", "error", err)
		se.sendOK("q */*/*/*")
		return
	}

	se.registry = make(map[string]*catalog.Resource)
	var subscribable []*catalog.Resource
	for _, res := range snap.Resources() {
		if res.Type == hip.TypeCamera {
			continue
		}
		se.registry[registryKey(res.Type, res.Name)] = res
		se.registry[registryKey(res.Type, res.EntityID)] = res
		if res.Subscribable() {
			subscribable = append(subscribable, res)
		}
	}

	var subs []backend.Unsubscribe
	for _, res := range subscribable {
		res := res
		unsub, err := se.srv.gw.Subscribe(ctx, res.EntityID, func(ev backend.Event) {
			frag := hip.StateFragment(res.Type, &ev.Entity)
			if frag == "" {
				return
			}
			se.sendState(res, frag)
			se.srv.telemetry.RecordStateLine(string(res.Type))
		})
		if err != nil {
			se.srv.logger.Warn("subscribe failed", "entity", res.EntityID, "error", err)
			continue
		}
		subs = append(subs, unsub)
	}
	se.pub.Replace(subs)

	se.sendOK("q */*/*/*")

	for _, res := range subscribable {
		e, err := se.srv.gw.Entity(ctx, res.EntityID)
		if err != nil {
			se.srv.logger.Warn("state fetch failed", "entity", res.EntityID, "error", err)
			continue
		}
		frag := hip.StateFragment(res.Type, e)
		if frag == "" {
			continue
		}
		se.sendState(res, frag)
	}

	for _, macro := range snap.Macros {
		se.sendResponse(macro.Path())
	}

	se.srv.logger.Debug("enumeration sent",
		"resources", len(snap.Resources()), "macros", len(snap.Macros))
}

// handleCommand dispatches a c line. Registered resources are always
// acked regardless of translation outcome; failures are logged, never
// surfaced on the wire. Unregistered names get no reply at all.
func (se *session) handleCommand(ctx context.Context, line string) {
	if line == "c Main/global/SYSTEM/BLI/CHECK%20FIRMWARE" {
		se.sendOK("c Main/global/SYSTEM/BLI/CHECK FIRMWARE")
		se.sendResponse(hip.FirmwareStatusLine)
		return
	}
	if strings.HasPrefix(line, "c Main/global/SYSTEM/") {
		// Other system commands (notification tokens etc.) are
		// acknowledged and ignored.
		se.sendOK("c ")
		return
	}

	parts := strings.SplitN(strings.TrimPrefix(line, "c "), "/", 5)
	if len(parts) < 5 {
		se.srv.logger.Warn("malformed command path", "line", line)
		return
	}

	typ := hip.ResourceType(hip.Decode(parts[2]))
	name := hip.Decode(parts[3])
	res := se.registry[registryKey(typ, name)]
	if res == nil {
		se.srv.logger.Warn("command for unregistered resource", "type", string(typ), "name", name)
		return
	}

	cmd, params := parseAction(parts[4])

	var entity *backend.Entity
	if e, err := se.srv.gw.Entity(ctx, res.EntityID); err == nil {
		entity = e
	} else {
		se.srv.logger.Debug("entity fetch failed for command", "entity", res.EntityID, "error", err)
	}

	call := se.srv.translator.Translate(command.Input{
		Resource: res,
		Command:  cmd,
		Params:   params,
		Entity:   entity,
	})

	se.sendOK("c ")

	if call == nil {
		return
	}
	go func() {
		err := se.srv.gw.CallService(ctx, *call)
		se.srv.telemetry.RecordCommand(string(res.Type), cmd, err == nil)
		if err != nil {
			se.srv.logger.Warn("backend call failed",
				"resource", res.Path(), "command", cmd, "error", err)
		}
	}()
}

// parseAction splits "CMD?k=v&k2=v2" into the decoded command and its
// decoded parameter map.
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

// Frame helpers. e and r frames encode their whole payload; s lines
// concatenate an already-encoded state path and fragment, because the
// encoding is not idempotent.

func (se *session) sendOK(payload string) {
	se.enqueue([]byte("e OK " + hip.Encode(payload) + "\r\n"))
}

func (se *session) sendResponse(payload string) {
	se.enqueue([]byte("r " + hip.Encode(payload) + "\r\n"))
}

func (se *session) sendState(res *catalog.Resource, fragment string) {
	se.enqueue([]byte("s " + hip.EncodedStatePath(res.Zone, res.Type, res.Name) + fragment + "\r\n"))
}

// enqueue hands a frame to the write loop without blocking. A full
// queue means the peer has stopped reading; the session is dropped
// rather than letting it stall backend callback dispatch.
func (se *session) enqueue(frame []byte) {
	select {
	case se.out <- frame:
	case <-se.closed:
	default:
		se.srv.logger.Warn("output queue overflow, dropping session",
			"remote", se.conn.RemoteAddr().String())
		// Disconnect on a fresh goroutine: enqueue may be running
		// inside a backend callback and teardown unsubscribes.
		go se.disconnect()
	}
}

func (se *session) writeLoop() {
	for {
		select {
		case frame := <-se.out:
			if _, err := se.conn.Write(frame); err != nil {
				se.disconnect()
				return
			}
		case <-se.closed:
			return
		}
	}
}

// disconnect tears the session down exactly once: subscriptions
// released, connection closed, write loop stopped.
func (se *session) disconnect() {
	se.once.Do(func() {
		close(se.closed)
		se.pub.Close()
		se.conn.Close() //nolint:errcheck // teardown path, nothing to do on error
		se.srv.telemetry.RecordSession("disconnect")
		se.srv.logger.Debug("session closed", "remote", se.conn.RemoteAddr().String())
	})
}
