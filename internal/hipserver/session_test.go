package hipserver

import (
	"bufio"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/nerrad567/beolink-bridge/internal/backend"
	"github.com/nerrad567/beolink-bridge/internal/backend/backendtest"
	"github.com/nerrad567/beolink-bridge/internal/catalog"
	"github.com/nerrad567/beolink-bridge/internal/command"
	"github.com/nerrad567/beolink-bridge/internal/infrastructure/config"
)

func newTestServer(t *testing.T, gw *backendtest.Gateway) *Server {
	t.Helper()
	srv, err := New(Deps{
		Config:     config.HIPConfig{QueueSize: 64},
		Gateway:    gw,
		Builder:    catalog.NewBuilder(gw, catalog.NewFilter("", nil), nil),
		Translator: command.NewTranslator(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

func populatedGateway() *backendtest.Gateway {
	gw := backendtest.New()
	gw.SetUser("admin", "secret")
	gw.AddArea("a1", "Kitchen")
	gw.AddEntity(backend.Entity{
		ID: "light.ceiling", Domain: backend.DomainLight, Name: "Ceiling",
		AreaID: "a1", State: "on",
		Attributes: map[string]any{backend.AttrBrightness: 255.0},
	})
	gw.AddEntity(backend.Entity{
		ID: "scene.movie_night", Domain: backend.DomainScene, Name: "Movie night",
		AreaID: "a1", State: "scening",
	})
	gw.AddEntity(backend.Entity{
		ID: "camera.door", Domain: backend.DomainCamera, Name: "Door",
		AreaID: "a1", State: "idle",
	})
	return gw
}

// dial wires a pipe to a fresh session and returns the client side.
func dial(t *testing.T, srv *Server) (net.Conn, *bufio.Reader) {
	t.Helper()
	client, server := net.Pipe()
	se := srv.newSession(server)
	ctx, cancel := context.WithCancel(context.Background())
	go se.run(ctx)
	t.Cleanup(func() {
		cancel()
		se.disconnect()
		client.Close()
	})
	return client, bufio.NewReader(client)
}

// expect reads exactly len(want) bytes, for prompts that carry no
// line terminator.
func expect(t *testing.T, r *bufio.Reader, want string) {
	t.Helper()
	buf := make([]byte, len(want))
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("reading %q: %v", want, err)
	}
	if string(buf) != want {
		t.Fatalf("read %q, want %q", buf, want)
	}
}

func expectLine(t *testing.T, r *bufio.Reader, want string) {
	t.Helper()
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("reading line: %v", err)
	}
	if line != want+"\r\n" {
		t.Fatalf("line = %q, want %q", line, want+"\r\n")
	}
}

func send(t *testing.T, conn net.Conn, line string) {
	t.Helper()
	if _, err := conn.Write([]byte(line + "\r\n")); err != nil {
		t.Fatalf("writing %q: %v", line, err)
	}
}

func login(t *testing.T, conn net.Conn, r *bufio.Reader) {
	t.Helper()
	expect(t, r, "login: ")
	send(t, conn, "admin")
	expect(t, r, "\r\npassword: ")
	send(t, conn, "secret")
	expect(t, r, "\r\n")
}

func TestLoginSuccess(t *testing.T) {
	gw := populatedGateway()
	conn, r := dial(t, newTestServer(t, gw))

	login(t, conn, r)

	send(t, conn, "f")
	expectLine(t, r, "e OK f")
	send(t, conn, "f */*/*/*")
	expectLine(t, r, "e OK f%20%2A/%2A/%2A/%2A")
}

func TestLoginFailureStallsSilently(t *testing.T) {
	gw := populatedGateway()
	conn, r := dial(t, newTestServer(t, gw))

	expect(t, r, "login: ")
	send(t, conn, "admin")
	expect(t, r, "\r\npassword: ")
	send(t, conn, "wrong")

	// No reject frame, and commands are not processed.
	send(t, conn, "f")
	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, err := r.ReadByte(); err == nil {
		t.Fatal("expected silent stall, got output")
	}
}

func TestQueryEnumeration(t *testing.T) {
	gw := populatedGateway()
	conn, r := dial(t, newTestServer(t, gw))
	login(t, conn, r)

	send(t, conn, "q")
	expectLine(t, r, "e OK q%20%2A/%2A/%2A/%2A")
	expectLine(t, r, "s House/Kitchen/DIMMER/Ceiling/STATE_UPDATE?LEVEL=100")
	expectLine(t, r, "r House/Kitchen/MACRO/Movie%20night/")

	if n := gw.SubscriberCount("light.ceiling"); n != 1 {
		t.Errorf("SubscriberCount(light.ceiling) = %d, want 1", n)
	}
	// Cameras are never subscribed.
	if n := gw.SubscriberCount("camera.door"); n != 0 {
		t.Errorf("SubscriberCount(camera.door) = %d, want 0", n)
	}
}

func TestRepeatQueryReplacesSubscriptions(t *testing.T) {
	gw := populatedGateway()
	conn, r := dial(t, newTestServer(t, gw))
	login(t, conn, r)

	for i := 0; i < 3; i++ {
		send(t, conn, "q */*/*/*")
		expectLine(t, r, "e OK q%20%2A/%2A/%2A/%2A")
		expectLine(t, r, "s House/Kitchen/DIMMER/Ceiling/STATE_UPDATE?LEVEL=100")
		expectLine(t, r, "r House/Kitchen/MACRO/Movie%20night/")
	}

	if n := gw.SubscriberCount("light.ceiling"); n != 1 {
		t.Errorf("SubscriberCount after repeated q = %d, want 1", n)
	}
}

func TestStatePush(t *testing.T) {
	gw := populatedGateway()
	conn, r := dial(t, newTestServer(t, gw))
	login(t, conn, r)

	send(t, conn, "q")
	expectLine(t, r, "e OK q%20%2A/%2A/%2A/%2A")
	expectLine(t, r, "s House/Kitchen/DIMMER/Ceiling/STATE_UPDATE?LEVEL=100")
	expectLine(t, r, "r House/Kitchen/MACRO/Movie%20night/")

	gw.Emit(backend.Entity{
		ID: "light.ceiling", Domain: backend.DomainLight, Name: "Ceiling",
		AreaID: "a1", State: "on",
		Attributes: map[string]any{backend.AttrBrightness: 51.0},
	})
	expectLine(t, r, "s House/Kitchen/DIMMER/Ceiling/STATE_UPDATE?LEVEL=20")
}

func TestCommandDispatch(t *testing.T) {
	gw := populatedGateway()
	conn, r := dial(t, newTestServer(t, gw))
	login(t, conn, r)

	send(t, conn, "q")
	expectLine(t, r, "e OK q%20%2A/%2A/%2A/%2A")
	expectLine(t, r, "s House/Kitchen/DIMMER/Ceiling/STATE_UPDATE?LEVEL=100")
	expectLine(t, r, "r House/Kitchen/MACRO/Movie%20night/")

	send(t, conn, "c House/Kitchen/DIMMER/Ceiling/SET?LEVEL=55")
	expectLine(t, r, "e OK c%20")

	calls := waitForCalls(t, gw, 1)
	if calls[0].Domain != "light" || calls[0].Service != "turn_on" {
		t.Fatalf("call = %s.%s, want light.turn_on", calls[0].Domain, calls[0].Service)
	}
	if calls[0].Data["brightness_pct"] != 55 {
		t.Errorf("brightness_pct = %v, want 55", calls[0].Data["brightness_pct"])
	}
	if calls[0].Data["entity_id"] != "light.ceiling" {
		t.Errorf("entity_id = %v, want light.ceiling", calls[0].Data["entity_id"])
	}
}

func TestUnregisteredCommandDropped(t *testing.T) {
	gw := populatedGateway()
	conn, r := dial(t, newTestServer(t, gw))
	login(t, conn, r)

	send(t, conn, "q")
	expectLine(t, r, "e OK q%20%2A/%2A/%2A/%2A")
	expectLine(t, r, "s House/Kitchen/DIMMER/Ceiling/STATE_UPDATE?LEVEL=100")
	expectLine(t, r, "r House/Kitchen/MACRO/Movie%20night/")

	send(t, conn, "c House/Kitchen/DIMMER/Nope/SET?LEVEL=5")
	// No reply for the unknown name; the next command's ack arrives
	// first, proving nothing was sent.
	send(t, conn, "f")
	expectLine(t, r, "e OK f")

	if calls := gw.Calls(); len(calls) != 0 {
		t.Errorf("Calls() = %d, want 0", len(calls))
	}
}

func TestFirmwareCheck(t *testing.T) {
	gw := populatedGateway()
	conn, r := dial(t, newTestServer(t, gw))
	login(t, conn, r)

	send(t, conn, "c Main/global/SYSTEM/BLI/CHECK%20FIRMWARE")
	expectLine(t, r, "e OK c%20Main/global/SYSTEM/BLI/CHECK%20FIRMWARE")
	expectLine(t, r, "r Main/global/SYSTEM/BLGW/STATE_UPDATE?"+
		"CURRENT%20FIRMWARE=1.5.4.557&LATEST%20FIRMWARE=&"+
		"ROLLBACK%20AVAILABLE=1.5.4.533_2023.01.31-22.01.55&"+
		"SYSTEM%20INFO=READY&revision=39")
}

func TestSystemQuery(t *testing.T) {
	gw := populatedGateway()
	conn, r := dial(t, newTestServer(t, gw))
	login(t, conn, r)

	send(t, conn, "q */*/SYSTEM/*")
	expectLine(t, r, "e OK q%20%2A/%2A/SYSTEM/%2A")
	expectLine(t, r, "r Main/global/SYSTEM/BLGW/STATE_UPDATE?"+
		"CURRENT%20FIRMWARE=1.5.4.557&LATEST%20FIRMWARE=&"+
		"ROLLBACK%20AVAILABLE=1.5.4.533_2023.01.31-22.01.55&"+
		"SYSTEM%20INFO=READY&revision=39")
}

func TestSystemCommandsAcked(t *testing.T) {
	gw := populatedGateway()
	conn, r := dial(t, newTestServer(t, gw))
	login(t, conn, r)

	send(t, conn, "c Main/global/SYSTEM/BLI/UPDATE%20NOTIFICATION%20TOKEN?token=abc")
	expectLine(t, r, "e OK c%20")
	if calls := gw.Calls(); len(calls) != 0 {
		t.Errorf("Calls() = %d, want 0", len(calls))
	}
}

func TestDisconnectReleasesSubscriptions(t *testing.T) {
	gw := populatedGateway()
	srv := newTestServer(t, gw)
	conn, r := dial(t, srv)
	login(t, conn, r)

	send(t, conn, "q")
	expectLine(t, r, "e OK q%20%2A/%2A/%2A/%2A")
	expectLine(t, r, "s House/Kitchen/DIMMER/Ceiling/STATE_UPDATE?LEVEL=100")
	expectLine(t, r, "r House/Kitchen/MACRO/Movie%20night/")

	conn.Close()

	deadline := time.Now().Add(time.Second)
	for gw.SubscriberCount("light.ceiling") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription not released after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func waitForCalls(t *testing.T, gw *backendtest.Gateway, n int) []backend.Call {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		calls := gw.Calls()
		if len(calls) >= n {
			return calls
		}
		if time.Now().After(deadline) {
			t.Fatalf("Calls() = %d, want %d", len(calls), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
