package sync

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealhub/internal/store"
	"mealhub/pkg/models"
)

func startTCP(t *testing.T, hub *Hub) (*Server, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(ln.Addr().String(), hub, nil)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()
	t.Cleanup(func() {
		require.NoError(t, srv.Close())
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})
	return srv, ln.Addr().String()
}

func readLine(t *testing.T, r *bufio.Reader, conn net.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	line, err := r.ReadBytes('\n')
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(line, &out))
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 10*time.Millisecond)
}

func TestTCP_ForwardsCacheReplacements(t *testing.T) {
	hub := NewHub(nil)
	cache := store.New()
	unsubscribe := Forward(cache, hub)
	defer unsubscribe()

	_, addr := startTCP(t, hub)
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	r := bufio.NewReader(conn)

	hello := readLine(t, r, conn)
	assert.Equal(t, EventWelcome, hello["type"])
	assert.Equal(t, "tcp", hello["transport"])
	waitFor(t, func() bool { return hub.Stats().TCPClients == 1 })

	snap := cache.Replace(store.SourceCatalog, []models.Meal{{ID: "1", Name: "A"}, {ID: "2", Name: "B"}})

	ev := readLine(t, r, conn)
	assert.Equal(t, EventCatalogReplaced, ev["type"])
	assert.Equal(t, snap.Generation, ev["generation"])
	assert.Equal(t, "catalog", ev["source"])
	assert.EqualValues(t, 2, ev["count"])
}

func TestTCP_DisconnectRemovesClient(t *testing.T) {
	hub := NewHub(nil)
	_, addr := startTCP(t, hub)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	readLine(t, bufio.NewReader(conn), conn)
	waitFor(t, func() bool { return hub.Stats().TCPClients == 1 })

	require.NoError(t, conn.Close())
	waitFor(t, func() bool { return hub.Stats().TCPClients == 0 })
}

func TestServer_CloseBeforeServe(t *testing.T) {
	srv := NewServer("127.0.0.1:0", NewHub(nil), nil)
	require.NoError(t, srv.Close())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	assert.NoError(t, srv.Serve(ln))
}

func TestWS_ReceivesBroadcasts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil)
	r := gin.New()
	r.GET("/ws", WSHandler(hub))
	ts := httptest.NewServer(r)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	var hello map[string]any
	require.NoError(t, ws.ReadJSON(&hello))
	assert.Equal(t, "websocket", hello["transport"])
	waitFor(t, func() bool { return hub.Stats().WSClients == 1 })

	hub.BroadcastJSON(EventFromSnapshot(store.Snapshot{
		Generation: "g1",
		Source:     store.SourceGallery,
		Meals:      []models.Meal{{ID: "1"}},
	}))

	var ev CatalogEvent
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, ws.ReadJSON(&ev))
	assert.Equal(t, EventCatalogReplaced, ev.Type)
	assert.Equal(t, "g1", ev.Generation)
	assert.Equal(t, store.SourceGallery, ev.Source)
	assert.Equal(t, 1, ev.Count)

	require.NoError(t, ws.Close())
	waitFor(t, func() bool { return hub.Stats().WSClients == 0 })
}

// flakyListener fails the first n Accept calls, then hands out one end of a
// pipe and blocks until closed.
type flakyListener struct {
	net.Listener
	mu       sync.Mutex
	failures int
	accepts  []time.Time
	conns    chan net.Conn
	closed   chan struct{}
	once     sync.Once
}

func newFlakyListener(t *testing.T, failures int) *flakyListener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return &flakyListener{
		Listener: ln,
		failures: failures,
		conns:    make(chan net.Conn, 1),
		closed:   make(chan struct{}),
	}
}

func (l *flakyListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	l.accepts = append(l.accepts, time.Now())
	fail := len(l.accepts) <= l.failures
	l.mu.Unlock()

	if fail {
		return nil, errors.New("accept: too many open files")
	}
	select {
	case c := <-l.conns:
		return c, nil
	case <-l.closed:
		return nil, net.ErrClosed
	}
}

func (l *flakyListener) Close() error {
	l.once.Do(func() { close(l.closed) })
	return l.Listener.Close()
}

func (l *flakyListener) attempts() []time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]time.Time(nil), l.accepts...)
}

func TestServer_BacksOffOnAcceptErrors(t *testing.T) {
	hub := NewHub(nil)
	ln := newFlakyListener(t, 3)
	srv := NewServer("", hub, nil)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	server, client := net.Pipe()
	defer client.Close()
	ln.conns <- server

	// still serving after the errors: the client is welcomed
	r := bufio.NewReader(client)
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	line, err := r.ReadBytes('\n')
	require.NoError(t, err)
	assert.Contains(t, string(line), EventWelcome)

	at := ln.attempts()
	require.GreaterOrEqual(t, len(at), 4)
	// 5ms + 10ms + 20ms of waiting between the failed accepts
	assert.GreaterOrEqual(t, at[3].Sub(at[0]), 35*time.Millisecond)

	require.NoError(t, srv.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestAcceptBackoff(t *testing.T) {
	assert.Equal(t, 5*time.Millisecond, acceptBackoff(0))
	assert.Equal(t, 10*time.Millisecond, acceptBackoff(5*time.Millisecond))
	assert.Equal(t, time.Second, acceptBackoff(800*time.Millisecond))
	assert.Equal(t, time.Second, acceptBackoff(time.Second))
}
