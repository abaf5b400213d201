package server

import (
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

const (
	testOrigin  = "http://localhost:3000"
	testIndex   = "<!DOCTYPE html><title>relay</title>"
	readTimeout = 2 * time.Second
)

var fixedNow = time.UnixMilli(1_700_000_000_000)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// testServer bundles a running hub with an httptest server in front of it.
type testServer struct {
	hub   *Hub
	http  *httptest.Server
	wsURL string
	cfg   *Config
}

// newTestServer starts a hub and an HTTP server serving SetupRoutes. The
// static root holds a single index.html.
func newTestServer(t *testing.T, customize func(cfg *Config)) *testServer {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte(testIndex), 0o600))

	cfg := NewConfig()
	cfg.StaticDir = root
	if customize != nil {
		customize(cfg)
	}

	log := discardLogger()
	hub := NewHub(log)
	hub.now = func() time.Time { return fixedNow }
	go hub.Run()

	ts := httptest.NewServer(SetupRoutes(hub, cfg, log))
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = hub.Shutdown(2 * time.Second) })

	return &testServer{
		hub:   hub,
		http:  ts,
		wsURL: "ws" + strings.TrimPrefix(ts.URL, "http"),
		cfg:   cfg,
	}
}

// dial opens a WebSocket connection with the given Origin header.
func dial(t *testing.T, url, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()

	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := dialer.Dial(url, header)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, resp, err
}

// connect dials the relay and consumes the greeting, returning the alias it
// names. History replay, if any, is left unread.
func connect(t *testing.T, url string) (*websocket.Conn, string) {
	t.Helper()

	conn, _, err := dial(t, url, testOrigin)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	greet := readMessage(t, conn)
	require.Equal(t, KindSystem, greet.Kind)
	require.True(t, strings.HasPrefix(greet.Text, "You are **"), greet.Text)
	name := strings.TrimSuffix(strings.TrimPrefix(greet.Text, "You are **"), "**")
	return conn, name
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func sendText(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(text)))
}

// expectNoMessage fails if a frame arrives within timeout.
func expectNoMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	_, data, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("Expected no message, but received %s", data)
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return
	}
	t.Fatalf("Unexpected error while waiting for absence of message: %v", err)
}
