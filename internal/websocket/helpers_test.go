package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
)

var testUpgrader = gorilla.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// newTestConnection dials a throwaway echo-less server and wraps the client
// side. The returned server-side conn lets tests read what was sent.
func newTestConnection(t *testing.T) (*Connection, *gorilla.Conn) {
	t.Helper()

	serverSide := make(chan *gorilla.Conn, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("failed to upgrade connection: %v", err)
			return
		}
		serverSide <- conn
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	clientConn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial test server: %v", err)
	}

	conn := NewConnection(clientConn, 16, time.Second)
	t.Cleanup(func() { _ = conn.Close() })

	select {
	case peer := <-serverSide:
		t.Cleanup(func() { _ = peer.Close() })
		return conn, peer
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server-side connection")
		return nil, nil
	}
}

// readFrame reads one text frame from the server side with a deadline.
func readFrame(t *testing.T, peer *gorilla.Conn) []byte {
	t.Helper()
	_ = peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := peer.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}
	return data
}
