package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/olahol/melody"
)

// WebSocketTestServer is a bare melody server for exercising API clients
// without the real router.
type WebSocketTestServer struct {
	Server *httptest.Server
	Melody *melody.Melody
}

// NewWebSocketTestServer serves handler on every path. A nil handler
// ignores incoming messages.
func NewWebSocketTestServer(t *testing.T, handler func(*melody.Session, []byte)) *WebSocketTestServer {
	t.Helper()

	m := melody.New()
	if handler != nil {
		m.HandleMessage(handler)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := m.HandleRequest(w, r); err != nil {
			t.Logf("websocket test server: %v", err)
		}
	}))

	return &WebSocketTestServer{Server: server, Melody: m}
}

func (s *WebSocketTestServer) Close() {
	_ = s.Melody.Close()
	s.Server.Close()
}
