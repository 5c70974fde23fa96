package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/planetary-ascension/internal/engine"
)

const (
	streamWriteWait = 5 * time.Second
	streamPongWait  = 60 * time.Second
	streamPing      = 25 * time.Second
)

// streamMessage is one frame on the event stream.
type streamMessage struct {
	Type string `json:"type"` // "snapshot" or "event"
	Data any    `json:"data"`
}

// handleStream upgrades to a WebSocket, sends a full snapshot, then relays
// every game event until the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if current := s.streamConns.Add(1); current > maxStreamConns {
		s.streamConns.Add(-1)
		writeError(w, http.StatusServiceUnavailable, "too many stream connections", "")
		return
	}
	defer s.streamConns.Add(-1)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Subscribe before the snapshot so nothing between the two is lost.
	events, unsubscribe := s.Game.Hub().Subscribe(s.EventBuffer)
	defer unsubscribe()

	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err := conn.WriteJSON(streamMessage{Type: "snapshot", Data: s.Game.Snapshot()}); err != nil {
		return
	}
	slog.Info("stream client connected", "remote", r.RemoteAddr)

	// Reader: only control frames are expected; a read error means the client left.
	done := make(chan struct{})
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPing)
	defer ping.Stop()

	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(conn, e); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		case <-done:
			slog.Info("stream client disconnected", "remote", r.RemoteAddr)
			return
		case <-r.Context().Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, e engine.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteJSON(streamMessage{Type: "event", Data: e})
}
