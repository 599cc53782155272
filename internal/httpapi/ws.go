package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait = 10 * time.Second
	wsPing      = "ping"
)

type pong struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// handleWS registers the connection with the hub. The writer goroutine owns
// every write on the connection; the read loop only answers pings.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Warn("ws_upgrade_failed", zap.Error(err))
		return
	}
	sub := s.Hub.Add()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for frame := range sub.Out() {
			_ = c.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.Logger.Info("ws_write_failed", zap.String("id", sub.ID.String()), zap.Error(err))
				s.Hub.Remove(sub.ID)
				break
			}
		}
		_ = c.Close()
	}()

	for {
		kind, msg, err := c.ReadMessage()
		if err != nil {
			break
		}
		if kind != websocket.TextMessage || strings.TrimSpace(string(msg)) != wsPing {
			continue
		}
		if err := sub.Send(pong{Type: "pong", Timestamp: s.stamp()}); err != nil {
			break
		}
	}
	s.Hub.Remove(sub.ID)
	<-done
	s.Logger.Info("ws_subscriber_removed", zap.String("id", sub.ID.String()))
}
