package controlplane

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The daemon binds to loopback; remote clients tunnel.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleSceneStream upgrades GET /scene/stream to a websocket and pushes a
// scene frame on every stream tick. The connection closes when the client
// goes away or a write fails.
func (s *Server) handleSceneStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	s.logger.Info("scene stream opened", zap.String("remote", conn.RemoteAddr().String()))

	// Reader goroutine: drains control frames and detects disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			s.logger.Info("scene stream closed", zap.String("remote", conn.RemoteAddr().String()))
			return
		case <-ticker.C:
			scene, err := s.med.FetchScene(nil)
			if err != nil {
				s.logger.Warn("scene fetch for stream failed", zap.Error(err))
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(scene); err != nil {
				s.logger.Info("scene stream write failed, closing", zap.Error(err))
				return
			}
		}
	}
}
