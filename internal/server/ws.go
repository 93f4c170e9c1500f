package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// streamRoomUpdates upgrades the connection and pushes the room's updates
// until the client disconnects. Membership is checked before the upgrade, so
// non-members never hold a subscription.
func (s *Server) streamRoomUpdates(c *gin.Context) {
	roomId, ok := s.uuidParam(c, "room_id")
	if !ok {
		return
	}

	if _, err := s.rooms.RoleOf(c.Request.Context(), roomId, UserID(c)); err != nil {
		s.abortWithError(c, err)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WithError(err).Warning("websocket upgrade failed")
		return
	}

	sub := s.hub.Subscribe(roomId)
	defer sub.Close()
	defer conn.Close()

	// drain the reader so pongs and close frames are processed
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-sub.Updates():
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(update); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
