package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/AleutianMirror/services/disclosure/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
}

func sendJSON(ws *websocket.Conn, v interface{}) error {
	err := ws.WriteJSON(v)
	if err != nil {
		slog.Warn("Failed to write WebSocket JSON", "error", err)
	}
	return err
}

// HandleWatchSocket pushes profile snapshots over a websocket. The client
// gets one snapshot on connect and one per session change; it never sends
// anything, so the read pump exists only to notice the disconnect.
func HandleWatchSocket(svc *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}
		defer ws.Close()

		sessionID := c.Param("sessionId")
		slog.Info("Watch client connected", "sessionId", sessionID)

		ticks, cancel := svc.Watch(sessionID)
		defer cancel()

		disconnected := make(chan struct{})
		go func() {
			defer close(disconnected)
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		}()

		snapshot := func() gin.H {
			prof, count := svc.ProfileView(sessionID)
			return gin.H{
				"profile":       prof,
				"message_count": count,
			}
		}

		if err := sendJSON(ws, snapshot()); err != nil {
			return
		}
		for {
			select {
			case _, ok := <-ticks:
				if !ok {
					return
				}
				if err := sendJSON(ws, snapshot()); err != nil {
					return
				}
			case <-disconnected:
				slog.Info("Watch client disconnected", "sessionId", sessionID)
				return
			}
		}
	}
}
