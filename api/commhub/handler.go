package commhub

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/daikurogo/ipywidgets/tool"
	"github.com/daikurogo/ipywidgets/widget"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // OnlyAllowLocal middleware already restricts to localhost
	},
}

// HandleCommWS upgrades the request, sends the current state, then applies configuration
// updates pushed by the observer. Every accepted update is flushed to all observers.
func HandleCommWS(hub *Hub, model *widget.Model) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer func() {
			if err := conn.Close(); err != nil {
				tool.DefaultLogger.Debugf("Failed to close WebSocket connection: %v", err)
			}
		}()

		hub.Register(conn)
		defer hub.Unregister(conn)

		if frame, err := model.Frame(); err == nil {
			if err := hub.Send(conn, frame); err != nil {
				tool.DefaultLogger.Warnf("[CommHub] failed to send initial state: %v", err)
				return
			}
		}

		for {
			kind, payload, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if kind != websocket.BinaryMessage {
				continue
			}
			msg, buffers, err := widget.DecodeFrame(payload)
			if err != nil {
				tool.DefaultLogger.Warnf("[CommHub] %v", err)
				continue
			}
			changed, err := model.ApplyRemoteUpdate(msg, buffers)
			if err != nil {
				tool.DefaultLogger.Warnf("[CommHub] rejected update for %s: %v", model.ID(), err)
				continue
			}
			if len(changed) > 0 {
				tool.DefaultLogger.Infof("[CommHub] %s updated %v", model.ID(), changed)
				_ = model.Flush(context.Background())
			}
		}
	}
}
