package client

import (
	"net/http"
	"time"

	"github.com/cloudflare/cfssl/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

var upGrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// 使用WebSocket向前端推送账本事件，连接期间持续推送，直到任意一方关闭
func (s *Server) getLog(c *gin.Context) {
	// 升级请求为WebSocket协议
	ws, err := upGrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Info("Upgrade failed: ", err)
		return
	}
	defer ws.Close()

	events, cancel := s.bus.Subscribe()
	defer cancel()

	// 读协程只用于感知前端断开
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(ev); err != nil {
				log.Info(err)
				return
			}
		}
	}
}
