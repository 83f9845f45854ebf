package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeTimeout    = 10 * time.Second
	eventBufferSize = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Gallery pages may be served from another origin (CORS is open as well)
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocket streams change events to the client as JSON text messages.
// The client may send "ping" at any time and gets "pong" back.
func (h *Hub) WebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Print("upgrade:", err)
		return
	}
	defer conn.Close()

	writeMutex := sync.Mutex{}
	write := func(messageType int, data []byte) error {
		writeMutex.Lock()
		defer writeMutex.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		return conn.WriteMessage(messageType, data)
	}

	events, cancel := h.SubscribeChan(eventBufferSize)
	defer cancel()
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case ev := <-events:
				data, _ := json.Marshal(ev)
				if err := write(websocket.TextMessage, data); err != nil {
					log.Println("write err:", err)
					// Unblocks ReadMessage below
					conn.Close()
					return
				}
			}
		}
	}()

	// Main read cycle
	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Println("read err:", err)
			}
			break
		}
		if string(message) == "ping" {
			if err = write(mt, []byte("pong")); err != nil {
				break
			}
		}
	}
}
