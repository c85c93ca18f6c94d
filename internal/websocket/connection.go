package websocket

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 來源白名單由反向代理層處理
		return true
	},
}

// Connection 單一客戶端連接
type Connection struct {
	ID        string
	AuctionID uint64
	UserID    uint64
	Conn      *websocket.Conn
	Send      chan []byte
	Hub       *Hub
	Logger    *zap.Logger
}

// Message 伺服器推播的訊息格式
type Message struct {
	Type       string      `json:"type"`
	Data       interface{} `json:"data,omitempty"`
	ServerTime time.Time   `json:"server_time"`
}

const (
	MessageTypeState        = "state"
	MessageTypeBidAccepted  = "bid_accepted"
	MessageTypeAuctionEnded = "auction_ended"
	MessageTypeError        = "error"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

func NewConnection(hub *Hub, conn *websocket.Conn, auctionID, userID uint64, logger *zap.Logger) *Connection {
	return &Connection{
		ID:        strconv.FormatInt(time.Now().UnixNano(), 36),
		AuctionID: auctionID,
		UserID:    userID,
		Conn:      conn,
		Send:      make(chan []byte, 256),
		Hub:       hub,
		Logger:    logger,
	}
}

// Start 註冊連接並啟動讀寫協程
func (c *Connection) Start() {
	c.Hub.Register <- c

	go c.writePump()
	go c.readPump()
}

// readPump 推播是單向的，讀取端只用於偵測斷線與回應 pong
func (c *Connection) readPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Logger.Error("WebSocket read error",
					zap.String("connection_id", c.ID),
					zap.Uint64("user_id", c.UserID),
					zap.Error(err),
				)
			}
			break
		}
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// 批量發送排隊的訊息
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
