// Package websocket 提供拍賣房間的即時廣播：出價與狀態變化推播給
// 正在觀看同一場拍賣的客戶端。
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Hub WebSocket 連接管理中心，按拍賣 ID 分房
type Hub struct {
	rooms map[uint64]map[*Connection]bool

	Register   chan *Connection
	Unregister chan *Connection
	Broadcast  chan *BroadcastMessage

	Logger *zap.Logger

	mutex sync.RWMutex
}

type BroadcastMessage struct {
	AuctionID uint64
	Message   Message
}

// RoomStats 房間統計資訊
type RoomStats struct {
	TotalConnections int            `json:"total_connections"`
	RoomCount        int            `json:"room_count"`
	Rooms            map[uint64]int `json:"rooms"`
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:      make(map[uint64]map[*Connection]bool),
		Register:   make(chan *Connection, 256),
		Unregister: make(chan *Connection, 256),
		Broadcast:  make(chan *BroadcastMessage, 1024),
		Logger:     logger,
	}
}

// Run 啟動 Hub 事件迴圈
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case conn := <-h.Register:
			h.registerConnection(conn)

		case conn := <-h.Unregister:
			h.unregisterConnection(conn)

		case broadcast := <-h.Broadcast:
			h.broadcastMessage(broadcast)

		case <-ctx.Done():
			h.Logger.Info("Hub shutting down")
			h.closeAllConnections()
			return
		}
	}
}

func (h *Hub) registerConnection(conn *Connection) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.rooms[conn.AuctionID] == nil {
		h.rooms[conn.AuctionID] = make(map[*Connection]bool)
	}
	h.rooms[conn.AuctionID][conn] = true

	h.Logger.Info("WebSocket connection registered",
		zap.String("connection_id", conn.ID),
		zap.Uint64("user_id", conn.UserID),
		zap.Uint64("auction_id", conn.AuctionID),
	)
}

func (h *Hub) unregisterConnection(conn *Connection) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if room, ok := h.rooms[conn.AuctionID]; ok {
		if _, ok := room[conn]; ok {
			delete(room, conn)
			close(conn.Send)

			if len(room) == 0 {
				delete(h.rooms, conn.AuctionID)
			}
		}
	}

	h.Logger.Info("WebSocket connection unregistered",
		zap.String("connection_id", conn.ID),
		zap.Uint64("auction_id", conn.AuctionID),
	)
}

func (h *Hub) broadcastMessage(broadcast *BroadcastMessage) {
	data, err := json.Marshal(broadcast.Message)
	if err != nil {
		h.Logger.Error("Failed to marshal broadcast message", zap.Error(err))
		return
	}

	// 逐出慢速連接會改寫房間表，整段持寫鎖
	h.mutex.Lock()
	defer h.mutex.Unlock()

	room, ok := h.rooms[broadcast.AuctionID]
	if !ok {
		return
	}

	for conn := range room {
		select {
		case conn.Send <- data:
		default:
			h.Logger.Warn("Connection send channel full, closing",
				zap.String("connection_id", conn.ID),
			)
			close(conn.Send)
			delete(room, conn)
		}
	}

	if len(room) == 0 {
		delete(h.rooms, broadcast.AuctionID)
	}
}

// BroadcastToAuction 向拍賣房間廣播訊息（供 HTTP 處理器調用）
func (h *Hub) BroadcastToAuction(auctionID uint64, msgType string, data interface{}) {
	broadcast := &BroadcastMessage{
		AuctionID: auctionID,
		Message:   Message{Type: msgType, Data: data, ServerTime: time.Now()},
	}

	select {
	case h.Broadcast <- broadcast:
	default:
		h.Logger.Warn("Broadcast channel full, dropping message",
			zap.Uint64("auction_id", auctionID),
			zap.String("message_type", msgType),
		)
	}
}

// Stats 回傳目前的房間統計
func (h *Hub) Stats() *RoomStats {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	stats := &RoomStats{Rooms: make(map[uint64]int)}
	for auctionID, room := range h.rooms {
		stats.Rooms[auctionID] = len(room)
		stats.TotalConnections += len(room)
	}
	stats.RoomCount = len(h.rooms)
	return stats
}

func (h *Hub) closeAllConnections() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for _, room := range h.rooms {
		for conn := range room {
			close(conn.Send)
		}
	}
	h.rooms = make(map[uint64]map[*Connection]bool)
}
