package websocket

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestConnection(auctionID, userID uint64, buffer int) *Connection {
	return &Connection{
		ID:        fmt.Sprintf("test-%d-%d", auctionID, userID),
		AuctionID: auctionID,
		UserID:    userID,
		Send:      make(chan []byte, buffer),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := startHub(t)

	conn := newTestConnection(7, 1, 4)
	hub.Register <- conn

	require.Eventually(t, func() bool {
		return hub.Stats().TotalConnections == 1
	}, time.Second, 5*time.Millisecond)

	stats := hub.Stats()
	assert.Equal(t, 1, stats.RoomCount)
	assert.Equal(t, 1, stats.Rooms[7])

	hub.Unregister <- conn

	require.Eventually(t, func() bool {
		return hub.Stats().TotalConnections == 0
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, hub.Stats().RoomCount)
}

func TestHubBroadcastDeliversToRoom(t *testing.T) {
	hub := startHub(t)

	inRoom := newTestConnection(7, 1, 4)
	otherRoom := newTestConnection(8, 2, 4)
	hub.Register <- inRoom
	hub.Register <- otherRoom

	require.Eventually(t, func() bool {
		return hub.Stats().TotalConnections == 2
	}, time.Second, 5*time.Millisecond)

	hub.BroadcastToAuction(7, MessageTypeState, map[string]any{"status": "active"})

	select {
	case msg := <-inRoom.Send:
		assert.Contains(t, string(msg), MessageTypeState)
	case <-time.After(time.Second):
		t.Fatal("expected broadcast to reach connection in room")
	}
	assert.Empty(t, otherRoom.Send)
}

// 慢速連接在廣播時被逐出；同時有 HTTP goroutine 讀取 Stats，
// 房間表的讀寫不得互相衝突。
func TestHubStatsConcurrentWithEviction(t *testing.T) {
	hub := startHub(t)

	// Send 無緩衝且無人讀取，第一次廣播就會觸發逐出
	for i := 0; i < 16; i++ {
		hub.Register <- newTestConnection(9, uint64(i+1), 0)
	}
	require.Eventually(t, func() bool {
		return hub.Stats().TotalConnections == 16
	}, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			hub.Stats()
		}
	}()

	for i := 0; i < 50; i++ {
		hub.BroadcastToAuction(9, MessageTypeBidAccepted, map[string]any{"seq": i})
	}

	<-done

	require.Eventually(t, func() bool {
		stats := hub.Stats()
		return stats.TotalConnections == 0 && stats.RoomCount == 0
	}, time.Second, 5*time.Millisecond)
}
