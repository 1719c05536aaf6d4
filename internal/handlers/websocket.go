package handlers

import (
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Melkor-1/Fin-Vista/internal/models"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins (for development and demo)
	},
}

// TradeFeed fans executed-trade events out to connected clients. Each
// client only receives its own user's trades.
type TradeFeed struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]int64 // conn → user id
}

// NewTradeFeed creates an empty feed.
func NewTradeFeed() *TradeFeed {
	return &TradeFeed{
		clients: make(map[*websocket.Conn]int64),
	}
}

// Publish sends the event to every connection belonging to its user.
// Dead connections are dropped on write failure.
func (f *TradeFeed) Publish(event models.TradeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for conn, userID := range f.clients {
		if userID != event.UserID {
			continue
		}
		if err := conn.WriteJSON(event); err != nil {
			log.Println("WebSocket write error:", err)
			conn.Close()
			delete(f.clients, conn)
		}
	}
}

// TradeStream handles GET /ws/trades for the authenticated user.
func (a *API) TradeStream(c *gin.Context) {
	// Upgrade HTTP connection to WebSocket
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}

	userID := currentUser(c)

	a.feed.mu.Lock()
	a.feed.clients[conn] = userID
	a.feed.mu.Unlock()

	log.Printf("User %d connected to trade feed", userID)

	// Hold the connection open; the read loop only detects disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	a.feed.mu.Lock()
	delete(a.feed.clients, conn)
	a.feed.mu.Unlock()
	conn.Close()

	log.Printf("User %d disconnected from trade feed", userID)
}
