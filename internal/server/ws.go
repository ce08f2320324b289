package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/lsainterp/internal/fusion"
	"github.com/ayusman/lsainterp/internal/sink"
)

const writeWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// resultMessage is the websocket payload for a finalized result.
type resultMessage struct {
	Sign       string  `json:"sign"`
	Confidence float64 `json:"confidence"`
	Timestamp  int64   `json:"timestamp"`
}

// ResultsHandler broadcasts finalized results to websocket clients.
type ResultsHandler struct {
	logger  *zap.Logger
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewResultsHandler creates a ResultsHandler. Call Run to start feeding it.
func NewResultsHandler(logger *zap.Logger) *ResultsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultsHandler{
		logger:  logger,
		clients: make(map[*websocket.Conn]bool),
	}
}

// Run broadcasts every result from sub until ctx is done or sub closes.
func (h *ResultsHandler) Run(ctx context.Context, sub *sink.Subscription) {
	sink.Run(ctx, sub, h.Broadcast)
	h.closeAll()
}

// ServeHTTP handles websocket upgrade requests.
func (h *ResultsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer h.remove(conn)

	// Reads only detect the close; clients never send anything useful.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (h *ResultsHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends r to every connected client. Clients that fail to accept
// the write are disconnected.
func (h *ResultsHandler) Broadcast(r fusion.Result) {
	msg, err := json.Marshal(resultMessage{
		Sign:       r.Sign,
		Confidence: r.Confidence,
		Timestamp:  time.Now().UnixMilli(),
	})
	if err != nil {
		h.logger.Error("marshal result", zap.Error(err))
		return
	}

	// Writes are serialized under the lock; gorilla allows one writer per conn.
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Debug("dropping websocket client", zap.Error(err))
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

func (h *ResultsHandler) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	conn.Close()
}

func (h *ResultsHandler) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(writeWait))
		conn.Close()
		delete(h.clients, conn)
	}
}
