package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/khryptorgraphics/rcpspga/pkg/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsClient is one connected job-progress subscriber.
type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan store.JobStatus
}

// WebSocketHub tracks connected clients for logging and graceful
// shutdown; the per-job fan-out itself happens over each client's own
// Redis subscription (see jobProgressWebSocketHandler), so there is
// one topic (a job ID) per connection instead of many.
type WebSocketHub struct {
	mu      sync.Mutex
	clients map[*wsClient]bool
	logger  *slog.Logger
	done    chan struct{}
}

func newWebSocketHub(logger *slog.Logger) *WebSocketHub {
	return &WebSocketHub{
		clients: make(map[*wsClient]bool),
		logger:  logger,
		done:    make(chan struct{}),
	}
}

func (h *WebSocketHub) run() {
	h.logger.Info("websocket hub started")
	<-h.done
}

func (h *WebSocketHub) stop() {
	h.mu.Lock()
	for client := range h.clients {
		client.conn.Close()
		delete(h.clients, client)
	}
	h.mu.Unlock()
	close(h.done)
}

func (h *WebSocketHub) register(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

func (h *WebSocketHub) unregister(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// jobProgressWebSocketHandler upgrades the connection and relays
// store.JobCache pub/sub messages for the given job ID until the
// client disconnects or the job reaches a terminal status.
func (s *Server) jobProgressWebSocketHandler(c *gin.Context) {
	jobID := c.Param("id")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing job id"})
		return
	}
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence not configured"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	client := &wsClient{id: uuid.New().String(), conn: conn, send: make(chan store.JobStatus, 16)}
	s.hub.register(client)
	defer s.hub.unregister(client)

	ctx := c.Request.Context()
	sub := s.store.Jobs.Subscribe(ctx, jobID)
	defer sub.Close()

	terminal := func(status string) bool {
		return status == store.JobStatusDone || status == store.JobStatusFailed
	}

	if current, err := s.store.Jobs.Get(ctx, jobID); err == nil {
		_ = conn.WriteJSON(current)
		if terminal(current.Status) {
			return
		}
	}

	ch := sub.Channel()
	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return
			}
			var status store.JobStatus
			if json.Unmarshal([]byte(msg.Payload), &status) == nil && terminal(status.Status) {
				return
			}
		case <-pingTicker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
