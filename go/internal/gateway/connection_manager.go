package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ConnectionManager fans giveaway events out to the viewers watching each giveaway
type ConnectionManager struct {
	// Connection pools organized by giveaway ID
	giveawayConnections map[int64]map[*Connection]bool
	mu                  sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan BroadcastMessage
}

// Connection is one viewer's WebSocket
type Connection struct {
	ID         string
	GiveawayID int64
	Conn       *websocket.Conn
	Send       chan []byte
	Manager    *ConnectionManager

	ConnectedAt time.Time
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage is an encoded event for every viewer of one giveaway
type BroadcastMessage struct {
	GiveawayID int64
	Data       []byte
}

// ConnectionStats is a point-in-time count of open viewer connections
type ConnectionStats struct {
	TotalConnections int           `json:"total_connections"`
	ActiveGiveaways  int           `json:"active_giveaways"`
	PerGiveaway      map[int64]int `json:"giveaway_connections"`
}

func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  64,
		CheckOrigin: func(r *http.Request) bool {
			// Overlays are embedded by streaming software with arbitrary origins.
			return true
		},
	}
}

func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = DefaultConnectionConfig().SendBufferSize
	}
	return &ConnectionManager{
		giveawayConnections: make(map[int64]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan BroadcastMessage, 1000),
	}
}

// Start processes broadcasts until ctx is cancelled
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			cm.closeAll()
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades the request and registers the viewer. initial, when
// non-empty, is queued ahead of any broadcast so the viewer always sees the
// snapshot first.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, giveawayID int64, initial []byte) (*Connection, error) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		GiveawayID:  giveawayID,
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}
	if len(initial) > 0 {
		connection.Send <- initial
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Int64("giveaway_id", giveawayID).
		Msg("viewer connected")

	return connection, nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.giveawayConnections[conn.GiveawayID] == nil {
		cm.giveawayConnections[conn.GiveawayID] = make(map[*Connection]bool)
	}
	cm.giveawayConnections[conn.GiveawayID][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Int64("giveaway_id", conn.GiveawayID).
		Int("total_connections", len(cm.giveawayConnections[conn.GiveawayID])).
		Msg("connection registered")
}

// unregisterConnection is safe to call more than once per connection
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	connections, exists := cm.giveawayConnections[conn.GiveawayID]
	if !exists {
		return
	}
	if _, exists := connections[conn]; !exists {
		return
	}
	delete(connections, conn)
	close(conn.Send)

	if len(connections) == 0 {
		delete(cm.giveawayConnections, conn.GiveawayID)
	}

	log.Info().
		Str("connection_id", conn.ID).
		Int64("giveaway_id", conn.GiveawayID).
		Msg("viewer disconnected")
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.RLock()
	var all []*Connection
	for _, connections := range cm.giveawayConnections {
		for conn := range connections {
			all = append(all, conn)
		}
	}
	cm.mu.RUnlock()

	for _, conn := range all {
		cm.unregisterConnection(conn)
	}
}

// BroadcastToGiveaway queues data for every viewer of the giveaway
func (cm *ConnectionManager) BroadcastToGiveaway(giveawayID int64, data []byte) {
	select {
	case cm.broadcastCh <- BroadcastMessage{GiveawayID: giveawayID, Data: data}:
	default:
		log.Warn().Int64("giveaway_id", giveawayID).Msg("broadcast channel full, dropping message")
	}
}

func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	cm.mu.RLock()
	connections, exists := cm.giveawayConnections[message.GiveawayID]
	if !exists {
		cm.mu.RUnlock()
		return
	}
	targets := make([]*Connection, 0, len(connections))
	for conn := range connections {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range targets {
		if !conn.enqueue(message.Data) {
			log.Warn().
				Str("connection_id", conn.ID).
				Int64("giveaway_id", conn.GiveawayID).
				Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
		}
	}

	log.Debug().
		Int64("giveaway_id", message.GiveawayID).
		Int("connections", len(targets)).
		Msg("event broadcasted")
}

// Stats returns the number of open connections overall and per giveaway
func (cm *ConnectionManager) Stats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := ConnectionStats{
		ActiveGiveaways: len(cm.giveawayConnections),
		PerGiveaway:     make(map[int64]int, len(cm.giveawayConnections)),
	}
	for id, connections := range cm.giveawayConnections {
		stats.TotalConnections += len(connections)
		stats.PerGiveaway[id] = len(connections)
	}
	return stats
}

// enqueue reports false when the viewer is too slow to keep up. The read lock
// keeps Send from being closed underneath the send.
func (c *Connection) enqueue(data []byte) bool {
	c.Manager.mu.RLock()
	defer c.Manager.mu.RUnlock()

	if !c.Manager.giveawayConnections[c.GiveawayID][c] {
		return true
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump only services control frames; viewers never send commands.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
