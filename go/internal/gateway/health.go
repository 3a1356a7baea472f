package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// BusStatus is satisfied by *nats.Conn
type BusStatus interface {
	IsConnected() bool
}

type HealthStatus struct {
	Healthy           bool      `json:"healthy"`
	DatabaseConnected bool      `json:"database_connected"`
	NATSConnected     bool      `json:"nats_connected"`
	ConsumerRunning   bool      `json:"consumer_running"`
	EventsRelayed     uint64    `json:"events_relayed"`
	EventsDropped     uint64    `json:"events_dropped"`
	LastEventTime     time.Time `json:"last_event_time"`
	Connections       int       `json:"connections"`
	ActiveGiveaways   int       `json:"active_giveaways"`
	Errors            []string  `json:"errors"`
}

// HealthChecker reports on the database, the bus and the relay
type HealthChecker struct {
	db      Pinger
	bus     BusStatus
	service *Service
}

func NewHealthChecker(db Pinger, bus BusStatus, service *Service) *HealthChecker {
	return &HealthChecker{db: db, bus: bus, service: service}
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy: true,
		Errors:  []string{},
	}

	if err := h.db.PingContext(ctx); err != nil {
		status.Healthy = false
		status.Errors = append(status.Errors, fmt.Sprintf("database ping failed: %v", err))
	} else {
		status.DatabaseConnected = true
	}

	status.NATSConnected = h.bus.IsConnected()
	if !status.NATSConnected {
		status.Healthy = false
		status.Errors = append(status.Errors, "NATS disconnected")
	}

	consumer := h.service.eventConsumer.Stats()
	status.ConsumerRunning = consumer.Running
	status.EventsRelayed = consumer.Relayed
	status.EventsDropped = consumer.Dropped
	status.LastEventTime = consumer.LastEvent
	if !consumer.Running {
		status.Healthy = false
		status.Errors = append(status.Errors, "event consumer not running")
	}

	conns := h.service.Stats()
	status.Connections = conns.TotalConnections
	status.ActiveGiveaways = conns.ActiveGiveaways

	return status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}

// ServeMetrics writes the health status in the Prometheus text format
func (h *HealthChecker) ServeMetrics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	writeMetrics(w, h.Check(ctx))
}

func writeMetrics(w io.Writer, status HealthStatus) {
	gauge := func(name, help string, v any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %v\n", name, help, name, name, v)
	}
	counter := func(name, help string, v uint64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n", name, help, name, name, v)
	}

	gauge("gateway_healthy", "Whether the gateway is healthy", boolGauge(status.Healthy))
	gauge("gateway_database_connected", "Whether the database answers pings", boolGauge(status.DatabaseConnected))
	gauge("gateway_nats_connected", "Whether NATS is connected", boolGauge(status.NATSConnected))
	counter("gateway_events_relayed_total", "Bus events relayed to viewers", status.EventsRelayed)
	counter("gateway_events_dropped_total", "Bus events that could not be routed", status.EventsDropped)
	gauge("gateway_viewer_connections", "Open viewer WebSocket connections", status.Connections)
	gauge("gateway_active_giveaways", "Giveaways with at least one viewer", status.ActiveGiveaways)
}

func boolGauge(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (h *HealthChecker) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /health", h)
	mux.HandleFunc("GET /metrics", h.ServeMetrics)
}
