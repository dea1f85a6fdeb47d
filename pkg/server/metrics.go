package server

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"
)

// Metrics tracks server runtime statistics.
// All counters use atomic operations for lock-free concurrent access.
type Metrics struct {
	startTime time.Time

	// Connection counters
	TotalConnections  atomic.Int64 // lifetime connections accepted (TCP + WebSocket)
	ActiveConnections atomic.Int64 // current active connections
	FailedLogins      atomic.Int64 // failed login attempts (name taken, banned, invalid)
	SuccessfulLogins  atomic.Int64 // successful logins
	TotalDisconnects  atomic.Int64 // total client disconnects (clean + unclean)

	// Chat counters
	MessagesSent atomic.Int64 // chat messages relayed to rooms

	// Room counters
	RoomsCreated atomic.Int64 // rooms created (explicit + auto-create)
	RoomsClosed  atomic.Int64 // rooms closed by an administrator
	RoomsEmptied atomic.Int64 // rooms deleted after losing their last member

	// Moderation counters
	KickCount atomic.Int64 // users kicked from rooms
	BanCount  atomic.Int64 // users banned from the server
}

// NewMetrics creates a new Metrics instance with the start time set to now.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// MetricsSnapshot is a point-in-time view of all metrics as a serializable struct.
type MetricsSnapshot struct {
	Uptime        string `json:"uptime"`
	UptimeSeconds int64  `json:"uptime_seconds"`

	ActiveConnections int64 `json:"active_connections"`
	TotalConnections  int64 `json:"total_connections"`
	SuccessfulLogins  int64 `json:"successful_logins"`
	FailedLogins      int64 `json:"failed_logins"`
	TotalDisconnects  int64 `json:"total_disconnects"`

	MessagesSent int64 `json:"messages_sent"`

	RoomsCreated int64 `json:"rooms_created"`
	RoomsClosed  int64 `json:"rooms_closed"`
	RoomsEmptied int64 `json:"rooms_emptied"`

	KickCount int64 `json:"kick_count"`
	BanCount  int64 `json:"ban_count"`
}

// Snapshot returns a read-consistent snapshot of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	uptime := time.Since(m.startTime)
	return MetricsSnapshot{
		Uptime:            uptime.Truncate(time.Second).String(),
		UptimeSeconds:     int64(uptime.Seconds()),
		ActiveConnections: m.ActiveConnections.Load(),
		TotalConnections:  m.TotalConnections.Load(),
		SuccessfulLogins:  m.SuccessfulLogins.Load(),
		FailedLogins:      m.FailedLogins.Load(),
		TotalDisconnects:  m.TotalDisconnects.Load(),
		MessagesSent:      m.MessagesSent.Load(),
		RoomsCreated:      m.RoomsCreated.Load(),
		RoomsClosed:       m.RoomsClosed.Load(),
		RoomsEmptied:      m.RoomsEmptied.Load(),
		KickCount:         m.KickCount.Load(),
		BanCount:          m.BanCount.Load(),
	}
}

// JSON returns the metrics snapshot as a JSON string.
func (m *Metrics) JSON() string {
	data, err := json.MarshalIndent(m.Snapshot(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// LogSummary writes a periodic metrics summary to the logger.
func (m *Metrics) LogSummary() {
	s := m.Snapshot()
	slog.Info("metrics",
		"uptime", s.Uptime,
		"connections", s.ActiveConnections,
		"total_connections", s.TotalConnections,
		"messages", s.MessagesSent,
		"rooms_created", s.RoomsCreated,
		"rooms_emptied", s.RoomsEmptied,
	)
}

// StartPeriodicLog starts a goroutine that logs metrics every interval.
// It stops when the done channel is closed.
func (m *Metrics) StartPeriodicLog(interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				m.LogSummary()
			}
		}
	}()
}
