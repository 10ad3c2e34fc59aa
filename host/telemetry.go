package host

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"tacho/core"
)

// Status is one telemetry sample, pushed to every connected client after
// each estimation cycle.
type Status struct {
	SpeedKMH   float64 `json:"speed_kmh"`
	RPM        float64 `json:"rpm"`
	Direction  string  `json:"direction"`
	DistanceM  float64 `json:"distance_m"`
	Edges      uint32  `json:"edges"`
	Interrupts uint32  `json:"interrupts"`
}

// clientCommand is what a display client may send back. reset_distance is
// the external odometer-reset trigger (a panel button on the original
// hardware).
type clientCommand struct {
	Command string `json:"command"`
}

// Telemetry is a websocket fan-out of sensor status. Read-only except for
// the distance reset command.
type Telemetry struct {
	sensor   *core.Sensor
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewTelemetry creates a telemetry hub for one sensor.
func NewTelemetry(sensor *core.Sensor, log zerolog.Logger) *Telemetry {
	return &Telemetry{
		sensor:  sensor,
		log:     log,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// SampleStatus reads the sensor's cached outputs into a Status.
func (t *Telemetry) SampleStatus() Status {
	edges, interrupts := t.sensor.Diagnostics()
	return Status{
		SpeedKMH:   t.sensor.SpeedKMH(),
		RPM:        t.sensor.RPM(),
		Direction:  t.sensor.Direction().String(),
		DistanceM:  t.sensor.Distance(),
		Edges:      edges,
		Interrupts: interrupts,
	}
}

// Broadcast pushes a status sample to all connected clients, dropping
// connections whose writes fail.
func (t *Telemetry) Broadcast(st Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for conn := range t.clients {
		if err := conn.WriteJSON(st); err != nil {
			t.log.Debug().Err(err).Msg("dropping telemetry client")
			conn.Close()
			delete(t.clients, conn)
		}
	}
}

// ServeHTTP upgrades the connection and registers the client.
func (t *Telemetry) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	t.mu.Lock()
	t.clients[conn] = struct{}{}
	n := len(t.clients)
	t.mu.Unlock()
	t.log.Info().Str("remote", r.RemoteAddr).Int("clients", n).Msg("telemetry client connected")

	go t.readLoop(conn)
}

// readLoop handles inbound client commands until the connection dies.
func (t *Telemetry) readLoop(conn *websocket.Conn) {
	defer func() {
		t.mu.Lock()
		delete(t.clients, conn)
		t.mu.Unlock()
		conn.Close()
	}()

	for {
		var cmd clientCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		switch cmd.Command {
		case "reset_distance":
			t.sensor.ResetDistance()
			t.log.Info().Msg("distance reset by client")
		default:
			t.log.Debug().Str("command", cmd.Command).Msg("unknown client command")
		}
	}
}
