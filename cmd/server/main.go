package main

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/miretskiy/memsched/simulator"
	"github.com/miretskiy/memsched/workload"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for development
		return true
	},
}

// Client message types
type ClientMessage struct {
	Type      string               `json:"type"`
	Config    *simulator.SimConfig `json:"config,omitempty"`
	Workload  *workload.Workload   `json:"workload,omitempty"`
	Stage     string               `json:"stage,omitempty"`
	Partition string               `json:"partition,omitempty"`
}

// Server message types
type ServerMessage struct {
	Type          string                                `json:"type"`
	Config        *simulator.SimConfig                  `json:"config,omitempty"`
	Processes     int                                   `json:"processes"`
	Metrics       *simulator.Metrics                    `json:"metrics,omitempty"`
	Report        []simulator.PartitionFinalizationInfo `json:"report,omitempty"`
	Condensations []simulator.Condensation              `json:"condensations,omitempty"`
	Compactions   []simulator.Compaction                `json:"compactions,omitempty"`
	Logs          []simulator.Log                       `json:"logs,omitempty"`
	Diagnostics   []string                              `json:"diagnostics,omitempty"`
	Error         string                                `json:"error,omitempty"`
}

// simState guards one client's simulator
type simState struct {
	sim *simulator.Simulator
	mu  sync.Mutex
}

func newSimState(config simulator.SimConfig) (*simState, error) {
	sim, err := simulator.NewSimulator(config)
	if err != nil {
		return nil, err
	}
	sim.LogEvent = func(msg string) {
		log.WithField("component", "simulator").Debug(msg)
	}
	return &simState{sim: sim}, nil
}

// load replaces the inputs with the workload
func (s *simState) load(w *workload.Workload) error {
	if err := w.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return w.Apply(s.sim)
}

// run simulates the loaded processes and returns the full result
func (s *simState) run() (ServerMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sim.Run(); err != nil {
		return ServerMessage{}, err
	}
	config := s.sim.Config()
	msg := ServerMessage{
		Type:          "result",
		Config:        &config,
		Processes:     len(s.sim.Processes()),
		Metrics:       s.sim.Metrics(),
		Report:        s.sim.Report(),
		Condensations: s.sim.Condensations(),
		Compactions:   s.sim.Compactions(),
		Logs:          s.sim.Logs(),
	}
	for _, d := range s.sim.Diagnostics() {
		msg.Diagnostics = append(msg.Diagnostics, d.Error())
	}
	return msg, nil
}

// reset discards the last run
func (s *simState) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sim.Reset()
}

// updateConfig updates the configuration
func (s *simState) updateConfig(config simulator.SimConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.UpdateConfig(config)
}

// query returns the logs of a stage, optionally restricted to one partition
func (s *simState) query(stageName, partition string) ([]simulator.Log, error) {
	stage, err := simulator.ParseStage(stageName)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if partition != "" {
		return s.sim.LogsByStageAndPartition(stage, partition), nil
	}
	return s.sim.LogsByStage(stage), nil
}

// status reports the configuration and input size
func (s *simState) status() ServerMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	config := s.sim.Config()
	return ServerMessage{
		Type:      "status",
		Config:    &config,
		Processes: len(s.sim.Processes()),
		Metrics:   s.sim.Metrics(),
	}
}

// safeConn wraps a WebSocket connection with a mutex to prevent concurrent writes
type safeConn struct {
	*websocket.Conn
	writeMu sync.Mutex
}

func (sc *safeConn) WriteJSON(v interface{}) error {
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()
	return sc.Conn.WriteJSON(v)
}

func errorMessage(err error) ServerMessage {
	return ServerMessage{Type: "error", Error: err.Error()}
}

// handleMessage executes one client command and builds the reply
func handleMessage(state *simState, msg ClientMessage) ServerMessage {
	switch msg.Type {
	case "load":
		if msg.Workload == nil {
			return errorMessage(errors.New("load requires a workload"))
		}
		if err := state.load(msg.Workload); err != nil {
			return errorMessage(err)
		}
		log.WithField("processes", len(msg.Workload.Processes)).Info("Workload loaded")
		return state.status()

	case "run":
		result, err := state.run()
		if err != nil {
			return errorMessage(err)
		}
		updatePrometheusMetrics(result.Metrics)
		log.WithFields(log.Fields{
			"compactions":   result.Metrics.Compactions,
			"condensations": result.Metrics.Condensations,
			"logs":          result.Metrics.LogCount,
		}).Info("Simulation completed")
		return result

	case "reset":
		state.reset()
		log.Info("Simulator reset")
		return state.status()

	case "config_update":
		if msg.Config == nil {
			return errorMessage(errors.New("config_update requires a config"))
		}
		if err := state.updateConfig(*msg.Config); err != nil {
			return errorMessage(err)
		}
		log.WithField("config", *msg.Config).Info("Config updated")
		return state.status()

	case "query":
		logs, err := state.query(msg.Stage, msg.Partition)
		if err != nil {
			return errorMessage(err)
		}
		return ServerMessage{Type: "logs", Logs: logs}

	default:
		return errorMessage(errors.Errorf("unknown message type %q", msg.Type))
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Error("Error upgrading connection")
		return
	}
	defer conn.Close()

	// Wrap connection with mutex for safe concurrent writes
	safeConn := &safeConn{Conn: conn}

	log.WithField("remote", r.RemoteAddr).Info("Client connected")

	state, err := newSimState(simulator.DefaultConfig())
	if err != nil {
		log.WithError(err).Error("Error creating simulator")
		return
	}

	if err := safeConn.WriteJSON(state.status()); err != nil {
		log.WithError(err).Error("Error sending status")
		return
	}

	for {
		var msg ClientMessage
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).Warn("Error reading message")
			}
			break
		}

		log.WithField("type", msg.Type).Debug("Received command")
		if err := safeConn.WriteJSON(handleMessage(state, msg)); err != nil {
			log.WithError(err).Error("Error sending reply")
			break
		}
	}

	log.WithField("remote", r.RemoteAddr).Info("Client disconnected")
}

func quitHandler(w http.ResponseWriter, r *http.Request) {
	log.Info("Shutdown requested via /quitquitquit")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Server shutting down...")

	go func() {
		time.Sleep(100 * time.Millisecond)
		log.Info("Server stopped")
		os.Exit(0)
	}()
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handleWebSocket)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/quitquitquit", quitHandler)
	return mux
}

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to load .env")
	}
	if os.Getenv("MEMSCHED_DEBUG") != "" {
		log.SetLevel(log.DebugLevel)
	}

	initPrometheusMetrics()

	addr := os.Getenv("MEMSCHED_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.WithFields(log.Fields{
		"addr":      addr,
		"websocket": "/ws",
		"metrics":   "/metrics",
		"shutdown":  "/quitquitquit",
	}).Info("Server starting")
	log.Fatal(http.ListenAndServe(addr, newMux()))
}
