// Package web is the settings and telemetry surface: REST endpoints for
// reading and writing the shared simulation parameters, and a websocket that
// broadcasts per-frame telemetry to connected clients. Writes are clamped at
// the parameter store, so a remote client can never push the simulation out
// of its documented ranges.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lumisonic/lumisonic/internal/params"
)

const (
	telemetryInterval = 500 * time.Millisecond
	pongWait          = 60 * time.Second
	pingPeriod        = 54 * time.Second
	writeWait         = 10 * time.Second
)

// Telemetry is the read-only state pushed over the websocket.
type Telemetry struct {
	FPS           float64 `json:"fps"`
	Emotion       string  `json:"emotion"`
	Volume        float64 `json:"volume"`
	VolumeChange  float64 `json:"volumeChange"`
	RhythmTier    int     `json:"rhythmTier"`
	DominantBin   int     `json:"dominantBin"`
	Concentration float64 `json:"concentration"`
	TotalEnergy   float64 `json:"totalEnergy"`
	Particles     int     `json:"particles"`
}

// Source provides the telemetry snapshot; the render loop implements it.
type Source interface {
	Telemetry() Telemetry
}

// UpdateRequest is a partial parameter write; nil fields keep their current
// value.
type UpdateRequest struct {
	SmoothingFactor      *float64 `json:"smoothingFactor,omitempty"`
	MinThreshold         *float64 `json:"minThreshold,omitempty"`
	FallSpeed            *float64 `json:"fallSpeed,omitempty"`
	MinFallSpeed         *float64 `json:"minFallSpeed,omitempty"`
	MelSensitivity       *float64 `json:"melSensitivity,omitempty"`
	SoloResponseStrength *float64 `json:"soloResponseStrength,omitempty"`
	DisplayMode          *string  `json:"displayMode,omitempty"`
}

// Server owns the HTTP handlers and the websocket client set.
type Server struct {
	store    *params.Store
	source   Source
	log      *log.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewServer wires the server to the shared parameter store and a telemetry
// source.
func NewServer(store *params.Store, source Source, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &Server{
		store:  store,
		source: source,
		log:    logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]bool),
	}
}

// Handler returns the HTTP routes, exposed separately for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/params", s.handleParams)
	mux.HandleFunc("/api/params/reset", s.handleReset)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Start serves until the context is canceled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	go s.telemetryLoop(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Printf("settings server listening on http://%s", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, s.store.Snapshot())
	case http.MethodPost:
		var req UpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		cur := s.store.Snapshot()
		if req.SmoothingFactor != nil {
			cur.SmoothingFactor = *req.SmoothingFactor
		}
		if req.MinThreshold != nil {
			cur.MinThreshold = *req.MinThreshold
		}
		if req.FallSpeed != nil {
			cur.FallSpeed = *req.FallSpeed
		}
		if req.MinFallSpeed != nil {
			cur.MinFallSpeed = *req.MinFallSpeed
		}
		if req.MelSensitivity != nil {
			cur.MelSensitivity = *req.MelSensitivity
		}
		if req.SoloResponseStrength != nil {
			cur.SoloResponseStrength = *req.SoloResponseStrength
		}
		if req.DisplayMode != nil {
			cur.Mode = params.ParseDisplayMode(*req.DisplayMode)
		}
		s.store.Update(cur)
		writeJSON(w, s.store.Snapshot())
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.store.ResetToDefaults()
	writeJSON(w, s.store.Snapshot())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.source.Telemetry())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Printf("websocket upgrade: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 16)}

	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()

	go c.writePump()
	go s.readPump(c)
}

// telemetryLoop pushes the latest telemetry to every client at a fixed rate,
// dropping frames for clients that cannot keep up.
func (s *Server) telemetryLoop(ctx context.Context) {
	ticker := time.NewTicker(telemetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		data, err := json.Marshal(s.source.Telemetry())
		if err != nil {
			continue
		}

		s.mu.Lock()
		for c := range s.clients {
			select {
			case c.send <- data:
			default:
				close(c.send)
				delete(s.clients, c)
			}
		}
		s.mu.Unlock()
	}
}

func (s *Server) readPump(c *client) {
	defer func() {
		s.mu.Lock()
		if s.clients[c] {
			delete(s.clients, c)
			close(c.send)
		}
		s.mu.Unlock()
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
