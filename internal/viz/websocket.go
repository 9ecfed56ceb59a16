package viz

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// event is the wire format pushed to viewers. Binary payloads ride as
// base64 via encoding/json.
type event struct {
	Kind   string    `json:"kind"`
	Topic  string    `json:"topic,omitempty"`
	Time   float64   `json:"time,omitempty"`
	Points []float32 `json:"points,omitempty"`
	Colors []uint8   `json:"colors,omitempty"`
	Width  int       `json:"width,omitempty"`
	Height int       `json:"height,omitempty"`
	Format string    `json:"format,omitempty"`
	Data   []byte    `json:"data,omitempty"`
	Value  float64   `json:"value,omitempty"`
	Name   string    `json:"name,omitempty"`
}

// WebSocketSink broadcasts events to every connected viewer. Viewers may
// attach and detach at any time; a slow or dead connection is dropped
// rather than stalling the pipeline.
type WebSocketSink struct {
	log      zerolog.Logger
	upgrader websocket.Upgrader
	server   *http.Server

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewWebSocketSink starts an HTTP server on addr whose /ws endpoint
// upgrades viewers to a websocket event stream.
func NewWebSocketSink(addr string, log zerolog.Logger) *WebSocketSink {
	s := &WebSocketSink{
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		conns:    make(map[*websocket.Conn]struct{}),
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", s.Handler())
	s.server = &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("visualization server stopped")
		}
	}()
	log.Info().Str("addr", addr).Msg("visualization stream listening on /ws")
	return s
}

// Handler returns the websocket upgrade handler.
func (s *WebSocketSink) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warn().Err(err).Msg("viewer upgrade failed")
			return
		}
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		s.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("viewer connected")
	})
}

func (s *WebSocketSink) broadcast(ev event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("viz: marshal event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			s.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("viewer disconnected")
			conn.Close()
			delete(s.conns, conn)
		}
	}
	return nil
}

func (s *WebSocketSink) LogPoints(topic string, t float64, points []Point) error {
	flat := make([]float32, 0, len(points)*3)
	colors := make([]uint8, 0, len(points)*4)
	for _, p := range points {
		flat = append(flat, p.X, p.Y, p.Z)
		colors = append(colors, p.R, p.G, p.B, p.A)
	}
	return s.broadcast(event{Kind: "points", Topic: topic, Time: t, Points: flat, Colors: colors})
}

func (s *WebSocketSink) LogImage(topic string, t float64, width, height int, rgb []byte) error {
	return s.broadcast(event{Kind: "image", Topic: topic, Time: t, Width: width, Height: height, Data: rgb})
}

func (s *WebSocketSink) LogEncodedImage(topic string, t float64, format string, data []byte) error {
	return s.broadcast(event{Kind: "encoded_image", Topic: topic, Time: t, Format: format, Data: data})
}

func (s *WebSocketSink) LogScalar(topic string, t float64, value float64) error {
	return s.broadcast(event{Kind: "scalar", Topic: topic, Time: t, Value: value})
}

func (s *WebSocketSink) LogAsset(name string, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("viz: read scene asset %s: %w", path, err)
	}
	return s.broadcast(event{Kind: "asset", Name: name, Data: data})
}

func (s *WebSocketSink) Close() error {
	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
		delete(s.conns, conn)
	}
	s.mu.Unlock()
	return s.server.Close()
}
