// Package emulator serves the speaker control protocol over WebSocket so the
// client and its front ends can be exercised without hardware.
package emulator

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/mbocsi/dutchctl/proto"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Speaker emulates a room master: one room with a left and a right unit.
type Speaker struct {
	Addr     string
	Hostname string // reported as the master hostname
	Room     string

	server *http.Server
	ln     net.Listener

	mu       sync.Mutex
	state    State
	requests []proto.Meta

	cmu        sync.Mutex
	clients    int
	maxClients int
}

func NewSpeaker(addr, hostname string) *Speaker {
	return &Speaker{
		Addr:       addr,
		Hostname:   hostname,
		Room:       "room-" + hostname,
		state:      DefaultState(),
		maxClients: 4,
	}
}

func (s *Speaker) SetMaxClients(n int) {
	s.cmu.Lock()
	defer s.cmu.Unlock()
	s.maxClients = n
}

// Listen binds the control address. Start calls it if needed; calling it
// first lets the caller learn a kernel-assigned port.
func (s *Speaker) Listen() error {
	if s.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.Addr = ln.Addr().String()
	s.server = &http.Server{Handler: s.Handler()}
	return nil
}

// Start serves until Shutdown is called.
func (s *Speaker) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	slog.Info("Starting speaker emulator", "addr", s.Addr, "hostname", s.Hostname, "room", s.Room)
	err := s.server.Serve(s.ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Speaker) Shutdown() error {
	slog.Info("Shutting down speaker emulator", "addr", s.Addr)
	if s.server == nil {
		return nil
	}
	err := s.server.Close()
	s.ln.Close()
	return err
}

// Handler upgrades every request to a control connection.
func (s *Speaker) Handler() http.Handler {
	return http.HandlerFunc(s.handleWebSocket)
}

// Port returns the control port reported in master reads.
func (s *Speaker) Port() int {
	_, port, err := net.SplitHostPort(s.Addr)
	if err != nil {
		return 0
	}
	n, _ := strconv.Atoi(port)
	return n
}

// State returns a snapshot of the emulated settings.
func (s *Speaker) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Requests returns the meta of every request received, in order.
func (s *Speaker) Requests() []proto.Meta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]proto.Meta(nil), s.requests...)
}

func (s *Speaker) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.cmu.Lock()
	if s.clients >= s.maxClients {
		s.cmu.Unlock()
		slog.Warn("Max clients reached, rejecting connection", "remote_addr", r.RemoteAddr)
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	s.clients++
	s.cmu.Unlock()

	defer func() {
		s.cmu.Lock()
		s.clients--
		s.cmu.Unlock()
	}()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection", "error", err)
		return
	}
	s.handleConnection(conn, r.RemoteAddr)
}

func (s *Speaker) handleConnection(conn *websocket.Conn, remoteAddr string) {
	slog.Info("Control connection opened", "addr", remoteAddr)
	defer func() {
		conn.Close()
		slog.Info("Control connection closed", "addr", remoteAddr)
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("WebSocket connection error", "addr", remoteAddr, "error", err)
			}
			return
		}

		env, err := proto.Decode(msg)
		if err != nil {
			slog.Warn("Invalid JSON message received", "error", err, "data", string(msg))
			continue
		}
		slog.Debug("Control message received", "method", env.Meta.Method, "endpoint", env.Meta.Endpoint, "target", env.Meta.Target)

		resp, err := s.handle(env)
		if err != nil {
			slog.Warn("Rejected control message", "endpoint", env.Meta.Endpoint, "error", err)
			resp = errorResponse(env.Meta, err)
		}
		if err := conn.WriteMessage(websocket.TextMessage, resp); err != nil {
			slog.Warn("Failed to write response", "addr", remoteAddr, "error", err)
			return
		}
	}
}
