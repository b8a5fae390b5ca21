/*
Package ws implements the WebSocket transport behind the engine's Transport
interface.

This file defines the Server struct: the registry of live connections keyed by
connection id (temporary id before registration, nickname afterwards), the
engine-facing Transport methods, and graceful shutdown.
*/
package ws

import (
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"peerchat/internal/app/crypter"
	"peerchat/internal/app/wire"
	"peerchat/internal/pkg/logx"
	"peerchat/internal/pkg/randx"
)

var errSecureFrameBeforeKey = errors.New("ws: binary frame before session key exchange")

// Handler is the engine-side consumer of inbound traffic. Dispatch is invoked
// once per inbound message; RemoveUser is invoked when a connection's read
// pump terminates for any reason.
type Handler interface {
	Dispatch(connectionID string, msg wire.Message)
	RemoveUser(nick string)
}

// Server owns every live WebSocket connection and implements the engine's
// Transport interface.
type Server struct {
	// mu protects the conns map.
	mu sync.RWMutex

	// conns maps connection id to connection.
	conns map[string]*Conn

	// handler receives inbound messages and disconnect events. Bound once,
	// before the first connection is accepted.
	handler Handler

	// maxMessageBytes caps the size of one inbound frame.
	maxMessageBytes int64

	// structured logger with transport context.
	logger zerolog.Logger
}

// NewServer constructs the transport. Bind must be called before Accept.
func NewServer(maxMessageBytes int64) *Server {
	return &Server{
		conns:           make(map[string]*Conn),
		maxMessageBytes: maxMessageBytes,
		logger:          logx.Logger().With().Str("component", "ws").Logger(),
	}
}

// Bind attaches the engine to the transport.
func (s *Server) Bind(handler Handler) {
	s.handler = handler
}

// Accept takes ownership of an upgraded WebSocket connection, assigns it a
// temporary id, and runs its pumps. It blocks until the connection closes, so
// it is called from the HTTP handler goroutine.
func (s *Server) Accept(wsConn *websocket.Conn) error {
	id, err := randx.TempConnectionID()
	if err != nil {
		_ = wsConn.Close()
		return fmt.Errorf("failed to assign connection id: %w", err)
	}

	conn := newConn(s, wsConn, id)

	s.mu.Lock()
	s.conns[id] = conn
	s.mu.Unlock()

	s.logger.Info().Str("connection_id", id).Msg("Connection accepted")

	go conn.writePump()
	conn.readPump()

	return nil
}

// conn returns the live connection with the given id, if any.
func (s *Server) conn(connectionID string) *Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conns[connectionID]
}

// dropConn removes a connection from the registry and closes its queue.
func (s *Server) dropConn(c *Conn) {
	s.mu.Lock()
	if current, ok := s.conns[c.ID()]; ok && current == c {
		delete(s.conns, c.ID())
	}
	s.mu.Unlock()

	c.shutdown()
}

// dispatch forwards one inbound message to the bound handler.
func (s *Server) dispatch(connectionID string, msg wire.Message) {
	if s.handler == nil {
		s.logger.Warn().Str("connection_id", connectionID).Msg("Message dropped: no handler bound")
		return
	}

	s.handler.Dispatch(connectionID, msg)
}

// disconnected tells the engine a connection is gone so the user removal
// cascade can run. Temporary ids never registered a user, so they are
// filtered out here.
func (s *Server) disconnected(connectionID string) {
	if s.handler == nil || randx.IsTempConnectionID(connectionID) {
		return
	}

	s.handler.RemoveUser(connectionID)
}

// RegisterConnection promotes a temporary connection to a registered one:
// the registry key moves from the temporary id to the nickname, a fresh
// session key is generated and installed, and the key is returned sealed
// with the client's public key.
func (s *Server) RegisterConnection(tempID, nick string, openKey *rsa.PublicKey) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, ok := s.conns[tempID]
	if !ok {
		return nil, fmt.Errorf("unknown connection %q", tempID)
	}

	if _, taken := s.conns[nick]; taken {
		return nil, fmt.Errorf("connection id %q already in use", nick)
	}

	cr := crypter.New()
	if _, err := cr.GenerateKey(); err != nil {
		return nil, err
	}

	sealed, err := cr.SealKeyFor(openKey)
	if err != nil {
		return nil, err
	}

	delete(s.conns, tempID)
	s.conns[nick] = conn
	conn.setIdentity(nick, cr)

	s.logger.Info().Str("temp_id", tempID).Str("nick", nick).Msg("Connection registered")

	return sealed, nil
}

// SendMessage serializes content into the wire envelope and queues it on the
// target connection. A full queue marks the consumer as too slow and drops
// the connection rather than blocking the sender; a connection shut down
// between lookup and enqueue fails the same way instead of panicking.
func (s *Server) SendMessage(connectionID string, id wire.CommandID, content any) error {
	conn := s.conn(connectionID)
	if conn == nil {
		return fmt.Errorf("unknown connection %q", connectionID)
	}

	raw, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to serialize content for command %d: %w", id, err)
	}

	frame, err := conn.encodeFrame(wire.Message{ID: id, Content: raw})
	if err != nil {
		return fmt.Errorf("failed to encode frame for command %d: %w", id, err)
	}

	if err := conn.enqueue(frame); err != nil {
		s.logger.Warn().
			Str("connection_id", connectionID).
			Err(err).
			Msg("Send failed, dropping connection.")
		s.dropConn(conn)
		return fmt.Errorf("failed to deliver to connection %q: %w", connectionID, err)
	}

	return nil
}

// CloseConnection drops the given connection. Unknown ids are a no-op.
func (s *Server) CloseConnection(connectionID string) {
	conn := s.conn(connectionID)
	if conn == nil {
		return
	}

	s.dropConn(conn)
}

// ConnectionIDs returns a snapshot of all live connection ids.
func (s *Server) ConnectionIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.conns))
	for id := range s.conns {
		ids = append(ids, id)
	}
	return ids
}

// Endpoint returns the remote network address of a connection.
func (s *Server) Endpoint(connectionID string) (string, error) {
	conn := s.conn(connectionID)
	if conn == nil {
		return "", fmt.Errorf("unknown connection %q", connectionID)
	}

	return conn.ws.RemoteAddr().String(), nil
}

// ConnectionCount returns the number of live connections.
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

// Shutdown drops every live connection.
func (s *Server) Shutdown() {
	s.logger.Info().Msg("Shutting down transport...")

	s.mu.Lock()
	conns := make([]*Conn, 0, len(s.conns))
	for _, conn := range s.conns {
		conns = append(conns, conn)
	}
	s.conns = make(map[string]*Conn)
	s.mu.Unlock()

	for _, conn := range conns {
		conn.shutdown()
	}

	s.logger.Info().Int("connections", len(conns)).Msg("Transport shut down.")
}
