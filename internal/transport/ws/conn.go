/*
Package ws implements the WebSocket transport behind the engine's Transport
interface.

This file defines the Conn struct, one per active WebSocket connection. It
runs the read and write pumps, handles heartbeats, and applies the secure
channel once the connection has registered and received its session key.
*/
package ws

import (
	"bytes"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"peerchat/internal/app/crypter"
	"peerchat/internal/app/wire"
	"peerchat/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// how long to wait for a Pong before considering the connection dead.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// capacity of the per-connection outbound queue.
	sendBuffer = 256
)

var (
	errConnClosed    = errors.New("ws: connection closed")
	errSendQueueFull = errors.New("ws: send queue full")
)

// outFrame is one queued outbound WebSocket frame.
type outFrame struct {
	messageType int
	data        []byte
}

// Conn represents an active WebSocket connection. Before registration it is
// known by a temporary id; registration renames it to the user's nickname and
// installs its session crypter.
type Conn struct {
	server *Server

	// underlying WebSocket connection object.
	ws *websocket.Conn

	// mu guards id and crypter, which change once at registration, and the
	// sendClosed flag.
	mu sync.RWMutex

	// id is the connection key: temporary id, then nickname.
	id string

	// cr encrypts outbound and decrypts inbound frames once the session key
	// is installed. Nil until registration.
	cr *crypter.Crypter

	// send queues frames waiting to be written to the socket.
	send chan outFrame

	// sendClosed marks the queue as closed so racing enqueues fail instead
	// of sending on a closed channel.
	sendClosed bool

	// closeOnce guards the send channel shutdown.
	closeOnce sync.Once

	// structured logger with connection context. Immutable after
	// construction; the pump goroutines read it without locking.
	logger zerolog.Logger
}

func newConn(server *Server, wsConn *websocket.Conn, id string) *Conn {
	connLogger := logx.Logger().With().
		Str("component", "ws").
		Str("connection_id", id).
		Logger()

	return &Conn{
		server: server,
		ws:     wsConn,
		id:     id,
		send:   make(chan outFrame, sendBuffer),
		logger: connLogger,
	}
}

// ID returns the current connection key.
func (c *Conn) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

// setIdentity renames the connection and installs its session crypter.
func (c *Conn) setIdentity(nick string, cr *crypter.Crypter) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.id = nick
	c.cr = cr
}

// enqueue queues one outbound frame without blocking. It fails when the
// connection has shut down or the queue is full.
func (c *Conn) enqueue(frame outFrame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.sendClosed {
		return errConnClosed
	}

	select {
	case c.send <- frame:
		return nil
	default:
		return errSendQueueFull
	}
}

// shutdown closes the outbound queue, which terminates the write pump. The
// flag flips under the same lock enqueue holds, so a racing enqueue either
// lands before the close or fails cleanly.
func (c *Conn) shutdown() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.sendClosed = true
		close(c.send)
		c.mu.Unlock()
	})
}

// readPump reads frames from the socket, decodes them into wire messages, and
// hands them to the bound handler. Messages of one connection are dispatched
// in arrival order; distinct connections dispatch concurrently.
func (c *Conn) readPump() {
	defer c.cleanupOnDisconnect()

	c.ws.SetReadLimit(c.server.maxMessageBytes)

	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (client close/going away)")
			}
			break
		}

		msg, derr := c.decodeFrame(messageType, data)
		if derr != nil {
			c.logger.Warn().Err(derr).Msg("Discarding undecodable frame")
			continue
		}

		c.server.dispatch(c.ID(), msg)
	}
}

// cleanupOnDisconnect unregisters the connection and cascades the user
// removal when the read pump terminates.
func (c *Conn) cleanupOnDisconnect() {
	c.logger.Info().Msg("Connection cleanup starting.")

	c.server.dropConn(c)

	if err := c.ws.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Connection close error")
	}

	c.server.disconnected(c.ID())
}

// decodeFrame turns one inbound frame into a wire message. Text frames carry
// a plaintext JSON envelope; binary frames carry a secure-channel envelope and
// are only valid once the session key is installed.
func (c *Conn) decodeFrame(messageType int, data []byte) (wire.Message, error) {
	var msg wire.Message

	if messageType == websocket.BinaryMessage {
		c.mu.RLock()
		cr := c.cr
		c.mu.RUnlock()

		if cr == nil {
			return msg, errSecureFrameBeforeKey
		}

		if err := cr.DecryptObject(bytes.NewReader(data), &msg); err != nil {
			return msg, err
		}
		return msg, nil
	}

	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, err
	}
	return msg, nil
}

// encodeFrame serializes one outbound wire message. The registration response
// must stay plaintext: it carries the sealed session key the client needs
// before it can decrypt anything.
func (c *Conn) encodeFrame(msg wire.Message) (outFrame, error) {
	c.mu.RLock()
	cr := c.cr
	c.mu.RUnlock()

	if cr != nil && msg.ID != wire.CmdRegistrationResponse {
		var buf bytes.Buffer
		if err := cr.EncryptObject(msg, &buf); err != nil {
			return outFrame{}, err
		}
		return outFrame{messageType: websocket.BinaryMessage, data: buf.Bytes()}, nil
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return outFrame{}, err
	}
	return outFrame{messageType: websocket.TextMessage, data: data}, nil
}

// writePump writes queued frames to the socket and keeps the connection alive
// with periodic pings. It exits when the send channel closes.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		c.mu.RLock()
		cr := c.cr
		c.mu.RUnlock()
		if cr != nil {
			cr.Close()
		}

		if err := c.ws.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in write pump")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline")
				return
			}

			if !ok {
				// the server closed the queue
				_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.ws.WriteMessage(frame.messageType, frame.data); err != nil {
				c.logger.Info().Err(err).Msg("Write failed, dropping connection")
				return
			}

		case <-ticker.C:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline")
				return
			}

			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Info().Err(err).Msg("Ping failed, dropping connection")
				return
			}
		}
	}
}
