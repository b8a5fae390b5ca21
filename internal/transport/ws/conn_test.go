package ws

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"peerchat/internal/app/crypter"
	"peerchat/internal/app/wire"
)

func newTestConn(t *testing.T, id string) *Conn {
	t.Helper()
	return newConn(NewServer(65536), nil, id)
}

func keyedConn(t *testing.T, nick string) (*Conn, *crypter.Crypter) {
	t.Helper()

	cr := crypter.New()
	_, err := cr.GenerateKey()
	require.NoError(t, err)

	c := newTestConn(t, "temp_abc")
	c.setIdentity(nick, cr)

	return c, cr
}

func TestDecodeTextFrame(t *testing.T) {
	c := newTestConn(t, "temp_abc")

	data, err := json.Marshal(wire.Message{ID: wire.CmdPingRequest})
	require.NoError(t, err)

	msg, err := c.decodeFrame(websocket.TextMessage, data)
	require.NoError(t, err)
	require.Equal(t, wire.CmdPingRequest, msg.ID)
}

func TestDecodeTextFrameRejectsGarbage(t *testing.T) {
	c := newTestConn(t, "temp_abc")

	_, err := c.decodeFrame(websocket.TextMessage, []byte("{nope"))
	require.Error(t, err)
}

func TestDecodeBinaryFrameBeforeKeyExchange(t *testing.T) {
	c := newTestConn(t, "temp_abc")

	_, err := c.decodeFrame(websocket.BinaryMessage, []byte("whatever"))
	require.ErrorIs(t, err, errSecureFrameBeforeKey)
}

func TestSecureFrameRoundTrip(t *testing.T) {
	c, _ := keyedConn(t, "alice")

	content, err := json.Marshal(wire.RoomContent{RoomName: "dev"})
	require.NoError(t, err)

	frame, err := c.encodeFrame(wire.Message{ID: wire.CmdCreateRoom, Content: content})
	require.NoError(t, err)
	require.Equal(t, websocket.BinaryMessage, frame.messageType)

	msg, err := c.decodeFrame(frame.messageType, frame.data)
	require.NoError(t, err)
	require.Equal(t, wire.CmdCreateRoom, msg.ID)
	require.JSONEq(t, string(content), string(msg.Content))
}

func TestEncodeBeforeKeyExchangeIsPlaintext(t *testing.T) {
	c := newTestConn(t, "temp_abc")

	frame, err := c.encodeFrame(wire.Message{ID: wire.CmdOutSystemMessage})
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, frame.messageType)
}

func TestRegistrationResponseStaysPlaintext(t *testing.T) {
	c, _ := keyedConn(t, "alice")

	content, err := json.Marshal(wire.RegistrationResponseContent{Registered: true, SealedKey: []byte("k")})
	require.NoError(t, err)

	frame, err := c.encodeFrame(wire.Message{ID: wire.CmdRegistrationResponse, Content: content})
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, frame.messageType)

	var msg wire.Message
	require.NoError(t, json.Unmarshal(frame.data, &msg))
	require.Equal(t, wire.CmdRegistrationResponse, msg.ID)
}

func TestSetIdentityRenamesConnection(t *testing.T) {
	c := newTestConn(t, "temp_abc")
	require.Equal(t, "temp_abc", c.ID())

	c.setIdentity("alice", nil)
	require.Equal(t, "alice", c.ID())
}

func TestSetIdentityConcurrentWithFrameTraffic(t *testing.T) {
	c := newTestConn(t, "temp_abc")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 100 {
			frame, err := c.encodeFrame(wire.Message{ID: wire.CmdPingResponse})
			if err != nil {
				return
			}
			_ = c.enqueue(frame)
			_ = c.ID()
		}
	}()

	cr := crypter.New()
	_, err := cr.GenerateKey()
	require.NoError(t, err)
	c.setIdentity("alice", cr)

	wg.Wait()
	require.Equal(t, "alice", c.ID())
}
