/*
Package wire defines the on-wire protocol shared by the server and its clients.

Every frame carries a numeric command id selecting a handler, plus a serialized
content payload. Server-bound command ids live in the 1-99 range, client-bound
notification ids start at 100. The content schemas carry validator tags; a
payload missing a required field is rejected before any handler logic runs.
*/
package wire

import "encoding/json"

// CommandID is the numeric wire identifier selecting a command handler.
type CommandID uint16

// Server-bound commands (client -> server).
const (
	CmdRegister CommandID = iota + 1
	CmdUnregister
	CmdSendRoomMessage
	CmdCreateRoom
	CmdDeleteRoom
	CmdInviteUsers
	CmdKickUsers
	CmdExitRoom
	CmdRefreshRoom
	CmdSetRoomAdmin
	CmdAddFileToRoom
	CmdRemoveFileFromRoom
	CmdP2PConnectRequest
	CmdP2PReadyAccept
	CmdPingRequest
)

// Client-bound notifications (server -> client).
const (
	CmdRegistrationResponse CommandID = iota + 100
	CmdRoomRefreshed
	CmdRoomOpened
	CmdRoomClosed
	CmdOutRoomMessage
	CmdOutSystemMessage
	CmdFilePosted
	CmdFileRemoved
	CmdWaitPeerConnection
	CmdConnectToPeer
	CmdPingResponse
)

// Message is the frame envelope: a command id and its serialized content.
type Message struct {
	ID      CommandID       `json:"id"`
	Content json.RawMessage `json:"content,omitempty"`
}

// UserInfo is the wire representation of a registered user.
type UserInfo struct {
	Nick string `json:"nick" validate:"required"`
}

// FileDescription describes a file posted to a room. Two descriptions are
// the same posting iff they are equal by value.
type FileDescription struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Owner string `json:"owner"`
	Size  int64  `json:"size"`
}

// RoomInfo is the wire representation of a room and its roster.
type RoomInfo struct {
	Name    string            `json:"name"`
	Admin   string            `json:"admin,omitempty"`
	Members []string          `json:"members"`
	Files   []FileDescription `json:"files,omitempty"`
}
