/*
Package wire defines the on-wire protocol shared by the server and its clients.

This file holds the per-command content schemas. Required fields carry a
validate tag; everything else is optional on the wire.
*/
package wire

// RegisterContent is the payload of CmdRegister. OpenKey is the client's
// PKIX-encoded RSA public key, used to deliver the session key confidentially.
type RegisterContent struct {
	User    *UserInfo `json:"user" validate:"required"`
	OpenKey []byte    `json:"openKey" validate:"required"`
}

// RegistrationResponseContent answers a CmdRegister. On success SealedKey
// holds the symmetric session key encrypted with the client's public key.
type RegistrationResponseContent struct {
	Registered bool   `json:"registered"`
	Message    string `json:"message,omitempty"`
	SealedKey  []byte `json:"sealedKey,omitempty"`
}

// RoomContent names a room for commands that need nothing else
// (create, delete, exit, refresh).
type RoomContent struct {
	RoomName string `json:"roomName" validate:"required"`
}

// RoomMessageContent is the payload of CmdSendRoomMessage.
type RoomMessageContent struct {
	RoomName string `json:"roomName" validate:"required"`
	Text     string `json:"text" validate:"required"`
}

// UsersContent targets a set of users in a room (invite, kick).
type UsersContent struct {
	RoomName string     `json:"roomName" validate:"required"`
	Users    []UserInfo `json:"users" validate:"required"`
}

// SetAdminContent is the payload of CmdSetRoomAdmin.
type SetAdminContent struct {
	RoomName string `json:"roomName" validate:"required"`
	NewAdmin string `json:"newAdmin" validate:"required"`
}

// FileContent is the payload of CmdAddFileToRoom and CmdRemoveFileFromRoom.
type FileContent struct {
	RoomName string           `json:"roomName" validate:"required"`
	File     *FileDescription `json:"file" validate:"required"`
}

// PeerContent names the other party of a peer introduction
// (CmdP2PConnectRequest, CmdP2PReadyAccept).
type PeerContent struct {
	Nick string `json:"nick" validate:"required"`
}

// RoomRefreshedContent carries a room's current state and the resolved
// user records of its members.
type RoomRefreshedContent struct {
	Room  RoomInfo   `json:"room"`
	Users []UserInfo `json:"users"`
}

// RoomOpenedContent notifies a user that a room became available to them.
type RoomOpenedContent struct {
	Room  RoomInfo   `json:"room"`
	Users []UserInfo `json:"users"`
}

// RoomClosedContent notifies a user that a room is no longer available to them.
type RoomClosedContent struct {
	Room RoomInfo `json:"room"`
}

// OutRoomMessageContent delivers a chat message to a room member.
type OutRoomMessageContent struct {
	RoomName string `json:"roomName"`
	Sender   string `json:"sender"`
	Text     string `json:"text"`
}

// SystemMessageID identifies a localizable system notification. The client
// owns the message text; the server only ships the id and format parameters.
type SystemMessageID uint16

const (
	SysRoomAccessDenied SystemMessageID = iota + 1
	SysRoomNotFound
	SysRoomNameTaken
	SysUserNotFound
	SysFileAccessDenied
	SysRoomAdminChanged
)

// SystemMessageContent is the payload of CmdOutSystemMessage.
type SystemMessageContent struct {
	Message SystemMessageID `json:"message"`
	Params  []string        `json:"params,omitempty"`
}

// FilePostedContent and FileRemovedContent notify room members about
// changes to the posted-file set.
type FilePostedContent struct {
	RoomName string          `json:"roomName"`
	File     FileDescription `json:"file"`
}

type FileRemovedContent struct {
	RoomName string          `json:"roomName"`
	File     FileDescription `json:"file"`
}

// WaitPeerConnectionContent tells the introduction target who wants a direct
// session and where that peer can be reached.
type WaitPeerConnectionContent struct {
	RequesterNick     string   `json:"requesterNick"`
	RequesterEndpoint string   `json:"requesterEndpoint"`
	Requester         UserInfo `json:"requester"`
}

// ConnectToPeerContent relays the accepting side's endpoint back to the
// introduction requester.
type ConnectToPeerContent struct {
	PeerNick     string `json:"peerNick"`
	PeerEndpoint string `json:"peerEndpoint"`
}
