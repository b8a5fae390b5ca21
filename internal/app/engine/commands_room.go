/*
Package engine contains the core chat state machine.

This file holds the room commands: messaging, creation, deletion, invites,
kicks, exits, roster refreshes, and admin transfer. Authorization and state
conflicts answer the offending connection with a system message and return
normally; only structurally malformed payloads produce errors.
*/
package engine

import (
	"encoding/json"

	"peerchat/internal/app/wire"
)

// handleSendRoomMessage broadcasts a chat message to every member of a room.
func (a *API) handleSendRoomMessage(content json.RawMessage, args Args) error {
	var c wire.RoomMessageContent
	if cerr := a.decodeContent(content, &c); cerr != nil {
		return cerr
	}

	sc := a.storage.Open()
	defer sc.Close()

	room := a.lookupRoom(sc, c.RoomName, args.ConnectionID)
	if room == nil {
		return nil
	}

	if !room.Contains(args.ConnectionID) {
		a.SendSystemMessage(args.ConnectionID, wire.SysRoomAccessDenied, room.Name)
		return nil
	}

	out := wire.OutRoomMessageContent{
		RoomName: room.Name,
		Sender:   args.ConnectionID,
		Text:     c.Text,
	}

	for _, member := range room.Members() {
		a.send(member, wire.CmdOutRoomMessage, out)
	}

	return nil
}

// handleCreateRoom creates a room with the requester as first member and admin.
func (a *API) handleCreateRoom(content json.RawMessage, args Args) error {
	var c wire.RoomContent
	if cerr := a.decodeContent(content, &c); cerr != nil {
		return cerr
	}

	sc := a.storage.Open()
	defer sc.Close()

	if _, ok := sc.User(args.ConnectionID); !ok {
		a.SendSystemMessage(args.ConnectionID, wire.SysUserNotFound, args.ConnectionID)
		return nil
	}

	room, cerr := sc.CreateRoom(c.RoomName, args.ConnectionID)
	if cerr != nil {
		a.SendSystemMessage(args.ConnectionID, wire.SysRoomNameTaken, c.RoomName)
		return nil
	}

	a.send(args.ConnectionID, wire.CmdRoomOpened, wire.RoomOpenedContent(a.rosterContent(sc, room)))
	return nil
}

// handleDeleteRoom deletes a room on behalf of its admin. Remaining members
// are vacated first and notified that the room closed. The lobby is exempt.
func (a *API) handleDeleteRoom(content json.RawMessage, args Args) error {
	var c wire.RoomContent
	if cerr := a.decodeContent(content, &c); cerr != nil {
		return cerr
	}

	if c.RoomName == LobbyName {
		a.SendSystemMessage(args.ConnectionID, wire.SysRoomAccessDenied, c.RoomName)
		return nil
	}

	sc := a.storage.Open()
	defer sc.Close()

	room := a.lookupRoom(sc, c.RoomName, args.ConnectionID)
	if room == nil {
		return nil
	}

	if room.Admin != args.ConnectionID {
		a.SendSystemMessage(args.ConnectionID, wire.SysRoomAccessDenied, room.Name)
		return nil
	}

	closed := wire.RoomClosedContent{Room: room.Info()}

	members := room.Members()
	for _, member := range members {
		room.RemoveMember(member)
	}

	if cerr := sc.DeleteRoom(room.Name); cerr != nil {
		a.logger.Error().Str("room", room.Name).Err(cerr).Msg("Failed to delete vacated room")
		return nil
	}

	for _, member := range members {
		a.send(member, wire.CmdRoomClosed, closed)
	}

	return nil
}

// handleInviteUsers adds target users to a room on behalf of its admin.
// Unknown targets are reported per target; already present targets are
// skipped. The lobby accepts no invites.
func (a *API) handleInviteUsers(content json.RawMessage, args Args) error {
	var c wire.UsersContent
	if cerr := a.decodeContent(content, &c); cerr != nil {
		return cerr
	}

	if c.RoomName == LobbyName {
		a.SendSystemMessage(args.ConnectionID, wire.SysRoomAccessDenied, c.RoomName)
		return nil
	}

	sc := a.storage.Open()
	defer sc.Close()

	room := a.lookupRoom(sc, c.RoomName, args.ConnectionID)
	if room == nil {
		return nil
	}

	if room.Admin != args.ConnectionID {
		a.SendSystemMessage(args.ConnectionID, wire.SysRoomAccessDenied, room.Name)
		return nil
	}

	var invited []string

	for _, target := range c.Users {
		if _, ok := sc.User(target.Nick); !ok {
			a.SendSystemMessage(args.ConnectionID, wire.SysUserNotFound, target.Nick)
			continue
		}

		if room.Contains(target.Nick) {
			continue
		}

		room.AddMember(target.Nick)
		invited = append(invited, target.Nick)
	}

	if len(invited) == 0 {
		return nil
	}

	opened := wire.RoomOpenedContent(a.rosterContent(sc, room))
	for _, nick := range invited {
		a.send(nick, wire.CmdRoomOpened, opened)
	}

	a.refreshRoom(sc, room, invited...)
	return nil
}

// handleKickUsers removes target users from a room on behalf of its admin.
// Kicking a non-member is a per-target no-op; the admin kicking itself is
// denied per target. The lobby is exempt from kicks.
func (a *API) handleKickUsers(content json.RawMessage, args Args) error {
	var c wire.UsersContent
	if cerr := a.decodeContent(content, &c); cerr != nil {
		return cerr
	}

	if c.RoomName == LobbyName {
		a.SendSystemMessage(args.ConnectionID, wire.SysRoomAccessDenied, c.RoomName)
		return nil
	}

	sc := a.storage.Open()
	defer sc.Close()

	room := a.lookupRoom(sc, c.RoomName, args.ConnectionID)
	if room == nil {
		return nil
	}

	if room.Admin != args.ConnectionID {
		a.SendSystemMessage(args.ConnectionID, wire.SysRoomAccessDenied, room.Name)
		return nil
	}

	closed := wire.RoomClosedContent{Room: room.Info()}
	kicked := 0

	for _, target := range c.Users {
		if !room.Contains(target.Nick) {
			continue
		}

		if target.Nick == room.Admin {
			a.SendSystemMessage(args.ConnectionID, wire.SysRoomAccessDenied, room.Name)
			continue
		}

		room.RemoveMember(target.Nick)
		a.send(target.Nick, wire.CmdRoomClosed, closed)
		kicked++
	}

	if kicked > 0 {
		a.refreshRoom(sc, room)
	}

	return nil
}

// handleExitRoom removes the requester from a room it is a member of.
// Leaving the lobby is denied; unregistering is the way out of the lobby.
func (a *API) handleExitRoom(content json.RawMessage, args Args) error {
	var c wire.RoomContent
	if cerr := a.decodeContent(content, &c); cerr != nil {
		return cerr
	}

	if c.RoomName == LobbyName {
		a.SendSystemMessage(args.ConnectionID, wire.SysRoomAccessDenied, c.RoomName)
		return nil
	}

	sc := a.storage.Open()
	defer sc.Close()

	room := a.lookupRoom(sc, c.RoomName, args.ConnectionID)
	if room == nil {
		return nil
	}

	if !room.Contains(args.ConnectionID) {
		a.SendSystemMessage(args.ConnectionID, wire.SysRoomAccessDenied, room.Name)
		return nil
	}

	adminChanged := room.RemoveMember(args.ConnectionID)

	if adminChanged && room.Admin != "" {
		a.SendSystemMessage(room.Admin, wire.SysRoomAdminChanged, room.Name)
	}

	a.send(args.ConnectionID, wire.CmdRoomClosed, wire.RoomClosedContent{Room: room.Info()})
	a.refreshRoom(sc, room)

	return nil
}

// handleRefreshRoom re-sends the current roster to the requesting member.
func (a *API) handleRefreshRoom(content json.RawMessage, args Args) error {
	var c wire.RoomContent
	if cerr := a.decodeContent(content, &c); cerr != nil {
		return cerr
	}

	sc := a.storage.Open()
	defer sc.Close()

	room := a.lookupRoom(sc, c.RoomName, args.ConnectionID)
	if room == nil {
		return nil
	}

	if !room.Contains(args.ConnectionID) {
		a.SendSystemMessage(args.ConnectionID, wire.SysRoomAccessDenied, room.Name)
		return nil
	}

	a.send(args.ConnectionID, wire.CmdRoomRefreshed, a.rosterContent(sc, room))
	return nil
}

// handleSetRoomAdmin transfers adminship to another current member.
func (a *API) handleSetRoomAdmin(content json.RawMessage, args Args) error {
	var c wire.SetAdminContent
	if cerr := a.decodeContent(content, &c); cerr != nil {
		return cerr
	}

	sc := a.storage.Open()
	defer sc.Close()

	room := a.lookupRoom(sc, c.RoomName, args.ConnectionID)
	if room == nil {
		return nil
	}

	if room.Admin != args.ConnectionID {
		a.SendSystemMessage(args.ConnectionID, wire.SysRoomAccessDenied, room.Name)
		return nil
	}

	if !room.Contains(c.NewAdmin) {
		a.SendSystemMessage(args.ConnectionID, wire.SysUserNotFound, c.NewAdmin)
		return nil
	}

	room.Admin = c.NewAdmin

	a.SendSystemMessage(c.NewAdmin, wire.SysRoomAdminChanged, room.Name)
	a.refreshRoom(sc, room)

	return nil
}
