/*
Package engine contains the core chat state machine.

This file holds the posted-file commands. File postings form a set under value
equality; the server is authoritative for the owner field.
*/
package engine

import (
	"encoding/json"

	"peerchat/internal/app/wire"
)

// handleAddFileToRoom posts a file description to a room and notifies every
// current member. Re-posting an identical description leaves the set unchanged
// but still notifies, so late joiners converge.
func (a *API) handleAddFileToRoom(content json.RawMessage, args Args) error {
	var c wire.FileContent
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

	file := *c.File
	file.Owner = args.ConnectionID

	room.PostFile(file)

	posted := wire.FilePostedContent{RoomName: room.Name, File: file}
	for _, member := range room.Members() {
		a.send(member, wire.CmdFilePosted, posted)
	}

	return nil
}

// handleRemoveFileFromRoom removes a posted file description. Only the file's
// owner or the room admin may remove it; removing an unknown file is a no-op.
func (a *API) handleRemoveFileFromRoom(content json.RawMessage, args Args) error {
	var c wire.FileContent
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

	file, ok := room.FindFileByID(c.File.ID)
	if !ok {
		return nil
	}

	if file.Owner != args.ConnectionID && room.Admin != args.ConnectionID {
		a.SendSystemMessage(args.ConnectionID, wire.SysFileAccessDenied, file.Name)
		return nil
	}

	room.RemoveFile(file)

	removed := wire.FileRemovedContent{RoomName: room.Name, File: file}
	for _, member := range room.Members() {
		a.send(member, wire.CmdFileRemoved, removed)
	}

	return nil
}
