/*
Package engine contains the core chat state machine.

This file defines the Room entity and its invariant-preserving membership and
file operations. A Room is only ever touched through an open storage Scope, so
the methods themselves need no locking.
*/
package engine

import (
	"slices"

	"peerchat/internal/app/wire"
)

// LobbyName is the name of the distinguished room every registered user
// belongs to. The lobby always exists and is never deleted.
const LobbyName = "Main room"

// Room is a named chat room. Members are kept in join order, which makes
// admin succession deterministic: when the admin leaves, the earliest-joined
// remaining member takes over.
type Room struct {
	// Name is the unique room name.
	Name string

	// Admin is the nickname of the room administrator. It is always a current
	// member, or empty iff the room has no members.
	Admin string

	// members holds nicknames in join order.
	members []string

	// files holds the posted file descriptions, a set under value equality.
	files []wire.FileDescription
}

// NewRoom creates a room. A non-empty creator becomes the first member and admin.
func NewRoom(name, creator string) *Room {
	room := &Room{Name: name}

	if creator != "" {
		room.members = []string{creator}
		room.Admin = creator
	}

	return room
}

// Members returns a copy of the member nicknames in join order.
func (r *Room) Members() []string {
	return slices.Clone(r.members)
}

// MemberCount returns the number of current members.
func (r *Room) MemberCount() int {
	return len(r.members)
}

// Contains reports whether nick is a current member.
func (r *Room) Contains(nick string) bool {
	return slices.Contains(r.members, nick)
}

// AddMember appends nick to the member sequence, preserving join order.
// Adding an existing member is a no-op. If the room had no admin, nick
// becomes admin.
func (r *Room) AddMember(nick string) {
	if r.Contains(nick) {
		return
	}

	r.members = append(r.members, nick)

	if r.Admin == "" {
		r.Admin = nick
	}
}

// RemoveMember removes nick from the room. If nick was admin, adminship moves
// to the earliest-joined remaining member, or is cleared when the room is now
// empty. It reports whether the admin changed.
func (r *Room) RemoveMember(nick string) bool {
	idx := slices.Index(r.members, nick)
	if idx < 0 {
		return false
	}

	r.members = slices.Delete(r.members, idx, idx+1)

	if r.Admin != nick {
		return false
	}

	if len(r.members) == 0 {
		r.Admin = ""
	} else {
		r.Admin = r.members[0]
	}

	return true
}

// PostFile adds a file description to the room's file set. A posting equal by
// value to an existing one is a no-op; PostFile reports whether the set changed.
func (r *Room) PostFile(file wire.FileDescription) bool {
	if slices.Contains(r.files, file) {
		return false
	}

	r.files = append(r.files, file)
	return true
}

// RemoveFile removes a file description from the room's file set by value
// equality and reports whether the set changed.
func (r *Room) RemoveFile(file wire.FileDescription) bool {
	idx := slices.Index(r.files, file)
	if idx < 0 {
		return false
	}

	r.files = slices.Delete(r.files, idx, idx+1)
	return true
}

// FindFileByID returns the stored description of the posted file with the
// given id, if any.
func (r *Room) FindFileByID(id string) (wire.FileDescription, bool) {
	for _, file := range r.files {
		if file.ID == id {
			return file, true
		}
	}
	return wire.FileDescription{}, false
}

// Files returns a copy of the posted file descriptions.
func (r *Room) Files() []wire.FileDescription {
	return slices.Clone(r.files)
}

// Info returns the wire representation of the room.
func (r *Room) Info() wire.RoomInfo {
	return wire.RoomInfo{
		Name:    r.Name,
		Admin:   r.Admin,
		Members: r.Members(),
		Files:   r.Files(),
	}
}
