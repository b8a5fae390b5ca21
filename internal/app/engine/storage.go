/*
Package engine contains the core chat state machine.

This file defines the Storage registries and the exclusive access Scope. All
reads and writes of shared user/room state go through a Scope, so the
check-mutate-broadcast sequence of one command is atomic with respect to all
other commands.
*/
package engine

import (
	"sort"
	"sync"

	"peerchat/internal/pkg/errs"
)

// Storage holds the two in-memory registries: users (nickname -> User) and
// rooms (name -> Room). It performs no I/O; everything is lost on restart.
type Storage struct {
	// mu serializes all access. Readers could share, but access is
	// conservatively exclusive for correctness.
	mu sync.Mutex

	users map[string]*User
	rooms map[string]*Room
}

// NewStorage creates an empty Storage containing only the lobby room.
func NewStorage() *Storage {
	s := &Storage{
		users: make(map[string]*User),
		rooms: make(map[string]*Room),
	}

	s.rooms[LobbyName] = NewRoom(LobbyName, "")

	return s
}

// Open acquires exclusive access and returns a Scope. The caller must release
// it with Close on every exit path, typically via defer.
func (s *Storage) Open() *Scope {
	s.mu.Lock()
	return &Scope{storage: s}
}

// Scope is an open exclusive-access window over the Storage registries.
// A Scope belongs to one goroutine and must not be shared.
type Scope struct {
	storage *Storage
	closed  bool
}

// Close releases the Scope. Closing twice is safe, so callers can defer Close
// and still release early before slow work.
func (sc *Scope) Close() {
	if sc.closed {
		return
	}

	sc.closed = true
	sc.storage.mu.Unlock()
}

// User returns the registered user with the given nickname.
func (sc *Scope) User(nick string) (*User, bool) {
	u, ok := sc.storage.users[nick]
	return u, ok
}

// AddUser registers a user under its nickname.
func (sc *Scope) AddUser(u *User) {
	sc.storage.users[u.Nick] = u
}

// RemoveUser deletes a user from the registry.
func (sc *Scope) RemoveUser(nick string) {
	delete(sc.storage.users, nick)
}

// UserCount returns the number of registered users.
func (sc *Scope) UserCount() int {
	return len(sc.storage.users)
}

// Room returns the room with the given name.
func (sc *Scope) Room(name string) (*Room, bool) {
	r, ok := sc.storage.rooms[name]
	return r, ok
}

// Lobby returns the always-present lobby room.
func (sc *Scope) Lobby() *Room {
	return sc.storage.rooms[LobbyName]
}

// RoomCount returns the number of rooms, the lobby included.
func (sc *Scope) RoomCount() int {
	return len(sc.storage.rooms)
}

// RoomsWith returns every room the given nickname is a member of, sorted by
// room name so cascade operations apply in a stable order.
func (sc *Scope) RoomsWith(nick string) []*Room {
	var rooms []*Room

	for _, room := range sc.storage.rooms {
		if room.Contains(nick) {
			rooms = append(rooms, room)
		}
	}

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })

	return rooms
}

// CreateRoom creates a room with the given name and creator as first member
// and admin. It fails with ErrRoomNameTaken if the name is in use.
func (sc *Scope) CreateRoom(name, creator string) (*Room, *errs.CustomError) {
	if _, ok := sc.storage.rooms[name]; ok {
		return nil, errs.NewError(errs.ErrRoomNameTaken)
	}

	room := NewRoom(name, creator)
	sc.storage.rooms[name] = room

	return room, nil
}

// DeleteRoom removes an empty, non-lobby room.
func (sc *Scope) DeleteRoom(name string) *errs.CustomError {
	if name == LobbyName {
		return errs.NewError(errs.ErrLobbyImmutable)
	}

	room, ok := sc.storage.rooms[name]
	if !ok {
		return errs.NewError(errs.ErrRoomNotFound)
	}

	if room.MemberCount() > 0 {
		return errs.NewError(errs.ErrRoomNotEmpty)
	}

	delete(sc.storage.rooms, name)
	return nil
}
