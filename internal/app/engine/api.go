/*
Package engine contains the core chat state machine.

This file defines the API struct, the server-side façade owning the storage,
the command registry, and the collaborator interfaces (transport, notifier).
It mirrors the dispatch model of the wire protocol: one inbound message, one
command invocation.
*/
package engine

import (
	"crypto/rsa"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"peerchat/internal/app/wire"
	"peerchat/internal/pkg/logx"
)

// Transport is the narrow interface through which the engine talks to client
// connections. The engine never touches sockets directly.
type Transport interface {
	// RegisterConnection promotes a temporary connection to a registered one
	// keyed by nick, installs a fresh symmetric session key for it, and
	// returns that key sealed with the client's public key.
	RegisterConnection(tempID, nick string, openKey *rsa.PublicKey) ([]byte, error)

	// SendMessage serializes content and delivers it to the given connection.
	SendMessage(connectionID string, id wire.CommandID, content any) error

	// CloseConnection drops the given connection. Unknown ids are a no-op.
	CloseConnection(connectionID string)

	// ConnectionIDs returns a snapshot of all live connection ids.
	ConnectionIDs() []string

	// Endpoint returns the externally reachable endpoint of a connection.
	Endpoint(connectionID string) (string, error)
}

// Notifier receives engine lifecycle events. Implementations must not call
// back into the engine.
type Notifier interface {
	Registered(nick string)
	Unregistered(nick string)
}

// logNotifier is the default Notifier; it only logs.
type logNotifier struct {
	logger zerolog.Logger
}

func (n logNotifier) Registered(nick string) {
	n.logger.Info().Str("nick", nick).Msg("User registered")
}

func (n logNotifier) Unregistered(nick string) {
	n.logger.Info().Str("nick", nick).Msg("User unregistered")
}

// Stats is a point-in-time summary of the registries.
type Stats struct {
	Users int `json:"users"`
	Rooms int `json:"rooms"`
}

// API implements the server command surface: it owns the Storage, the command
// registry, and the outbound notification paths.
type API struct {
	storage   *Storage
	transport Transport
	notifier  Notifier
	plugins   PluginResolver

	commands map[wire.CommandID]Handler
	validate *validator.Validate

	logger zerolog.Logger
}

// NewAPI constructs the engine. The built-in command table is assembled here,
// once, and is immutable afterwards. notifier and plugins may be nil.
func NewAPI(storage *Storage, transport Transport, notifier Notifier, plugins PluginResolver) *API {
	apiLogger := logx.Logger().With().Str("component", "engine").Logger()

	if notifier == nil {
		notifier = logNotifier{logger: apiLogger}
	}

	a := &API{
		storage:   storage,
		transport: transport,
		notifier:  notifier,
		plugins:   plugins,
		validate:  validator.New(),
		logger:    apiLogger,
	}

	a.registerBuiltins()

	return a
}

// Stats returns current registry counts.
func (a *API) Stats() Stats {
	sc := a.storage.Open()
	defer sc.Close()

	return Stats{Users: sc.UserCount(), Rooms: sc.RoomCount()}
}

// SendSystemMessage delivers a localizable system notification to one
// connection. Send failures are logged, never propagated: a system message is
// already the error path.
func (a *API) SendSystemMessage(connectionID string, message wire.SystemMessageID, params ...string) {
	content := wire.SystemMessageContent{Message: message, Params: params}

	if err := a.transport.SendMessage(connectionID, wire.CmdOutSystemMessage, content); err != nil {
		a.logger.Warn().
			Str("connection_id", connectionID).
			Uint16("system_message", uint16(message)).
			Err(err).
			Msg("Failed to deliver system message")
	}
}

// RemoveUser removes a user and closes its connection. The removal cascades:
// the user leaves every room it belongs to, admins are reassigned, and each
// affected room's remaining members get a roster refresh. Removing an unknown
// user is a no-op.
func (a *API) RemoveUser(nick string) {
	a.transport.CloseConnection(nick)

	sc := a.storage.Open()
	defer sc.Close()

	if _, ok := sc.User(nick); !ok {
		return
	}

	// Phase 1: collect the affected rooms before mutating anything.
	rooms := sc.RoomsWith(nick)

	// Phase 2: apply removal, admin reassignment, and roster broadcast per
	// room, all under the same scope.
	for _, room := range rooms {
		adminChanged := room.RemoveMember(nick)

		if adminChanged && room.Admin != "" {
			a.SendSystemMessage(room.Admin, wire.SysRoomAdminChanged, room.Name)
		}

		a.refreshRoom(sc, room)
	}

	sc.RemoveUser(nick)
	sc.Close()

	a.notifier.Unregistered(nick)
}

// send delivers one outbound message, logging delivery failures. Used on
// paths where a dead target connection must not abort the command.
func (a *API) send(connectionID string, id wire.CommandID, content any) {
	if err := a.transport.SendMessage(connectionID, id, content); err != nil {
		a.logger.Warn().
			Str("connection_id", connectionID).
			Uint16("command_id", uint16(id)).
			Err(err).
			Msg("Outbound send failed")
	}
}

// rosterContent resolves a room's member list into User records for a
// roster notification.
func (a *API) rosterContent(sc *Scope, room *Room) wire.RoomRefreshedContent {
	users := lo.FilterMap(room.Members(), func(nick string, _ int) (wire.UserInfo, bool) {
		u, ok := sc.User(nick)
		if !ok {
			return wire.UserInfo{}, false
		}
		return u.Info(), true
	})

	return wire.RoomRefreshedContent{Room: room.Info(), Users: users}
}

// refreshRoom broadcasts the current roster to every room member except those
// listed in skip.
func (a *API) refreshRoom(sc *Scope, room *Room, skip ...string) {
	content := a.rosterContent(sc, room)

	for _, member := range room.Members() {
		if slices.Contains(skip, member) {
			continue
		}
		a.send(member, wire.CmdRoomRefreshed, content)
	}
}

// lookupRoom fetches a room by name; when the room does not exist the
// requester is told so with a system message and nil is returned.
func (a *API) lookupRoom(sc *Scope, name, connectionID string) *Room {
	room, ok := sc.Room(name)
	if !ok {
		a.SendSystemMessage(connectionID, wire.SysRoomNotFound, name)
		return nil
	}
	return room
}
