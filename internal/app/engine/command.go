/*
Package engine contains the core chat state machine.

This file defines the command registry and dispatcher. The registry maps wire
command ids to handlers: built-ins first, then a plugin resolver supplied at
construction, then a terminal no-op handler. Resolution never fails.
*/
package engine

import (
	"encoding/json"

	"peerchat/internal/app/wire"
	"peerchat/internal/pkg/errs"
)

// Args is the call context passed to every command handler.
type Args struct {
	// ConnectionID identifies the originating connection: a temporary id
	// before registration, the nickname afterwards.
	ConnectionID string
}

// Handler executes one command. A returned error means the command payload was
// structurally invalid or a resource failed; it aborts only this command.
// Authorization and state conflicts are not errors: handlers answer them with
// a system message and return nil.
type Handler func(content json.RawMessage, args Args) error

// PluginResolver looks up externally supplied commands. It is consulted only
// when the built-in table misses and must be safe for concurrent calls.
type PluginResolver func(id wire.CommandID) (Handler, bool)

// emptyCommand is the terminal fallback: dispatching an unknown command id
// does nothing and never fails.
func emptyCommand(json.RawMessage, Args) error {
	return nil
}

// registerBuiltins populates the command table. Called once from NewAPI;
// the table is never mutated afterwards, so Dispatch may read it without
// locking.
func (a *API) registerBuiltins() {
	a.commands = map[wire.CommandID]Handler{
		wire.CmdRegister:           a.handleRegister,
		wire.CmdUnregister:         a.handleUnregister,
		wire.CmdSendRoomMessage:    a.handleSendRoomMessage,
		wire.CmdCreateRoom:         a.handleCreateRoom,
		wire.CmdDeleteRoom:         a.handleDeleteRoom,
		wire.CmdInviteUsers:        a.handleInviteUsers,
		wire.CmdKickUsers:          a.handleKickUsers,
		wire.CmdExitRoom:           a.handleExitRoom,
		wire.CmdRefreshRoom:        a.handleRefreshRoom,
		wire.CmdSetRoomAdmin:       a.handleSetRoomAdmin,
		wire.CmdAddFileToRoom:      a.handleAddFileToRoom,
		wire.CmdRemoveFileFromRoom: a.handleRemoveFileFromRoom,
		wire.CmdP2PConnectRequest:  a.handleP2PConnectRequest,
		wire.CmdP2PReadyAccept:     a.handleP2PReadyAccept,
		wire.CmdPingRequest:        a.handlePingRequest,
	}
}

// Resolve returns the handler for a command id: built-in, else plugin, else
// the empty command.
func (a *API) Resolve(id wire.CommandID) Handler {
	if handler, ok := a.commands[id]; ok {
		return handler
	}

	if a.plugins != nil {
		if handler, ok := a.plugins(id); ok {
			return handler
		}
	}

	return emptyCommand
}

// Dispatch runs the handler for one inbound message. Handler errors abort the
// command, not the connection; they are logged and swallowed here.
func (a *API) Dispatch(connectionID string, msg wire.Message) {
	handler := a.Resolve(msg.ID)

	if err := handler(msg.Content, Args{ConnectionID: connectionID}); err != nil {
		a.logger.Warn().
			Str("connection_id", connectionID).
			Uint16("command_id", uint16(msg.ID)).
			Err(err).
			Msg("Command aborted")
	}
}

// decodeContent unmarshals and validates a command payload. Missing required
// fields are an invalid-argument condition, not a silent default.
func (a *API) decodeContent(raw json.RawMessage, dst any) *errs.CustomError {
	if len(raw) == 0 {
		return errs.NewError(errs.ErrInvalidContent)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if err := a.validate.Struct(dst); err != nil {
		return errs.NewError(errs.ErrInvalidContent)
	}

	return nil
}
