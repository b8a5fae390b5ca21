/*
Package engine contains the core chat state machine.

This file holds the registration lifecycle commands: Register, Unregister, and
the Ping liveness echo.
*/
package engine

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"strings"

	"peerchat/internal/app/wire"
	"peerchat/internal/pkg/errs"
	"peerchat/internal/pkg/randx"
)

// handleRegister creates a User, joins it to the lobby, and answers with a
// registration response carrying the sealed session key. Name conflicts and
// reserved prefixes are answered with a failure response and a closed
// connection, not an error.
func (a *API) handleRegister(content json.RawMessage, args Args) error {
	var c wire.RegisterContent
	if cerr := a.decodeContent(content, &c); cerr != nil {
		return cerr
	}

	nick := c.User.Nick

	if strings.Contains(nick, randx.TempConnectionPrefix) {
		a.failRegistration(args.ConnectionID, errs.ErrNickReserved)
		return nil
	}

	openKey, err := parseOpenKey(c.OpenKey)
	if err != nil {
		a.failRegistration(args.ConnectionID, errs.ErrInvalidOpenKey)
		return nil
	}

	sc := a.storage.Open()
	defer sc.Close()

	lobby := sc.Lobby()

	if lobby.Contains(nick) {
		a.failRegistration(args.ConnectionID, errs.ErrNickTaken)
		return nil
	}

	sealedKey, err := a.transport.RegisterConnection(args.ConnectionID, nick, openKey)
	if err != nil {
		a.logger.Warn().
			Str("connection_id", args.ConnectionID).
			Str("nick", nick).
			Err(err).
			Msg("Connection registration failed")
		a.failRegistration(args.ConnectionID, errs.ErrUnknown)
		return nil
	}

	sc.AddUser(&User{Nick: nick, PublicKey: openKey})
	lobby.AddMember(nick)

	a.send(nick, wire.CmdRegistrationResponse, wire.RegistrationResponseContent{
		Registered: true,
		SealedKey:  sealedKey,
	})

	// Every connection learns about the new lobby roster, registered or not.
	roster := a.rosterContent(sc, lobby)
	for _, connectionID := range a.transport.ConnectionIDs() {
		a.send(connectionID, wire.CmdRoomRefreshed, roster)
	}

	sc.Close()

	a.notifier.Registered(nick)
	return nil
}

// failRegistration answers a rejected registration and closes the connection.
func (a *API) failRegistration(connectionID string, code int) {
	failure := errs.NewError(code)

	a.send(connectionID, wire.CmdRegistrationResponse, wire.RegistrationResponseContent{
		Registered: false,
		Message:    failure.Message,
	})

	a.transport.CloseConnection(connectionID)
}

// handleUnregister removes the requesting user with the full cascade.
// Unregistering an already absent user is a no-op.
func (a *API) handleUnregister(_ json.RawMessage, args Args) error {
	a.RemoveUser(args.ConnectionID)
	return nil
}

// handlePingRequest answers with a liveness echo.
func (a *API) handlePingRequest(_ json.RawMessage, args Args) error {
	a.send(args.ConnectionID, wire.CmdPingResponse, struct{}{})
	return nil
}

// parseOpenKey decodes a PKIX-encoded RSA public key.
func parseOpenKey(der []byte) (*rsa.PublicKey, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, err
	}

	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, errs.NewError(errs.ErrInvalidOpenKey)
	}

	return rsaKey, nil
}
