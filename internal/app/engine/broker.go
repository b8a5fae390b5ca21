/*
Package engine contains the core chat state machine.

This file implements the connection introduction broker: a two-message relay
that lets two registered clients exchange endpoint information so they can
attempt a direct session outside the server. The broker holds no state after
a relay; each request is fire-and-forget. There is deliberately no timeout or
retry: a target that never answers leaves the requester pending.
*/
package engine

import (
	"encoding/json"

	"peerchat/internal/app/wire"
	"peerchat/internal/pkg/errs"
)

// IntroduceConnections forwards the requester's endpoint and identity to the
// target, asking it to expect a direct session attempt. Endpoints are
// resolved from the transport at call time, never cached.
func (a *API) IntroduceConnections(requesterNick, targetNick string) *errs.CustomError {
	requesterEndpoint, err := a.transport.Endpoint(requesterNick)
	if err != nil {
		return errs.NewError(errs.ErrConnectionNotFound)
	}

	sc := a.storage.Open()
	requester, ok := sc.User(requesterNick)
	sc.Close()

	if !ok {
		return errs.NewError(errs.ErrUserNotFound)
	}

	a.send(targetNick, wire.CmdWaitPeerConnection, wire.WaitPeerConnectionContent{
		RequesterNick:     requesterNick,
		RequesterEndpoint: requesterEndpoint,
		Requester:         requester.Info(),
	})

	return nil
}

// handleP2PConnectRequest starts an introduction: both parties must be
// registered, then the target is told to wait for the requester.
func (a *API) handleP2PConnectRequest(content json.RawMessage, args Args) error {
	var c wire.PeerContent
	if cerr := a.decodeContent(content, &c); cerr != nil {
		return cerr
	}

	sc := a.storage.Open()
	_, requesterOK := sc.User(args.ConnectionID)
	_, targetOK := sc.User(c.Nick)
	sc.Close()

	if !requesterOK || !targetOK {
		a.SendSystemMessage(args.ConnectionID, wire.SysUserNotFound, c.Nick)
		return nil
	}

	if cerr := a.IntroduceConnections(args.ConnectionID, c.Nick); cerr != nil {
		return cerr
	}

	return nil
}

// handleP2PReadyAccept completes an introduction: the accepting side's
// endpoint is relayed back to the original requester, after which both sides
// attempt the direct handshake on their own.
func (a *API) handleP2PReadyAccept(content json.RawMessage, args Args) error {
	var c wire.PeerContent
	if cerr := a.decodeContent(content, &c); cerr != nil {
		return cerr
	}

	sc := a.storage.Open()
	_, requesterOK := sc.User(c.Nick)
	sc.Close()

	if !requesterOK {
		a.SendSystemMessage(args.ConnectionID, wire.SysUserNotFound, c.Nick)
		return nil
	}

	accepterEndpoint, err := a.transport.Endpoint(args.ConnectionID)
	if err != nil {
		return errs.NewError(errs.ErrConnectionNotFound)
	}

	a.send(c.Nick, wire.CmdConnectToPeer, wire.ConnectToPeerContent{
		PeerNick:     args.ConnectionID,
		PeerEndpoint: accepterEndpoint,
	})

	return nil
}
