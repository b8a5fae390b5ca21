/*
Package engine contains the core chat state machine: the guarded user/room
registries, the command registry and dispatcher, and the peer-introduction broker.

This file defines the User entity.
*/
package engine

import (
	"crypto/rsa"

	"peerchat/internal/app/wire"
)

// User is a registered participant. The nickname is the identity key and is
// immutable after registration; presence is implicit (a user exists in the
// store iff it is online).
type User struct {
	// Nick is the unique nickname chosen at registration.
	Nick string

	// PublicKey is the RSA public key supplied at registration, used to seal
	// the symmetric session key.
	PublicKey *rsa.PublicKey
}

// Info returns the wire representation of the user.
func (u *User) Info() wire.UserInfo {
	return wire.UserInfo{Nick: u.Nick}
}
