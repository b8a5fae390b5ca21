/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both internally
within the server and in responses sent to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrInvalidJSONFormat indicates that a request or frame body was not valid JSON.
	ErrInvalidJSONFormat = 1002

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1003

	// ErrInvalidContent indicates that a command payload is structurally malformed
	// (missing required fields, wrong types).
	ErrInvalidContent = 1004
)

// 2xxx: Room and Roster Business Logic Errors
const (
	// ErrRoomNameTaken indicates that a room with the requested name already exists.
	ErrRoomNameTaken = 2101

	// ErrRoomNotFound indicates that the named room does not exist.
	ErrRoomNotFound = 2102

	// ErrRoomNotEmpty indicates an attempt to delete a room that still has members.
	ErrRoomNotEmpty = 2103

	// ErrLobbyImmutable indicates an attempt to delete the lobby room.
	ErrLobbyImmutable = 2104

	// ErrUserNotFound indicates that the named user is not registered.
	ErrUserNotFound = 2201
)

// 3xxx: Registration and Security Errors
const (
	// ErrNickTaken indicates that the requested nickname is already registered.
	ErrNickTaken = 3001

	// ErrNickReserved indicates that the requested nickname uses the reserved
	// temporary-connection prefix.
	ErrNickReserved = 3002

	// ErrInvalidOpenKey indicates that the public key supplied at registration
	// could not be parsed.
	ErrInvalidOpenKey = 3003

	// ErrPowChallengeRequired indicates the client must complete a Proof-of-Work challenge first.
	ErrPowChallengeRequired = 3101

	// ErrPowChallengeInvalid indicates that the PoW proof provided by the client is invalid.
	ErrPowChallengeInvalid = 3102

	// ErrPowChallengeInternal indicates an internal error during PoW challenge handling.
	ErrPowChallengeInternal = 3103
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified server internal error.
	ErrUnknown = 5000

	// ErrConnectionNotFound indicates that a message targeted a connection id
	// the transport does not know.
	ErrConnectionNotFound = 5001
)
