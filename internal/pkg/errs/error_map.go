/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to
standardize HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:     {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrInvalidJSONFormat: {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrInvalidContent:    {Code: ErrInvalidContent, Message: "Command content is missing required fields."},

	// 2xxx: Room and Roster Business Logic Errors
	ErrRoomNameTaken:  {Code: ErrRoomNameTaken, Message: "Room name is already taken."},
	ErrRoomNotFound:   {Code: ErrRoomNotFound, Message: "Room not found."},
	ErrRoomNotEmpty:   {Code: ErrRoomNotEmpty, Message: "Room still has members."},
	ErrLobbyImmutable: {Code: ErrLobbyImmutable, Message: "The main room cannot be removed."},
	ErrUserNotFound:   {Code: ErrUserNotFound, Message: "User not found."},

	// 3xxx: Registration and Security Errors
	ErrNickTaken:            {Code: ErrNickTaken, Message: "This nickname is already taken. Choose another one."},
	ErrNickReserved:         {Code: ErrNickReserved, Message: "This nickname is reserved. Choose another one."},
	ErrInvalidOpenKey:       {Code: ErrInvalidOpenKey, Message: "Public key is malformed."},
	ErrPowChallengeRequired: {Code: ErrPowChallengeRequired, Message: "Verification required. Please try again."},
	ErrPowChallengeInvalid:  {Code: ErrPowChallengeInvalid, Message: "Verification failed. Please try again."},
	ErrPowChallengeInternal: {Code: ErrPowChallengeInternal, Message: "Verification service error. Please try again later."},

	// 5xxx: Internal System Errors
	ErrUnknown:            {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrConnectionNotFound: {Code: ErrConnectionNotFound, Message: "Connection is no longer available."},
}
