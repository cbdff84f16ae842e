package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound     = errors.New("resource not found")
	ErrRoomNotFound = errors.New("room not found")
	ErrHintNotFound = errors.New("hint not found")
	ErrUserNotFound = errors.New("user not found")

	// Access Errors
	ErrUnauthorized = errors.New("unauthorized") // Authentication required or failed
	ErrForbidden    = errors.New("forbidden")    // Authenticated, but operation not allowed on this entity

	// Token Errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	// Progress Errors
	ErrInvalidState        = errors.New("operation not allowed in current state")
	ErrRoomAlreadyComplete = errors.New("room already completed")
	ErrRoomLocked          = errors.New("room is locked")
	ErrFinalCodeNotAllowed = errors.New("room does not accept a final code")

	// Store Errors
	ErrTransientStore = errors.New("transient store error, retry later")

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
)

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrRoomNotFound) ||
		errors.Is(err, ErrHintNotFound) ||
		errors.Is(err, ErrUserNotFound)
}
