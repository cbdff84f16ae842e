package models

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error codes sent alongside HTTP statuses so clients can branch without parsing messages.
const (
	ErrCodeBadRequest      = 40001
	ErrCodeInvalidState    = 40002
	ErrCodeTokenInvalid    = 40101
	ErrCodeTokenExpired    = 40102
	ErrCodeForbidden       = 40301
	ErrCodeRoomLocked      = 40302
	ErrCodeNotFound        = 40401
	ErrCodeTooManyRequests = 42901
	ErrCodeInternal        = 50001
	ErrCodeRetryLater      = 50301
)
