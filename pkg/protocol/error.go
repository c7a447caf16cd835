package protocol

import "errors"

// ErrorCode identifies the type of error.
type ErrorCode uint16

const (
	ErrUnknown        ErrorCode = 0x0000 // Unknown error
	ErrInvalidMessage ErrorCode = 0x0001 // Malformed or unknown message
	ErrRateLimited    ErrorCode = 0x0006 // Too many requests
	ErrServerError    ErrorCode = 0x0100 // Internal server error
)

// String returns the string representation of the error code.
func (ec ErrorCode) String() string {
	switch ec {
	case ErrInvalidMessage:
		return "InvalidMessage"
	case ErrRateLimited:
		return "RateLimited"
	case ErrServerError:
		return "ServerError"
	default:
		return "Unknown"
	}
}

// ErrorMessage is sent when a client request is rejected.
type ErrorMessage struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// NewError creates an error message with the standard text for code.
func NewError(code ErrorCode) ErrorMessage {
	return ErrorMessage{Code: code, Message: code.publicText()}
}

func (ec ErrorCode) publicText() string {
	switch ec {
	case ErrInvalidMessage:
		return "invalid message"
	case ErrRateLimited:
		return "too many requests"
	default:
		return "internal error"
	}
}

// Decoding errors.
var (
	ErrMessageTooLarge = errors.New("protocol: message too large")
	ErrMalformed       = errors.New("protocol: malformed message")
	ErrUnknownType     = errors.New("protocol: unknown message type")
)
