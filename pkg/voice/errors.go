package voice

import "fmt"

// ErrorType categorizes voice session failures.
type ErrorType string

const (
	ErrPermission ErrorType = "permission_error"
	ErrDevice     ErrorType = "device_error"
	ErrConnection ErrorType = "connection_error"
	ErrProtocol   ErrorType = "protocol_error"
	ErrState      ErrorType = "state_error"
)

// Error represents a voice session error.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error wrapping.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewPermissionError creates a microphone permission error.
func NewPermissionError(message string, cause error) *Error {
	return &Error{Type: ErrPermission, Message: message, Cause: cause}
}

// NewDeviceError creates an audio hardware error.
func NewDeviceError(message string, cause error) *Error {
	return &Error{Type: ErrDevice, Message: message, Cause: cause}
}

// NewConnectionError creates a session transport error.
func NewConnectionError(message string, cause error) *Error {
	return &Error{Type: ErrConnection, Message: message, Cause: cause}
}

// NewProtocolError creates a wire protocol error.
func NewProtocolError(message string, cause error) *Error {
	return &Error{Type: ErrProtocol, Message: message, Cause: cause}
}

// NewStateError creates an invalid lifecycle transition error.
func NewStateError(message string) *Error {
	return &Error{Type: ErrState, Message: message}
}
