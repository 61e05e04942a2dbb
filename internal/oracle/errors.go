package oracle

import "errors"

// Common errors returned by oracle clients and parsers
var (
	// ErrEmptyPrompt is returned when a client is asked to complete an empty prompt
	ErrEmptyPrompt = errors.New("prompt cannot be empty")

	// ErrInvalidResponse is returned when the response cannot be parsed or is malformed
	ErrInvalidResponse = errors.New("invalid response from reasoning service")

	// ErrContentBlocked is returned when the service refuses the prompt on safety grounds
	ErrContentBlocked = errors.New("content blocked by reasoning service safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error calling reasoning service")

	// ErrInvalidConfig is returned when the client configuration is invalid
	ErrInvalidConfig = errors.New("invalid reasoning service configuration")
)
