package sentinel

import "errors"

// Infrastructure facts returned (usually wrapped) by stores and clients.
// Services translate them into domain errors; they never reach a response body.
var (
	ErrAlreadyUsed = errors.New("already used")
	ErrUnavailable = errors.New("unavailable")
	// ErrCorrupt marks persisted data that exists but cannot be decoded.
	ErrCorrupt = errors.New("corrupt data")
)
