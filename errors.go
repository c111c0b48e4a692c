package roomcast

import (
	"roomcast/engine"
	"roomcast/model"
	"roomcast/window"
)

var (
	// ErrInvalidParameters implies the request has no targets, no payload, bad delays or a missing attachment.
	ErrInvalidParameters = model.ErrInvalidParameters

	// ErrMainWindowNotFound implies the chat client is not running or its main window could not be located.
	ErrMainWindowNotFound = engine.ErrMainWindowNotFound

	// ErrRunInProgress implies another run holds the desktop.
	ErrRunInProgress = engine.ErrRunInProgress

	// ErrRoomOpenTimeout implies a room window did not appear after searching for it.
	ErrRoomOpenTimeout = engine.ErrRoomOpenTimeout

	// ErrUnsupportedPlatform implies the build has no Win32 backend.
	ErrUnsupportedPlatform = window.ErrUnsupportedPlatform
)
