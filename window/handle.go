// Package window wraps the Win32 calls used to discover, inspect and activate
// top-level and child windows of another process.
//
// Handles are borrowed: the owning application may destroy or recreate a
// window at any time, so a Handle is only meaningful within the step that
// resolved it.
package window

import (
	"errors"
	"fmt"
)

// Handle is an opaque OS window handle (HWND).
type Handle uintptr

func (h Handle) IsZero() bool { return h == 0 }

func (h Handle) String() string { return fmt.Sprintf("0x%X", uintptr(h)) }

var (
	// ErrUnsupportedPlatform is returned by every operation on platforms without Win32.
	ErrUnsupportedPlatform = errors.New("window automation is only supported on windows")

	// ErrSetTextFailed implies WM_SETTEXT was rejected by the target control.
	ErrSetTextFailed = errors.New("WM_SETTEXT failed")

	// ErrPostMessageFailed implies the PostMessageW call returned 0.
	ErrPostMessageFailed = errors.New("PostMessage failed")
)

// Desktop is the live window tree of the current session.
// The zero value is ready to use.
type Desktop struct{}
