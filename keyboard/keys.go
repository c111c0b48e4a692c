// Package keyboard synthesizes key events, either globally for whichever
// window holds input focus or as messages posted to a specific control.
package keyboard

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Key is a Win32 virtual-key code.
type Key uint16

const (
	KeyBackspace Key = 0x08
	KeyTab       Key = 0x09
	KeyReturn    Key = 0x0D
	KeyShift     Key = 0x10
	KeyControl   Key = 0x11
	KeyAlt       Key = 0x12
	KeyEscape    Key = 0x1B
	KeyA         Key = 0x41
	KeyF         Key = 0x46
	KeyT         Key = 0x54
	KeyV         Key = 0x56
)

var keyNames = map[Key]string{
	KeyBackspace: "Backspace",
	KeyTab:       "Tab",
	KeyReturn:    "Enter",
	KeyShift:     "Shift",
	KeyControl:   "Ctrl",
	KeyAlt:       "Alt",
	KeyEscape:    "Esc",
	KeyA:         "A",
	KeyF:         "F",
	KeyT:         "T",
	KeyV:         "V",
}

func (k Key) String() string {
	if n, ok := keyNames[k]; ok {
		return n
	}
	return fmt.Sprintf("VK(0x%02X)", uint16(k))
}

var (
	// ErrUnsupportedPlatform is returned on platforms without Win32 input.
	ErrUnsupportedPlatform = errors.New("keyboard input is only supported on windows")

	// ErrUnsupportedKey implies the key has no scan code mapping.
	ErrUnsupportedKey = errors.New("unsupported key")
)

// Hotkey timings: each key goes down with a short gap, the chord is held,
// then keys are released in reverse order.
const (
	chordGap  = 10 * time.Millisecond
	chordHold = 30 * time.Millisecond

	// A posted Enter needs a visible gap between down and up or the search
	// control drops it.
	postHold = 100 * time.Millisecond
)

// Global injects keys into the system input stream and posts key messages to
// individual controls. The zero value is ready to use.
type Global struct{}

// Chord returns a human readable form like "Ctrl+V".
func Chord(keys ...Key) string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return strings.Join(names, "+")
}
