//go:build windows

package keyboard

import (
	"time"

	"roomcast/window"
)

const keyeventfKeyUp = 0x0002

func keyDown(k Key) {
	window.ProcKeybdEvent.Call(uintptr(k), 0, 0, 0)
}

func keyUp(k Key) {
	window.ProcKeybdEvent.Call(uintptr(k), 0, keyeventfKeyUp, 0)
}

// Tap presses keys as one chord and releases them in reverse order.
// Events go to whichever window currently has input focus.
func (Global) Tap(keys ...Key) error {
	if len(keys) == 0 {
		return nil
	}
	for _, k := range keys {
		keyDown(k)
		time.Sleep(chordGap)
	}
	time.Sleep(chordHold)
	for i := len(keys) - 1; i >= 0; i-- {
		keyUp(keys[i])
		time.Sleep(chordGap)
	}
	return nil
}
