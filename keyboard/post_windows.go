//go:build windows

package keyboard

import (
	"time"

	"roomcast/window"
)

const (
	WM_KEYDOWN = 0x0100
	WM_KEYUP   = 0x0101

	MAPVK_VK_TO_VSC = 0
)

func mapVKToScanCode(k Key) uintptr {
	r, _, _ := window.ProcMapVirtualKeyW.Call(uintptr(k), MAPVK_VK_TO_VSC)
	return r
}

func post(hwnd window.Handle, msg uint32, wparam uintptr, lparam uintptr) error {
	r, _, _ := window.ProcPostMessageW.Call(uintptr(hwnd), uintptr(msg), wparam, lparam)
	if r == 0 {
		return window.ErrPostMessageFailed
	}
	return nil
}

func KeyDown(hwnd window.Handle, key Key) error {
	sc := mapVKToScanCode(key)
	if sc == 0 {
		return ErrUnsupportedKey
	}
	lparam := uintptr(1) | (sc << 16)
	return post(hwnd, WM_KEYDOWN, uintptr(key), lparam)
}

func KeyUp(hwnd window.Handle, key Key) error {
	sc := mapVKToScanCode(key)
	lparam := uintptr(1) | (sc << 16) | (1 << 30) | (1 << 31)
	return post(hwnd, WM_KEYUP, uintptr(key), lparam)
}

// Post delivers a key press to hwnd through its message queue.
// The control does not need focus.
func (Global) Post(hwnd window.Handle, key Key) error {
	if err := KeyDown(hwnd, key); err != nil {
		return err
	}
	time.Sleep(postHold)
	return KeyUp(hwnd, key)
}
