//go:build !windows

package keyboard

import "roomcast/window"

func (Global) Tap(keys ...Key) error { return ErrUnsupportedPlatform }

func (Global) Post(hwnd window.Handle, key Key) error { return ErrUnsupportedPlatform }
