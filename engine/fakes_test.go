package engine

import (
	"context"
	"errors"
	"fmt"

	"roomcast/keyboard"
	"roomcast/window"
)

const mainHWND window.Handle = 1

// desk simulates the chat client: writing a room name into search and
// confirming it opens that room's window, unless the room is unknown.
type desk struct {
	noMain   bool
	noSearch bool
	rooms    map[string]window.Handle
	open     map[string]window.Handle
	pending  string

	events []string

	// hooks
	onDismiss  func()
	panicOn    string
	failTextOn string
}

func newDesk(rooms ...string) *desk {
	d := &desk{rooms: map[string]window.Handle{}, open: map[string]window.Handle{}}
	for i, r := range rooms {
		d.rooms[r] = window.Handle(100 + i)
	}
	return d
}

func (d *desk) record(format string, args ...any) {
	d.events = append(d.events, fmt.Sprintf(format, args...))
}

func (d *desk) openPending() {
	if h, ok := d.rooms[d.pending]; ok {
		d.open[d.pending] = h
	}
}

// Locator

func (d *desk) MainWindow() (window.Handle, bool) { return mainHWND, !d.noMain }

func (d *desk) SearchControl(main window.Handle) (window.Handle, bool) {
	if d.noSearch {
		return 0, false
	}
	return 2, true
}

func (d *desk) WindowByTitle(substr string) (window.Handle, bool) {
	h, ok := d.open[substr]
	return h, ok
}

// Focuser

func (d *desk) ForceActivate(h window.Handle) { d.record("activate %d", h) }

// Control

func (d *desk) SetText(h window.Handle, text string) error {
	d.record("settext %s", text)
	d.pending = text
	return nil
}

func (d *desk) Post(h window.Handle, key keyboard.Key) error {
	d.record("post %s", key)
	if key == keyboard.KeyReturn {
		d.openPending()
	}
	return nil
}

// Injector

func (d *desk) Tap(keys ...keyboard.Key) error {
	d.record("tap %s", keyboard.Chord(keys...))
	if len(keys) == 1 && keys[0] == keyboard.KeyReturn {
		d.openPending()
	}
	return nil
}

func (d *desk) InjectText(ctx context.Context, text string) error {
	d.record("paste %s", text)
	d.pending = text
	return nil
}

func (d *desk) InjectTextThenConfirm(ctx context.Context, text string) error {
	if d.panicOn != "" && text == d.panicOn {
		panic("injector exploded")
	}
	if d.failTextOn != "" && text == d.failTextOn {
		return errors.New("clipboard busy")
	}
	d.record("send %s", text)
	return nil
}

func (d *desk) InjectFile(ctx context.Context, path string) error {
	d.record("file %s", path)
	return nil
}

func (d *desk) Dismiss(ctx context.Context) error {
	d.record("dismiss")
	delete(d.open, d.pending)
	if d.onDismiss != nil {
		d.onDismiss()
	}
	return nil
}

func (d *desk) OpenFind() error {
	d.record("tap Ctrl+F")
	return nil
}
