// Package inject delivers text and file attachments to the focused window
// through the system clipboard and synthesized keystrokes.
//
// Every call writes the clipboard and leaves the payload there; callers should
// treat the user's clipboard as overwritten.
package inject

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"

	"roomcast/keyboard"
)

// Clipboard replaces the system clipboard contents with Unicode text.
type Clipboard interface {
	WriteAll(text string) error
}

// Keyboard taps key chords into the focused window.
type Keyboard interface {
	Tap(keys ...keyboard.Key) error
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// SystemClipboard is the OS clipboard. Open, empty, set and close happen in a
// single call, so the clipboard is always released.
var SystemClipboard Clipboard = systemClipboard{}

// Timing are the settle intervals the target UI needs between steps.
type Timing struct {
	ClipboardSettle  time.Duration
	PasteSettle      time.Duration
	ConfirmSettle    time.Duration
	FileDialogSettle time.Duration
	FileAcceptSettle time.Duration
	FileSendSettle   time.Duration
	CloseSettle      time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		ClipboardSettle:  300 * time.Millisecond,
		PasteSettle:      300 * time.Millisecond,
		ConfirmSettle:    800 * time.Millisecond,
		FileDialogSettle: time.Second,
		FileAcceptSettle: time.Second,
		FileSendSettle:   time.Second,
		CloseSettle:      500 * time.Millisecond,
	}
}

type Injector struct {
	clip   Clipboard
	keys   Keyboard
	timing Timing
}

func New(clip Clipboard, keys Keyboard, timing Timing) *Injector {
	if clip == nil {
		clip = SystemClipboard
	}
	if keys == nil {
		keys = keyboard.Global{}
	}
	return &Injector{clip: clip, keys: keys, timing: timing}
}

// Tap forwards a chord with no settle afterwards.
func (in *Injector) Tap(keys ...keyboard.Key) error {
	if err := in.keys.Tap(keys...); err != nil {
		return fmt.Errorf("tap %s: %w", keyboard.Chord(keys...), err)
	}
	return nil
}

// InjectText pastes text into the focused window. Paste is used instead of
// typing so arbitrary Unicode arrives intact.
func (in *Injector) InjectText(ctx context.Context, text string) error {
	if err := in.clip.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	if err := sleep(ctx, in.timing.ClipboardSettle); err != nil {
		return err
	}
	if err := in.Tap(keyboard.KeyControl, keyboard.KeyV); err != nil {
		return err
	}
	return sleep(ctx, in.timing.PasteSettle)
}

// InjectTextThenConfirm pastes text and presses Enter.
func (in *Injector) InjectTextThenConfirm(ctx context.Context, text string) error {
	if err := in.InjectText(ctx, text); err != nil {
		return err
	}
	return in.Confirm(ctx)
}

func (in *Injector) Confirm(ctx context.Context) error {
	if err := in.Tap(keyboard.KeyReturn); err != nil {
		return err
	}
	return sleep(ctx, in.timing.ConfirmSettle)
}

// InjectFile attaches path through the client's file dialog: Ctrl+T opens the
// dialog, the absolute path is pasted into its filename field, the first Enter
// accepts the dialog and the second Enter sends.
func (in *Injector) InjectFile(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("attachment path: %w", err)
	}
	if err := in.clip.WriteAll(abs); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	steps := []struct {
		keys  []keyboard.Key
		after time.Duration
	}{
		{nil, in.timing.ClipboardSettle},
		{[]keyboard.Key{keyboard.KeyControl, keyboard.KeyT}, in.timing.FileDialogSettle},
		{[]keyboard.Key{keyboard.KeyControl, keyboard.KeyV}, in.timing.PasteSettle},
		{[]keyboard.Key{keyboard.KeyReturn}, in.timing.FileAcceptSettle},
		{[]keyboard.Key{keyboard.KeyReturn}, in.timing.FileSendSettle},
	}
	for _, s := range steps {
		if len(s.keys) > 0 {
			if err := in.Tap(s.keys...); err != nil {
				return err
			}
		}
		if err := sleep(ctx, s.after); err != nil {
			return err
		}
	}
	return nil
}

// Dismiss presses Esc, which closes the active room window.
func (in *Injector) Dismiss(ctx context.Context) error {
	if err := in.Tap(keyboard.KeyEscape); err != nil {
		return err
	}
	return sleep(ctx, in.timing.CloseSettle)
}

// OpenFind presses Ctrl+F in the focused window.
func (in *Injector) OpenFind() error {
	return in.Tap(keyboard.KeyControl, keyboard.KeyF)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
