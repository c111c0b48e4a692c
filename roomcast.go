package roomcast

import (
	"roomcast/engine"
	"roomcast/inject"
	"roomcast/keyboard"
	"roomcast/locator"
	"roomcast/pkg/logx"
	"roomcast/window"
)

// Options selects the target client and timings. Zero values take defaults.
type Options struct {
	Signature string
	Timing    *inject.Timing
	Policy    *engine.Policy
	Log       logx.Logger

	// Clipboard and Keyboard override the system backends.
	Clipboard inject.Clipboard
	Keyboard  inject.Keyboard
}

// Engine is the Win32-backed runner plus the locator it drives.
type Engine struct {
	*engine.Runner
	Locator *locator.Structural
}

// -----------------------------------------------------------------------------
// Construction
// -----------------------------------------------------------------------------

func New(opts Options) (*Engine, error) {
	if !window.Supported {
		return nil, ErrUnsupportedPlatform
	}
	sig, err := locator.Lookup(opts.Signature)
	if err != nil {
		return nil, err
	}

	timing := inject.DefaultTiming()
	if opts.Timing != nil {
		timing = *opts.Timing
	}
	policy := engine.DefaultPolicy()
	if opts.Policy != nil {
		policy = *opts.Policy
	}
	keys := opts.Keyboard
	if keys == nil {
		keys = keyboard.Global{}
	}

	desk := window.Desktop{}
	loc := locator.New(desk, sig)
	runner := engine.New(engine.Deps{
		Locator:  loc,
		Focuser:  desk,
		Control:  control{Desktop: desk},
		Injector: inject.New(opts.Clipboard, keys, timing),
		Log:      opts.Log,
	}, policy)

	return &Engine{Runner: runner, Locator: loc}, nil
}

// control sets text through the desktop and posts keys through the keyboard.
type control struct {
	window.Desktop
	keyboard.Global
}

// -----------------------------------------------------------------------------
// Window Discovery
// -----------------------------------------------------------------------------

// Ready reports whether the chat client's main window is present.
func (e *Engine) Ready() bool {
	_, ok := e.Locator.MainWindow()
	return ok
}

// OpenRooms lists the titles of the room windows currently open.
func (e *Engine) OpenRooms() []string {
	return e.Locator.OpenRooms()
}

var _ engine.Control = control{}
