//go:build !windows

package window

// Supported reports whether this build can drive real windows.
const Supported = false

func (Desktop) FindChild(parent, after Handle, class string) Handle { return 0 }

func (Desktop) EnumTopLevel(fn func(Handle) bool) {}

func (Desktop) Title(h Handle) string { return "" }

func (Desktop) Class(h Handle) string { return "" }

func (Desktop) Visible(h Handle) bool { return false }

func (Desktop) SetText(h Handle, text string) error { return ErrUnsupportedPlatform }

func (Desktop) ForceActivate(h Handle) {}
