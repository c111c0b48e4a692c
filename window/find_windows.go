//go:build windows

package window

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

const maxClassName = 256

// NewCallback slots are never released, so every enumeration shares one trampoline.
var (
	enumMu sync.Mutex
	enumFn func(Handle) bool
	enumCB = windows.NewCallback(func(hwnd uintptr, _ uintptr) uintptr {
		if enumFn != nil && enumFn(Handle(hwnd)) {
			return 1
		}
		return 0
	})
)

// FindChild returns the next child of parent with the given class after the
// child `after` (0 starts from the first). A zero parent searches top-level windows.
func (Desktop) FindChild(parent, after Handle, class string) Handle {
	cls, err := windows.UTF16PtrFromString(class)
	if err != nil {
		return 0
	}
	r, _, _ := ProcFindWindowExW.Call(
		uintptr(parent),
		uintptr(after),
		uintptr(unsafe.Pointer(cls)),
		0,
	)
	return Handle(r)
}

// EnumTopLevel calls fn for every top-level window until fn returns false.
func (Desktop) EnumTopLevel(fn func(Handle) bool) {
	enumMu.Lock()
	defer enumMu.Unlock()

	enumFn = fn
	defer func() { enumFn = nil }()

	// EnumWindows reports 0 when the callback stops early; that is not a failure here.
	ProcEnumWindows.Call(enumCB, 0)
}

func (Desktop) Title(h Handle) string {
	l, _, _ := ProcGetWindowTextLengthW.Call(uintptr(h))
	n := int(l)
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n+1)
	r, _, _ := ProcGetWindowTextW.Call(
		uintptr(h),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
	)
	return windows.UTF16ToString(buf[:int(r)])
}

func (Desktop) Class(h Handle) string {
	buf := make([]uint16, maxClassName)
	r, _, _ := ProcGetClassNameW.Call(
		uintptr(h),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
	)
	if r == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:int(r)])
}

func (Desktop) Visible(h Handle) bool {
	r, _, _ := ProcIsWindowVisible.Call(uintptr(h))
	return r != 0
}

const wmSetText = 0x000C

// SetText replaces the text of an edit control without giving it focus.
func (Desktop) SetText(h Handle, text string) error {
	p, err := windows.UTF16PtrFromString(text)
	if err != nil {
		return err
	}
	r, _, _ := ProcSendMessageW.Call(uintptr(h), wmSetText, 0, uintptr(unsafe.Pointer(p)))
	if r == 0 {
		return ErrSetTextFailed
	}
	return nil
}
