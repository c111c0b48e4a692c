//go:build windows

package window

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/windows"
)

const swRestore = 9

func threadOf(h Handle) uint32 {
	if h == 0 {
		return 0
	}
	var pid uint32
	r, _, _ := ProcGetWindowThreadProcessId.Call(uintptr(h), uintptr(unsafe.Pointer(&pid)))
	return uint32(r)
}

func attachThreadInput(from, to uint32, attach bool) {
	if from == 0 || to == 0 || from == to {
		return
	}
	var flag uintptr
	if attach {
		flag = 1
	}
	ProcAttachThreadInput.Call(uintptr(from), uintptr(to), flag)
}

// attachInput merges the input queues of fore and target into self and returns
// the release func. Detach runs in reverse order.
func attachInput(fore, target, self uint32) (release func()) {
	attachThreadInput(fore, self, true)
	attachThreadInput(target, self, true)
	return func() {
		attachThreadInput(target, self, false)
		attachThreadInput(fore, self, false)
	}
}

// ForceActivate restores h if minimized and brings it to the foreground with
// input focus. The foreground lock is bypassed by attaching to the foreground
// thread's input queue only for the duration of the call.
//
// Best effort: there is no confirmation that activation took effect.
func (Desktop) ForceActivate(h Handle) {
	if h == 0 {
		return
	}

	// The attached thread id must stay the same until release.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	fg, _, _ := ProcGetForegroundWindow.Call()
	foreThread := threadOf(Handle(fg))
	targetThread := threadOf(h)

	if foreThread != targetThread {
		release := attachInput(foreThread, targetThread, windows.GetCurrentThreadId())
		defer release()
	}

	if iconic, _, _ := ProcIsIconic.Call(uintptr(h)); iconic != 0 {
		ProcShowWindow.Call(uintptr(h), swRestore)
	}
	ProcSetForegroundWindow.Call(uintptr(h))
}
