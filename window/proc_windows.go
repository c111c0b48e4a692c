//go:build windows

package window

import (
	"golang.org/x/sys/windows"
)

// Supported reports whether this build can drive real windows.
const Supported = true

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	ProcFindWindowExW            = user32.NewProc("FindWindowExW")
	ProcEnumWindows              = user32.NewProc("EnumWindows")
	ProcIsWindowVisible          = user32.NewProc("IsWindowVisible")
	ProcIsIconic                 = user32.NewProc("IsIconic")
	ProcGetClassNameW            = user32.NewProc("GetClassNameW")
	ProcGetWindowTextW           = user32.NewProc("GetWindowTextW")
	ProcGetWindowTextLengthW     = user32.NewProc("GetWindowTextLengthW")
	ProcGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")

	ProcGetForegroundWindow = user32.NewProc("GetForegroundWindow")
	ProcSetForegroundWindow = user32.NewProc("SetForegroundWindow")
	ProcAttachThreadInput   = user32.NewProc("AttachThreadInput")
	ProcShowWindow          = user32.NewProc("ShowWindow")

	ProcSendMessageW   = user32.NewProc("SendMessageW")
	ProcPostMessageW   = user32.NewProc("PostMessageW")
	ProcMapVirtualKeyW = user32.NewProc("MapVirtualKeyW")
	ProcKeybdEvent     = user32.NewProc("keybd_event")
)
