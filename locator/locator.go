// Package locator finds the chat application's windows by walking the
// window tree along a known class-name path.
package locator

import (
	"fmt"
	"sort"
	"strings"

	"roomcast/window"
)

// Tree is the read-only view of the window hierarchy the locator needs.
// window.Desktop satisfies it.
type Tree interface {
	FindChild(parent, after window.Handle, class string) window.Handle
	EnumTopLevel(fn func(window.Handle) bool)
	Title(h window.Handle) string
	Class(h window.Handle) string
	Visible(h window.Handle) bool
}

// Locator resolves the handles the engine drives.
type Locator interface {
	MainWindow() (window.Handle, bool)
	SearchControl(main window.Handle) (window.Handle, bool)
	WindowByTitle(substr string) (window.Handle, bool)
}

// Signature describes where a chat client keeps its room search box.
//
// The search edit is the EditClass child of the PaneIndex-th (0-based)
// PaneClass child under ContainerClass. MainTitle is the main window's exact
// title and is never matched as a room.
type Signature struct {
	Name           string
	MainClass      string
	MainTitle      string
	ContainerClass string
	PaneClass      string
	PaneIndex      int
	EditClass      string
}

// KakaoTalk is the layout of the KakaoTalk desktop client.
var KakaoTalk = Signature{
	Name:           "kakaotalk",
	MainClass:      "EVA_Window_Dblclk",
	MainTitle:      "카카오톡",
	ContainerClass: "EVA_ChildWindow",
	PaneClass:      "EVA_Window",
	PaneIndex:      1,
	EditClass:      "Edit",
}

var signatures = map[string]Signature{
	KakaoTalk.Name: KakaoTalk,
}

// Lookup returns a built-in signature by name. An empty name selects KakaoTalk.
func Lookup(name string) (Signature, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return KakaoTalk, nil
	}
	sig, ok := signatures[name]
	if !ok {
		return Signature{}, fmt.Errorf("unknown target signature %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return sig, nil
}

func Names() []string {
	out := make([]string, 0, len(signatures))
	for n := range signatures {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Structural implements Locator with FindWindowEx-style lookups.
type Structural struct {
	Tree Tree
	Sig  Signature
}

func New(tree Tree, sig Signature) *Structural {
	return &Structural{Tree: tree, Sig: sig}
}

// MainWindow returns the first top-level window of MainClass that carries
// the container and at least one pane. Room windows share the main class
// but lack that nesting.
func (s *Structural) MainWindow() (window.Handle, bool) {
	for h := s.Tree.FindChild(0, 0, s.Sig.MainClass); h != 0; h = s.Tree.FindChild(0, h, s.Sig.MainClass) {
		c := s.Tree.FindChild(h, 0, s.Sig.ContainerClass)
		if c != 0 && s.Tree.FindChild(c, 0, s.Sig.PaneClass) != 0 {
			return h, true
		}
	}
	return 0, false
}

// SearchControl walks main -> container -> pane[PaneIndex] -> edit.
// Any missing link yields false.
func (s *Structural) SearchControl(main window.Handle) (window.Handle, bool) {
	if main == 0 {
		return 0, false
	}
	container := s.Tree.FindChild(main, 0, s.Sig.ContainerClass)
	if container == 0 {
		return 0, false
	}

	var pane window.Handle
	for i := 0; i <= s.Sig.PaneIndex; i++ {
		pane = s.Tree.FindChild(container, pane, s.Sig.PaneClass)
		if pane == 0 {
			return 0, false
		}
	}

	edit := s.Tree.FindChild(pane, 0, s.Sig.EditClass)
	return edit, edit != 0
}

// WindowByTitle returns the first visible top-level window in enumeration
// order whose title contains substr. The main window is never returned, so
// a room whose name is a substring of the main title still resolves to the
// room. A blank substr never matches.
func (s *Structural) WindowByTitle(substr string) (window.Handle, bool) {
	if strings.TrimSpace(substr) == "" {
		return 0, false
	}
	var found window.Handle
	s.Tree.EnumTopLevel(func(h window.Handle) bool {
		if !s.Tree.Visible(h) {
			return true
		}
		title := s.Tree.Title(h)
		if title == "" || title == s.Sig.MainTitle {
			return true
		}
		if strings.Contains(title, substr) {
			found = h
			return false
		}
		return true
	})
	return found, found != 0
}

// OpenRooms lists the titles of visible top-level windows that look like
// chat rooms of this client: same window class as the main window, not the
// main window itself.
func (s *Structural) OpenRooms() []string {
	var out []string
	s.Tree.EnumTopLevel(func(h window.Handle) bool {
		if !s.Tree.Visible(h) || s.Tree.Class(h) != s.Sig.MainClass {
			return true
		}
		title := s.Tree.Title(h)
		if title == "" || title == s.Sig.MainTitle {
			return true
		}
		out = append(out, title)
		return true
	})
	return out
}
