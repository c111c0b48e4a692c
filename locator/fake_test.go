package locator

import "roomcast/window"

type node struct {
	h       window.Handle
	parent  window.Handle
	class   string
	title   string
	visible bool
}

// fakeTree is an in-memory window hierarchy in creation order.
type fakeTree struct {
	nodes []node
}

func (f *fakeTree) add(h, parent window.Handle, class, title string, visible bool) {
	f.nodes = append(f.nodes, node{h: h, parent: parent, class: class, title: title, visible: visible})
}

func (f *fakeTree) FindChild(parent, after window.Handle, class string) window.Handle {
	passed := after == 0
	for _, n := range f.nodes {
		if n.parent != parent {
			continue
		}
		if !passed {
			if n.h == after {
				passed = true
			}
			continue
		}
		if n.class == class {
			return n.h
		}
	}
	return 0
}

func (f *fakeTree) EnumTopLevel(fn func(window.Handle) bool) {
	for _, n := range f.nodes {
		if n.parent != 0 {
			continue
		}
		if !fn(n.h) {
			return
		}
	}
}

func (f *fakeTree) get(h window.Handle) node {
	for _, n := range f.nodes {
		if n.h == h {
			return n
		}
	}
	return node{}
}

func (f *fakeTree) Title(h window.Handle) string { return f.get(h).title }
func (f *fakeTree) Class(h window.Handle) string { return f.get(h).class }
func (f *fakeTree) Visible(h window.Handle) bool { return f.get(h).visible }
