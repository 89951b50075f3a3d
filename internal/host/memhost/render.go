package memhost

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// UnmanagedAttr marks elements whose node survives re-rendering.
const UnmanagedAttr = "unmanaged"

// Render replaces the body content with markup.
//
// An element carrying the unmanaged attribute keeps its existing node,
// attributes and state when the new markup contains an unmanaged
// element with the same id. Focus and attached files are dropped for
// nodes that leave the document.
func (d *Document) Render(markup string) error {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return fmt.Errorf("parse markup: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	body := findBody(d.root)
	if body == nil {
		return fmt.Errorf("document has no body")
	}

	kept := unmanagedByID(body)

	for c := body.FirstChild; c != nil; {
		next := c.NextSibling
		body.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}

	var swaps [][2]*html.Node
	for id, fresh := range unmanagedByID(body) {
		if old, ok := kept[id]; ok {
			swaps = append(swaps, [2]*html.Node{old, fresh})
		}
	}
	for _, s := range swaps {
		old, fresh := s[0], s[1]
		if old.Parent != nil {
			old.Parent.RemoveChild(old)
		}
		fresh.Parent.InsertBefore(old, fresh)
		fresh.Parent.RemoveChild(fresh)
	}

	d.pruneLocked()
	return nil
}

func unmanagedByID(root *html.Node) map[string]*html.Node {
	out := make(map[string]*html.Node)
	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		if _, ok := attrOK(n, UnmanagedAttr); ok {
			if id := attr(n, "id"); id != "" {
				out[id] = n
				return false
			}
		}
		return true
	})
	return out
}

func (d *Document) pruneLocked() {
	live := make(map[*html.Node]bool)
	walk(d.root, func(n *html.Node) bool {
		live[n] = true
		return true
	})
	if d.active != nil && !live[d.active] {
		d.active = nil
	}
	if d.selected != nil && !live[d.selected] {
		d.selected = nil
	}
	for n := range d.files {
		if !live[n] {
			delete(d.files, n)
		}
	}
}
