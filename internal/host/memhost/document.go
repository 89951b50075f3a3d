package memhost

import (
	"fmt"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/roach88/boundary/internal/host"
)

// Document is an in-memory DOM parsed with golang.org/x/net/html.
//
// Thread-safety: all methods are safe for concurrent use.
type Document struct {
	mu        sync.Mutex
	root      *html.Node
	active    *html.Node
	selected  *html.Node
	files     map[*html.Node][]host.File
	selectors map[string]cascadia.Selector
}

// NewDocument parses markup into a document. The markup is placed
// inside <body>.
func NewDocument(markup string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	return &Document{
		root:      root,
		files:     make(map[*html.Node][]host.File),
		selectors: make(map[string]cascadia.Selector),
	}, nil
}

// compileLocked caches compiled selectors.
func (d *Document) compileLocked(selector string) (cascadia.Selector, error) {
	if sel, ok := d.selectors[selector]; ok {
		return sel, nil
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	d.selectors[selector] = sel
	return sel, nil
}

// ElementByID returns the element with id, or nil.
func (d *Document) ElementByID(id string) host.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n := d.byIDLocked(id); n != nil {
		return &Element{doc: d, n: n}
	}
	return nil
}

func (d *Document) byIDLocked(id string) *html.Node {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// ActiveElement returns the focused element, or nil.
func (d *Document) ActiveElement() host.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == nil {
		return nil
	}
	return &Element{doc: d, n: d.active}
}

// SelectedElement returns the input whose text was last selected, or nil.
func (d *Document) SelectedElement() host.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.selected == nil {
		return nil
	}
	return &Element{doc: d, n: d.selected}
}

// QuerySelectorAll returns every element matching selector in document order.
func (d *Document) QuerySelectorAll(selector string) ([]host.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sel, err := d.compileLocked(selector)
	if err != nil {
		return nil, err
	}
	nodes := sel.MatchAll(d.root)
	out := make([]host.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &Element{doc: d, n: n})
	}
	return out, nil
}

// SetValue sets the value attribute of the element with id.
func (d *Document) SetValue(id, value string) error {
	return d.mutate(id, func(n *html.Node) { setAttr(n, "value", value) })
}

// SetChecked sets or clears the checked attribute of the element with id.
func (d *Document) SetChecked(id string, checked bool) error {
	return d.mutate(id, func(n *html.Node) {
		if checked {
			setAttr(n, "checked", "")
		} else {
			removeAttr(n, "checked")
		}
	})
}

// SetFiles attaches file metadata to the element with id.
func (d *Document) SetFiles(id string, files []host.File) error {
	return d.mutate(id, func(n *html.Node) { d.files[n] = files })
}

func (d *Document) mutate(id string, fn func(*html.Node)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := d.byIDLocked(id)
	if n == nil {
		return fmt.Errorf("no element with id %q", id)
	}
	fn(n)
	return nil
}

// Body renders the body's children back to markup.
func (d *Document) Body() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	body := findBody(d.root)
	if body == nil {
		return ""
	}
	var sb strings.Builder
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&sb, c)
	}
	return sb.String()
}

// Element is an element of a Document.
type Element struct {
	doc *Document
	n   *html.Node
}

var _ host.Element = (*Element)(nil)

// ID returns the id attribute.
func (e *Element) ID() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return attr(e.n, "id")
}

// TagName returns the lowercase tag name.
func (e *Element) TagName() string {
	return e.n.Data
}

// Matches reports whether the element matches selector.
func (e *Element) Matches(selector string) (bool, error) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	sel, err := e.doc.compileLocked(selector)
	if err != nil {
		return false, err
	}
	return sel.Match(e.n), nil
}

// Closest returns the element or its nearest ancestor matching selector.
func (e *Element) Closest(selector string) (host.Element, error) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	sel, err := e.doc.compileLocked(selector)
	if err != nil {
		return nil, err
	}
	for n := e.n; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && sel.Match(n) {
			return &Element{doc: e.doc, n: n}, nil
		}
	}
	return nil, nil
}

// Attribute returns the named attribute.
func (e *Element) Attribute(name string) (string, bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for _, a := range e.n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// Value returns the form value of input, textarea, select, option and
// button elements.
func (e *Element) Value() (string, bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	switch e.n.Data {
	case "input", "button", "option":
		return attr(e.n, "value"), true
	case "textarea":
		if v, ok := attrOK(e.n, "value"); ok {
			return v, true
		}
		return textContent(e.n), true
	case "select":
		var first, selected *html.Node
		walk(e.n, func(n *html.Node) bool {
			if n.Type != html.ElementNode || n.Data != "option" {
				return true
			}
			if first == nil {
				first = n
			}
			if _, ok := attrOK(n, "selected"); ok {
				selected = n
				return false
			}
			return true
		})
		if selected == nil {
			selected = first
		}
		if selected == nil {
			return "", true
		}
		return attr(selected, "value"), true
	}
	return "", false
}

// Checked reports whether the checked attribute is present.
func (e *Element) Checked() bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	_, ok := attrOK(e.n, "checked")
	return ok
}

// Files returns attached file metadata.
func (e *Element) Files() []host.File {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.doc.files[e.n]
}

// Focus makes the element the active element.
func (e *Element) Focus() {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	e.doc.active = e.n
}

// Select records a text selection on input elements.
func (e *Element) Select() bool {
	if e.n.Data != "input" {
		return false
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	e.doc.selected = e.n
	return true
}

func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

func findBody(root *html.Node) *html.Node {
	var body *html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return false
		}
		return true
	})
	return body
}

func attr(n *html.Node, key string) string {
	v, _ := attrOK(n, key)
	return v
}

func attrOK(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}
