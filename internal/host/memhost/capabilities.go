package memhost

import (
	"sort"
	"sync"

	"github.com/roach88/boundary/internal/host"
)

// MemoryStorage is a map-backed host.Storage. Setting FailWrites makes
// every SetItem return that error.
type MemoryStorage struct {
	mu         sync.Mutex
	items      map[string]string
	failWrites error
}

// NewMemoryStorage creates an empty storage area.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

// GetItem returns the stored string.
func (s *MemoryStorage) GetItem(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	return v, ok, nil
}

// SetItem stores value, unless writes are set to fail.
func (s *MemoryStorage) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites != nil {
		return s.failWrites
	}
	s.items[key] = value
	return nil
}

// FailWrites makes later writes return err; nil restores normal writes.
func (s *MemoryStorage) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = err
}

// Keys returns the stored keys, sorted.
func (s *MemoryStorage) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Console records log effects.
type Console struct {
	mu       sync.Mutex
	messages []string
}

// Log records message.
func (c *Console) Log(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, message)
}

// Messages returns the recorded messages.
func (c *Console) Messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.messages...)
}

// Clipboard records written text. Setting Fail makes writes fail.
type Clipboard struct {
	mu   sync.Mutex
	text string
	fail error
}

// WriteText stores text.
func (c *Clipboard) WriteText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return c.fail
	}
	c.text = text
	return nil
}

// Text returns the last written text.
func (c *Clipboard) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// Fail makes later writes return err; nil restores normal writes.
func (c *Clipboard) Fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = err
}

// Navigation records history and location changes.
type Navigation struct {
	mu      sync.Mutex
	entries []string
	current string
	assigns []string
}

// PushURL appends url to the history.
func (n *Navigation) PushURL(url string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, url)
	n.current = url
	return nil
}

// ReplaceURL replaces the current history entry.
func (n *Navigation) ReplaceURL(url string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.entries) == 0 {
		n.entries = append(n.entries, url)
	} else {
		n.entries[len(n.entries)-1] = url
	}
	n.current = url
	return nil
}

// Assign records a full navigation.
func (n *Navigation) Assign(url string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.assigns = append(n.assigns, url)
	n.current = url
	return nil
}

// URL returns the current URL.
func (n *Navigation) URL() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// History returns the history entries.
func (n *Navigation) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.entries...)
}

// Assigned returns the URLs passed to Assign.
func (n *Navigation) Assigned() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.assigns...)
}

// Window is a fixed-size viewport.
type Window struct {
	mu            sync.Mutex
	width, height int
}

// Size returns the viewport size.
func (w *Window) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// Resize changes the viewport size.
func (w *Window) Resize(width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.width, w.height = width, height
}

var (
	_ host.Storage   = (*MemoryStorage)(nil)
	_ host.Console   = (*Console)(nil)
	_ host.Clipboard = (*Clipboard)(nil)
	_ host.History   = (*Navigation)(nil)
	_ host.Location  = (*Navigation)(nil)
	_ host.Window    = (*Window)(nil)
)
