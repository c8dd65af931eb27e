package storygraph

import "sync"

// SelectionReader is the read side of a Selection, handed to renderers.
type SelectionReader interface {
	Current() (owner string, ok bool)
}

// Selection tracks which owner's chain is highlighted during one visualization
// session. It starts unselected; Select moves it to (or between) selected owners and
// nothing moves it back. Owners are not checked against any graph.
type Selection struct {
	mu       sync.RWMutex
	owner    string
	selected bool
}

// NewSelection returns an unselected Selection.
func NewSelection() *Selection {
	return &Selection{}
}

// Select makes owner the current selection, replacing any previous one.
// An empty owner is ignored.
func (s *Selection) Select(owner string) {
	if owner == "" {
		return
	}
	s.mu.Lock()
	s.owner = owner
	s.selected = true
	s.mu.Unlock()
}

// Current returns the selected owner, or ("", false) when nothing is selected.
func (s *Selection) Current() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner, s.selected
}
