// Package visibility tracks which subtrees the viewer has hidden.
//
// An [Overlay] is a set of subtree-root ids kept on the client only. A node
// is hidden when it or any ancestor in the full tree is in the set,
// regardless of collapse state. The overlay never changes the tree.
package visibility

import (
	"slices"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/matzehuels/orgchart/pkg/core/chart"
)

// Overlay is a set of hidden subtree roots. The zero value is an empty
// overlay. It is safe for concurrent use.
type Overlay struct {
	mu     sync.RWMutex
	hidden map[string]struct{}
}

// New returns an overlay with the given ids hidden.
func New(ids ...string) *Overlay {
	o := &Overlay{hidden: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id != "" {
			o.hidden[id] = struct{}{}
		}
	}
	return o
}

// Hide marks id as a hidden subtree root. It reports whether the set changed.
func (o *Overlay) Hide(id string) bool {
	if id == "" {
		return false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.hidden[id]; ok {
		return false
	}
	if o.hidden == nil {
		o.hidden = make(map[string]struct{})
	}
	o.hidden[id] = struct{}{}
	return true
}

// Show removes id from the set. It reports whether the set changed.
func (o *Overlay) Show(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.hidden[id]; !ok {
		return false
	}
	delete(o.hidden, id)
	return true
}

// Toggle flips id and returns whether it is now marked.
func (o *Overlay) Toggle(id string) bool {
	if o.Marked(id) {
		o.Show(id)
		return false
	}
	return o.Hide(id)
}

// Marked reports whether id itself is in the set.
func (o *Overlay) Marked(id string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.hidden[id]
	return ok
}

// IsHidden reports whether id or any of its ancestors in t is marked.
// Unknown ids are hidden only when marked directly.
func (o *Overlay) IsHidden(t *chart.Tree, id string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if len(o.hidden) == 0 {
		return false
	}
	path := t.Path(id)
	if path == nil {
		_, ok := o.hidden[id]
		return ok
	}
	for _, n := range path {
		if _, ok := o.hidden[n.ID()]; ok {
			return true
		}
	}
	return false
}

// HiddenAncestor returns the marked node closest to the root on id's path,
// or nil when id is not hidden.
func (o *Overlay) HiddenAncestor(t *chart.Tree, id string) *chart.Node {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, n := range t.Path(id) {
		if _, ok := o.hidden[n.ID()]; ok {
			return n
		}
	}
	return nil
}

// Hidden returns the marked ids in sorted order.
func (o *Overlay) Hidden() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	ids := make([]string, 0, len(o.hidden))
	for id := range o.hidden {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of marked ids.
func (o *Overlay) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.hidden)
}

// Reset clears the set.
func (o *Overlay) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	clear(o.hidden)
}

// Keep returns a predicate that accepts nodes of t that are not hidden.
func (o *Overlay) Keep(t *chart.Tree) func(*chart.Node) bool {
	return func(n *chart.Node) bool { return !o.IsHidden(t, n.ID()) }
}

// MarshalJSON encodes the set as a sorted JSON array of ids.
func (o *Overlay) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Hidden())
}

// UnmarshalJSON replaces the set with a JSON array of ids. Malformed input
// leaves the overlay empty.
func (o *Overlay) UnmarshalJSON(data []byte) error {
	var ids []string
	err := json.Unmarshal(data, &ids)
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hidden = make(map[string]struct{}, len(ids))
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id != "" {
			o.hidden[id] = struct{}{}
		}
	}
	return nil
}
