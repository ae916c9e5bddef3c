// Package index holds the in-memory keydir: the mapping from each live
// key to its most recent value, maintained in insertion order.
package index

import (
	"github.com/hupe1980/kvgo/value"
)

// Entry is the indexed state of one key: the value's kind, its encoded
// payload, and the framed on-disk size of the record that produced it.
// Entries are treated as immutable once stored.
type Entry struct {
	Kind  value.Kind
	Value []byte
	Size  int64
}

// node threads the entries into an insertion-ordered doubly-linked list,
// giving O(1) deletes and allocation-free iteration.
type node struct {
	key   string
	entry Entry
	prev  *node
	next  *node
}

// Index maps keys to their most recent entries and iterates them in
// first-insertion order: updating a key keeps its position, deleting and
// re-inserting moves it to the end.
//
// Index is not safe for concurrent use; the engine guards it with its
// read-write lock.
type Index struct {
	nodes map[string]*node
	head  *node
	tail  *node
}

// New creates an empty index.
func New() *Index {
	return &Index{nodes: make(map[string]*node)}
}

// Get returns the entry for key.
func (i *Index) Get(key string) (Entry, bool) {
	n, ok := i.nodes[key]
	if !ok {
		return Entry{}, false
	}
	return n.entry, true
}

// Has reports whether key is live.
func (i *Index) Has(key string) bool {
	_, ok := i.nodes[key]
	return ok
}

// Put sets the entry for key. A key that is already present keeps its
// position in iteration order. The replaced entry is returned so the
// caller can account for the bytes it leaves dead in the log.
func (i *Index) Put(key string, e Entry) (Entry, bool) {
	if n, ok := i.nodes[key]; ok {
		prev := n.entry
		n.entry = e
		return prev, true
	}

	n := &node{key: key, entry: e}
	i.nodes[key] = n

	if i.tail == nil {
		i.head = n
		i.tail = n
	} else {
		n.prev = i.tail
		i.tail.next = n
		i.tail = n
	}

	return Entry{}, false
}

// Delete removes key and returns the entry it held.
func (i *Index) Delete(key string) (Entry, bool) {
	n, ok := i.nodes[key]
	if !ok {
		return Entry{}, false
	}

	delete(i.nodes, key)

	if n.prev != nil {
		n.prev.next = n.next
	} else {
		i.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		i.tail = n.prev
	}

	return n.entry, true
}

// Keys returns the live keys in insertion order.
func (i *Index) Keys() []string {
	keys := make([]string, 0, len(i.nodes))
	for n := i.head; n != nil; n = n.next {
		keys = append(keys, n.key)
	}
	return keys
}

// Range calls fn for every entry in insertion order until fn returns
// false.
func (i *Index) Range(fn func(key string, e Entry) bool) {
	for n := i.head; n != nil; n = n.next {
		if !fn(n.key, n.entry) {
			return
		}
	}
}

// Len returns the number of live keys.
func (i *Index) Len() int { return len(i.nodes) }

// Reset drops all entries.
func (i *Index) Reset() {
	i.nodes = make(map[string]*node)
	i.head = nil
	i.tail = nil
}
