package unpack

import (
	"bytes"
	"io"
	"iter"
	"maps"
	"slices"
)

// Entry is a named payload read from an archive.
// Content must be treated as read-only when it comes from a cached view.
type Entry struct {
	Name    string
	Content []byte
}

// String returns the content as UTF-8 text.
func (e Entry) String() string {
	return string(e.Content)
}

// Reader returns a reader over the content.
func (e Entry) Reader() io.Reader {
	return bytes.NewReader(e.Content)
}

// EntryMap is an insertion-ordered mapping from entry name to content.
// Setting an existing name replaces its content and keeps its position.
// The zero value is ready to use. An EntryMap is not safe for concurrent
// mutation.
type EntryMap struct {
	names []string
	index map[string]int
	items [][]byte
}

// NewEntryMap returns an empty map with room for n entries.
func NewEntryMap(n int) *EntryMap {
	return &EntryMap{
		names: make([]string, 0, n),
		index: make(map[string]int, n),
		items: make([][]byte, 0, n),
	}
}

// Set stores content under name.
func (m *EntryMap) Set(name string, content []byte) {
	if i, ok := m.index[name]; ok {
		m.items[i] = content
		return
	}
	if m.index == nil {
		m.index = make(map[string]int)
	}
	m.index[name] = len(m.names)
	m.names = append(m.names, name)
	m.items = append(m.items, content)
}

// Get returns the content stored under name.
func (m *EntryMap) Get(name string) ([]byte, bool) {
	i, ok := m.index[name]
	if !ok {
		return nil, false
	}
	return m.items[i], true
}

// Has reports whether name is present.
func (m *EntryMap) Has(name string) bool {
	_, ok := m.index[name]
	return ok
}

// Len returns the number of entries.
func (m *EntryMap) Len() int {
	return len(m.names)
}

// Names returns the entry names in insertion order.
func (m *EntryMap) Names() []string {
	return slices.Clone(m.names)
}

// All returns the entries in insertion order.
func (m *EntryMap) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for i, name := range m.names {
			if !yield(Entry{Name: name, Content: m.items[i]}) {
				return
			}
		}
	}
}

// Map returns the entries as a plain map. Order is not preserved.
func (m *EntryMap) Map() map[string][]byte {
	out := make(map[string][]byte, len(m.names))
	for i, name := range m.names {
		out[name] = m.items[i]
	}
	return out
}

// Clone returns a copy of m sharing the entry contents.
func (m *EntryMap) Clone() *EntryMap {
	return &EntryMap{
		names: slices.Clone(m.names),
		index: maps.Clone(m.index),
		items: slices.Clone(m.items),
	}
}
