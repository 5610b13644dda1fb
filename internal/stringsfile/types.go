package stringsfile

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Entry is one key/value statement of a .strings file together with the
// free text immediately preceding it.
type Entry struct {
	// Key is the raw text between the quotes of the key literal. Escape
	// sequences are kept as written.
	Key string
	// Comment is everything from the end of the previous statement line (or
	// the start of the file) up to this entry's statement line.
	Comment string
	// Line is the raw statement line, including its line terminator.
	Line string
}

// Literal returns the key as it is written in the file, quotes included.
func (e *Entry) Literal() string {
	return Literal(e.Key)
}

// Literal quotes a raw key the way it appears in a statement line.
func Literal(key string) string {
	return `"` + key + `"`
}

// Document is a parsed .strings file: entries keyed by Key, iterated in the
// order they first appeared in the source text.
type Document struct {
	entries *orderedmap.OrderedMap[string, *Entry]
	// Trailer is the whitespace-only text following the last statement line.
	Trailer string
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{entries: orderedmap.New[string, *Entry]()}
}

// Get returns the entry for key.
func (d *Document) Get(key string) (*Entry, bool) {
	return d.entries.Get(key)
}

// Has reports whether key is declared in the document.
func (d *Document) Has(key string) bool {
	_, ok := d.entries.Get(key)
	return ok
}

// Set stores e under e.Key. An existing key keeps its position.
func (d *Document) Set(e *Entry) {
	d.entries.Set(e.Key, e)
}

// Len returns the number of entries.
func (d *Document) Len() int {
	return d.entries.Len()
}

// Keys returns the keys in document order.
func (d *Document) Keys() []string {
	keys := make([]string, 0, d.entries.Len())
	for pair := d.entries.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Entries returns the entries in document order.
func (d *Document) Entries() []*Entry {
	entries := make([]*Entry, 0, d.entries.Len())
	for pair := d.entries.Oldest(); pair != nil; pair = pair.Next() {
		entries = append(entries, pair.Value)
	}
	return entries
}

// Clone returns a deep copy, so the copy's entries can be modified without
// affecting d.
func (d *Document) Clone() *Document {
	c := NewDocument()
	c.Trailer = d.Trailer
	for pair := d.entries.Oldest(); pair != nil; pair = pair.Next() {
		e := *pair.Value
		c.Set(&e)
	}
	return c
}

// String reassembles the document in its own order.
func (d *Document) String() string {
	return Serialize(d.Keys(), d)
}
