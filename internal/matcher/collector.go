package matcher

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/pombredanne/annographix/internal/payload"
)

// Binding is the occurrence chosen for one query element in a match tuple.
type Binding struct {
	Element int
	Span    payload.Span
}

// Match is one tuple emitted by the engine: the document id and exactly one
// occurrence per query element, ordered by element index.
type Match struct {
	DocID    int
	Bindings []Binding
}

// Collector receives match tuples. Collect returns false to stop the whole
// query execution, e.g. when a result limit is reached. Tuples arrive in
// ascending document order; within a document, in lexicographic order of the
// occurrence indexes along the execution order.
type Collector interface {
	Collect(m Match) bool
}

// DocSetCollector deduplicates matches at document granularity. It keeps the
// matched document ids in a roaring bitmap, the ascending id order in a
// slice, and optionally the first binding tuple seen per document.
type DocSetCollector struct {
	docs         *roaring.Bitmap
	order        []uint32
	limit        int
	keepBindings bool
	bindings     map[uint32][]Binding
}

// NewDocSetCollector creates a collector that stops the execution after
// limit distinct documents (0 means unlimited). If keepBindings is set, the
// first match tuple of each document is retained.
func NewDocSetCollector(limit int, keepBindings bool) *DocSetCollector {
	c := &DocSetCollector{
		docs:         roaring.New(),
		limit:        limit,
		keepBindings: keepBindings,
	}
	if keepBindings {
		c.bindings = make(map[uint32][]Binding)
	}
	return c
}

// Collect implements Collector.
func (c *DocSetCollector) Collect(m Match) bool {
	docID := uint32(m.DocID)
	if !c.docs.Contains(docID) {
		c.docs.Add(docID)
		c.order = append(c.order, docID)
		if c.keepBindings {
			bound := make([]Binding, len(m.Bindings))
			copy(bound, m.Bindings)
			c.bindings[docID] = bound
		}
	}
	return c.limit <= 0 || len(c.order) < c.limit
}

// DocIDs returns the matched document ids in ascending order.
func (c *DocSetCollector) DocIDs() []uint32 { return c.order }

// Count reports the number of distinct matched documents.
func (c *DocSetCollector) Count() int { return len(c.order) }

// Docs returns the matched document id set.
func (c *DocSetCollector) Docs() *roaring.Bitmap { return c.docs }

// Bindings returns the first match tuple recorded for a document, or nil if
// bindings were not kept.
func (c *DocSetCollector) Bindings(docID uint32) []Binding {
	if c.bindings == nil {
		return nil
	}
	return c.bindings[docID]
}

// FuncCollector adapts a function to the Collector interface; used by tests
// and by hosts that want per-tuple enumeration.
type FuncCollector func(m Match) bool

// Collect implements Collector.
func (f FuncCollector) Collect(m Match) bool { return f(m) }
