// Package matcher implements the structured-match engine: per-element
// posting states, the galloping AND-intersection of their document streams,
// and the constraint-satisfaction recursion that enumerates occurrence
// tuples satisfying all query constraints within a document.
package matcher

import (
	"fmt"
	"sort"

	"github.com/pombredanne/annographix/index"
	"github.com/pombredanne/annographix/internal/errors"
	"github.com/pombredanne/annographix/internal/payload"
	"github.com/pombredanne/annographix/internal/structquery"
)

// NoMoreDocs is the sentinel document id of an exhausted posting state.
const NoMoreDocs = index.NoMoreDocs

// initElemCapacity is the initial size of the per-document occurrence buffer.
const initElemCapacity = 512

// constraintRef is one precomputed constraint check attached to a posting
// state. States are referenced by their position in the executor's sorted
// state slice rather than by pointer, which keeps the constraint graph
// acyclic and lets the recursion read current elements by index.
type constraintRef struct {
	constraining int
	dependent    int
	kind         structquery.ConstraintKind
}

// PostingState wraps one posting enumerator during a query execution. It
// owns the per-document occurrence buffer and a cursor into it. A
// PostingState must not be shared across goroutines: the buffer, the cursor
// and the search bounds are all mutable per-execution state.
type PostingState struct {
	postings index.Postings
	token    string
	elemType structquery.ElementType
	element  int // position in the compiled query's element list

	docID int

	// buf[0:qty] holds the current document's occurrences sorted by
	// non-decreasing start offset. The buffer is reused across documents.
	buf      []payload.Span
	qty      int
	currElem int

	connectQty      int
	postCost        int64
	minCompPostCost int64
	componentID     int
	sortIndex       int

	// constraints references only states with a strictly smaller sortIndex;
	// every query edge is attached to exactly one state this way.
	constraints []constraintRef
}

// NewPostingState wraps a posting enumerator for one query element.
func NewPostingState(postings index.Postings, elem structquery.Element, elemIndex int) *PostingState {
	return &PostingState{
		postings:    postings,
		token:       elem.Token,
		elemType:    elem.Type,
		element:     elemIndex,
		docID:       -1,
		buf:         make([]payload.Span, initElemCapacity),
		connectQty:  elem.ConnectQty,
		postCost:    postings.Cost(),
		componentID: elem.ComponentID,
	}
}

// DocID reports the current document id.
func (s *PostingState) DocID() int { return s.docID }

// Qty reports the number of occurrences loaded for the current document.
func (s *PostingState) Qty() int { return s.qty }

// Element reports the index of the query element this state serves.
func (s *PostingState) Element() int { return s.element }

// SortIndex reports this state's position in the execution order.
func (s *PostingState) SortIndex() int { return s.sortIndex }

// PostCost reports the enumerator cost used for ordering.
func (s *PostingState) PostCost() int64 { return s.postCost }

// ConnectQty reports the element's connected-component size.
func (s *PostingState) ConnectQty() int { return s.connectQty }

// ComponentID reports the element's connected-component id.
func (s *PostingState) ComponentID() int { return s.componentID }

// MinCompPostCost reports the minimum posting cost within the element's
// connected component.
func (s *PostingState) MinCompPostCost() int64 { return s.minCompPostCost }

// SetCurrElemIndex moves the cursor into the occurrence buffer without
// bounds checking; the recursion only passes indexes below Qty.
func (s *PostingState) SetCurrElemIndex(i int) { s.currElem = i }

// CurrElemIndex reports the cursor into the occurrence buffer.
func (s *PostingState) CurrElemIndex() int { return s.currElem }

// CurrElement returns the occurrence the cursor points at.
func (s *PostingState) CurrElement() payload.Span { return s.buf[s.currElem] }

// ElementAt returns the i-th occurrence of the current document.
func (s *PostingState) ElementAt(i int) payload.Span { return s.buf[i] }

// Advance moves to the first document with id >= docID, invalidating the
// occurrence buffer. Returns the new document id or NoMoreDocs.
func (s *PostingState) Advance(docID int) (int, error) {
	s.qty = 0
	if s.docID != NoMoreDocs {
		d, err := s.postings.Advance(docID)
		if err != nil {
			return 0, err
		}
		s.docID = d
	}
	return s.docID, nil
}

// NextDoc moves to the next document, invalidating the occurrence buffer.
func (s *PostingState) NextDoc() (int, error) {
	s.qty = 0
	if s.docID != NoMoreDocs {
		d, err := s.postings.NextDoc()
		if err != nil {
			return 0, err
		}
		s.docID = d
	}
	return s.docID, nil
}

// ReadDocElements decodes all positions of the current document into the
// occurrence buffer. The posting stream yields positions in ascending start
// offset order; a violation means the index is corrupt.
func (s *PostingState) ReadDocElements() error {
	s.currElem = 0
	qty, err := s.postings.Freq()
	if err != nil {
		return err
	}
	s.extendBuf(qty)
	s.qty = qty

	prevStart := -1
	for i := 0; i < qty; i++ {
		if _, err := s.postings.NextPosition(); err != nil {
			return err
		}
		data, err := s.postings.Payload()
		if err != nil {
			return err
		}
		span, err := payload.Decode(s.docID, data)
		if err != nil {
			return err
		}
		if span.Start < prevStart {
			return fmt.Errorf("doc %d: occurrences of '%s' not sorted by start offset: %w",
				s.docID, s.token, errors.ErrInternal)
		}
		prevStart = span.Start
		s.buf[i] = span
	}
	return nil
}

// extendBuf grows the occurrence buffer to hold at least newCapacity
// entries, doubling to amortize growth across documents.
func (s *PostingState) extendBuf(newCapacity int) {
	if newCapacity > len(s.buf) {
		grown := make([]payload.Span, newCapacity*2)
		copy(grown, s.buf)
		s.buf = grown
	}
}

// FindElemLargerOffset returns the smallest index i >= max(0, minIndex) such
// that buf[i].Start > offsetToExceed, or Qty if there is none.
//
// The occurrence buffer is sorted by non-decreasing start offset, so the
// search first takes up to linSearchIter single steps (cheap when the answer
// is nearby, which is the common case during constraint pruning), then falls
// back to an exponential probe followed by a binary search over the bracketed
// range.
func (s *PostingState) FindElemLargerOffset(linSearchIter, offsetToExceed, minIndex int) int {
	if minIndex < 0 {
		minIndex = 0
	}

	for i := 0; i < linSearchIter && minIndex < s.qty; i++ {
		if s.buf[minIndex].Start > offsetToExceed {
			return minIndex
		}
		minIndex++
	}

	if minIndex >= s.qty {
		return s.qty
	}
	if s.buf[minIndex].Start > offsetToExceed {
		return minIndex
	}

	// Invariant: buf[indx1].Start <= offsetToExceed and indx1 < qty.
	d := 1
	indx1, indx2 := minIndex, -1
	for {
		indx2 = indx1 + d
		if indx2 < s.qty {
			if s.buf[indx2].Start > offsetToExceed {
				break
			}
			indx1 = indx2
		} else {
			if s.buf[s.qty-1].Start <= offsetToExceed {
				return s.qty
			}
			// The last entry exceeds the offset but may not be the first
			// such entry; let the binary search find it.
			indx2 = s.qty
			break
		}
		if maxDiff := s.qty - indx1; d <= maxDiff>>1 {
			d <<= 1
		} else {
			d = maxDiff
		}
	}

	// buf[indx1].Start <= offsetToExceed < buf[indx2].Start (or indx2 == qty
	// with the last entry exceeding). Binary search for the first entry
	// strictly greater; equal offsets land before the answer by construction
	// of the predicate, which covers ties without a separate forward scan.
	return indx1 + sort.Search(indx2-indx1, func(i int) bool {
		return s.buf[indx1+i].Start > offsetToExceed
	})
}
