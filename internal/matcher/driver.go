package matcher

import (
	"fmt"
	"math"
	"sort"

	"github.com/pombredanne/annographix/internal/errors"
	"github.com/pombredanne/annographix/internal/structquery"
)

// defaultLinSearchIter is the number of single-step probes
// FindElemLargerOffset takes before switching to the exponential search.
const defaultLinSearchIter = 2

// Stats accumulates execution counters for one query execution.
type Stats struct {
	DocsSeen         int64
	DocsMatched      int64
	Tuples           int64
	ConstraintChecks int64
}

// Executor drives one execution of a compiled query: it aligns all posting
// states on common documents and enumerates constraint-satisfying occurrence
// tuples for each. An Executor and its states belong to a single goroutine;
// the compiled query itself may be shared.
type Executor struct {
	states        []*PostingState // ascending sortIndex
	collector     Collector
	linSearchIter int
	// firstPerDoc stops tuple enumeration within a document after the first
	// match; collectors that only need document membership set this to skip
	// the remaining assignments.
	firstPerDoc bool

	stats Stats
}

// Option configures an Executor.
type Option func(*Executor)

// WithLinSearchIter overrides the linear-probe budget of the buffer search.
func WithLinSearchIter(n int) Option {
	return func(e *Executor) { e.linSearchIter = n }
}

// WithFirstMatchPerDoc makes the executor emit at most one tuple per
// document.
func WithFirstMatchPerDoc() Option {
	return func(e *Executor) { e.firstPerDoc = true }
}

// NewExecutor prepares an execution of query over states, one state per
// query element in element order. It orders the states by ascending
// (minCompPostCost, -connectQty) — cheapest connected component first, most
// connected element within it first — and precomputes each state's
// constraint index against earlier-ordered states.
func NewExecutor(query *structquery.Query, states []*PostingState, collector Collector, opts ...Option) (*Executor, error) {
	if len(states) != len(query.Elements) {
		return nil, fmt.Errorf("bug: %d posting states for %d query elements: %w",
			len(states), len(query.Elements), errors.ErrInternal)
	}
	if len(states) == 0 {
		return nil, fmt.Errorf("bug: query with no elements: %w", errors.ErrInternal)
	}

	e := &Executor{
		states:        make([]*PostingState, len(states)),
		collector:     collector,
		linSearchIter: defaultLinSearchIter,
	}
	copy(e.states, states)
	for _, opt := range opts {
		opt(e)
	}

	// Minimum posting cost per connected component.
	minCompCost := make(map[int]int64)
	for _, s := range e.states {
		if cost, ok := minCompCost[s.componentID]; !ok || s.postCost < cost {
			minCompCost[s.componentID] = s.postCost
		}
	}
	for _, s := range e.states {
		s.minCompPostCost = minCompCost[s.componentID]
	}

	sort.SliceStable(e.states, func(i, j int) bool {
		si, sj := e.states[i], e.states[j]
		if si.minCompPostCost != sj.minCompPostCost {
			return si.minCompPostCost < sj.minCompPostCost
		}
		return si.connectQty > sj.connectQty
	})
	for i, s := range e.states {
		s.sortIndex = i
	}

	e.buildConstraintIndexes(query)
	return e, nil
}

// buildConstraintIndexes attaches every constraint edge to whichever of its
// endpoints has the larger sortIndex. When the recursion tentatively binds
// that endpoint, all states referenced by its constraint index are already
// bound, so each edge is checked exactly once per candidate assignment.
func (e *Executor) buildConstraintIndexes(query *structquery.Query) {
	elemToSort := make([]int, len(e.states))
	for _, s := range e.states {
		elemToSort[s.element] = s.sortIndex
	}

	for _, edge := range query.Edges {
		head := elemToSort[edge.Head]
		dep := elemToSort[edge.Dependent]
		ref := constraintRef{constraining: head, dependent: dep, kind: edge.Kind}
		// sortIndex is a permutation, so the endpoints never tie.
		if head > dep {
			e.states[head].constraints = append(e.states[head].constraints, ref)
		} else {
			e.states[dep].constraints = append(e.states[dep].constraints, ref)
		}
	}
}

// Stats returns the counters accumulated so far.
func (e *Executor) Stats() Stats { return e.stats }

// Execute runs the intersection from the first document with id >= minDocID
// (pass 0 to scan from the start) until the postings are exhausted or the
// collector stops the execution.
func (e *Executor) Execute(minDocID int) error {
	lead := e.states[0]

	var doc int
	var err error
	if minDocID > 0 {
		doc, err = lead.Advance(minDocID)
	} else {
		doc, err = lead.NextDoc()
	}
	if err != nil {
		return err
	}

	for doc != NoMoreDocs {
		aligned := true
		for _, s := range e.states[1:] {
			d, err := s.Advance(doc)
			if err != nil {
				return err
			}
			if d > doc {
				// Gallop the lead forward to the laggard's document and
				// restart the alignment round.
				doc, err = lead.Advance(d)
				if err != nil {
					return err
				}
				aligned = false
				break
			}
		}
		if !aligned {
			continue
		}

		stop, err := e.matchDoc()
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
		doc, err = lead.NextDoc()
		if err != nil {
			return err
		}
	}
	return nil
}

// matchDoc loads every state's occurrences for the common document and runs
// the constraint-satisfaction recursion.
func (e *Executor) matchDoc() (stop bool, err error) {
	for _, s := range e.states {
		if err := s.ReadDocElements(); err != nil {
			return false, err
		}
	}

	e.stats.DocsSeen++
	matched, stop := e.match(0)
	if matched {
		e.stats.DocsMatched++
	}
	return stop, nil
}

// match fixes one occurrence for the state at sortIndex i and recurses.
// At depth len(states) the current elements of all states form a tuple that
// satisfies every constraint, because each edge was verified when its
// later-ordered endpoint was bound.
func (e *Executor) match(i int) (matched, stop bool) {
	if i == len(e.states) {
		e.stats.Tuples++
		return true, !e.collector.Collect(e.currentMatch())
	}

	s := e.states[i]
	lo, hi := e.containsBounds(s)

	j := 0
	if lo > 0 {
		// Occurrences starting before the containing span cannot satisfy a
		// CONTAINS edge; skip straight to the first viable start offset.
		j = s.FindElemLargerOffset(e.linSearchIter, lo-1, 0)
	}
	for ; j < s.qty; j++ {
		if s.buf[j].Start > hi {
			// Sorted by start offset: no later occurrence fits either.
			break
		}
		s.currElem = j
		e.stats.ConstraintChecks += int64(len(s.constraints))
		if !e.checkIncremental(s) {
			continue
		}
		m, st := e.match(i + 1)
		if m {
			matched = true
		}
		if st {
			return matched, true
		}
		if m && e.firstPerDoc {
			return matched, false
		}
	}
	return matched, false
}

// containsBounds intersects the spans of already-bound heads of CONTAINS
// edges whose dependent is s. Only occurrences of s starting within
// [lo, hi] can satisfy those edges.
func (e *Executor) containsBounds(s *PostingState) (lo, hi int) {
	hi = math.MaxInt
	for _, ref := range s.constraints {
		if ref.kind != structquery.KindContains || ref.dependent != s.sortIndex {
			continue
		}
		head := e.states[ref.constraining].CurrElement()
		if head.Start > lo {
			lo = head.Start
		}
		if head.End < hi {
			hi = head.End
		}
	}
	return lo, hi
}

// checkIncremental verifies every constraint in s's index against the
// current elements of the referenced states, all of which are already bound.
func (e *Executor) checkIncremental(s *PostingState) bool {
	for _, ref := range s.constraints {
		head := e.states[ref.constraining].CurrElement()
		dep := e.states[ref.dependent].CurrElement()
		switch ref.kind {
		case structquery.KindParent:
			if dep.ParentID != head.AnnotID {
				return false
			}
		case structquery.KindContains:
			if dep.Start < head.Start || dep.End > head.End {
				return false
			}
		}
	}
	return true
}

// currentMatch snapshots the current elements of all states as a match
// tuple in query-element order.
func (e *Executor) currentMatch() Match {
	bindings := make([]Binding, len(e.states))
	docID := e.states[0].docID
	for _, s := range e.states {
		bindings[s.element] = Binding{Element: s.element, Span: s.CurrElement()}
	}
	return Match{DocID: docID, Bindings: bindings}
}
