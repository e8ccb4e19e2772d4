package matcher

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pombredanne/annographix/index"
	"github.com/pombredanne/annographix/internal/payload"
	"github.com/pombredanne/annographix/internal/structquery"
)

// docSpans maps a document id to the occurrences of one element in it.
type docSpans map[uint32][]payload.Span

// makeState builds a PostingState over an in-memory posting list.
func makeState(t *testing.T, q *structquery.Query, elemIndex int, docs docSpans) *PostingState {
	t.Helper()

	docIDs := make([]uint32, 0, len(docs))
	for id := range docs {
		docIDs = append(docIDs, id)
	}
	sort.Slice(docIDs, func(i, j int) bool { return docIDs[i] < docIDs[j] })

	list := make(index.PostingList, 0, len(docIDs))
	for _, id := range docIDs {
		entry := index.PostingEntry{DocID: id}
		for pos, span := range docs[id] {
			encoded, err := payload.Encode(q.Elements[elemIndex].Token, span)
			require.NoError(t, err)
			entry.Positions = append(entry.Positions, index.Position{Pos: pos, Payload: []byte(encoded)})
		}
		list = append(list, entry)
	}
	return NewPostingState(index.NewListPostings(list), q.Elements[elemIndex], elemIndex)
}

// runQuery parses queryText, wires one posting state per element from
// elemDocs (indexed by element order) and returns every emitted tuple.
func runQuery(t *testing.T, queryText string, elemDocs []docSpans, opts ...Option) []Match {
	t.Helper()

	q, err := structquery.Parse(queryText)
	require.NoError(t, err)
	require.Equal(t, len(q.Elements), len(elemDocs))

	states := make([]*PostingState, len(elemDocs))
	for i, docs := range elemDocs {
		states[i] = makeState(t, q, i, docs)
	}

	var matches []Match
	sink := FuncCollector(func(m Match) bool {
		matches = append(matches, m)
		return true
	})
	exec, err := NewExecutor(q, states, sink, opts...)
	require.NoError(t, err)
	require.NoError(t, exec.Execute(0))
	return matches
}

func TestTrivialAnd(t *testing.T) {
	// S1: "cat dog" with both tokens present.
	matches := runQuery(t, "~w:cat ~v:dog", []docSpans{
		{1: {{Start: 0, End: 2}}},
		{1: {{Start: 4, End: 6}}},
	})

	require.Len(t, matches, 1)
	assert.Equal(t, 1, matches[0].DocID)
	require.Len(t, matches[0].Bindings, 2)
	assert.Equal(t, payload.Span{Start: 0, End: 2}, matches[0].Bindings[0].Span)
	assert.Equal(t, payload.Span{Start: 4, End: 6}, matches[0].Bindings[1].Span)
}

func TestTrivialAndRequiresBothTerms(t *testing.T) {
	// Doc 1 has only cat, doc 2 has only dog, doc 3 has both.
	matches := runQuery(t, "~w:cat ~v:dog", []docSpans{
		{1: {{Start: 0, End: 2}}, 3: {{Start: 0, End: 2}}},
		{2: {{Start: 0, End: 2}}, 3: {{Start: 4, End: 6}}},
	})

	require.Len(t, matches, 1)
	assert.Equal(t, 3, matches[0].DocID)
}

func TestContainsMatch(t *testing.T) {
	// S2: sentence 0-20 (id 5) contains token cat at 4-6.
	matches := runQuery(t, "@s:sent @w:cat #contains(s,w)", []docSpans{
		{1: {{Start: 0, End: 20, AnnotID: 5}}},
		{1: {{Start: 4, End: 6, ParentID: 5}}},
	})

	require.Len(t, matches, 1)
	assert.Equal(t, 1, matches[0].DocID)
	assert.Equal(t, 5, matches[0].Bindings[0].Span.AnnotID)
	assert.Equal(t, payload.Span{Start: 4, End: 6, ParentID: 5}, matches[0].Bindings[1].Span)
}

func TestContainsFailsOutsideSpan(t *testing.T) {
	// S3: cat at 30-32 falls outside the sentence span 0-20.
	matches := runQuery(t, "@s:sent @w:cat #contains(s,w)", []docSpans{
		{1: {{Start: 0, End: 20, AnnotID: 5}}},
		{1: {{Start: 30, End: 32}}},
	})
	assert.Empty(t, matches)
}

func TestParentMatch(t *testing.T) {
	// S4: np id=9 is the parent of det.
	elemDocs := []docSpans{
		{1: {{Start: 0, End: 10, AnnotID: 9}}},
		{1: {{Start: 0, End: 3, AnnotID: 4, ParentID: 9}}},
	}
	matches := runQuery(t, "@np:np @det:det #parent(np,det)", elemDocs)
	require.Len(t, matches, 1)

	// Re-parenting the det breaks the match.
	elemDocs[1] = docSpans{1: {{Start: 0, End: 3, AnnotID: 4, ParentID: 10}}}
	matches = runQuery(t, "@np:np @det:det #parent(np,det)", elemDocs)
	assert.Empty(t, matches)
}

func TestMultiConstraint(t *testing.T) {
	// S5: vp 0-30 id=1 contains np 10-20 id=2 parent=1; det 10-12 id=3 parent=2.
	matches := runQuery(t,
		"@vp:vp @np:np @det:det #contains(vp,np) #parent(np,det)",
		[]docSpans{
			{1: {{Start: 0, End: 30, AnnotID: 1}}},
			{1: {{Start: 10, End: 20, AnnotID: 2, ParentID: 1}}},
			{1: {{Start: 10, End: 12, AnnotID: 3, ParentID: 2}}},
		})

	require.Len(t, matches, 1)
	m := matches[0]
	assert.Equal(t, 1, m.DocID)
	assert.Equal(t, 1, m.Bindings[0].Span.AnnotID)
	assert.Equal(t, 2, m.Bindings[1].Span.AnnotID)
	assert.Equal(t, 3, m.Bindings[2].Span.AnnotID)
}

func TestEveryTupleSatisfiesConstraints(t *testing.T) {
	// Two sentences and three tokens; only in-span combinations may be
	// emitted, and every emitted tuple must satisfy the constraint.
	matches := runQuery(t, "@s:sent @w:cat #contains(s,w)", []docSpans{
		{1: {{Start: 0, End: 10, AnnotID: 1}, {Start: 12, End: 30, AnnotID: 2}}},
		{1: {{Start: 2, End: 4}, {Start: 14, End: 16}, {Start: 40, End: 42}}},
	})

	require.Len(t, matches, 2)
	for _, m := range matches {
		head := m.Bindings[0].Span
		dep := m.Bindings[1].Span
		assert.LessOrEqual(t, head.Start, dep.Start)
		assert.LessOrEqual(t, dep.End, head.End)
	}
}

func TestTupleEnumerationOrder(t *testing.T) {
	// Equal component costs keep element order; tuples come out in
	// lexicographic order of the occurrence indexes.
	matches := runQuery(t, "~a:x ~b:y", []docSpans{
		{1: {{Start: 0, End: 0}, {Start: 5, End: 5}}},
		{1: {{Start: 2, End: 2}, {Start: 7, End: 7}}},
	})

	require.Len(t, matches, 4)
	starts := make([][2]int, len(matches))
	for i, m := range matches {
		starts[i] = [2]int{m.Bindings[0].Span.Start, m.Bindings[1].Span.Start}
	}
	assert.Equal(t, [][2]int{{0, 2}, {0, 7}, {5, 2}, {5, 7}}, starts)
}

func TestAscendingDocOrder(t *testing.T) {
	matches := runQuery(t, "~w:cat", []docSpans{
		{9: {{Start: 0, End: 2}}, 3: {{Start: 0, End: 2}}, 7: {{Start: 0, End: 2}}},
	})

	require.Len(t, matches, 3)
	assert.Equal(t, []int{3, 7, 9}, []int{matches[0].DocID, matches[1].DocID, matches[2].DocID})
}

func TestExecuteMinDocID(t *testing.T) {
	docs := docSpans{3: {{Start: 0, End: 2}}, 7: {{Start: 0, End: 2}}}

	q, err := structquery.Parse("~w:cat")
	require.NoError(t, err)
	state := makeState(t, q, 0, docs)

	var got []int
	sink := FuncCollector(func(m Match) bool {
		got = append(got, m.DocID)
		return true
	})
	exec, err := NewExecutor(q, []*PostingState{state}, sink)
	require.NoError(t, err)
	require.NoError(t, exec.Execute(4))
	assert.Equal(t, []int{7}, got)
}

func TestCollectorStopsExecution(t *testing.T) {
	docs := docSpans{1: {{Start: 0, End: 2}}, 2: {{Start: 0, End: 2}}, 3: {{Start: 0, End: 2}}}

	q, err := structquery.Parse("~w:cat")
	require.NoError(t, err)
	state := makeState(t, q, 0, docs)

	var got []int
	sink := FuncCollector(func(m Match) bool {
		got = append(got, m.DocID)
		return len(got) < 2
	})
	exec, err := NewExecutor(q, []*PostingState{state}, sink)
	require.NoError(t, err)
	require.NoError(t, exec.Execute(0))
	assert.Equal(t, []int{1, 2}, got)
}

func TestFirstMatchPerDoc(t *testing.T) {
	matches := runQuery(t, "~a:x ~b:y", []docSpans{
		{1: {{Start: 0, End: 0}, {Start: 5, End: 5}}},
		{1: {{Start: 2, End: 2}, {Start: 7, End: 7}}},
	}, WithFirstMatchPerDoc())

	require.Len(t, matches, 1)
	assert.Equal(t, [2]int{0, 2}, [2]int{matches[0].Bindings[0].Span.Start, matches[0].Bindings[1].Span.Start})
}

func TestCheaperComponentRunsFirst(t *testing.T) {
	// Element 1's component is cheaper (1 doc vs 3); the executor must
	// process it first, which shows up in the stats as fewer docs seen.
	q, err := structquery.Parse("~a:x ~b:y")
	require.NoError(t, err)

	states := []*PostingState{
		makeState(t, q, 0, docSpans{
			1: {{Start: 0, End: 0}}, 2: {{Start: 0, End: 0}}, 5: {{Start: 0, End: 0}},
		}),
		makeState(t, q, 1, docSpans{5: {{Start: 2, End: 2}}}),
	}

	exec, err := NewExecutor(q, states, FuncCollector(func(Match) bool { return true }))
	require.NoError(t, err)

	assert.Equal(t, 0, states[1].SortIndex(), "cheaper state leads the intersection")
	assert.Equal(t, 1, states[0].SortIndex())

	require.NoError(t, exec.Execute(0))
	assert.Equal(t, int64(1), exec.Stats().DocsSeen)
	assert.Equal(t, int64(1), exec.Stats().DocsMatched)
}

func TestConstraintIndexAttachesToLaterState(t *testing.T) {
	q, err := structquery.Parse("@s:sent @w:cat #contains(s,w)")
	require.NoError(t, err)

	states := []*PostingState{
		makeState(t, q, 0, docSpans{1: {{Start: 0, End: 20, AnnotID: 5}}}),
		makeState(t, q, 1, docSpans{1: {{Start: 4, End: 6}}}),
	}
	_, err = NewExecutor(q, states, FuncCollector(func(Match) bool { return true }))
	require.NoError(t, err)

	var total int
	for _, s := range states {
		total += len(s.constraints)
		for _, ref := range s.constraints {
			assert.Equal(t, s.sortIndex, max(ref.constraining, ref.dependent))
		}
	}
	assert.Equal(t, 1, total, "each edge is attached to exactly one state")
}

func TestEmptyPostingListShortCircuits(t *testing.T) {
	matches := runQuery(t, "~w:cat ~v:dog", []docSpans{
		{1: {{Start: 0, End: 2}}},
		{},
	})
	assert.Empty(t, matches)
}

func TestParentConstraintOnPlainTokenNeverMatches(t *testing.T) {
	// A PARENT constraint whose dependent is a plain token is legal but can
	// never match: the token's parentId is 0 while the head's id is not.
	matches := runQuery(t, "@np:np ~w:cat #parent(np,w)", []docSpans{
		{1: {{Start: 0, End: 10, AnnotID: 9}}},
		{1: {{Start: 0, End: 2}}},
	})
	assert.Empty(t, matches)
}

func TestMismatchedStatesRejected(t *testing.T) {
	q, err := structquery.Parse("~a:x ~b:y")
	require.NoError(t, err)
	state := makeState(t, q, 0, docSpans{1: {{Start: 0, End: 0}}})

	_, err = NewExecutor(q, []*PostingState{state}, FuncCollector(func(Match) bool { return true }))
	assert.Error(t, err)
}

func TestDocSetCollector(t *testing.T) {
	c := NewDocSetCollector(2, true)

	span := payload.Span{Start: 0, End: 2}
	assert.True(t, c.Collect(Match{DocID: 1, Bindings: []Binding{{Element: 0, Span: span}}}))
	// Duplicate doc: ignored, does not count toward the limit.
	assert.True(t, c.Collect(Match{DocID: 1, Bindings: []Binding{{Element: 0, Span: span}}}))
	assert.False(t, c.Collect(Match{DocID: 4, Bindings: []Binding{{Element: 0, Span: span}}}))

	assert.Equal(t, []uint32{1, 4}, c.DocIDs())
	assert.Equal(t, 2, c.Count())
	assert.True(t, c.Docs().Contains(1))
	assert.Equal(t, []Binding{{Element: 0, Span: span}}, c.Bindings(1))
}
