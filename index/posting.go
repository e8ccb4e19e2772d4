package index

import (
	"math"
	"sort"
)

// NoMoreDocs is the sentinel document id returned by an exhausted enumerator.
const NoMoreDocs = math.MaxInt32

// Position is one occurrence of a term within a document: the token position
// plus the payload bytes recorded by the indexer at that position.
type Position struct {
	Pos     int
	Payload []byte
}

// PostingEntry holds all occurrences of a term within one document.
// Positions are appended in index order, which is ascending start offset for
// both the text field and the annotation field.
type PostingEntry struct {
	DocID     uint32
	Positions []Position
}

// PostingList is a slice of PostingEntry sorted by ascending DocID.
type PostingList []PostingEntry

// Postings enumerates one posting list: documents in ascending id order, and
// within the current document its positions and per-position payloads.
// It mirrors the access pattern of a positional index segment reader.
type Postings interface {
	// DocID reports the current document id, -1 before the first call to
	// NextDoc or Advance, NoMoreDocs after exhaustion.
	DocID() int
	// NextDoc moves to the next document and returns its id or NoMoreDocs.
	NextDoc() (int, error)
	// Advance moves to the first document with id >= target and returns its
	// id or NoMoreDocs.
	Advance(target int) (int, error)
	// Freq reports the number of positions in the current document.
	Freq() (int, error)
	// NextPosition returns the next position within the current document.
	// It must be called at most Freq times per document.
	NextPosition() (int, error)
	// Payload returns the payload recorded at the current position.
	Payload() ([]byte, error)
	// Cost is an upper bound on the number of documents the enumerator can
	// return, used to order posting states before intersection.
	Cost() int64
}

// listPostings enumerates an in-memory PostingList.
type listPostings struct {
	list    PostingList
	idx     int // index into list of the current doc, -1 before first
	posIdx  int // index of the last position returned by NextPosition
	docID   int
	exhaust bool
}

// NewListPostings wraps a PostingList in a Postings enumerator.
func NewListPostings(list PostingList) Postings {
	return &listPostings{list: list, idx: -1, posIdx: -1, docID: -1}
}

// EmptyPostings returns an enumerator that yields no documents.
func EmptyPostings() Postings {
	return &listPostings{list: nil, idx: -1, posIdx: -1, docID: -1}
}

func (p *listPostings) DocID() int {
	if p.exhaust {
		return NoMoreDocs
	}
	return p.docID
}

func (p *listPostings) NextDoc() (int, error) {
	if p.exhaust {
		return NoMoreDocs, nil
	}
	p.idx++
	if p.idx >= len(p.list) {
		p.exhaust = true
		p.docID = NoMoreDocs
		return NoMoreDocs, nil
	}
	p.docID = int(p.list[p.idx].DocID)
	p.posIdx = -1
	return p.docID, nil
}

func (p *listPostings) Advance(target int) (int, error) {
	if p.exhaust {
		return NoMoreDocs, nil
	}
	from := p.idx
	if from < 0 {
		from = 0
	}
	// Binary search over the remaining entries; the list is sorted by DocID.
	n := sort.Search(len(p.list)-from, func(i int) bool {
		return int(p.list[from+i].DocID) >= target
	})
	p.idx = from + n
	if p.idx >= len(p.list) {
		p.exhaust = true
		p.docID = NoMoreDocs
		return NoMoreDocs, nil
	}
	p.docID = int(p.list[p.idx].DocID)
	p.posIdx = -1
	return p.docID, nil
}

func (p *listPostings) Freq() (int, error) {
	if p.exhaust || p.idx < 0 {
		return 0, nil
	}
	return len(p.list[p.idx].Positions), nil
}

func (p *listPostings) NextPosition() (int, error) {
	p.posIdx++
	return p.list[p.idx].Positions[p.posIdx].Pos, nil
}

func (p *listPostings) Payload() ([]byte, error) {
	return p.list[p.idx].Positions[p.posIdx].Payload, nil
}

func (p *listPostings) Cost() int64 {
	return int64(len(p.list))
}
