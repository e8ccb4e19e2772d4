package indexing

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/pombredanne/annographix/index"
	"github.com/pombredanne/annographix/internal/errors"
	"github.com/pombredanne/annographix/internal/payload"
	"github.com/pombredanne/annographix/internal/tokenizer"
	"github.com/pombredanne/annographix/model"
	"github.com/pombredanne/annographix/store"
)

// Service implements the indexing logic for a single index: it turns
// annotated documents into positional postings with span payloads on the
// text and annotation fields. It provides the write operations of the
// services.Indexer interface (AddDocuments, DeleteAllDocuments); it has no
// GetDocument.
type Service struct {
	invertedIndex *index.InvertedIndex
	documentStore *store.DocumentStore
	// settings are accessible via invertedIndex.Settings
}

// NewService creates a new indexing Service. It assumes that invertedIndex
// and documentStore are properly initialized and that
// invertedIndex.Settings is not nil.
func NewService(invertedIndex *index.InvertedIndex, documentStore *store.DocumentStore) (*Service, error) {
	if invertedIndex == nil {
		return nil, fmt.Errorf("inverted index cannot be nil")
	}
	if documentStore == nil {
		return nil, fmt.Errorf("document store cannot be nil")
	}
	if invertedIndex.Settings == nil {
		return nil, fmt.Errorf("inverted index settings cannot be nil")
	}
	if invertedIndex.Fields == nil {
		invertedIndex.Fields = make(map[string]map[string]index.PostingList)
	}
	if documentStore.Docs == nil {
		documentStore.Docs = make(map[uint32]model.AnnotatedDocument)
	}
	if documentStore.DocNoToInternal == nil {
		documentStore.DocNoToInternal = make(map[string]uint32)
	}
	if documentStore.DocIDs == nil {
		documentStore.DocIDs = roaring.New()
	}
	return &Service{
		invertedIndex: invertedIndex,
		documentStore: documentStore,
	}, nil
}

// AddDocuments adds a batch of documents to the index. Updating an already
// indexed doc number is not supported; the posting lists are append-only.
func (s *Service) AddDocuments(docs []model.AnnotatedDocument) error {
	s.documentStore.Mu.Lock()
	s.invertedIndex.Mu.Lock()
	defer s.documentStore.Mu.Unlock()
	defer s.invertedIndex.Mu.Unlock()

	for _, doc := range docs {
		if err := s.addSingleDocumentUnsafe(doc); err != nil {
			return fmt.Errorf("failed to add document '%s': %w", doc.DocNo, err)
		}
	}
	return nil
}

// addSingleDocumentUnsafe indexes one document. The caller holds both locks.
func (s *Service) addSingleDocumentUnsafe(doc model.AnnotatedDocument) error {
	if doc.DocNo == "" {
		return errors.NewValidationError("doc_no", "document number cannot be empty")
	}
	if _, exists := s.documentStore.DocNoToInternal[doc.DocNo]; exists {
		return errors.NewValidationError("doc_no",
			fmt.Sprintf("document '%s' is already indexed; updates are not supported", doc.DocNo))
	}

	// Sanitation must be strictly length-preserving: annotation offsets
	// index into the text by character position.
	text := tokenizer.RemoveControlChars(tokenizer.NormalizeWhitespace(doc.Text))
	if len([]rune(text)) != len([]rune(doc.Text)) {
		return fmt.Errorf("text sanitation changed the document length: %w", errors.ErrInternal)
	}
	textLen := len([]rune(text))

	if err := validateAnnotations(doc.Annotations, textLen); err != nil {
		return err
	}

	docID := s.documentStore.NextID
	settings := s.invertedIndex.Settings

	// Text field: one position per whitespace token, payload carrying the
	// token's character span with zero annotation ids.
	tokens := tokenizer.TokenizeWithOffsets(text)
	for pos, tok := range tokens {
		encoded, err := payload.Encode(tok.Term, payload.Span{Start: tok.Start, End: tok.End})
		if err != nil {
			return err
		}
		s.appendPosting(settings.TextField.Name, tok.Term, docID, pos, encoded)
	}

	// Annotation field: one position per annotation, keyed by the
	// lowercased label, sorted by start offset within the document.
	annots := make([]model.AnnotationEntry, len(doc.Annotations))
	copy(annots, doc.Annotations)
	sort.SliceStable(annots, func(i, j int) bool {
		return annots[i].StartChar < annots[j].StartChar
	})
	for pos, a := range annots {
		span := payload.Span{
			AnnotID:  a.AnnotID,
			ParentID: a.ParentID,
			Start:    a.StartChar,
			End:      a.StartChar + max(a.CharLen-1, 0),
		}
		encoded, err := payload.Encode(a.Label, span)
		if err != nil {
			return err
		}
		s.appendPosting(settings.AnnotField.Name, payload.Label(encoded), docID, pos, encoded)
	}

	stored := doc
	stored.Text = text
	s.documentStore.Docs[docID] = stored
	s.documentStore.DocNoToInternal[doc.DocNo] = docID
	s.documentStore.DocIDs.Add(docID)
	s.documentStore.NextID++
	return nil
}

// appendPosting appends one position to the (field, term) posting list,
// reusing the tail entry when the doc id matches. Internal ids are assigned
// in increasing order, so the list stays sorted by DocID.
func (s *Service) appendPosting(field, term string, docID uint32, pos int, encoded string) {
	terms, ok := s.invertedIndex.Fields[field]
	if !ok {
		terms = make(map[string]index.PostingList)
		s.invertedIndex.Fields[field] = terms
	}

	list := terms[term]
	position := index.Position{Pos: pos, Payload: []byte(encoded)}
	if n := len(list); n > 0 && list[n-1].DocID == docID {
		list[n-1].Positions = append(list[n-1].Positions, position)
	} else {
		list = append(list, index.PostingEntry{DocID: docID, Positions: []index.Position{position}})
	}
	terms[term] = list
}

func validateAnnotations(annots []model.AnnotationEntry, textLen int) error {
	for _, a := range annots {
		if a.Label == "" {
			return errors.NewValidationError("label", "annotation label cannot be empty")
		}
		if a.StartChar < 0 || a.CharLen < 0 {
			return errors.NewValidationError("annotation",
				fmt.Sprintf("annotation %d has a negative offset or length", a.AnnotID))
		}
		if a.StartChar+a.CharLen > textLen {
			return errors.NewValidationError("annotation",
				fmt.Sprintf("annotation %d spans past the end of the text", a.AnnotID))
		}
	}
	return nil
}

// DeleteAllDocuments drops every document and posting of this index.
func (s *Service) DeleteAllDocuments() error {
	s.documentStore.Mu.Lock()
	s.invertedIndex.Mu.Lock()
	defer s.documentStore.Mu.Unlock()
	defer s.invertedIndex.Mu.Unlock()

	s.invertedIndex.Fields = make(map[string]map[string]index.PostingList)
	s.documentStore.Docs = make(map[uint32]model.AnnotatedDocument)
	s.documentStore.DocNoToInternal = make(map[string]uint32)
	s.documentStore.DocIDs = roaring.New()
	s.documentStore.NextID = 0
	return nil
}
