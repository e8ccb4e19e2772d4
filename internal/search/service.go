package search

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pombredanne/annographix/config"
	"github.com/pombredanne/annographix/index"
	"github.com/pombredanne/annographix/internal/errors"
	"github.com/pombredanne/annographix/internal/matcher"
	"github.com/pombredanne/annographix/internal/metrics"
	"github.com/pombredanne/annographix/internal/structquery"
	"github.com/pombredanne/annographix/internal/tokenizer"
	"github.com/pombredanne/annographix/services"
	"github.com/pombredanne/annographix/store"
)

const defaultNumResults = 100

// Service implements structured search over a single index: it compiles the
// query, opens one posting enumerator per query element, and drives the
// matcher. It fulfills the services.Searcher interface.
type Service struct {
	invertedIndex *index.InvertedIndex
	documentStore *store.DocumentStore
	settings      *config.IndexSettings
}

// NewService creates a new search Service.
func NewService(invIndex *index.InvertedIndex, docStore *store.DocumentStore, settings *config.IndexSettings) (*Service, error) {
	if invIndex == nil {
		return nil, fmt.Errorf("inverted index cannot be nil")
	}
	if docStore == nil {
		return nil, fmt.Errorf("document store cannot be nil")
	}
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}
	return &Service{
		invertedIndex: invIndex,
		documentStore: docStore,
		settings:      settings,
	}, nil
}

// Search executes one structured query. The compiled query could be cached
// and shared; the posting states and buffers below are built fresh per call
// and never cross goroutines.
func (s *Service) Search(query services.SearchQuery) (services.SearchResult, error) {
	startTime := time.Now()

	result, err := s.search(query)
	if err != nil {
		metrics.ObserveQuery("error", time.Since(startTime))
		return services.SearchResult{}, err
	}

	result.Took = time.Since(startTime).Milliseconds()
	result.QueryID = uuid.New().String()
	metrics.ObserveQuery("ok", time.Since(startTime))
	return result, nil
}

func (s *Service) search(query services.SearchQuery) (services.SearchResult, error) {
	compiled, err := structquery.Parse(query.Query)
	if err != nil {
		return services.SearchResult{}, err
	}

	numResults := query.NumResults
	if numResults <= 0 {
		numResults = defaultNumResults
	}

	s.invertedIndex.Mu.RLock()
	s.documentStore.Mu.RLock()
	defer s.invertedIndex.Mu.RUnlock()
	defer s.documentStore.Mu.RUnlock()

	states := make([]*matcher.PostingState, len(compiled.Elements))
	for i, elem := range compiled.Elements {
		postings, err := s.openPostings(elem)
		if err != nil {
			return services.SearchResult{}, err
		}
		states[i] = matcher.NewPostingState(postings, elem, i)
	}

	collector := matcher.NewDocSetCollector(numResults, query.IncludeSpans)
	exec, err := matcher.NewExecutor(compiled, states, collector, matcher.WithFirstMatchPerDoc())
	if err != nil {
		return services.SearchResult{}, err
	}
	if err := exec.Execute(query.MinDocID); err != nil {
		return services.SearchResult{}, err
	}

	stats := exec.Stats()
	metrics.ObserveMatcher(stats.DocsSeen, stats.DocsMatched, stats.ConstraintChecks)

	hits := make([]services.HitResult, 0, collector.Count())
	for _, docID := range collector.DocIDs() {
		doc, ok := s.documentStore.Docs[docID]
		if !ok {
			return services.SearchResult{}, fmt.Errorf("matched doc %d missing from store: %w",
				docID, errors.ErrInternal)
		}
		hit := services.HitResult{DocNo: doc.DocNo, Fields: doc.Fields}
		if query.IncludeSpans {
			for _, b := range collector.Bindings(docID) {
				hit.Spans = append(hit.Spans, services.SpanResult{
					Element:  b.Element,
					Token:    compiled.Elements[b.Element].Token,
					Start:    b.Span.Start,
					End:      b.Span.End,
					AnnotID:  b.Span.AnnotID,
					ParentID: b.Span.ParentID,
				})
			}
		}
		hits = append(hits, hit)
	}

	return services.SearchResult{Hits: hits, Total: len(hits)}, nil
}

// openPostings maps a query element to its posting enumerator: tokens are
// resolved against the annotated text field, annotations against the
// annotation field. A term absent from the dictionary yields an empty
// enumerator and the intersection terminates immediately.
func (s *Service) openPostings(elem structquery.Element) (index.Postings, error) {
	switch elem.Type {
	case structquery.TypeToken:
		terms := tokenizer.Tokenize(elem.Token)
		if len(terms) != 1 {
			return nil, errors.NewSyntaxError(elem.Token, "token surface must be a single term")
		}
		return s.invertedIndex.Postings(s.settings.TextField.Name, terms[0]), nil
	case structquery.TypeAnnotation:
		return s.invertedIndex.Postings(s.settings.AnnotField.Name, elem.Token), nil
	default:
		return nil, fmt.Errorf("bug: unknown element type %v: %w", elem.Type, errors.ErrInternal)
	}
}
