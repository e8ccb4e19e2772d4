package services

import (
	"github.com/pombredanne/annographix/config"
	"github.com/pombredanne/annographix/model"
)

// SpanResult is one bound occurrence reported with a hit: the query element
// it binds, the character span, and the annotation ids carried by the span.
type SpanResult struct {
	Element  int    `json:"element"`
	Token    string `json:"token"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	AnnotID  int    `json:"annot_id,omitempty"`
	ParentID int    `json:"parent_id,omitempty"`
}

// HitResult is a single document in the search results. Spans holds the
// first constraint-satisfying occurrence tuple found in the document when
// the query asked for bindings.
type HitResult struct {
	DocNo  string            `json:"doc_no"`
	Fields map[string]string `json:"fields,omitempty"`
	Spans  []SpanResult      `json:"spans,omitempty"`
}

// SearchResult is the response to one structured search.
type SearchResult struct {
	Hits    []HitResult `json:"hits"`
	Total   int         `json:"total"`
	Took    int64       `json:"took"` // milliseconds
	QueryID string      `json:"query_id"`
}

// SearchQuery is one structured search request.
type SearchQuery struct {
	// Query is a structured query in the mini-language: ~[label]:token,
	// @[label]:annotation, #parent(...), #contains(...).
	Query string `json:"query"`
	// NumResults caps the number of matching documents returned (default 100).
	NumResults int `json:"num_results,omitempty"`
	// MinDocID restricts the scan to documents with internal id >= MinDocID,
	// which lets a caller page through large result sets.
	MinDocID int `json:"min_doc_id,omitempty"`
	// IncludeSpans asks for the bound occurrences of each hit.
	IncludeSpans bool `json:"include_spans,omitempty"`
}

// IndexStats summarizes one index. DocIDCardinality is the cardinality of
// the index's live doc-id set; it equals DocumentCount unless the store and
// the id set have diverged, which indicates corruption.
type IndexStats struct {
	Name             string `json:"name"`
	DocumentCount    int    `json:"document_count"`
	DocIDCardinality uint64 `json:"doc_id_cardinality"`
	TextTermCount    int    `json:"text_term_count"`
	AnnotTermCount   int    `json:"annot_term_count"`
}

// Indexer defines operations for adding data to an index
type Indexer interface {
	AddDocuments(docs []model.AnnotatedDocument) error
	DeleteAllDocuments() error
	GetDocument(docNo string) (model.AnnotatedDocument, error)
}

// Searcher defines operations for querying an index
type Searcher interface {
	Search(query SearchQuery) (SearchResult, error)
}

// IndexManager manages the lifecycle of indices
type IndexManager interface {
	CreateIndex(settings config.IndexSettings) error
	GetIndex(name string) (IndexAccessor, error)
	GetIndexSettings(name string) (config.IndexSettings, error)
	DeleteIndex(name string) error
	ListIndexes() []string
	PersistIndexData(indexName string) error
}

// IndexAccessor combines the per-index services.
type IndexAccessor interface {
	Indexer
	Searcher
	Settings() config.IndexSettings
	Stats() IndexStats
}
