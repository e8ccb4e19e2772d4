package engine

import (
	"fmt"

	"github.com/pombredanne/annographix/config"
	"github.com/pombredanne/annographix/index"
	apperrors "github.com/pombredanne/annographix/internal/errors"
	"github.com/pombredanne/annographix/internal/indexing"
	"github.com/pombredanne/annographix/internal/metrics"
	"github.com/pombredanne/annographix/internal/search"
	"github.com/pombredanne/annographix/model"
	"github.com/pombredanne/annographix/services"
	"github.com/pombredanne/annographix/store"
)

// IndexInstance holds all components and services for a single index.
// It implements the services.IndexAccessor interface.
type IndexInstance struct {
	settings      *config.IndexSettings
	InvertedIndex *index.InvertedIndex
	DocumentStore *store.DocumentStore
	indexer       *indexing.Service
	searcher      *search.Service
}

// NewIndexInstance creates and initializes a new IndexInstance.
func NewIndexInstance(settings config.IndexSettings) (*IndexInstance, error) {
	if settings.Name == "" {
		return nil, fmt.Errorf("index name cannot be empty in settings")
	}

	docStore := &store.DocumentStore{
		Docs:            make(map[uint32]model.AnnotatedDocument),
		DocNoToInternal: make(map[string]uint32),
		NextID:          0,
	}

	invIndex := &index.InvertedIndex{
		Fields:   make(map[string]map[string]index.PostingList),
		Settings: &settings,
	}

	return newIndexInstanceFromParts(&settings, invIndex, docStore)
}

// newIndexInstanceFromParts wires the services around already-built (e.g.
// freshly loaded) index data.
func newIndexInstanceFromParts(settings *config.IndexSettings, invIndex *index.InvertedIndex, docStore *store.DocumentStore) (*IndexInstance, error) {
	indexerService, err := indexing.NewService(invIndex, docStore)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer service: %w", err)
	}
	searchService, err := search.NewService(invIndex, docStore, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create search service: %w", err)
	}

	return &IndexInstance{
		settings:      settings,
		InvertedIndex: invIndex,
		DocumentStore: docStore,
		indexer:       indexerService,
		searcher:      searchService,
	}, nil
}

// AddDocuments delegates to the underlying Indexer service.
func (i *IndexInstance) AddDocuments(docs []model.AnnotatedDocument) error {
	if err := i.indexer.AddDocuments(docs); err != nil {
		return err
	}
	metrics.DocsIndexed.Add(float64(len(docs)))
	metrics.SetIndexDocs(i.settings.Name, i.DocumentStore.Cardinality())
	return nil
}

// DeleteAllDocuments delegates to the underlying Indexer service.
func (i *IndexInstance) DeleteAllDocuments() error {
	if err := i.indexer.DeleteAllDocuments(); err != nil {
		return err
	}
	metrics.SetIndexDocs(i.settings.Name, 0)
	return nil
}

// GetDocument returns one stored document by its doc number.
func (i *IndexInstance) GetDocument(docNo string) (model.AnnotatedDocument, error) {
	i.DocumentStore.Mu.RLock()
	defer i.DocumentStore.Mu.RUnlock()

	internalID, ok := i.DocumentStore.DocNoToInternal[docNo]
	if !ok {
		return model.AnnotatedDocument{}, apperrors.NewDocumentNotFoundError(docNo, i.settings.Name)
	}
	return i.DocumentStore.Docs[internalID], nil
}

// Search delegates to the underlying Searcher service.
func (i *IndexInstance) Search(query services.SearchQuery) (services.SearchResult, error) {
	return i.searcher.Search(query)
}

// Settings returns a copy of the index settings.
func (i *IndexInstance) Settings() config.IndexSettings {
	return *i.settings
}

// Stats summarizes the index contents.
func (i *IndexInstance) Stats() services.IndexStats {
	i.DocumentStore.Mu.RLock()
	docCount := len(i.DocumentStore.Docs)
	i.DocumentStore.Mu.RUnlock()

	return services.IndexStats{
		Name:             i.settings.Name,
		DocumentCount:    docCount,
		DocIDCardinality: i.DocumentStore.Cardinality(),
		TextTermCount:    i.InvertedIndex.TermCount(i.settings.TextField.Name),
		AnnotTermCount:   i.InvertedIndex.TermCount(i.settings.AnnotField.Name),
	}
}
