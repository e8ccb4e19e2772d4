package engine

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/pombredanne/annographix/config"
	"github.com/pombredanne/annographix/index"
	"github.com/pombredanne/annographix/internal/errors"
	"github.com/pombredanne/annographix/internal/metrics"
	"github.com/pombredanne/annographix/internal/persistence"
	"github.com/pombredanne/annographix/internal/schema"
	"github.com/pombredanne/annographix/model"
	"github.com/pombredanne/annographix/services"
	"github.com/pombredanne/annographix/store"
)

const (
	dataDirPerm       = 0755
	settingsFile      = "settings.gob.gz"
	invertedIndexFile = "inverted_index.gob.gz"
	documentStoreFile = "document_store.gob.gz"
)

// Engine manages multiple search indexes.
// It implements the services.IndexManager interface.
type Engine struct {
	mu      sync.RWMutex
	indexes map[string]*IndexInstance
	dataDir string
}

// NewEngine creates a new search engine orchestrator.
func NewEngine(dataDir string) *Engine {
	eng := &Engine{
		indexes: make(map[string]*IndexInstance),
		dataDir: dataDir,
	}
	if err := os.MkdirAll(dataDir, dataDirPerm); err != nil {
		log.Printf("Warning: Could not create data directory %s: %v. Proceeding without persistence for new indexes if loading fails.", dataDir, err)
	}
	eng.loadIndexesFromDisk()
	return eng
}

func (e *Engine) loadIndexesFromDisk() {
	log.Printf("Loading indexes from disk: %s", e.dataDir)
	items, err := os.ReadDir(e.dataDir)
	if err != nil {
		log.Printf("Warning: Failed to read data directory %s: %v. No indexes loaded.", e.dataDir, err)
		return
	}

	for _, item := range items {
		if !item.IsDir() {
			continue
		}
		indexName := item.Name()
		indexPath := filepath.Join(e.dataDir, indexName)
		log.Printf("Attempting to load index: %s", indexName)

		var settings config.IndexSettings
		settingsPath := filepath.Join(indexPath, settingsFile)
		if err := persistence.LoadGob(settingsPath, &settings); err != nil {
			log.Printf("Warning: Failed to load settings for index %s from %s: %v. Skipping this index.", indexName, settingsPath, err)
			continue
		}

		// Basic validation, settings name should match directory name
		if settings.Name != indexName {
			log.Printf("Warning: Index name in settings ('%s') does not match directory name ('%s') for path %s. Skipping this index.", settings.Name, indexName, indexPath)
			continue
		}

		docStore := &store.DocumentStore{}
		dsPath := filepath.Join(indexPath, documentStoreFile)
		if err := persistence.LoadGob(dsPath, docStore); err != nil {
			if err != os.ErrNotExist {
				log.Printf("Warning: Failed to load document store for index %s from %s: %v. Proceeding with empty store.", indexName, dsPath, err)
			}
			docStore.Docs = make(map[uint32]model.AnnotatedDocument)
			docStore.DocNoToInternal = make(map[string]uint32)
		}

		invIndex := &index.InvertedIndex{Settings: &settings} // Settings must be linked here
		iiPath := filepath.Join(indexPath, invertedIndexFile)
		if err := persistence.LoadGob(iiPath, invIndex); err != nil {
			if err != os.ErrNotExist {
				log.Printf("Warning: Failed to load inverted index for index %s from %s: %v. Proceeding with empty index.", indexName, iiPath, err)
			}
			invIndex.Fields = make(map[string]map[string]index.PostingList)
		}

		instance, err := newIndexInstanceFromParts(&settings, invIndex, docStore)
		if err != nil {
			log.Printf("Error wiring services for loaded index %s: %v. Skipping.", indexName, err)
			continue
		}

		e.indexes[indexName] = instance
		metrics.SetIndexDocs(indexName, instance.DocumentStore.Cardinality())
		log.Printf("Successfully loaded index: %s (%d docs)", indexName, instance.Stats().DocumentCount)
	}
}

// CreateIndex creates a new index after validating its settings and schema
// attributes. The settings are persisted immediately so the index survives a
// restart even before the first document arrives.
func (e *Engine) CreateIndex(settings config.IndexSettings) error {
	settings.ApplyDefaults()
	if conflicts := settings.Validate(); len(conflicts) > 0 {
		return errors.NewValidationError("settings", conflicts[0])
	}
	if err := schema.Validate(&settings); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.indexes[settings.Name]; exists {
		return errors.NewIndexAlreadyExistsError(settings.Name)
	}

	instance, err := NewIndexInstance(settings)
	if err != nil {
		return err
	}
	e.indexes[settings.Name] = instance
	metrics.SetIndexDocs(settings.Name, 0)

	settingsPath := filepath.Join(e.dataDir, settings.Name, settingsFile)
	if err := persistence.SaveGob(settingsPath, instance.Settings()); err != nil {
		log.Printf("Warning: Failed to persist settings for new index %s: %v", settings.Name, err)
	}
	return nil
}

// GetIndex returns the accessor of one index.
func (e *Engine) GetIndex(name string) (services.IndexAccessor, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	instance, ok := e.indexes[name]
	if !ok {
		return nil, errors.NewIndexNotFoundError(name)
	}
	return instance, nil
}

// GetIndexSettings returns a copy of an index's settings.
func (e *Engine) GetIndexSettings(name string) (config.IndexSettings, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	instance, ok := e.indexes[name]
	if !ok {
		return config.IndexSettings{}, errors.NewIndexNotFoundError(name)
	}
	return instance.Settings(), nil
}

// DeleteIndex removes an index and its on-disk data.
func (e *Engine) DeleteIndex(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.indexes[name]; !ok {
		return errors.NewIndexNotFoundError(name)
	}
	delete(e.indexes, name)
	metrics.DropIndexDocs(name)

	indexPath := filepath.Join(e.dataDir, name)
	if err := os.RemoveAll(indexPath); err != nil {
		return fmt.Errorf("failed to remove index data at %s: %w", indexPath, err)
	}
	return nil
}

// ListIndexes returns the names of all indexes.
func (e *Engine) ListIndexes() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.indexes))
	for name := range e.indexes {
		names = append(names, name)
	}
	return names
}

// PersistIndexData writes an index's settings, postings and documents to
// disk.
func (e *Engine) PersistIndexData(indexName string) error {
	e.mu.RLock()
	instance, ok := e.indexes[indexName]
	e.mu.RUnlock()
	if !ok {
		return errors.NewIndexNotFoundError(indexName)
	}

	indexPath := filepath.Join(e.dataDir, indexName)
	if err := persistence.SaveGob(filepath.Join(indexPath, settingsFile), instance.Settings()); err != nil {
		return fmt.Errorf("failed to persist settings for index %s: %w", indexName, err)
	}
	if err := persistence.SaveGob(filepath.Join(indexPath, invertedIndexFile), instance.InvertedIndex); err != nil {
		return fmt.Errorf("failed to persist inverted index for index %s: %w", indexName, err)
	}
	if err := persistence.SaveGob(filepath.Join(indexPath, documentStoreFile), instance.DocumentStore); err != nil {
		return fmt.Errorf("failed to persist document store for index %s: %w", indexName, err)
	}
	return nil
}
