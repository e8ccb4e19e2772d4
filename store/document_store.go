package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/pombredanne/annographix/model"
)

// DocumentStore keeps the stored form of indexed documents and the mapping
// between user-supplied doc numbers and the internal uint32 ids used by the
// posting lists. DocIDs mirrors the key set of Docs as a roaring bitmap, so
// that id-set cardinality and membership are cheap to report.
type DocumentStore struct {
	Mu              sync.RWMutex
	Docs            map[uint32]model.AnnotatedDocument // Internal ID to full document
	DocNoToInternal map[string]uint32                  // User-provided doc number to internal ID
	DocIDs          *roaring.Bitmap                    // Set of live internal IDs
	NextID          uint32
}

// Cardinality reports the number of live internal doc ids.
func (ds *DocumentStore) Cardinality() uint64 {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()
	if ds.DocIDs == nil {
		return 0
	}
	return ds.DocIDs.GetCardinality()
}

// gobDocumentStoreData is a helper struct for Gob encoding/decoding
// DocumentStore data. It excludes the mutex and carries the doc-id set in
// its portable serialized form.
type gobDocumentStoreData struct {
	Docs            map[uint32]model.AnnotatedDocument
	DocNoToInternal map[string]uint32
	DocIDBytes      []byte
	NextID          uint32
}

// GobEncode implements the gob.GobEncoder interface for DocumentStore.
func (ds *DocumentStore) GobEncode() ([]byte, error) {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()

	dataToEncode := gobDocumentStoreData{
		Docs:            ds.Docs,
		DocNoToInternal: ds.DocNoToInternal,
		NextID:          ds.NextID,
	}
	if ds.DocIDs != nil {
		docIDBytes, err := ds.DocIDs.ToBytes()
		if err != nil {
			return nil, fmt.Errorf("failed to serialize doc-id set: %w", err)
		}
		dataToEncode.DocIDBytes = docIDBytes
	}

	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)
	if err := encoder.Encode(dataToEncode); err != nil {
		return nil, fmt.Errorf("failed to gob encode document store data: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for DocumentStore.
func (ds *DocumentStore) GobDecode(data []byte) error {
	decodedData := gobDocumentStoreData{}

	buf := bytes.NewBuffer(data)
	decoder := gob.NewDecoder(buf)
	if err := decoder.Decode(&decodedData); err != nil {
		return fmt.Errorf("failed to gob decode document store data: %w", err)
	}

	ds.Mu.Lock()
	defer ds.Mu.Unlock()

	ds.Docs = decodedData.Docs
	ds.DocNoToInternal = decodedData.DocNoToInternal
	ds.NextID = decodedData.NextID

	ds.DocIDs = roaring.New()
	if len(decodedData.DocIDBytes) > 0 {
		if err := ds.DocIDs.UnmarshalBinary(decodedData.DocIDBytes); err != nil {
			return fmt.Errorf("failed to deserialize doc-id set: %w", err)
		}
	}

	// Ensure maps are initialized if they were nil after decoding
	if ds.Docs == nil {
		ds.Docs = make(map[uint32]model.AnnotatedDocument)
	}
	if ds.DocNoToInternal == nil {
		ds.DocNoToInternal = make(map[string]uint32)
	}

	// Stores persisted before the doc-id set existed rebuild it from the
	// document map.
	if ds.DocIDs.IsEmpty() && len(ds.Docs) > 0 {
		for id := range ds.Docs {
			ds.DocIDs.Add(id)
		}
	}

	return nil
}
