package index

import (
	"bytes"
	"encoding/gob"
	"sync"

	"github.com/pombredanne/annographix/config"
)

// InvertedIndex is a positional inverted index over a fixed set of fields.
// Fields maps a field name to its term dictionary; each term maps to a
// posting list carrying positions and per-position payloads. The structured
// matcher consumes two fields: the annotated text field (token terms with
// offset payloads) and the annotation field (annotation-label terms with
// span payloads).
type InvertedIndex struct {
	Mu       sync.RWMutex
	Fields   map[string]map[string]PostingList
	Settings *config.IndexSettings // Reference to settings for this index
}

// Postings opens an enumerator for a term of a field. A missing field or
// term yields an empty enumerator, which makes the AND-intersection of the
// query terminate immediately.
//
// The caller must hold Mu for reading for the lifetime of the enumerator;
// taking it here as well could deadlock a reader against a queued writer.
func (ii *InvertedIndex) Postings(field, term string) Postings {
	terms, ok := ii.Fields[field]
	if !ok {
		return EmptyPostings()
	}
	list, ok := terms[term]
	if !ok {
		return EmptyPostings()
	}
	return NewListPostings(list)
}

// DocFreq reports the number of documents containing a term of a field.
func (ii *InvertedIndex) DocFreq(field, term string) int {
	ii.Mu.RLock()
	defer ii.Mu.RUnlock()

	if terms, ok := ii.Fields[field]; ok {
		return len(terms[term])
	}
	return 0
}

// TermCount reports the size of a field's term dictionary.
func (ii *InvertedIndex) TermCount(field string) int {
	ii.Mu.RLock()
	defer ii.Mu.RUnlock()
	return len(ii.Fields[field])
}

// gobInvertedIndexData is a helper struct for Gob encoding/decoding
// InvertedIndex data. It excludes the mutex.
type gobInvertedIndexData struct {
	Fields   map[string]map[string]PostingList
	Settings *config.IndexSettings
}

// GobEncode implements the gob.GobEncoder interface for InvertedIndex.
func (ii *InvertedIndex) GobEncode() ([]byte, error) {
	ii.Mu.RLock() // Ensure consistent data during encoding
	defer ii.Mu.RUnlock()

	dataToEncode := gobInvertedIndexData{
		Fields:   ii.Fields,
		Settings: ii.Settings,
	}

	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)
	if err := encoder.Encode(dataToEncode); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for InvertedIndex.
func (ii *InvertedIndex) GobDecode(data []byte) error {
	decodedData := gobInvertedIndexData{}

	buf := bytes.NewBuffer(data)
	decoder := gob.NewDecoder(buf)
	if err := decoder.Decode(&decodedData); err != nil {
		return err
	}

	ii.Mu.Lock() // Ensure exclusive access during decoding
	defer ii.Mu.Unlock()

	ii.Fields = decodedData.Fields
	ii.Settings = decodedData.Settings

	// Ensure maps are initialized if they were nil after decoding (e.g. from an empty file)
	if ii.Fields == nil {
		ii.Fields = make(map[string]map[string]PostingList)
	}

	return nil
}
