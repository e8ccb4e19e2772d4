package store

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pombredanne/annographix/model"
)

func TestGobRoundTripKeepsDocIDSet(t *testing.T) {
	in := &DocumentStore{
		Docs: map[uint32]model.AnnotatedDocument{
			0: {DocNo: "d1", Text: "cat"},
			1: {DocNo: "d2", Text: "dog"},
		},
		DocNoToInternal: map[string]uint32{"d1": 0, "d2": 1},
		DocIDs:          roaring.BitmapOf(0, 1),
		NextID:          2,
	}

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(in))

	out := &DocumentStore{}
	require.NoError(t, gob.NewDecoder(&buf).Decode(out))

	assert.Equal(t, in.Docs, out.Docs)
	assert.Equal(t, in.DocNoToInternal, out.DocNoToInternal)
	assert.Equal(t, uint32(2), out.NextID)
	assert.Equal(t, uint64(2), out.Cardinality())
	assert.True(t, out.DocIDs.Contains(1))
}

func TestGobDecodeRebuildsMissingDocIDSet(t *testing.T) {
	// A store persisted without a doc-id set recovers it from the doc map.
	in := &DocumentStore{
		Docs: map[uint32]model.AnnotatedDocument{
			3: {DocNo: "d1", Text: "cat"},
		},
		DocNoToInternal: map[string]uint32{"d1": 3},
		NextID:          4,
	}

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(in))

	out := &DocumentStore{}
	require.NoError(t, gob.NewDecoder(&buf).Decode(out))

	assert.Equal(t, uint64(1), out.Cardinality())
	assert.True(t, out.DocIDs.Contains(3))
}

func TestCardinalityNilSet(t *testing.T) {
	ds := &DocumentStore{}
	assert.Equal(t, uint64(0), ds.Cardinality())
}
