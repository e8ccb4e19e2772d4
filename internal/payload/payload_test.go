package payload

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pombredanne/annographix/internal/errors"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		label string
		span  Span
	}{
		{"annotation", "NP", Span{AnnotID: 5, ParentID: 2, Start: 10, End: 20}},
		{"plain token", "cat", Span{AnnotID: 0, ParentID: 0, Start: 4, End: 6}},
		{"zero-width", "x", Span{AnnotID: 1, ParentID: 0, Start: 7, End: 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := Encode(tt.label, tt.span)
			require.NoError(t, err)

			decoded, err := Decode(0, []byte(encoded))
			require.NoError(t, err)
			assert.Equal(t, tt.span, decoded)
		})
	}
}

func TestEncodeLowercasesLabel(t *testing.T) {
	encoded, err := Encode("NP", Span{Start: 0, End: 1})
	require.NoError(t, err)
	assert.Equal(t, "np", Label(encoded))
}

func TestEncodeSanitizesSeparatorBytes(t *testing.T) {
	encoded, err := Encode("np|weird:label", Span{Start: 0, End: 1})
	require.NoError(t, err)

	// The sanitized label must not break decoding of the numeric part.
	decoded, err := Decode(0, []byte(encoded))
	require.NoError(t, err)
	assert.Equal(t, Span{Start: 0, End: 1}, decoded)
}

func TestEncodeRejectsOversizedLabel(t *testing.T) {
	long := make([]byte, MaxLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := Encode(string(long), Span{Start: 0, End: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCorruptPayload))
}

func TestDecodeNumericOnly(t *testing.T) {
	decoded, err := Decode(0, []byte("10:20:5:2"))
	require.NoError(t, err)
	assert.Equal(t, Span{Start: 10, End: 20, AnnotID: 5, ParentID: 2}, decoded)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"too few components", "10:20:5"},
		{"too many components", "10:20:5:2:9"},
		{"non-numeric component", "10:x:5:2"},
		{"negative component", "10:-3:5:2"},
		{"start after end", "20:10:5:2"},
		{"label only", "np"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(7, []byte(tt.payload))
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrCorruptPayload))
		})
	}
}

func TestDecodeOversizedPayload(t *testing.T) {
	big := make([]byte, MaxLen+1)
	for i := range big {
		big[i] = '1'
	}
	_, err := Decode(3, big)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCorruptPayload))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "np", Label("np|1:2:3:4"))
	assert.Equal(t, "bare", Label("bare"))
}
