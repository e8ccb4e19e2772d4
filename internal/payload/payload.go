// Package payload implements the per-position payload encoding that carries
// annotation metadata (character span, annotation id, parent id) through the
// positional index. The indexer emits one payload per token or annotation
// occurrence; the matcher decodes payloads back into spans when it reads the
// occurrences of a document.
package payload

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/pombredanne/annographix/internal/errors"
)

const (
	// Sep separates the lowercased label from the numeric part of a payload.
	Sep = '|'
	// IDSep separates the four numeric components of a payload.
	IDSep = ':'
	// MaxLen bounds the length of one encoded payload string. Longer payloads
	// indicate either a runaway annotation label or index corruption.
	MaxLen = 1024
)

// Span is one occurrence of an element within one document.
// Offsets are inclusive character offsets into the document text,
// Start <= End. AnnotID and ParentID are 0 for plain text tokens.
type Span struct {
	AnnotID  int
	ParentID int
	Start    int
	End      int
}

// Encode produces the payload string for one occurrence:
//
//	<lowercased-label> '|' <start> ':' <end> ':' <annotId> ':' <parentId>
//
// The label is lowercased here so that index-time and query-time terms agree.
// Occurrences of the separator bytes inside the label are replaced by spaces;
// leading and trailing spaces are then trimmed, inner ones are kept.
func Encode(label string, s Span) (string, error) {
	label = sanitizeLabel(label)

	var b strings.Builder
	b.WriteString(label)
	b.WriteByte(Sep)
	b.WriteString(strconv.Itoa(s.Start))
	b.WriteByte(IDSep)
	b.WriteString(strconv.Itoa(s.End))
	b.WriteByte(IDSep)
	b.WriteString(strconv.Itoa(s.AnnotID))
	b.WriteByte(IDSep)
	b.WriteString(strconv.Itoa(s.ParentID))

	out := b.String()
	if len(out) > MaxLen {
		return "", fmt.Errorf("payload exceeds %d bytes, use shorter annotation labels (payload: %q): %w",
			MaxLen, out, errors.ErrCorruptPayload)
	}
	return out, nil
}

// Decode parses a payload back into a Span. It accepts either the full
// encoded form ("label|s:e:id:pid"), which is what the indexer stores at each
// position, or just the numeric part ("s:e:id:pid"). A malformed payload is a
// fatal corruption error for the document being read.
func Decode(docID int, data []byte) (Span, error) {
	if len(data) == 0 {
		return Span{}, errors.NewCorruptPayloadError(docID, "", "empty payload")
	}
	if len(data) > MaxLen {
		return Span{}, errors.NewCorruptPayloadError(docID, trimForDiag(data), "payload exceeds length bound")
	}

	numeric := data
	if i := bytes.IndexByte(data, Sep); i >= 0 {
		numeric = data[i+1:]
	}

	parts := bytes.Split(numeric, []byte{IDSep})
	if len(parts) != 4 {
		return Span{}, errors.NewCorruptPayloadError(docID, string(data),
			fmt.Sprintf("expected 4 integer components, got %d", len(parts)))
	}

	var vals [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(string(p))
		if err != nil || v < 0 {
			return Span{}, errors.NewCorruptPayloadError(docID, string(data),
				fmt.Sprintf("component %d is not a non-negative integer", i))
		}
		vals[i] = v
	}

	s := Span{Start: vals[0], End: vals[1], AnnotID: vals[2], ParentID: vals[3]}
	if s.Start > s.End {
		return Span{}, errors.NewCorruptPayloadError(docID, string(data), "start offset exceeds end offset")
	}
	return s, nil
}

// Label extracts the lowercased label part of a full encoded payload.
func Label(data string) string {
	if i := strings.IndexByte(data, Sep); i >= 0 {
		return data[:i]
	}
	return data
}

// sanitizeLabel lowercases a label and strips the payload separator bytes
// that would otherwise break decoding.
func sanitizeLabel(label string) string {
	label = strings.ToLower(label)
	label = strings.Map(func(r rune) rune {
		if r == Sep || r == IDSep {
			return ' '
		}
		return r
	}, label)
	return strings.TrimSpace(label)
}

func trimForDiag(data []byte) string {
	const diagLen = 64
	if len(data) > diagLen {
		return string(data[:diagLen]) + "..."
	}
	return string(data)
}
