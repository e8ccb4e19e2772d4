// Package schema validates that an index's field configuration can support
// structured matching. The matcher needs token positions on both fields and
// character offsets on the annotated text field; an index missing either
// would silently return no matches, so misconfiguration fails fast instead.
package schema

import (
	"github.com/pombredanne/annographix/config"
	"github.com/pombredanne/annographix/internal/errors"
)

// Validate checks the index-time attributes required by the structured
// matcher. It is called when an index is created and by the indexing client
// before it submits documents.
func Validate(settings *config.IndexSettings) error {
	annot := settings.AnnotField
	if annot.Tokenizer != config.TokenizerWhitespace {
		return errors.NewSchemaError(annot.Name,
			"annotation field must use the '"+config.TokenizerWhitespace+"' tokenizer, got '"+annot.Tokenizer+"'")
	}
	if annot.OmitPositions {
		return errors.NewSchemaError(annot.Name, "annotation field must not omit positions")
	}

	text := settings.TextField
	if text.OmitPositions {
		return errors.NewSchemaError(text.Name, "annotated text field must not omit positions")
	}
	if !text.StoreOffsetsWithPositions {
		return errors.NewSchemaError(text.Name, "annotated text field must store offsets with positions")
	}

	return nil
}
