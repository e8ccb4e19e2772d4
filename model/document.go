package model

// AnnotatedDocument is one document submitted for indexing: the raw text,
// optional stored fields, and the annotations produced by an upstream
// annotation pipeline. Annotation offsets are character offsets into Text
// and must not be invalidated by any later transformation of the text.
type AnnotatedDocument struct {
	DocNo       string            `json:"doc_no"`
	Text        string            `json:"text"`
	Fields      map[string]string `json:"fields,omitempty"`
	Annotations []AnnotationEntry `json:"annotations,omitempty"`
}

// AnnotationEntry is a single annotation over the document text.
// StartChar and CharLen delimit the annotated character span; AnnotID is the
// annotation's own id and ParentID the id of its syntactic parent (0 if none).
type AnnotationEntry struct {
	AnnotID   int    `json:"annot_id"`
	ParentID  int    `json:"parent_id"`
	Label     string `json:"label"`
	StartChar int    `json:"start_char"`
	CharLen   int    `json:"char_len"`
}
