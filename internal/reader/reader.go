// Package reader streams annotated corpora from disk: a document file with
// one <DOC> block per document and an annotation file with one annotation
// per line. The two files are joined on the document number and delivered
// to a consumer in batches.
package reader

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pombredanne/annographix/model"
)

const (
	docOpenTag   = "<DOC>"
	docCloseTag  = "</DOC>"
	docNoOpenTag = "<DOCNO>"
	docNoEndTag  = "</DOCNO>"

	// maxLineLen bounds one document line; corpora store a whole document
	// text on a single line.
	maxLineLen = 64 << 20
)

// DocumentConsumer receives parsed documents. SendBatch is invoked after
// every batchSize documents and once more at the end of the stream if
// documents remain that have not been sent.
type DocumentConsumer interface {
	ConsumeDocument(doc model.AnnotatedDocument) error
	SendBatch() error
}

// ReadDocs streams the document file, attaches each document's annotations
// and feeds the consumer. The annotation file is read up front; the
// document file is streamed.
func ReadDocs(textPath, annotPath string, batchSize int, consumer DocumentConsumer) error {
	annots, err := ReadAnnotations(annotPath)
	if err != nil {
		return err
	}

	file, err := os.Open(textPath) // #nosec G304 -- path is an operator-supplied corpus file
	if err != nil {
		return fmt.Errorf("failed to open document file %s: %w", textPath, err)
	}
	defer file.Close()

	if batchSize <= 0 {
		batchSize = 1
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLen)

	var (
		inDoc    bool
		docNo    string
		textSeen bool
		text     string
		lineNo   int
		pending  int
	)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == docOpenTag:
			if inDoc {
				return fmt.Errorf("%s:%d: nested %s", textPath, lineNo, docOpenTag)
			}
			inDoc, docNo, textSeen, text = true, "", false, ""
		case line == docCloseTag:
			if !inDoc {
				return fmt.Errorf("%s:%d: %s without %s", textPath, lineNo, docCloseTag, docOpenTag)
			}
			if docNo == "" {
				return fmt.Errorf("%s:%d: document without %s", textPath, lineNo, docNoOpenTag)
			}
			doc := model.AnnotatedDocument{DocNo: docNo, Text: text, Annotations: annots[docNo]}
			if err := consumer.ConsumeDocument(doc); err != nil {
				return err
			}
			pending++
			if pending >= batchSize {
				if err := consumer.SendBatch(); err != nil {
					return err
				}
				pending = 0
			}
			inDoc = false
		case inDoc && strings.HasPrefix(line, docNoOpenTag):
			if !strings.HasSuffix(line, docNoEndTag) {
				return fmt.Errorf("%s:%d: malformed %s line", textPath, lineNo, docNoOpenTag)
			}
			docNo = strings.TrimSpace(line[len(docNoOpenTag) : len(line)-len(docNoEndTag)])
		case inDoc:
			// The document text occupies exactly one line.
			if textSeen {
				return fmt.Errorf("%s:%d: document '%s' has more than one text line", textPath, lineNo, docNo)
			}
			text = scanner.Text()
			textSeen = true
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read document file %s: %w", textPath, err)
	}
	if inDoc {
		return fmt.Errorf("%s: unterminated %s block", textPath, docOpenTag)
	}

	if pending > 0 {
		return consumer.SendBatch()
	}
	return nil
}

// ReadAnnotations parses an annotation file with one whitespace-separated
// record per line:
//
//	docno annotId parentId label startChar charLen
//
// Blank lines and lines starting with '#' are skipped. Annotations are
// returned grouped by document number, in file order.
func ReadAnnotations(path string) (map[string][]model.AnnotationEntry, error) {
	file, err := os.Open(path) // #nosec G304 -- path is an operator-supplied corpus file
	if err != nil {
		return nil, fmt.Errorf("failed to open annotation file %s: %w", path, err)
	}
	defer file.Close()

	annots := make(map[string][]model.AnnotationEntry)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLen)

	var lineNo int
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 6 {
			return nil, fmt.Errorf("%s:%d: expected 6 fields, got %d", path, lineNo, len(fields))
		}

		annotID, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad annotation id '%s'", path, lineNo, fields[1])
		}
		parentID, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad parent id '%s'", path, lineNo, fields[2])
		}
		startChar, err := strconv.Atoi(fields[4])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad start offset '%s'", path, lineNo, fields[4])
		}
		charLen, err := strconv.Atoi(fields[5])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad span length '%s'", path, lineNo, fields[5])
		}

		docNo := fields[0]
		annots[docNo] = append(annots[docNo], model.AnnotationEntry{
			AnnotID:   annotID,
			ParentID:  parentID,
			Label:     fields[3],
			StartChar: startChar,
			CharLen:   charLen,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read annotation file %s: %w", path, err)
	}
	return annots, nil
}
