package persistence

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// SaveGob encodes the given object using gob, compresses it with gzip and
// saves it to the specified filePath. It creates necessary directories if
// they don't exist. Posting lists compress well; the payload strings repeat
// the separator bytes and small integers on every position.
func SaveGob(filePath string, object interface{}) error {
	// Ensure the directory exists
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := os.Create(filePath) // #nosec G304 -- filePath is controlled by application, not user input
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", filePath, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filePath, closeErr)
		}
	}()

	zw := gzip.NewWriter(file)
	encoder := gob.NewEncoder(zw)
	if err := encoder.Encode(object); err != nil {
		return fmt.Errorf("failed to gob encode to file %s: %w", filePath, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish compressed write to %s: %w", filePath, err)
	}
	return nil
}

// LoadGob decodes a gzip-compressed, gob-encoded file from filePath into the
// provided object pointer. The object must be a pointer to the type that was
// originally encoded. If the file does not exist, it returns os.ErrNotExist,
// allowing callers to handle fresh starts gracefully.
func LoadGob(filePath string, objectPointer interface{}) error {
	file, err := os.Open(filePath) // #nosec G304 -- filePath is controlled by application, not user input
	if err != nil {
		if os.IsNotExist(err) {
			return os.ErrNotExist // Return specific error for non-existent file
		}
		return fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filePath, closeErr)
		}
	}()

	zr, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to open compressed stream from %s: %w", filePath, err)
	}
	defer func() {
		if closeErr := zr.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close compressed stream from %s: %v\n", filePath, closeErr)
		}
	}()

	decoder := gob.NewDecoder(zr)
	if err := decoder.Decode(objectPointer); err != nil {
		return fmt.Errorf("failed to gob decode from file %s: %w", filePath, err)
	}
	return nil
}
