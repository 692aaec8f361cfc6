package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
)

// ExtJSONFile persists a single document as canonical MongoDB Extended JSON, so
// ObjectIDs and dates survive a round trip exactly as the database would store them.
type ExtJSONFile struct {
	mu       sync.RWMutex
	filePath string
}

func NewExtJSONFile(dataDir, filename string) (*ExtJSONFile, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create data dir: %w", err)
	}

	return &ExtJSONFile{
		filePath: filepath.Join(dataDir, filename),
	}, nil
}

func (f *ExtJSONFile) Path() string {
	return f.filePath
}

// Load decodes the file into doc. A missing file leaves doc untouched.
func (f *ExtJSONFile) Load(doc interface{}) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}

	if err := bson.UnmarshalExtJSON(data, true, doc); err != nil {
		return fmt.Errorf("storage: decode %s: %w", f.filePath, err)
	}
	return nil
}

// Save replaces the file contents with doc. The write goes to a temp file first and
// is renamed into place.
func (f *ExtJSONFile) Save(doc interface{}) error {
	data, err := bson.MarshalExtJSONIndent(doc, true, false, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tempFile := f.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, f.filePath)
}
