package datasource

import (
	"context"

	"github.com/vanderheijden86/mindwork/pkg/loader"
	"github.com/vanderheijden86/mindwork/pkg/model"
)

// FileStore keeps a map in a JSONL file or a model document, chosen by the
// file extension.
type FileStore struct {
	path string
	warn func(string)
}

// NewFileStore creates a store for path. Nothing is read until Load.
func NewFileStore(path string, warn func(string)) *FileStore {
	return &FileStore{path: path, warn: warn}
}

// Path returns the file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) String() string { return s.path }

// Load reads the records from disk.
func (s *FileStore) Load(ctx context.Context) ([]model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return loader.LoadFileWithOptions(s.path, loader.ParseOptions{WarningHandler: s.warn})
}

// Save replaces the file atomically.
func (s *FileStore) Save(ctx context.Context, records []model.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return loader.SaveFile(s.path, records)
}

// Close is a no-op; files are opened per call.
func (s *FileStore) Close() error { return nil }
