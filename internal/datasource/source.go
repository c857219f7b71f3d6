// Package datasource persists mind maps. A Store loads and saves the record
// form of one map; JSONL files, model documents and SQLite databases are
// supported, and SaveAll writes one map to several stores at once.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/mindwork/pkg/model"
)

// SourceType identifies the storage medium of a store.
type SourceType string

const (
	// SourceTypeJSONL is a JSONL file, one record per line
	SourceTypeJSONL SourceType = "jsonl"
	// SourceTypeDocument is a single JSON model document
	SourceTypeDocument SourceType = "document"
	// SourceTypeSQLite is a SQLite database holding one or more maps
	SourceTypeSQLite SourceType = "sqlite"
)

// DefaultMapName is the map used in a database when none is named.
const DefaultMapName = "default"

// ErrMapNotFound is returned when a store holds no map under the requested
// name.
var ErrMapNotFound = errors.New("map not found")

// Store loads and saves the records of one map.
type Store interface {
	Load(ctx context.Context) ([]model.Record, error)
	Save(ctx context.Context, records []model.Record) error
	Close() error
	String() string
}

// Options configures Open.
type Options struct {
	// MapName selects the map inside a database (default DefaultMapName).
	MapName string
	// WarningHandler receives JSONL parse warnings. If nil, the loader
	// prints them to os.Stderr.
	WarningHandler func(string)
}

// DetectType maps a path to its storage medium by extension.
func DetectType(path string) (SourceType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl":
		return SourceTypeJSONL, nil
	case ".json":
		return SourceTypeDocument, nil
	case ".db", ".sqlite", ".sqlite3":
		return SourceTypeSQLite, nil
	default:
		return "", fmt.Errorf("unknown map file type %q (want .jsonl, .json, .db, .sqlite or .sqlite3)", filepath.Ext(path))
	}
}

// Open returns the store for path.
func Open(path string, opts Options) (Store, error) {
	typ, err := DetectType(path)
	if err != nil {
		return nil, err
	}
	switch typ {
	case SourceTypeSQLite:
		name := opts.MapName
		if name == "" {
			name = DefaultMapName
		}
		return NewSQLiteStore(path, name)
	default:
		return NewFileStore(path, opts.WarningHandler), nil
	}
}
