// Package loader reads and writes mind-map records. Two formats are
// understood: JSONL, one record per line, and the single-document model
// shape {"class":"go.TreeModel","nodeDataArray":[...]} used by diagram
// front ends.
package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/mindwork/pkg/metrics"
	"github.com/vanderheijden86/mindwork/pkg/model"
)

// MapDirEnvVar names the environment variable for a custom map directory.
const MapDirEnvVar = "MINDWORK_DIR"

// PreferredMapNames defines the lookup order for map files in a directory.
var PreferredMapNames = []string{"mindmap.jsonl", "mindmap.json"}

// DefaultMaxBufferSize is the default maximum line size (10MB).
const DefaultMaxBufferSize = 1024 * 1024 * 10

// GetMapDir returns the map directory, respecting MINDWORK_DIR.
// Otherwise it falls back to .mindwork under dir (or the cwd if empty).
func GetMapDir(dir string) (string, error) {
	if envDir := os.Getenv(MapDirEnvVar); envDir != "" {
		return envDir, nil
	}
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current working directory: %w", err)
		}
	}
	return filepath.Join(dir, ".mindwork"), nil
}

// FindMapPath locates a map file in dir. Preferred names win; otherwise the
// first non-empty .jsonl or .json file is used. Temp files left behind by an
// interrupted save are skipped.
func FindMapPath(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read map directory: %w", err)
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !IsMapFile(name) || strings.Contains(name, ".tmp-") {
			continue
		}
		candidates = append(candidates, name)
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no map file found in %s", dir)
	}

	for _, preferred := range PreferredMapNames {
		for _, name := range candidates {
			if name == preferred {
				return filepath.Join(dir, name), nil
			}
		}
	}
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			return path, nil
		}
	}
	return filepath.Join(dir, candidates[0]), nil
}

// IsMapFile reports whether name has an extension the loader reads.
func IsMapFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jsonl", ".json":
		return true
	}
	return false
}

// isDocument reports whether path holds the single-document format.
func isDocument(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// ParseOptions configures ParseRecordsWithOptions.
type ParseOptions struct {
	// WarningHandler is called with warning messages (e.g., malformed JSON).
	// If nil, warnings are printed to os.Stderr.
	WarningHandler func(string)

	// BufferSize sets the maximum line size in bytes. Longer lines are
	// skipped with a warning. If 0, uses DefaultMaxBufferSize.
	BufferSize int
}

// ParseRecords parses JSONL content into records.
func ParseRecords(r io.Reader) ([]model.Record, error) {
	return ParseRecordsWithOptions(r, ParseOptions{})
}

// ParseRecordsWithOptions parses JSONL content. Blank lines are ignored and
// malformed lines are skipped with a warning; structural checks are left to
// the caller.
func ParseRecordsWithOptions(r io.Reader, opts ParseOptions) ([]model.Record, error) {
	defer metrics.Timer(metrics.JSONParsing)()

	maxCapacity := opts.BufferSize
	if maxCapacity <= 0 {
		maxCapacity = DefaultMaxBufferSize
	}
	reader := bufio.NewReaderSize(r, maxCapacity)

	warn := opts.WarningHandler
	if warn == nil {
		warn = func(msg string) {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
		}
	}

	var records []model.Record
	lineNum := 0
	for {
		lineNum++
		line, isPrefix, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading records at line %d: %w", lineNum, err)
		}

		if isPrefix {
			warn(fmt.Sprintf("skipping line %d: line too long (exceeds %d bytes)", lineNum, maxCapacity))
			for isPrefix {
				_, isPrefix, err = reader.ReadLine()
				if err == io.EOF {
					break
				}
				if err != nil {
					return nil, fmt.Errorf("error skipping long line at line %d: %w", lineNum, err)
				}
			}
			continue
		}

		if lineNum == 1 {
			line = stripBOM(line)
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var rec model.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			warn(fmt.Sprintf("skipping malformed JSON on line %d: %v", lineNum, err))
			continue
		}
		records = append(records, rec.Canonical())
	}
	return records, nil
}

// WriteRecords writes records as JSONL, one per line.
func WriteRecords(w io.Writer, records []model.Record) error {
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode record %d: %w", rec.Key, err)
		}
	}
	return nil
}

// LoadFile reads records from path, choosing the format by extension.
func LoadFile(path string) ([]model.Record, error) {
	return LoadFileWithOptions(path, ParseOptions{})
}

// LoadFileWithOptions is LoadFile with custom JSONL parse options.
func LoadFileWithOptions(path string, opts ParseOptions) ([]model.Record, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("no mind map found at %s: %w", path, os.ErrNotExist)
	}
	if isDocument(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read map file: %w", err)
		}
		return ParseDocument(data)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open map file: %w", err)
	}
	defer file.Close()

	return ParseRecordsWithOptions(file, opts)
}

// SaveFile writes records to path, choosing the format by extension.
// The write is atomic (temp file + rename) to be safe with editors and watchers.
func SaveFile(path string, records []model.Record) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	closed := false
	cleanup := func() {
		if !closed {
			_ = tmp.Close()
			closed = true
		}
		_ = os.Remove(tmpName)
	}

	w := bufio.NewWriter(tmp)
	if isDocument(path) {
		err = WriteDocument(w, records)
	} else {
		err = WriteRecords(w, records)
	}
	if err == nil {
		err = w.Flush()
	}
	if err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	closed = true

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// stripBOM removes the UTF-8 Byte Order Mark if present
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}
