package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vanderheijden86/mindwork/internal/datasource"
	"github.com/vanderheijden86/mindwork/pkg/config"
	"github.com/vanderheijden86/mindwork/pkg/debug"
	"github.com/vanderheijden86/mindwork/pkg/loader"
	"github.com/vanderheijden86/mindwork/pkg/mindmap"
	"github.com/vanderheijden86/mindwork/pkg/model"
)

// session is one invocation's editor plus the stores it saves to.
type session struct {
	cfg     config.Config
	path    string
	store   datasource.Store
	mirrors []datasource.Store
	editor  *mindmap.Editor
	fresh   bool
}

// resolveMapPath picks the map location: -db ("-" for the default
// database), then -file, then the configured storage path, then the map
// directory.
func resolveMapPath(filePath, dbPath string, cfg config.Config) (string, error) {
	switch {
	case dbPath == "-":
		if p := config.DefaultDatabasePath(); p != "" {
			return p, nil
		}
		return "", errors.New("cannot determine the default database location")
	case dbPath != "":
		return dbPath, nil
	case filePath != "":
		return filePath, nil
	case cfg.Storage.Path != "":
		return cfg.Storage.Path, nil
	}
	dir, err := loader.GetMapDir("")
	if err != nil {
		return "", err
	}
	if p, err := loader.FindMapPath(dir); err == nil {
		return p, nil
	}
	return filepath.Join(dir, loader.PreferredMapNames[0]), nil
}

func warnf(msg string) {
	fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
}

// openSession loads the map at path. A missing file or database map starts
// from the built-in sample; nothing is written until an edit modifies it.
func openSession(ctx context.Context, path, mapName string, cfg config.Config) (*session, error) {
	debug.Section("open " + path)
	if mapName == "" {
		mapName = cfg.Storage.MapName
	}
	opts := datasource.Options{MapName: mapName, WarningHandler: warnf}
	store, err := datasource.Open(path, opts)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, path: path, store: store}
	records, err := store.Load(ctx)
	switch {
	case errors.Is(err, os.ErrNotExist), errors.Is(err, datasource.ErrMapNotFound):
		records = mindmap.SampleRecords()
		s.fresh = true
		debug.Log("session: %s has no map yet, using the sample", store)
	case err != nil:
		store.Close()
		return nil, fmt.Errorf("load %s: %w", store, err)
	}

	s.editor, err = mindmap.NewEditorFromRecords(records, cfg.EditorOptions())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load %s: %w", store, err)
	}

	for _, m := range cfg.Storage.Mirror {
		ms, err := datasource.Open(m, opts)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("mirror: %w", err)
		}
		s.mirrors = append(s.mirrors, ms)
	}
	return s, nil
}

// reload replaces the editor contents with what is on disk.
func (s *session) reload(ctx context.Context) error {
	records, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	return s.editor.Load(records)
}

// save writes the map to the primary store and every mirror when it has
// unsaved edits, or unconditionally when force is set.
func (s *session) save(ctx context.Context, force bool) (bool, error) {
	if !s.editor.Modified() && !force {
		return false, nil
	}
	start := time.Now()
	stores := append([]datasource.Store{s.store}, s.mirrors...)
	if err := datasource.SaveAll(ctx, s.editor.Records(), stores...); err != nil {
		return false, err
	}
	debug.LogIf(len(s.mirrors) > 0, "session: saved %d mirrors", len(s.mirrors))
	debug.LogTiming("session.save", time.Since(start))
	s.editor.MarkSaved()
	s.fresh = false
	return true, nil
}

// checkMirrors compares the primary store with every mirror. It returns
// an error when any mirror has drifted.
func (s *session) checkMirrors(ctx context.Context) (string, error) {
	if len(s.mirrors) == 0 {
		return "No mirrors configured", nil
	}
	var (
		sb      strings.Builder
		drifted int
	)
	for _, m := range s.mirrors {
		diff, err := datasource.CompareStores(ctx, s.store, m, datasource.DefaultDiffOptions())
		if err != nil {
			return "", err
		}
		sb.WriteString(diff.Summary())
		if !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte('\n')
		}
		if diff.HasInconsistencies() {
			drifted++
		}
	}
	if drifted > 0 {
		return sb.String(), fmt.Errorf("%d of %d mirrors differ from %s", drifted, len(s.mirrors), s.store)
	}
	return sb.String(), nil
}

func (s *session) Close() {
	s.store.Close()
	for _, m := range s.mirrors {
		m.Close()
	}
}

// records returns the current map records.
func (s *session) records() []model.Record {
	return s.editor.Records()
}
