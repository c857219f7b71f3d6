package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/mindwork/pkg/debug"
	"github.com/vanderheijden86/mindwork/pkg/metrics"
	"github.com/vanderheijden86/mindwork/pkg/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS mindmaps (
	name     TEXT PRIMARY KEY,
	saved_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS nodes (
	map        TEXT    NOT NULL REFERENCES mindmaps(name) ON DELETE CASCADE,
	ord        INTEGER NOT NULL,
	node_key   INTEGER NOT NULL,
	parent_key INTEGER,
	text       TEXT    NOT NULL DEFAULT '',
	brush      TEXT    NOT NULL DEFAULT '',
	dir        TEXT    NOT NULL DEFAULT '',
	loc        TEXT    NOT NULL DEFAULT '',
	scale      REAL    NOT NULL DEFAULT 0,
	font       TEXT    NOT NULL DEFAULT '',
	PRIMARY KEY (map, node_key)
);
CREATE INDEX IF NOT EXISTS nodes_by_order ON nodes(map, ord);
`

// SQLiteStore keeps named maps in a SQLite database. Record order is stored
// explicitly so sibling order survives a round trip.
type SQLiteStore struct {
	db   *sql.DB
	path string
	name string
}

// MapInfo describes one map stored in a database.
type MapInfo struct {
	Name    string    `json:"name"`
	SavedAt time.Time `json:"saved_at"`
	Nodes   int       `json:"nodes"`
}

// NewSQLiteStore opens (creating if needed) the database at path and binds
// the store to the map called name.
func NewSQLiteStore(path, name string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	// One connection keeps writes serialized and pragmas in effect.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot create schema in %s: %w", path, err)
	}
	return &SQLiteStore{db: db, path: path, name: name}, nil
}

func (s *SQLiteStore) String() string { return s.path + "#" + s.name }

// Name returns the bound map name.
func (s *SQLiteStore) Name() string { return s.name }

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load reads the bound map in saved order.
func (s *SQLiteStore) Load(ctx context.Context) ([]model.Record, error) {
	var savedAt string
	err := s.db.QueryRowContext(ctx, `SELECT saved_at FROM mindmaps WHERE name = ?`, s.name).Scan(&savedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", s, ErrMapNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT node_key, parent_key, text, brush, dir, loc, scale, font
		FROM nodes
		WHERE map = ?
		ORDER BY ord
	`, s.name)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var rec model.Record
		var parent sql.NullInt64
		if err := rows.Scan(&rec.Key, &parent, &rec.Text, &rec.Brush, &rec.Dir, &rec.Loc, &rec.Scale, &rec.Font); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		if parent.Valid {
			rec.ParentKey = model.IntPtr(int(parent.Int64))
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}
	debug.Log("sqlite: loaded %d nodes from %s", len(records), s)
	return records, nil
}

// Save replaces the bound map in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, records []model.Record) (err error) {
	defer metrics.Timer(metrics.SQLiteSave)()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO mindmaps (name, saved_at) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET saved_at = excluded.saved_at
	`, s.name, now); err != nil {
		return fmt.Errorf("upsert map: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM nodes WHERE map = ?`, s.name); err != nil {
		return fmt.Errorf("clear nodes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (map, ord, node_key, parent_key, text, brush, dir, loc, scale, font)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		var parent sql.NullInt64
		if rec.ParentKey != nil {
			parent = sql.NullInt64{Int64: int64(*rec.ParentKey), Valid: true}
		}
		if _, err = stmt.ExecContext(ctx, s.name, i, rec.Key, parent, rec.Text, rec.Brush, rec.Dir, rec.Loc, rec.Scale, rec.Font); err != nil {
			return fmt.Errorf("insert node %d: %w", rec.Key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	debug.Log("sqlite: saved %d nodes to %s", len(records), s)
	return nil
}

// List returns every map in the database, by name.
func (s *SQLiteStore) List(ctx context.Context) ([]MapInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.name, m.saved_at, COUNT(n.node_key)
		FROM mindmaps m
		LEFT JOIN nodes n ON n.map = m.name
		GROUP BY m.name, m.saved_at
		ORDER BY m.name
	`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var maps []MapInfo
	for rows.Next() {
		var info MapInfo
		var savedAt string
		if err := rows.Scan(&info.Name, &savedAt, &info.Nodes); err != nil {
			return nil, fmt.Errorf("scan map: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, savedAt); err == nil {
			info.SavedAt = t
		}
		maps = append(maps, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating maps: %w", err)
	}
	return maps, nil
}

// Delete removes the bound map and its nodes.
func (s *SQLiteStore) Delete(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM nodes WHERE map = ?`, s.name); err != nil {
		return fmt.Errorf("delete nodes: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM mindmaps WHERE name = ?`, s.name)
	if err != nil {
		return fmt.Errorf("delete map: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", s, ErrMapNotFound)
	}
	return nil
}
