package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/doorbell-core/internal/infrastructure/database"
	"github.com/nerrad567/doorbell-core/migrations"
)

// SQLite stores the tree as flattened leaves in the nodes table: one row per
// scalar (or array) value, keyed by its full slash path. Objects exist only
// implicitly through their leaves, which matches how the Realtime Database
// drops empty objects.
type SQLite struct {
	db *database.DB
}

// NewSQLite applies the embedded migrations and returns a store backed by db.
func NewSQLite(ctx context.Context, db *database.DB) (*SQLite, error) {
	if err := db.Migrate(ctx, migrations.FS, "."); err != nil {
		return nil, fmt.Errorf("migrating store schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Get implements Reader.
func (s *SQLite) Get(ctx context.Context, path string) (any, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}

	var out any
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		out, err = loadSubtree(ctx, tx, joinPath(splitPath(path)))
		return err
	})
	if err != nil {
		return nil, unavailable("get", path, err)
	}
	return out, nil
}

// Query implements Reader.
func (s *SQLite) Query(ctx context.Context, path, orderByChild string, equalTo any) ([]Node, error) {
	tree, err := s.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return filterChildren(tree, orderByChild, equalTo)
}

// Set implements Writer.
func (s *SQLite) Set(ctx context.Context, path string, value any) error {
	segs, err := writablePath(path)
	if err != nil {
		return err
	}
	v, err := normalize(value)
	if err != nil {
		return fmt.Errorf("store: set %q: %w", path, err)
	}

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := deleteSubtree(ctx, tx, segs); err != nil {
			return err
		}
		if v == nil {
			return nil
		}
		return insertLeaves(ctx, tx, joinPath(segs), v)
	})
	if err != nil {
		return unavailable("set", path, err)
	}
	return nil
}

// Delete implements Writer.
func (s *SQLite) Delete(ctx context.Context, path string) error {
	segs, err := writablePath(path)
	if err != nil {
		return err
	}

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		return deleteSubtree(ctx, tx, segs)
	})
	if err != nil {
		return unavailable("delete", path, err)
	}
	return nil
}

// HealthCheck implements HealthChecker.
func (s *SQLite) HealthCheck(ctx context.Context) error {
	if err := s.db.HealthCheck(ctx); err != nil {
		return unavailable("health", s.db.Path(), err)
	}
	return nil
}

func writablePath(path string) ([]string, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	segs := splitPath(path)
	if len(segs) == 0 {
		return nil, fmt.Errorf("%w: cannot write the root", ErrInvalidPath)
	}
	return segs, nil
}

// subtreeBounds returns the half-open range [lo, hi) that covers every path
// strictly beneath prefix. '0' is the byte after '/'.
func subtreeBounds(prefix string) (lo, hi string) {
	return prefix + "/", prefix + "0"
}

func loadSubtree(ctx context.Context, tx *sql.Tx, path string) (any, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if path == "" {
		rows, err = tx.QueryContext(ctx, `SELECT path, value FROM nodes`)
	} else {
		lo, hi := subtreeBounds(path)
		rows, err = tx.QueryContext(ctx,
			`SELECT path, value FROM nodes WHERE path = ? OR (path >= ? AND path < ?)`,
			path, lo, hi)
	}
	if err != nil {
		return nil, fmt.Errorf("querying nodes: %w", err)
	}
	defer rows.Close()

	var tree map[string]any
	for rows.Next() {
		var p, raw string
		if err := rows.Scan(&p, &raw); err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		var leaf any
		if err := json.Unmarshal([]byte(raw), &leaf); err != nil {
			return nil, fmt.Errorf("decoding node %q: %w", p, err)
		}
		if p == path {
			return leaf, nil
		}

		rel := p
		if path != "" {
			rel = p[len(path)+1:]
		}
		if tree == nil {
			tree = make(map[string]any)
		}
		insertAt(tree, splitPath(rel), leaf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nodes: %w", err)
	}
	if tree == nil {
		return nil, nil
	}
	return tree, nil
}

func insertAt(tree map[string]any, segs []string, leaf any) {
	node := tree
	for _, seg := range segs[:len(segs)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[seg] = child
		}
		node = child
	}
	node[segs[len(segs)-1]] = leaf
}

// deleteSubtree removes the value at segs, everything beneath it, and any
// ancestor leaf that a write at segs would replace.
func deleteSubtree(ctx context.Context, tx *sql.Tx, segs []string) error {
	path := joinPath(segs)
	lo, hi := subtreeBounds(path)
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM nodes WHERE path = ? OR (path >= ? AND path < ?)`,
		path, lo, hi); err != nil {
		return fmt.Errorf("deleting subtree: %w", err)
	}

	for i := 1; i < len(segs); i++ {
		if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE path = ?`, joinPath(segs[:i])); err != nil {
			return fmt.Errorf("deleting ancestor leaf: %w", err)
		}
	}
	return nil
}

func insertLeaves(ctx context.Context, tx *sql.Tx, path string, v any) error {
	if m, ok := v.(map[string]any); ok {
		for k, child := range m {
			if err := insertLeaves(ctx, tx, path+"/"+k, child); err != nil {
				return err
			}
		}
		return nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding node %q: %w", path, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO nodes (path, value) VALUES (?, ?)`, path, string(raw)); err != nil {
		return fmt.Errorf("inserting node %q: %w", path, err)
	}
	return nil
}
