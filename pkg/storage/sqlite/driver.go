// Package sqlite persists the attestation log in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lanternworks/txlens/pkg/merkle"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	hash        TEXT PRIMARY KEY,
	parent_hash TEXT,
	content     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_parent ON records(parent_hash);
`

// Driver stores attestation records in SQLite. Put reports whether the
// record was new, which the merge and sync commands use for their counters.
type Driver struct {
	db *sql.DB
}

// NewDriver opens (and if necessary creates) the database at path.
// Use ":memory:" for an in-memory database.
func NewDriver(ctx context.Context, path string) (*Driver, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// A single connection sidesteps SQLITE_BUSY on concurrent writes and
	// keeps ":memory:" databases from silently forking per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Driver{db: db}, nil
}

// Put stores a record. Returns true if the record was new, false if a
// record with the same hash already existed.
func (d *Driver) Put(ctx context.Context, node *merkle.Node) (bool, error) {
	if node == nil {
		return false, fmt.Errorf("cannot store nil node")
	}

	content, err := json.Marshal(node.Content)
	if err != nil {
		return false, fmt.Errorf("marshal content: %w", err)
	}

	res, err := d.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO records (hash, parent_hash, content) VALUES (?, ?, ?)`,
		node.Hash, node.ParentHash, string(content),
	)
	if err != nil {
		return false, fmt.Errorf("insert record: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return affected > 0, nil
}

// Get retrieves a record by hash.
func (d *Driver) Get(ctx context.Context, hash string) (*merkle.Node, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT hash, parent_hash, content FROM records WHERE hash = ?`, hash)

	node, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, merkle.ErrNotFound{Hash: hash}
	}
	if err != nil {
		return nil, err
	}

	return node, nil
}

// Has checks whether a record exists.
func (d *Driver) Has(ctx context.Context, hash string) (bool, error) {
	var one int
	err := d.db.QueryRowContext(ctx,
		`SELECT 1 FROM records WHERE hash = ?`, hash).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query record: %w", err)
	}

	return true, nil
}

// GetByParent retrieves all records with the given parent. Pass nil for roots.
func (d *Driver) GetByParent(ctx context.Context, parentHash *string) ([]*merkle.Node, error) {
	var (
		rows *sql.Rows
		err  error
	)

	if parentHash == nil {
		rows, err = d.db.QueryContext(ctx,
			`SELECT hash, parent_hash, content FROM records WHERE parent_hash IS NULL`)
	} else {
		rows, err = d.db.QueryContext(ctx,
			`SELECT hash, parent_hash, content FROM records WHERE parent_hash = ?`, *parentHash)
	}
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	return collectNodes(rows)
}

// List returns every record in the database.
func (d *Driver) List(ctx context.Context) ([]*merkle.Node, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT hash, parent_hash, content FROM records`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	return collectNodes(rows)
}

// Roots returns all records without a parent.
func (d *Driver) Roots(ctx context.Context) ([]*merkle.Node, error) {
	return d.GetByParent(ctx, nil)
}

// Leaves returns all records that no other record links to.
func (d *Driver) Leaves(ctx context.Context) ([]*merkle.Node, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT r.hash, r.parent_hash, r.content
		FROM records r
		LEFT JOIN records c ON c.parent_hash = r.hash
		WHERE c.hash IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("query leaves: %w", err)
	}

	return collectNodes(rows)
}

// Ancestry returns the path from the record back to its root (record first).
func (d *Driver) Ancestry(ctx context.Context, hash string) ([]*merkle.Node, error) {
	var path []*merkle.Node

	current := hash
	for {
		node, err := d.Get(ctx, current)
		if err != nil {
			return nil, err
		}

		path = append(path, node)
		if node.ParentHash == nil {
			return path, nil
		}
		current = *node.ParentHash
	}
}

// Descendants returns the path from the root to the record (root first).
func (d *Driver) Descendants(ctx context.Context, hash string) ([]*merkle.Node, error) {
	path, err := d.Ancestry(ctx, hash)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path, nil
}

// Depth returns the number of ancestors of a record (0 for roots).
func (d *Driver) Depth(ctx context.Context, hash string) (int, error) {
	path, err := d.Ancestry(ctx, hash)
	if err != nil {
		return 0, err
	}

	return len(path) - 1, nil
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.db.Close()
}

// Storer adapts the driver to the merkle.Storer interface, discarding the
// new/duplicate distinction Put reports.
func (d *Driver) Storer() merkle.Storer {
	return &storerAdapter{d: d}
}

type storerAdapter struct {
	d *Driver
}

func (a *storerAdapter) Put(ctx context.Context, node *merkle.Node) error {
	_, err := a.d.Put(ctx, node)
	return err
}

func (a *storerAdapter) Get(ctx context.Context, hash string) (*merkle.Node, error) {
	return a.d.Get(ctx, hash)
}

func (a *storerAdapter) Has(ctx context.Context, hash string) (bool, error) {
	return a.d.Has(ctx, hash)
}

func (a *storerAdapter) GetByParent(ctx context.Context, parentHash *string) ([]*merkle.Node, error) {
	return a.d.GetByParent(ctx, parentHash)
}

func (a *storerAdapter) List(ctx context.Context) ([]*merkle.Node, error) {
	return a.d.List(ctx)
}

func (a *storerAdapter) Roots(ctx context.Context) ([]*merkle.Node, error) {
	return a.d.Roots(ctx)
}

func (a *storerAdapter) Leaves(ctx context.Context) ([]*merkle.Node, error) {
	return a.d.Leaves(ctx)
}

func (a *storerAdapter) Ancestry(ctx context.Context, hash string) ([]*merkle.Node, error) {
	return a.d.Ancestry(ctx, hash)
}

func (a *storerAdapter) Descendants(ctx context.Context, hash string) ([]*merkle.Node, error) {
	return a.d.Descendants(ctx, hash)
}

func (a *storerAdapter) Depth(ctx context.Context, hash string) (int, error) {
	return a.d.Depth(ctx, hash)
}

func (a *storerAdapter) Close() error {
	return a.d.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(s scanner) (*merkle.Node, error) {
	var (
		node    merkle.Node
		parent  sql.NullString
		content string
	)

	if err := s.Scan(&node.Hash, &parent, &content); err != nil {
		return nil, err
	}

	if parent.Valid {
		node.ParentHash = &parent.String
	}

	if err := json.Unmarshal([]byte(content), &node.Content); err != nil {
		return nil, fmt.Errorf("unmarshal content: %w", err)
	}

	return &node, nil
}

func collectNodes(rows *sql.Rows) ([]*merkle.Node, error) {
	defer rows.Close()

	var nodes []*merkle.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return nodes, nil
}
