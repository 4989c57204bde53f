package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS collections (
	name      TEXT PRIMARY KEY,
	dimension INTEGER NOT NULL,
	distance  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS points (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	source     TEXT NOT NULL,
	text       TEXT NOT NULL,
	vector     BLOB NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_points_source ON points(collection, source);
`

// SQLiteStorage is a local, persistent VectorStore backed by a single SQLite file.
// Search is brute force over the collection, which suits small corpora.
type SQLiteStorage struct {
	db   *sql.DB
	path string
	cfg  CollectionConfig
}

var _ VectorStore = (*SQLiteStorage)(nil)

// OpenSQLiteStorage opens or creates the database at path.
func OpenSQLiteStorage(path string, cfg CollectionConfig) (*SQLiteStorage, error) {
	if cfg.Name == "" {
		cfg.Name = DefaultCollectionName
	}
	if cfg.Distance == "" {
		cfg.Distance = DistanceCosine
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("invalid vector dimension %d", cfg.Dimension)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStorage{db: db, path: path, cfg: cfg}, nil
}

func (s *SQLiteStorage) EnsureCollection(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO collections (name, dimension, distance) VALUES (?, ?, ?)`,
		s.cfg.Name, s.cfg.Dimension, string(s.cfg.Distance))
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	var dimension int
	var distance string
	err = s.db.QueryRowContext(ctx,
		`SELECT dimension, distance FROM collections WHERE name = ?`, s.cfg.Name,
	).Scan(&dimension, &distance)
	if err != nil {
		return fmt.Errorf("failed to read collection: %w", err)
	}

	if dimension != s.cfg.Dimension || Distance(distance) != s.cfg.Distance {
		return fmt.Errorf("%w: %s has size %d distance %s, expected size %d distance %s",
			ErrCollectionMismatch, s.cfg.Name, dimension, distance, s.cfg.Dimension, s.cfg.Distance)
	}
	return nil
}

// Upsert writes all points in one transaction.
func (s *SQLiteStorage) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	if err := checkDimensions(points, s.cfg.Dimension); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM collections WHERE name = ?`, s.cfg.Name).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to read collection: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, s.cfg.Name)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO points (collection, id, source, text, vector)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, p := range points {
		if _, err := stmt.ExecContext(ctx, s.cfg.Name, p.ID, p.Payload.Source, p.Payload.Text, vectorToBlob(p.Vector)); err != nil {
			return fmt.Errorf("failed to insert point %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Search(ctx context.Context, vector []float32, k int) ([]ScoredPoint, error) {
	if err := checkQuery(vector, s.cfg.Dimension); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, text, vector FROM points WHERE collection = ?`, s.cfg.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	defer rows.Close()

	var hits []ScoredPoint
	for rows.Next() {
		var p Point
		var blob []byte
		if err := rows.Scan(&p.ID, &p.Payload.Source, &p.Payload.Text, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		stored := blobToVector(blob)
		if len(stored) != len(vector) {
			continue
		}
		hits = append(hits, ScoredPoint{Point: p, Score: score(s.cfg.Distance, vector, stored)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return topK(hits, k), nil
}

func (s *SQLiteStorage) Count(ctx context.Context) (uint64, error) {
	var n uint64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM points WHERE collection = ?`, s.cfg.Name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return n, nil
}

func (s *SQLiteStorage) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// vectorToBlob encodes a vector as little-endian float32s.
func vectorToBlob(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func blobToVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
