package vdbfile

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/voxelview/internal/volume"
	"github.com/google/uuid"
)

// FormatVersion is recorded in container_info and checked on open.
const FormatVersion = 1

// FileMode is the permission given to written container files.
const FileMode = 0o644

// Generator is stored with every file.
const Generator = "voxelview"

// WriteContainer stores every grid of c at path, in GridNames order. The
// file is built next to path and renamed into place, so a failed write
// never leaves a partial container behind. Each stored grid carries file
// statistics metadata; the caller's grids are not modified.
func WriteContainer(c *volume.Container, path string) error {
	if err := writeContainer(c, path); err != nil {
		return &volume.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func writeContainer(c *volume.Container, path string) error {
	if err := checkInitialized(); err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("nil container")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".voxelview-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	tmp.Close()
	ok := false
	defer func() {
		if !ok {
			os.Remove(tmpPath)
		}
	}()

	db, err := sql.Open("sqlite", tmpPath)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)
	if err := fillDB(db, c); err != nil {
		db.Close()
		return err
	}
	if err := db.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, FileMode); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	ok = true
	diagf("wrote %d grids to %s", c.Len(), path)
	return nil
}

func fillDB(db *sql.DB, c *volume.Container) error {
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return err
	}
	if err := migrateUp(db); err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	id := uuid.New().String()
	if _, err := tx.Exec(`INSERT INTO container_info (id, uuid, format_version, created_unix_nanos, generator)
		VALUES (1, ?, ?, ?, ?)`, id, FormatVersion, time.Now().UnixNano(), Generator); err != nil {
		return fmt.Errorf("insert container_info: %w", err)
	}
	if err := insertMetadata(tx, `INSERT INTO container_metadata (key, type_name, value) VALUES (?, ?, ?)`, nil, c.Metadata()); err != nil {
		return fmt.Errorf("insert container metadata: %w", err)
	}
	for pos, g := range c.Grids() {
		if err := insertGrid(tx, pos, g); err != nil {
			return fmt.Errorf("grid %q: %w", g.Name(), err)
		}
	}
	return tx.Commit()
}

func insertMetadata(tx *sql.Tx, query string, gridID *int64, m *volume.Metadata) error {
	stmt, err := tx.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		typeName, blob := encodeMeta(v)
		if gridID != nil {
			_, err = stmt.Exec(*gridID, k, typeName, blob)
		} else {
			_, err = stmt.Exec(k, typeName, blob)
		}
		if err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
	}
	return nil
}

func insertGrid(tx *sql.Tx, pos int, g *volume.Grid) error {
	meta := g.Metadata().Clone()
	volume.MergeStats(meta, g.StatsMetadata())

	bg, err := encodeBackground(g.Tree())
	if err != nil {
		return err
	}
	res, err := tx.Exec(`INSERT INTO grids
		(name, position, value_type, grid_class, transform, background, leaf_count, active_voxel_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.Name(), pos, g.ValueType().String(), g.Class().String(),
		encodeTransform(g.Transform()), bg, g.Tree().LeafCount(), g.ActiveVoxelCount())
	if err != nil {
		return err
	}
	gridID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if err := insertMetadata(tx, `INSERT INTO grid_metadata (grid_id, key, type_name, value) VALUES (?, ?, ?, ?)`, &gridID, meta); err != nil {
		return err
	}
	n, err := insertLeaves(tx, gridID, g.Tree())
	if err != nil {
		return err
	}
	tracef("grid %q: %d leaves, %d metadata keys", g.Name(), n, meta.Len())
	return nil
}

func encodeBackground(t volume.TreeBase) ([]byte, error) {
	switch tt := t.(type) {
	case *volume.Tree[float32]:
		return encodeScalar(tt.Background())
	case *volume.Tree[float64]:
		return encodeScalar(tt.Background())
	case *volume.Tree[int32]:
		return encodeScalar(tt.Background())
	case *volume.Tree[int64]:
		return encodeScalar(tt.Background())
	case *volume.Tree[bool]:
		return encodeScalar(tt.Background())
	case *volume.Tree[[3]float32]:
		return encodeScalar(tt.Background())
	}
	return nil, fmt.Errorf("%w: %T", volume.ErrUnsupportedGridType, t)
}

func insertLeaves(tx *sql.Tx, gridID int64, t volume.TreeBase) (int, error) {
	switch tt := t.(type) {
	case *volume.Tree[float32]:
		return insertTypedLeaves(tx, gridID, tt)
	case *volume.Tree[float64]:
		return insertTypedLeaves(tx, gridID, tt)
	case *volume.Tree[int32]:
		return insertTypedLeaves(tx, gridID, tt)
	case *volume.Tree[int64]:
		return insertTypedLeaves(tx, gridID, tt)
	case *volume.Tree[bool]:
		return insertTypedLeaves(tx, gridID, tt)
	case *volume.Tree[[3]float32]:
		return insertTypedLeaves(tx, gridID, tt)
	}
	return 0, fmt.Errorf("%w: %T", volume.ErrUnsupportedGridType, t)
}

func insertTypedLeaves[T volume.Value](tx *sql.Tx, gridID int64, t *volume.Tree[T]) (int, error) {
	stmt, err := tx.Prepare(`INSERT INTO leaf_nodes (grid_id, origin_x, origin_y, origin_z, active_mask, value_blob)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	leaves := t.Leaves()
	for _, l := range leaves {
		blob, err := encodeValues(l.Values())
		if err != nil {
			return 0, fmt.Errorf("leaf %v: %w", l.Origin(), err)
		}
		o := l.Origin()
		if _, err := stmt.Exec(gridID, o.X, o.Y, o.Z, encodeMask(l.Mask()), blob); err != nil {
			return 0, fmt.Errorf("leaf %v: %w", o, err)
		}
	}
	return len(leaves), nil
}
