package vdbfile

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/banshee-data/voxelview/internal/volume"
)

// ErrGridNotFound is returned by ReadGrid for names the file does not hold.
var ErrGridNotFound = errors.New("grid not found")

// File is an open, read-only container file.
type File struct {
	path      string
	db        *sql.DB
	uuid      string
	version   int
	createdAt time.Time
	generator string
}

// Open opens the container file at path for reading.
func Open(path string) (*File, error) {
	f, err := open(path)
	if err != nil {
		return nil, &volume.IOError{Op: "open", Path: path, Err: err}
	}
	return f, nil
}

func open(path string) (*File, error) {
	if err := checkInitialized(); err != nil {
		return nil, err
	}
	// sqlite creates missing files on open.
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	f := &File{path: path, db: db}
	if err := f.load(); err != nil {
		db.Close()
		return nil, err
	}
	diagf("opened %s (uuid %s, format %d)", path, f.uuid, f.version)
	return f, nil
}

func (f *File) load() error {
	if _, err := f.db.Exec(`PRAGMA query_only = ON`); err != nil {
		return err
	}
	version, dirty, err := schemaVersion(f.db)
	if err != nil {
		return fmt.Errorf("not a container file: %w", err)
	}
	if dirty {
		return fmt.Errorf("container schema is dirty at version %d", version)
	}
	if version > SchemaVersion {
		return fmt.Errorf("container schema version %d is newer than supported %d", version, SchemaVersion)
	}
	var nanos int64
	err = f.db.QueryRow(`SELECT uuid, format_version, created_unix_nanos, generator FROM container_info WHERE id = 1`).
		Scan(&f.uuid, &f.version, &nanos, &f.generator)
	if err != nil {
		return fmt.Errorf("read container_info: %w", err)
	}
	if f.version > FormatVersion {
		return fmt.Errorf("container format version %d is newer than supported %d", f.version, FormatVersion)
	}
	f.createdAt = time.Unix(0, nanos)
	return nil
}

func (f *File) Path() string         { return f.path }
func (f *File) UUID() string         { return f.uuid }
func (f *File) FormatVersion() int   { return f.version }
func (f *File) CreatedAt() time.Time { return f.createdAt }
func (f *File) Generator() string    { return f.generator }

// DB exposes the underlying read-only handle for inspection tools.
func (f *File) DB() *sql.DB { return f.db }

// Close releases the file.
func (f *File) Close() error {
	return f.db.Close()
}

func (f *File) wrap(err error) error {
	if err == nil {
		return nil
	}
	return &volume.IOError{Op: "read", Path: f.path, Err: err}
}

// Metadata returns the container-level metadata.
func (f *File) Metadata() (*volume.Metadata, error) {
	m, err := readMetadata(f.db, `SELECT key, type_name, value FROM container_metadata`)
	return m, f.wrap(err)
}

// GridNames returns the stored grid names in sorted order.
func (f *File) GridNames() ([]string, error) {
	rows, err := f.db.Query(`SELECT name FROM grids ORDER BY name`)
	if err != nil {
		return nil, f.wrap(err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, f.wrap(err)
		}
		names = append(names, n)
	}
	return names, f.wrap(rows.Err())
}

type gridRow struct {
	id         int64
	name       string
	valueType  volume.ValueType
	class      volume.GridClass
	transform  volume.Transform
	background []byte
}

const gridColumns = `grid_id, name, value_type, grid_class, transform, background`

func scanGrid(s interface{ Scan(...any) error }) (*gridRow, error) {
	var r gridRow
	var vt, class string
	var xf []byte
	if err := s.Scan(&r.id, &r.name, &vt, &class, &xf, &r.background); err != nil {
		return nil, err
	}
	var err error
	if r.valueType, err = volume.ParseValueType(vt); err != nil {
		return nil, fmt.Errorf("grid %q: %w", r.name, err)
	}
	if r.transform, err = decodeTransform(xf); err != nil {
		return nil, fmt.Errorf("grid %q: %w", r.name, err)
	}
	r.class = volume.ParseGridClass(class)
	return &r, nil
}

// ReadAllGridMetadata returns every grid with its metadata, transform and
// class but an empty tree. Use it to list or bound a file without loading
// voxel data.
func (f *File) ReadAllGridMetadata() ([]*volume.Grid, error) {
	rows, err := f.db.Query(`SELECT ` + gridColumns + ` FROM grids ORDER BY name`)
	if err != nil {
		return nil, f.wrap(err)
	}
	var gridRows []*gridRow
	for rows.Next() {
		r, err := scanGrid(rows)
		if err != nil {
			rows.Close()
			return nil, f.wrap(err)
		}
		gridRows = append(gridRows, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, f.wrap(err)
	}

	grids := make([]*volume.Grid, 0, len(gridRows))
	for _, r := range gridRows {
		g, err := f.buildGrid(r, false)
		if err != nil {
			return nil, f.wrap(err)
		}
		grids = append(grids, g)
	}
	return grids, nil
}

// ReadGrid loads the named grid with its full tree.
func (f *File) ReadGrid(name string) (*volume.Grid, error) {
	r, err := scanGrid(f.db.QueryRow(`SELECT `+gridColumns+` FROM grids WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, f.wrap(fmt.Errorf("%q: %w", name, ErrGridNotFound))
	}
	if err != nil {
		return nil, f.wrap(err)
	}
	g, err := f.buildGrid(r, true)
	return g, f.wrap(err)
}

// ReadContainer loads every grid and the container metadata.
func (f *File) ReadContainer() (*volume.Container, error) {
	names, err := f.GridNames()
	if err != nil {
		return nil, err
	}
	c, err := volume.NewContainer()
	if err != nil {
		return nil, err
	}
	meta, err := f.Metadata()
	if err != nil {
		return nil, err
	}
	c.Metadata().Merge(meta)
	for _, n := range names {
		g, err := f.ReadGrid(n)
		if err != nil {
			return nil, err
		}
		if err := c.Insert(g); err != nil {
			return nil, f.wrap(err)
		}
	}
	return c, nil
}

func (f *File) buildGrid(r *gridRow, withLeaves bool) (*volume.Grid, error) {
	tree, err := f.readTree(r, withLeaves)
	if err != nil {
		return nil, fmt.Errorf("grid %q: %w", r.name, err)
	}
	g, err := volume.NewGridFromTree(r.name, tree, r.transform)
	if err != nil {
		return nil, err
	}
	g.SetClass(r.class)
	meta, err := readMetadata(f.db, `SELECT key, type_name, value FROM grid_metadata WHERE grid_id = ?`, r.id)
	if err != nil {
		return nil, fmt.Errorf("grid %q metadata: %w", r.name, err)
	}
	g.Metadata().Merge(meta)
	return g, nil
}

func (f *File) readTree(r *gridRow, withLeaves bool) (volume.TreeBase, error) {
	switch r.valueType {
	case volume.ValueFloat:
		return readTypedTree[float32](f.db, r, withLeaves)
	case volume.ValueDouble:
		return readTypedTree[float64](f.db, r, withLeaves)
	case volume.ValueInt32:
		return readTypedTree[int32](f.db, r, withLeaves)
	case volume.ValueInt64:
		return readTypedTree[int64](f.db, r, withLeaves)
	case volume.ValueBool:
		return readTypedTree[bool](f.db, r, withLeaves)
	case volume.ValueVec3f:
		return readTypedTree[[3]float32](f.db, r, withLeaves)
	}
	return nil, fmt.Errorf("%w: %s", volume.ErrUnsupportedGridType, r.valueType)
}

func readTypedTree[T volume.Value](db *sql.DB, r *gridRow, withLeaves bool) (*volume.Tree[T], error) {
	bg, err := decodeScalar[T](r.background)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	tree := volume.NewTree(bg)
	if !withLeaves {
		return tree, nil
	}
	rows, err := db.Query(`SELECT origin_x, origin_y, origin_z, active_mask, value_blob
		FROM leaf_nodes WHERE grid_id = ?`, r.id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var n int
	for rows.Next() {
		var o volume.Coord
		var maskBlob, valueBlob []byte
		if err := rows.Scan(&o.X, &o.Y, &o.Z, &maskBlob, &valueBlob); err != nil {
			return nil, err
		}
		mask, err := decodeMask(maskBlob)
		if err != nil {
			return nil, fmt.Errorf("leaf %v: %w", o, err)
		}
		vals, err := decodeValues[T](valueBlob)
		if err != nil {
			return nil, fmt.Errorf("leaf %v: %w", o, err)
		}
		leaf, err := volume.NewLeafNodeFrom(o, vals, mask)
		if err != nil {
			return nil, err
		}
		tree.InsertLeaf(leaf)
		n++
	}
	tracef("grid %q: read %d leaves", r.name, n)
	return tree, rows.Err()
}

func readMetadata(db *sql.DB, query string, args ...any) (*volume.Metadata, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	m := volume.NewMetadata()
	for rows.Next() {
		var key, typeName string
		var blob []byte
		if err := rows.Scan(&key, &typeName, &blob); err != nil {
			return nil, err
		}
		v, err := decodeMeta(typeName, blob)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		m.Set(key, v)
	}
	return m, rows.Err()
}

// OpenContainer reads the whole container at path.
func OpenContainer(path string) (*volume.Container, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.ReadContainer()
}

// ReadBounds returns the aggregate world bounds of the file from stored
// metadata only, without loading voxel data.
func ReadBounds(path string) (volume.Box3, error) {
	f, err := Open(path)
	if err != nil {
		return volume.EmptyBox3(), err
	}
	defer f.Close()
	grids, err := f.ReadAllGridMetadata()
	if err != nil {
		return volume.EmptyBox3(), err
	}
	c, err := volume.NewContainer(grids...)
	if err != nil {
		return volume.EmptyBox3(), err
	}
	return c.Bound()
}
