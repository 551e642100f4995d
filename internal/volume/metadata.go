package volume

import (
	"fmt"
	"sort"
)

// Metadata type names as stored in container files.
const (
	TypeString = "string"
	TypeInt64  = "int64"
	TypeBool   = "bool"
	TypeVec3i  = "vec3i"
)

// UnsupportedPrefix starts the exported value of every opaque entry.
const UnsupportedPrefix = "unsupported type: "

// MetaValue is one typed metadata entry.
type MetaValue interface {
	TypeName() string
	String() string
}

type (
	StringMeta string
	Int64Meta  int64
	BoolMeta   bool
	Vec3iMeta  Coord
)

// OpaqueMeta holds a value whose type has no typed representation. The
// raw bytes survive a container round trip unchanged.
type OpaqueMeta struct {
	Type string
	Data []byte
}

func (StringMeta) TypeName() string { return TypeString }
func (Int64Meta) TypeName() string  { return TypeInt64 }
func (BoolMeta) TypeName() string   { return TypeBool }
func (Vec3iMeta) TypeName() string  { return TypeVec3i }
func (o OpaqueMeta) TypeName() string {
	return o.Type
}

func (v StringMeta) String() string { return string(v) }
func (v Int64Meta) String() string  { return fmt.Sprintf("%d", int64(v)) }
func (v BoolMeta) String() string   { return fmt.Sprintf("%t", bool(v)) }
func (v Vec3iMeta) String() string  { return Coord(v).String() }
func (o OpaqueMeta) String() string {
	return UnsupportedPrefix + o.Type
}

// Metadata maps string keys to typed values. The zero value is empty and
// ready to use.
type Metadata struct {
	entries map[string]MetaValue
}

// NewMetadata returns an empty metadata map.
func NewMetadata() *Metadata {
	return &Metadata{entries: make(map[string]MetaValue)}
}

// Set stores v under key, replacing any previous value.
func (m *Metadata) Set(key string, v MetaValue) {
	if m.entries == nil {
		m.entries = make(map[string]MetaValue)
	}
	if o, ok := v.(OpaqueMeta); ok {
		v = OpaqueMeta{Type: o.Type, Data: append([]byte(nil), o.Data...)}
	}
	m.entries[key] = v
}

func (m *Metadata) SetString(key, v string)      { m.Set(key, StringMeta(v)) }
func (m *Metadata) SetInt64(key string, v int64) { m.Set(key, Int64Meta(v)) }
func (m *Metadata) SetBool(key string, v bool)   { m.Set(key, BoolMeta(v)) }
func (m *Metadata) SetVec3i(key string, v Coord) { m.Set(key, Vec3iMeta(v)) }

// SetOpaque stores raw bytes under an arbitrary type name.
func (m *Metadata) SetOpaque(key, typeName string, data []byte) {
	m.Set(key, OpaqueMeta{Type: typeName, Data: data})
}

// Get returns the value stored under key.
func (m *Metadata) Get(key string) (MetaValue, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.entries[key]
	return v, ok
}

// String returns the string value under key. It reports false when the
// key is absent or holds another type.
func (m *Metadata) String(key string) (string, bool) {
	v, ok := m.Get(key)
	s, ok2 := v.(StringMeta)
	return string(s), ok && ok2
}

func (m *Metadata) Int64(key string) (int64, bool) {
	v, ok := m.Get(key)
	i, ok2 := v.(Int64Meta)
	return int64(i), ok && ok2
}

func (m *Metadata) Bool(key string) (bool, bool) {
	v, ok := m.Get(key)
	b, ok2 := v.(BoolMeta)
	return bool(b), ok && ok2
}

func (m *Metadata) Vec3i(key string) (Coord, bool) {
	v, ok := m.Get(key)
	c, ok2 := v.(Vec3iMeta)
	return Coord(c), ok && ok2
}

// Remove deletes key. Removing an absent key is a no-op.
func (m *Metadata) Remove(key string) {
	if m == nil {
		return
	}
	delete(m.entries, key)
}

// Len returns the number of entries.
func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Keys returns every key in sorted order.
func (m *Metadata) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy.
func (m *Metadata) Clone() *Metadata {
	c := NewMetadata()
	if m == nil {
		return c
	}
	for k, v := range m.entries {
		c.Set(k, v)
	}
	return c
}

// Merge copies every entry of o into m, overwriting existing keys.
func (m *Metadata) Merge(o *Metadata) {
	for _, k := range o.Keys() {
		v, _ := o.Get(k)
		m.Set(k, v)
	}
}

// Values exports the typed view of every entry. Strings, int64s and bools
// map to their Go types, vec3i to [3]int32, and any other type to the
// string "unsupported type: <typeName>" so the key is never lost.
func (m *Metadata) Values() map[string]interface{} {
	out := make(map[string]interface{}, m.Len())
	if m == nil {
		return out
	}
	for k, v := range m.entries {
		switch tv := v.(type) {
		case StringMeta:
			out[k] = string(tv)
		case Int64Meta:
			out[k] = int64(tv)
		case BoolMeta:
			out[k] = bool(tv)
		case Vec3iMeta:
			out[k] = [3]int32{tv.X, tv.Y, tv.Z}
		default:
			out[k] = UnsupportedPrefix + v.TypeName()
		}
	}
	return out
}
