package vdbfile

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"math"
	"strings"

	"github.com/banshee-data/voxelview/internal/volume"
)

// encodeValues compresses a leaf's value buffer using gob encoding and
// gzip compression.
func encodeValues[T volume.Value](vals []T) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(vals); err != nil {
		gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeValues reverses encodeValues.
func decodeValues[T volume.Value](blob []byte) ([]T, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty value blob")
	}
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var vals []T
	if err := gob.NewDecoder(gz).Decode(&vals); err != nil {
		return nil, fmt.Errorf("failed to decode leaf values: %w", err)
	}
	return vals, nil
}

func encodeScalar[T volume.Value](v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeScalar[T volume.Value](blob []byte) (T, error) {
	var v T
	err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&v)
	return v, err
}

const maskBytes = volume.LeafSize / 8

func encodeMask(m [volume.LeafSize / 64]uint64) []byte {
	out := make([]byte, 0, maskBytes)
	for _, w := range m {
		out = binary.LittleEndian.AppendUint64(out, w)
	}
	return out
}

func decodeMask(b []byte) ([volume.LeafSize / 64]uint64, error) {
	var m [volume.LeafSize / 64]uint64
	if len(b) != maskBytes {
		return m, fmt.Errorf("active mask is %d bytes, want %d", len(b), maskBytes)
	}
	for i := range m {
		m[i] = binary.LittleEndian.Uint64(b[i*8:])
	}
	return m, nil
}

func encodeTransform(t volume.Transform) []byte {
	out := make([]byte, 0, 16*8)
	for _, v := range t.Matrix() {
		out = binary.LittleEndian.AppendUint64(out, math.Float64bits(v))
	}
	return out
}

func decodeTransform(b []byte) (volume.Transform, error) {
	if len(b) != 16*8 {
		return volume.Transform{}, fmt.Errorf("transform is %d bytes, want %d", len(b), 16*8)
	}
	var m [16]float64
	for i := range m {
		m[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return volume.NewTransform(m)
}

// opaquePrefix marks stored opaque entries so a type name such as "vec3i"
// is never decoded as the built-in type.
const opaquePrefix = "opaque:"

// encodeMeta returns the stored type name and bytes of one metadata value.
// Opaque values keep their bytes and their type name behind opaquePrefix.
func encodeMeta(v volume.MetaValue) (string, []byte) {
	switch tv := v.(type) {
	case volume.StringMeta:
		return volume.TypeString, []byte(tv)
	case volume.Int64Meta:
		return volume.TypeInt64, binary.LittleEndian.AppendUint64(nil, uint64(tv))
	case volume.BoolMeta:
		if tv {
			return volume.TypeBool, []byte{1}
		}
		return volume.TypeBool, []byte{0}
	case volume.Vec3iMeta:
		b := binary.LittleEndian.AppendUint32(nil, uint32(tv.X))
		b = binary.LittleEndian.AppendUint32(b, uint32(tv.Y))
		return volume.TypeVec3i, binary.LittleEndian.AppendUint32(b, uint32(tv.Z))
	case volume.OpaqueMeta:
		return opaquePrefix + tv.Type, tv.Data
	}
	return v.TypeName(), []byte(v.String())
}

// decodeMeta rebuilds a metadata value. Unknown type names become
// OpaqueMeta so they survive another write.
func decodeMeta(typeName string, b []byte) (volume.MetaValue, error) {
	if t, ok := strings.CutPrefix(typeName, opaquePrefix); ok {
		return volume.OpaqueMeta{Type: t, Data: b}, nil
	}
	switch typeName {
	case volume.TypeString:
		return volume.StringMeta(b), nil
	case volume.TypeInt64:
		if len(b) != 8 {
			return nil, fmt.Errorf("int64 metadata is %d bytes", len(b))
		}
		return volume.Int64Meta(int64(binary.LittleEndian.Uint64(b))), nil
	case volume.TypeBool:
		if len(b) != 1 {
			return nil, fmt.Errorf("bool metadata is %d bytes", len(b))
		}
		return volume.BoolMeta(b[0] != 0), nil
	case volume.TypeVec3i:
		if len(b) != 12 {
			return nil, fmt.Errorf("vec3i metadata is %d bytes", len(b))
		}
		return volume.Vec3iMeta{
			X: int32(binary.LittleEndian.Uint32(b)),
			Y: int32(binary.LittleEndian.Uint32(b[4:])),
			Z: int32(binary.LittleEndian.Uint32(b[8:])),
		}, nil
	}
	return volume.OpaqueMeta{Type: typeName, Data: b}, nil
}
