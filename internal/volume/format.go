package volume

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Format reads and writes containers in one on-disk representation.
type Format interface {
	Read(path string) (*Container, error)
	Write(c *Container, path string) error
}

var (
	formatsMu sync.RWMutex
	formats   = map[string]Format{}
)

// RegisterFormat makes f handle paths ending in ext (".vdbc"). A later
// registration for the same extension replaces the earlier one.
func RegisterFormat(ext string, f Format) {
	formatsMu.Lock()
	defer formatsMu.Unlock()
	formats[strings.ToLower(ext)] = f
}

// UnregisterFormat removes the handler for ext.
func UnregisterFormat(ext string) {
	formatsMu.Lock()
	defer formatsMu.Unlock()
	delete(formats, strings.ToLower(ext))
}

// RegisteredFormats lists the registered extensions in sorted order.
func RegisteredFormats() []string {
	formatsMu.RLock()
	defer formatsMu.RUnlock()
	exts := make([]string, 0, len(formats))
	for e := range formats {
		exts = append(exts, e)
	}
	sort.Strings(exts)
	return exts
}

func formatFor(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	formatsMu.RLock()
	f, ok := formats[ext]
	formatsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("extension %q: %w", ext, ErrFormatNotRegistered)
	}
	return f, nil
}

// Open reads the container file at path with the format registered for
// its extension.
func Open(path string) (*Container, error) {
	f, err := formatFor(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	return f.Read(path)
}
