package vdbfile

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/banshee-data/voxelview/internal/volume"
	_ "modernc.org/sqlite"
)

// File extensions handled by this package.
const (
	Extension      = ".vdbc"
	AliasExtension = ".vdb"
)

// ErrNotInitialized is returned by reads and writes before Initialize.
var ErrNotInitialized = errors.New("vdbfile: Initialize has not been called")

var (
	initMu      sync.Mutex
	initialized bool
)

// Initialize registers the container format with the volume package. It
// must run before any container file is opened or written; repeated calls
// are no-ops.
func Initialize() error {
	initMu.Lock()
	defer initMu.Unlock()
	if initialized {
		return nil
	}
	if !slices.Contains(sql.Drivers(), "sqlite") {
		return fmt.Errorf("vdbfile: sqlite driver not registered")
	}
	volume.RegisterFormat(Extension, containerFormat{})
	volume.RegisterFormat(AliasExtension, containerFormat{})
	initialized = true
	diagf("initialized; formats %v", volume.RegisteredFormats())
	return nil
}

// Uninitialize removes the format registration. Files already open stay
// usable until closed.
func Uninitialize() {
	initMu.Lock()
	defer initMu.Unlock()
	if !initialized {
		return
	}
	volume.UnregisterFormat(Extension)
	volume.UnregisterFormat(AliasExtension)
	initialized = false
	diagf("uninitialized")
}

// IsInitialized reports whether Initialize has run without a matching
// Uninitialize.
func IsInitialized() bool {
	initMu.Lock()
	defer initMu.Unlock()
	return initialized
}

func checkInitialized() error {
	if !IsInitialized() {
		return ErrNotInitialized
	}
	return nil
}

type containerFormat struct{}

func (containerFormat) Read(path string) (*volume.Container, error) {
	return OpenContainer(path)
}

func (containerFormat) Write(c *volume.Container, path string) error {
	return WriteContainer(c, path)
}
